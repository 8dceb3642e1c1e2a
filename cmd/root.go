package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/misid-go/cmd/histories"
	"github.com/tphakala/misid-go/cmd/profile"
	"github.com/tphakala/misid-go/cmd/resolve"
	"github.com/tphakala/misid-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "misid",
		Short: "Taxon confusion profiles from iNaturalist identification histories",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		resolve.Command(settings),
		histories.Command(settings),
		profile.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().DurationVar(&settings.INat.Delay, "delay", settings.INat.Delay, "Spacing between API requests, 1s minimum per the API terms of use")
	rootCmd.PersistentFlags().IntVar(&settings.INat.PageSize, "page-size", settings.INat.PageSize, "Observations per page, 200 maximum")
	rootCmd.PersistentFlags().StringVarP(&settings.Output.Path, "output", "o", settings.Output.Path, "Output file path, empty prints to stdout")
	rootCmd.PersistentFlags().StringVar(&settings.Output.Format, "format", settings.Output.Format, "Output format: table, json or yaml")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
