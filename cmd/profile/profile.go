// Package profile implements the confusion profile command.
package profile

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/misid-go/internal/conf"
	"github.com/tphakala/misid-go/internal/confusion"
	"github.com/tphakala/misid-go/internal/export"
	"github.com/tphakala/misid-go/internal/inat"
)

// Command creates the profile command
func Command(settings *conf.Settings) *cobra.Command {
	var countOverride int

	profileCmd := &cobra.Command{
		Use:   "profile <taxon>",
		Short: "Build a taxon confusion profile",
		Long: `Build a per-taxon confusion profile: how often other taxa are
implicated alongside the focal taxon. The histories source aggregates
identification histories fetched observation by observation; the
similar source passes through the aggregation the API computes
server-side from all identifications.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := inat.NewClient(inat.ConfigFromSettings(settings))
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			taxonID, err := resolveArg(cmd, client, args[0])
			if err != nil {
				return err
			}

			var result *confusion.Profile
			switch settings.Confusion.Source {
			case "similar":
				counts, err := client.SimilarSpecies(ctx, taxonID)
				if err != nil {
					return err
				}
				result = confusion.FromSimilarSpecies(taxonID, counts)
			default:
				observations, err := client.FetchObservations(ctx, taxonID, inat.FetchOptions{
					TotalCount: countOverride,
				})
				if err != nil {
					return err
				}
				result = confusion.FromHistories(taxonID,
					confusion.ExtractHistories(observations),
					confusion.Mode(settings.Confusion.Mode))
			}

			if settings.Output.Path != "" {
				if err := export.Write(settings.Output.Path, settings.Output.Format, result); err != nil {
					return err
				}
				fmt.Printf("Wrote confusion profile with %d entries to %s\n", len(result.Entries), settings.Output.Path)
				return nil
			}

			switch settings.Output.Format {
			case "json":
				return export.EncodeJSON(os.Stdout, result)
			case "yaml":
				return export.EncodeYAML(os.Stdout, result)
			}
			fmt.Println(export.ProfileTable(result))
			return nil
		},
	}

	profileCmd.Flags().IntVar(&countOverride, "count", 0, "Number of observations to aggregate, 0 fetches all")
	profileCmd.Flags().StringVar(&settings.Confusion.Source, "source", settings.Confusion.Source, "Confusion signal: histories or similar")
	profileCmd.Flags().StringVar(&settings.Confusion.Mode, "mode", settings.Confusion.Mode, "History aggregation mode: full-chain or final-only")

	return profileCmd
}

// resolveArg accepts either a numeric taxon ID or a scientific name.
func resolveArg(cmd *cobra.Command, client *inat.Client, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return id, nil
	}
	return client.ResolveID(cmd.Context(), arg)
}
