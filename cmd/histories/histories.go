// Package histories implements the identification history fetch command.
package histories

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/misid-go/internal/conf"
	"github.com/tphakala/misid-go/internal/confusion"
	"github.com/tphakala/misid-go/internal/errors"
	"github.com/tphakala/misid-go/internal/export"
	"github.com/tphakala/misid-go/internal/inat"
)

// Command creates the histories command
func Command(settings *conf.Settings) *cobra.Command {
	var countOverride int
	var startPage int

	historiesCmd := &cobra.Command{
		Use:   "histories <taxon>",
		Short: "Fetch the identification histories of a taxon's research-grade observations",
		Long: `Fetch every identified, research-grade observation of the given taxon
(scientific name or numeric ID) page by page, honoring the configured
request spacing, and emit the ordered taxon-name sequence each
observation accumulated over its identification lifecycle.`,
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

			observations, err := client.FetchObservations(ctx, taxonID, inat.FetchOptions{
				TotalCount: countOverride,
				StartPage:  startPage,
			})
			if err != nil {
				var fetchErr *inat.FetchError
				if errors.As(err, &fetchErr) {
					fmt.Fprintf(os.Stderr, "fetch aborted on page %d, resume with --start-page %d\n", fetchErr.Page+1, fetchErr.Page)
				}
				return err
			}

			result := confusion.ExtractHistories(observations)

			if settings.Output.Path != "" {
				if err := export.Write(settings.Output.Path, settings.Output.Format, result); err != nil {
					return err
				}
				fmt.Printf("Wrote %d identification histories to %s\n", len(result), settings.Output.Path)
				return nil
			}

			switch settings.Output.Format {
			case "json":
				return export.EncodeJSON(os.Stdout, result)
			case "yaml":
				return export.EncodeYAML(os.Stdout, result)
			}
			fmt.Println(export.HistoriesTable(result))
			return nil
		},
	}

	historiesCmd.Flags().IntVar(&countOverride, "count", 0, "Number of observations to retrieve, 0 fetches all")
	historiesCmd.Flags().IntVar(&startPage, "start-page", 0, "Zero-based page index to resume an aborted fetch from")

	return historiesCmd
}

// resolveArg accepts either a numeric taxon ID or a scientific name.
func resolveArg(cmd *cobra.Command, client *inat.Client, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return id, nil
	}
	return client.ResolveID(cmd.Context(), arg)
}
