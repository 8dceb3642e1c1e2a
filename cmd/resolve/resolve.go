// Package resolve implements the name/ID resolution command.
package resolve

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/misid-go/internal/conf"
	"github.com/tphakala/misid-go/internal/inat"
)

// Command creates the resolve command
func Command(settings *conf.Settings) *cobra.Command {
	var reverse bool
	var showCounts bool

	resolveCmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve scientific names to taxon IDs, or IDs back to names",
		Long: `Resolve scientific names to iNaturalist taxon IDs using the taxon
search endpoint. The first search result is taken as authoritative, so
ambiguous or misspelled names resolve to a best guess. With --reverse,
numeric taxon IDs are resolved back to their scientific names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := inat.NewClient(inat.ConfigFromSettings(settings))
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if reverse {
				ids := make([]int64, 0, len(args))
				for _, arg := range args {
					id, err := strconv.ParseInt(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid taxon ID %q: %w", arg, err)
					}
					ids = append(ids, id)
				}

				names, err := client.ResolveNames(ctx, ids)
				if err != nil {
					return err
				}
				for i, name := range names {
					fmt.Printf("%d\t%s\n", ids[i], name)
				}
				return nil
			}

			for _, name := range args {
				taxonID, err := client.ResolveID(ctx, name)
				if err != nil {
					return err
				}
				if showCounts {
					count, err := client.ObservationCount(ctx, taxonID)
					if err != nil {
						return err
					}
					fmt.Printf("%s\t%d\t%d observations\n", name, taxonID, count)
				} else {
					fmt.Printf("%s\t%d\n", name, taxonID)
				}
			}
			return nil
		},
	}

	resolveCmd.Flags().BoolVar(&reverse, "reverse", false, "Treat arguments as taxon IDs and resolve them to names")
	resolveCmd.Flags().BoolVar(&showCounts, "counts", false, "Also print the observation count of each taxon")

	return resolveCmd
}
