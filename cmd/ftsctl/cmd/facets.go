package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ftsengine/ftsengine"
)

func newFacetsCmd() *cobra.Command {
	var (
		queryJSON   string
		size        int
		minDocCount int
	)
	cmd := &cobra.Command{
		Use:   "facets <index> <field> [text]",
		Short: "Compute a terms aggregation over field, scoped to an optional query",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])
			field := args[1]

			nodeArgs := []string{args[0]}
			if len(args) == 3 {
				nodeArgs = append(nodeArgs, args[2])
			}
			node, err := searchNode(nodeArgs, queryJSON)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}

			buckets, err := eng.Facets(ctx, index, node, ftsengine.FacetRequest{
				Field:       field,
				Size:        size,
				MinDocCount: minDocCount,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), buckets)
		},
	}
	cmd.Flags().StringVar(&queryJSON, "query-json", "", "Full query DSL as JSON scoping which documents are aggregated")
	cmd.Flags().IntVar(&size, "size", 10, "Maximum number of buckets")
	cmd.Flags().IntVar(&minDocCount, "min-doc-count", 0, "Drop buckets with fewer than this many documents")
	return cmd
}
