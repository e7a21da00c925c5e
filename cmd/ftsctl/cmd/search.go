package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftsengine/ftsengine"
	"github.com/ftsengine/ftsengine/internal/query"
)

func newSearchCmd() *cobra.Command {
	var (
		queryJSON string
		from      int
		size      int
	)
	cmd := &cobra.Command{
		Use:   "search <index> [text]",
		Short: "Run a query against an index. A plain text argument becomes a whole-document match; --query-json accepts the full query DSL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])

			node, err := searchNode(args, queryJSON)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}

			resp, err := eng.Search(ctx, index, node, ftsengine.SearchOptions{From: from, Size: size})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&queryJSON, "query-json", "", `Full query DSL as JSON, e.g. {"match":{"field":"title","value":"dune"}}`)
	cmd.Flags().IntVar(&from, "from", 0, "Pagination offset")
	cmd.Flags().IntVar(&size, "size", 10, "Page size")
	return cmd
}

func searchNode(args []string, queryJSON string) (query.Node, error) {
	if queryJSON != "" {
		var raw any
		if err := json.Unmarshal([]byte(queryJSON), &raw); err != nil {
			return nil, fmt.Errorf("parse --query-json: %w", err)
		}
		return query.Parse(raw)
	}
	if len(args) < 2 {
		return query.MatchAll{}, nil
	}
	return query.Parse(args[1])
}
