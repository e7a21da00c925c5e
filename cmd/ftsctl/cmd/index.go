package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftsengine/ftsengine"
)

func newCreateIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-index <name>",
		Short: "Create a new, empty index and snapshot it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])
			ctx := cmd.Context()

			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}
			if err := persist(ctx, eng, index); err != nil {
				return err
			}
			if err := rememberIndex(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created index %q\n", index)
			return nil
		},
	}
}

func newListIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-indexes",
		Short: "List every index ftsctl has created under --data-dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := loadKnownIndexes()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
