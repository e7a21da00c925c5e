package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ftsengine/ftsengine"
)

func newPutCmd() *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "put <index> <doc-id> [json-fields]",
		Short: "Insert or replace a document. Fields are read as a JSON object from the argument, a file, or stdin",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])
			id := ftsengine.DocumentId(args[1])

			raw, err := readFieldsJSON(args, fromFile)
			if err != nil {
				return err
			}
			var fields map[string]ftsengine.FieldValue
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("parse document fields: %w", err)
			}

			ctx := cmd.Context()
			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}

			if err := eng.Put(ftsengine.Document{ID: id, Index: index, Fields: fields}); err != nil {
				return err
			}
			if err := persist(ctx, eng, index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "put %s/%s\n", index, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFile, "file", "", "Read the document's JSON fields from this file instead of the argument")
	return cmd
}

func readFieldsJSON(args []string, fromFile string) ([]byte, error) {
	if fromFile != "" {
		return os.ReadFile(fromFile)
	}
	if len(args) == 3 {
		return []byte(args[2]), nil
	}
	return io.ReadAll(os.Stdin)
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <index> <doc-id>",
		Short: "Fetch one document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])
			id := ftsengine.DocumentId(args[1])

			ctx := cmd.Context()
			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}

			d, ok, err := eng.Get(index, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("document %s/%s not found", index, id)
			}
			return printJSON(cmd.OutOrStdout(), d.Fields)
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index> <doc-id>",
		Short: "Delete one document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])
			id := ftsengine.DocumentId(args[1])

			ctx := cmd.Context()
			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}

			deleted, err := eng.Delete(index, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("document %s/%s not found", index, id)
			}
			if err := persist(ctx, eng, index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", index, id)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
