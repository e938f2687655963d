// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/pkg/types"
)

var clipboardCmd = &cobra.Command{
	Use:   "clipboard",
	Short: "Manage the persistent record clipboard",
	Long: `Clipboard keeps copies of records across searches. Items are independent
of the live result set once added and are stored in the configured storage
backend.`,
}

// --- list subcommand ---

var clipboardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clipboard items, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.clipboard.Items(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			if items == nil {
				items = []types.ClipboardItem{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		printClipboard(os.Stdout, items)
		return nil
	},
}

// --- add subcommand ---

var clipboardAddCmd = &cobra.Command{
	Use:   "add [ids...]",
	Short: "Copy records from a saved search into the clipboard",
	Long: `Add copies records from a snapshot written by search --save. With no IDs
every record of the snapshot is added.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("from")
		sf, err := export.ReadSnapshot(path)
		if err != nil {
			return err
		}
		recs, err := pickRecords(sf.Records, args)
		if err != nil {
			return err
		}

		st, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		added, err := st.clipboard.Add(cmd.Context(), recs...)
		if err != nil {
			return err
		}
		fmt.Printf("Added %d of %d records\n", added, len(recs))
		return nil
	},
}

// pickRecords returns the records of recs named by ids, in ids order, or
// all of recs when ids is empty.
func pickRecords(recs []types.Record, ids []string) ([]types.Record, error) {
	if len(ids) == 0 {
		return recs, nil
	}
	byID := make(map[string]types.Record, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	out := make([]types.Record, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("record %q not in snapshot", id)
		}
		out = append(out, r)
	}
	return out, nil
}

// --- remove subcommand ---

var clipboardRemoveCmd = &cobra.Command{
	Use:   "remove <ids...>",
	Short: "Remove items from the clipboard",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		removed, err := st.clipboard.Remove(cmd.Context(), args...)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d items\n", removed)
		return nil
	},
}

// --- clear subcommand ---

var clipboardClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every clipboard item",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		return st.clipboard.Clear(cmd.Context())
	},
}

// --- export subcommand ---

var clipboardExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export clipboard records as JSON, YAML, CSL or a converter format",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		st, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.clipboard.Items(cmd.Context())
		if err != nil {
			return err
		}
		recs := make([]types.Record, len(items))
		for i, it := range items {
			recs[i] = it.Record
		}

		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}
		if err := export.Write(cmd.Context(), w, format, recs, newConverter()); err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(recs), output)
		}
		return nil
	},
}

func init() {
	clipboardListCmd.Flags().Bool("json", false, "output items as JSON")
	clipboardAddCmd.Flags().String("from", "", "snapshot file written by search --save")
	_ = clipboardAddCmd.MarkFlagRequired("from")
	clipboardExportCmd.Flags().String("format", "csl", "export format: json, yaml, csl or a converter format")
	clipboardExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	clipboardCmd.AddCommand(clipboardListCmd)
	clipboardCmd.AddCommand(clipboardAddCmd)
	clipboardCmd.AddCommand(clipboardRemoveCmd)
	clipboardCmd.AddCommand(clipboardClearCmd)
	clipboardCmd.AddCommand(clipboardExportCmd)

	rootCmd.AddCommand(clipboardCmd)
}
