// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/internal/session"
)

var showCmd = &cobra.Command{
	Use:   "show <snapshot>",
	Short: "Print a saved search without asking the broker again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := export.ReadSnapshot(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		fmt.Fprintf(os.Stderr, "%s, saved %s\n", sf.Query, sf.Summary.Timestamp.Local().Format("2006-01-02 15:04"))
		snap := session.Snapshot{
			Query:     sf.Query.CCL(),
			View:      sf.View,
			Records:   sf.Records,
			Total:     len(sf.Records),
			PageCount: 1,
		}
		snap.Stat.Hits = sf.Summary.Hits
		snap.View.Page = 1
		snap.View.RecordsPerPage = max(len(sf.Records), 1)
		return printRecords(cmd.Context(), os.Stdout, format, snap, sf.Query.Terms())
	},
}

func init() {
	showCmd.Flags().String("format", formatTable, "output format: table, json, yaml, csl or a converter format")
	rootCmd.AddCommand(showCmd)
}
