// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent queries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if clearAll, _ := cmd.Flags().GetBool("clear"); clearAll {
			return st.history.Clear(cmd.Context())
		}

		entries, err := st.history.Entries(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No searches yet.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-16s  %s\n", "When", "Query")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
		for _, e := range entries {
			fmt.Fprintf(os.Stdout, "%-16s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Query)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("clear", false, "forget every stored query")
	rootCmd.AddCommand(historyCmd)
}
