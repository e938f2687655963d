// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/internal/facet"
	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/session"
	"github.com/pdiddy/metasearch/pkg/types"
)

const formatTable = "table"

// printRecords writes the current page of snap in format. The table format
// marks query terms in titles with asterisks.
func printRecords(ctx context.Context, w io.Writer, format string, snap session.Snapshot, terms []string) error {
	if format != formatTable {
		return export.Write(ctx, w, format, snap.Records, newConverter())
	}

	if len(snap.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-25s  %-6s  %-10s  %s\n",
		"#", "Title", "Author", "Year", "Medium", "Targets")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	offset := (snap.View.Page - 1) * snap.View.RecordsPerPage
	for i := range snap.Records {
		r := &snap.Records[i]
		title := query.Highlight(truncate(r.Title(), 50), terms, "*", "*")
		fmt.Fprintf(w, "%-4d  %-50s  %-25s  %-6s  %-10s  %d\n",
			offset+i+1,
			title,
			truncate(strings.Join(r.Authors(), "; "), 25),
			truncate(r.Date(), 6),
			truncate(strings.Join(r.Media(), ","), 10),
			len(r.Locations))
	}

	fmt.Fprintf(w, "\nPage %d of %d, %d records", snap.View.Page, max(snap.PageCount, 1), snap.Total)
	if snap.Stat.Hits > 0 {
		fmt.Fprintf(w, " (%d hits)", snap.Stat.Hits)
	}
	fmt.Fprintln(w)
	return nil
}

// printFacets writes the visible facets as term counts.
func printFacets(w io.Writer, results []facet.Result) {
	for _, res := range results {
		if !res.Visible {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", facetLabel(res.Type))
		for _, t := range res.Terms {
			fmt.Fprintf(w, "  %-40s %d\n", truncate(t.Name, 40), t.Frequency)
		}
	}
}

func facetLabel(facetType string) string {
	switch facetType {
	case types.FacetTargets:
		return "Sources"
	case types.FacetDate:
		return "Year"
	case "":
		return ""
	}
	return strings.ToUpper(facetType[:1]) + facetType[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printClipboard writes clipboard items as a table.
func printClipboard(w io.Writer, items []types.ClipboardItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Clipboard is empty.")
		return
	}
	fmt.Fprintf(w, "%-20s  %-50s  %-25s  %s\n", "ID", "Title", "Author", "Added")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i := range items {
		r := &items[i].Record
		fmt.Fprintf(w, "%-20s  %-50s  %-25s  %s\n",
			truncate(r.ID, 20),
			truncate(r.Title(), 50),
			truncate(strings.Join(r.Authors(), "; "), 25),
			items[i].TimeAdded.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d items\n", len(items))
}
