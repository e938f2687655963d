// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/session"
	"github.com/pdiddy/metasearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search every broker target and print the merged results",
	Long: `Search sends a query to the broker and follows it until every target has
answered. The merged records are then filtered, sorted and paged locally.

Filters take the form type=term, e.g. --filter medium=book or
--filter xtargets=z3950.loc.gov:7090/voyager. Several filters of the same
type match any of their terms; filters of different types must all match.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("title", "", "search the title index")
	searchCmd.Flags().String("author", "", "search the author index")
	searchCmd.Flags().String("subject", "", "search the subject index")
	searchCmd.Flags().StringSlice("keywords", nil, "subject keywords (comma-separated)")
	searchCmd.Flags().Int("from-year", 0, "restrict the broker query to works from this year")
	searchCmd.Flags().Int("to-year", 0, "restrict the broker query to works up to this year")

	searchCmd.Flags().StringArray("filter", nil, "facet filter type=term (repeatable)")
	searchCmd.Flags().String("years", "", "local date filter FROM-TO, end exclusive")
	searchCmd.Flags().String("sort", "", "sort specification, e.g. date:desc,title:asc")
	searchCmd.Flags().Int("page", 1, "page to print")
	searchCmd.Flags().Int("per-page", 0, "records per page (default from config)")
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml, csl or a converter format")
	searchCmd.Flags().Bool("facets", false, "print facet term counts after the results")
	searchCmd.Flags().String("save", "", "save the results to a snapshot file")
	searchCmd.Flags().Duration("timeout", 2*time.Minute, "give up following the search after this long")

	rootCmd.AddCommand(searchCmd)
}

func queryFromFlags(cmd *cobra.Command, args []string) query.Query {
	q := query.Query{FreeText: strings.Join(args, " ")}
	q.Title, _ = cmd.Flags().GetString("title")
	q.Author, _ = cmd.Flags().GetString("author")
	q.Subject, _ = cmd.Flags().GetString("subject")
	q.Keywords, _ = cmd.Flags().GetStringSlice("keywords")
	q.YearFrom, _ = cmd.Flags().GetInt("from-year")
	q.YearTo, _ = cmd.Flags().GetInt("to-year")
	return q
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := queryFromFlags(cmd, args)
	if q.IsEmpty() {
		return fmt.Errorf("provide search terms or one of --title, --author, --subject, --keywords")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	st, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := newSession(st)
	if err != nil {
		return err
	}
	defer sess.Close()

	start := time.Now()
	gen, err := sess.Search(ctx, q)
	if err != nil {
		return fmt.Errorf("starting search: %w", err)
	}
	if err := sess.Follow(ctx, gen); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("following search: %w", err)
		}
		log.Warn("search still running, printing partial results", zap.Duration("timeout", timeout))
	}
	log.Info("search complete",
		zap.String("query", sess.Query()),
		zap.Duration("elapsed", time.Since(start)))

	if err := applyViewFlags(cmd, sess); err != nil {
		return err
	}
	if sess.ServerPaged() {
		if err := sess.Refresh(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	snap := sess.Snapshot()
	reportTargets(snap)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		sf := export.SnapshotFile{
			Query:   q,
			View:    snap.View,
			Records: sess.Display(),
			Summary: export.Summary{Hits: snap.Stat.Hits, Targets: snap.Targets},
		}
		if err := export.WriteSnapshot(path, sf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d records to %s\n", len(sf.Records), path)
	}

	format, _ := cmd.Flags().GetString("format")
	if err := printRecords(cmd.Context(), os.Stdout, format, snap, q.Terms()); err != nil {
		return err
	}
	if showFacets, _ := cmd.Flags().GetBool("facets"); showFacets && format == formatTable {
		printFacets(os.Stdout, snap.Facets)
	}
	return nil
}

// applyViewFlags applies the local filter, sort and paging flags.
func applyViewFlags(cmd *cobra.Command, sess *session.Session) error {
	filters, _ := cmd.Flags().GetStringArray("filter")
	for _, f := range filters {
		facetType, v, err := parseFilter(f)
		if err != nil {
			return err
		}
		sess.AddFilter(facetType, v)
	}

	if years, _ := cmd.Flags().GetString("years"); years != "" {
		from, to, err := parseYears(years)
		if err != nil {
			return err
		}
		sess.SetDateRange(from, to)
	}

	if spec, _ := cmd.Flags().GetString("sort"); spec != "" {
		c, err := order.Parse(spec)
		if err != nil {
			return err
		}
		sess.SetSort(c)
	}

	if n, _ := cmd.Flags().GetInt("per-page"); n > 0 {
		sess.SetPerPage(n)
	}
	if n, _ := cmd.Flags().GetInt("page"); n > 1 {
		sess.SetPage(n)
	}
	return nil
}

// parseFilter reads a type=term filter. The date facet also accepts a
// FROM-TO year range.
func parseFilter(s string) (string, filter.Value, error) {
	facetType, term, ok := strings.Cut(s, "=")
	facetType = strings.TrimSpace(facetType)
	term = strings.TrimSpace(term)
	if !ok || facetType == "" || term == "" {
		return "", filter.Value{}, fmt.Errorf("invalid filter %q: want type=term", s)
	}
	if facetType == types.FacetDate && strings.Contains(term, "-") {
		from, to, err := parseYears(term)
		if err != nil {
			return "", filter.Value{}, err
		}
		return facetType, filter.Years(from, to), nil
	}
	return facetType, filter.Term(term), nil
}

func parseYears(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid year range %q: want FROM-TO", s)
	}
	from, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year range %q: %w", s, err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year range %q: %w", s, err)
	}
	if to <= from {
		return 0, 0, fmt.Errorf("invalid year range %q: end must be after start", s)
	}
	return from, to, nil
}

// reportTargets prints target problems to stderr.
func reportTargets(snap session.Snapshot) {
	for _, t := range snap.Targets {
		if t.State == types.TargetError {
			fmt.Fprintf(os.Stderr, "Target %s failed (diagnostic %d)\n", targetLabel(t), t.Diagnostic)
		}
	}
	for _, t := range snap.Overflowing {
		fmt.Fprintf(os.Stderr, "Target %s has %d more hits than were loaded\n", targetLabel(t), *t.Hits-t.Records)
	}
}

func targetLabel(t types.TargetStatus) string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
