// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package view derives the displayed record lists from a source list and
// a view's filter, sort and paging state.
package view

import (
	"fmt"

	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/pkg/types"
)

// Kind names a presentation context.
type Kind string

const (
	// Query presents the live results of the current query.
	Query Kind = "query"
	// Clipboard presents the saved clipboard items.
	Clipboard Kind = "clipboard"
)

// ParseKind validates a view name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Query, Clipboard:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown view %q: want %q or %q", s, Query, Clipboard)
	}
}

// View is the filter, sort and paging state of one presentation context.
type View struct {
	Kind           Kind           `json:"kind" yaml:"kind"`
	Filters        filter.Set     `json:"filters" yaml:"filters"`
	Sort           order.Criteria `json:"sort" yaml:"sort"`
	Page           int            `json:"page" yaml:"page"`
	RecordsPerPage int            `json:"records_per_page" yaml:"records_per_page"`
	QueryTerms     []string       `json:"query_terms,omitempty" yaml:"query_terms,omitempty"`
}

// New returns a view on page 1 with no filters.
func New(kind Kind, sort order.Criteria, perPage int) *View {
	return &View{
		Kind:           kind,
		Filters:        filter.Set{},
		Sort:           sort,
		Page:           1,
		RecordsPerPage: perPage,
	}
}

// Reset clears filters and returns to page 1.
func (v *View) Reset() {
	v.Filters = filter.Set{}
	v.Page = 1
}

// Projector runs the filter and sort engines over a source list.
type Projector struct {
	engine *filter.Engine
}

// NewProjector returns a projector classifying records with engine.
func NewProjector(engine *filter.Engine) *Projector {
	return &Projector{engine: engine}
}

// Project returns the records to display, sorted by the view's criteria,
// and the unsorted population the date histogram is computed from: the
// displayed records plus those excluded only by the date filter.
func (p *Projector) Project(source []*types.Record, v *View) (display, dateInclusive []*types.Record) {
	display = make([]*types.Record, 0, len(source))
	dateInclusive = make([]*types.Record, 0, len(source))
	for _, rec := range source {
		switch p.engine.Classify(rec, v.Filters) {
		case filter.Match:
			display = append(display, rec)
			dateInclusive = append(dateInclusive, rec)
		case filter.MatchExceptDate:
			dateInclusive = append(dateInclusive, rec)
		}
	}
	order.Sort(display, v.Sort)
	return display, dateInclusive
}

// PageCount returns the number of pages needed for n records.
func (v *View) PageCount(n int) int {
	if v.RecordsPerPage <= 0 || n == 0 {
		return 1
	}
	return (n + v.RecordsPerPage - 1) / v.RecordsPerPage
}

// ClampPage moves the page into [1, PageCount(n)].
func (v *View) ClampPage(n int) {
	if last := v.PageCount(n); v.Page > last {
		v.Page = last
	}
	if v.Page < 1 {
		v.Page = 1
	}
}

// PageSlice returns the records on the view's current page.
func (v *View) PageSlice(list []*types.Record) []*types.Record {
	if v.RecordsPerPage <= 0 {
		return list
	}
	start := (v.Page - 1) * v.RecordsPerPage
	if start < 0 || start >= len(list) {
		return nil
	}
	end := min(start+v.RecordsPerPage, len(list))
	return list[start:end]
}

// Offset returns the index of the first record on the current page.
func (v *View) Offset() int {
	if v.Page < 1 {
		return 0
	}
	return (v.Page - 1) * v.RecordsPerPage
}
