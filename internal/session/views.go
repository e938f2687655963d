// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"slices"

	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

// mutate applies f to the active view, returns to page 1 when reset is
// set, and recomputes the derived lists.
func (s *Session) mutate(reset bool, f func(v *view.View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.views[s.active]
	f(v)
	if reset {
		v.Page = 1
	}
	s.recompute()
}

// AddFilter adds value to the filters of facetType.
func (s *Session) AddFilter(facetType string, value filter.Value) {
	s.mutate(true, func(v *view.View) { v.Filters.Add(facetType, value) })
}

// RemoveFilter removes value from the filters of facetType.
func (s *Session) RemoveFilter(facetType string, value filter.Value) {
	s.mutate(true, func(v *view.View) { v.Filters.Remove(facetType, value) })
}

// SetFilter replaces the filters of facetType. An empty list removes them.
func (s *Session) SetFilter(facetType string, values []filter.Value) {
	s.mutate(true, func(v *view.View) {
		delete(v.Filters, facetType)
		for _, val := range values {
			v.Filters.Add(facetType, val)
		}
	})
}

// ClearFilters removes every filter of the active view.
func (s *Session) ClearFilters() {
	s.mutate(true, func(v *view.View) { v.Filters = filter.Set{} })
}

// SetDateRange filters the date facet to [from, to). A range with
// to <= from removes the date filter.
func (s *Session) SetDateRange(from, to int) {
	s.mutate(true, func(v *view.View) {
		delete(v.Filters, types.FacetDate)
		if to > from {
			v.Filters.Add(types.FacetDate, filter.Years(from, to))
		}
	})
}

// SetSort replaces the sort criteria of the active view.
func (s *Session) SetSort(c order.Criteria) {
	s.mutate(true, func(v *view.View) { v.Sort = slices.Clone(c) })
}

// SetPage moves the active view to page n, clamped to the result count.
func (s *Session) SetPage(n int) {
	s.mutate(false, func(v *view.View) { v.Page = n })
}

// SetPerPage changes the page size of the active view.
func (s *Session) SetPerPage(n int) {
	if n <= 0 {
		return
	}
	s.mutate(true, func(v *view.View) { v.RecordsPerPage = n })
}

// SwitchView makes kind the active view. Each view keeps its own filters,
// sort and page.
func (s *Session) SwitchView(kind view.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[kind]; !ok || kind == s.active {
		return
	}
	s.active = kind
	s.recompute()
}

// ActiveView returns a copy of the active view.
func (s *Session) ActiveView() view.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewCopy()
}

// viewCopy must be called with mu held.
func (s *Session) viewCopy() view.View {
	v := *s.views[s.active]
	v.Filters = v.Filters.Clone()
	v.Sort = slices.Clone(v.Sort)
	v.QueryTerms = slices.Clone(v.QueryTerms)
	return v
}
