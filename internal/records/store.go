// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records holds the canonical set of records retrieved for the
// active query. Batches from the broker are merged by record ID: a
// re-delivered record replaces the stored one but keeps its UI state, so
// merging the same batch twice converges to the same store.
package records

import (
	"errors"
	"slices"
	"strconv"

	"github.com/pdiddy/metasearch/pkg/types"
)

const (
	// DefaultMedium is assigned to records that carry no medium.
	DefaultMedium = "other"

	// UnknownLanguage is the sentinel language code for records without one.
	UnknownLanguage = "zzz"
)

// ErrNotFound is returned when a record ID is not in the store.
var ErrNotFound = errors.New("record not found")

// Options controls record normalization.
type Options struct {
	// SelfComputedFacets enables the medium and language defaults that
	// locally computed facets rely on.
	SelfComputedFacets bool
}

// Store holds records keyed by ID in first-seen order. It is not safe for
// concurrent use; the session serializes access.
type Store struct {
	opts  Options
	byID  map[string]*types.Record
	order []string
}

// NewStore returns an empty store.
func NewStore(opts Options) *Store {
	return &Store{opts: opts, byID: make(map[string]*types.Record)}
}

// MergeSummary counts the outcome of one Merge call.
type MergeSummary struct {
	Added   int
	Updated int
	Skipped int
}

// Merge inserts or replaces each record of batch. Records without an ID
// are skipped.
func (s *Store) Merge(batch []types.Record) MergeSummary {
	var summary MergeSummary
	for i := range batch {
		raw := batch[i]
		if raw.ID == "" {
			summary.Skipped++
			continue
		}

		rec := raw.Clone(true)
		if old, ok := s.byID[rec.ID]; ok {
			rec.UI.DetailsVisible = old.UI.DetailsVisible
			// A changed location count invalidates the cached detail rendering.
			if len(old.Locations) == len(rec.Locations) {
				rec.UI.Detail = old.UI.Detail
			}
			summary.Updated++
		} else {
			s.order = append(s.order, rec.ID)
			summary.Added++
		}

		sortLocations(rec.Locations)
		s.normalize(&rec)
		s.byID[rec.ID] = &rec
	}
	return summary
}

func (s *Store) normalize(rec *types.Record) {
	if rec.Fields == nil {
		rec.Fields = types.Fields{}
	}
	if s.opts.SelfComputedFacets {
		if !rec.Fields.Has(types.FieldMedium) {
			rec.Fields[types.FieldMedium] = []string{DefaultMedium}
		}
		if !rec.Fields.Has(types.FieldLanguage) {
			rec.Fields[types.FieldLanguage] = []string{UnknownLanguage}
		}
	}
	if !rec.Fields.Has(types.FieldTitle) && rec.Fields.Has(types.FieldSeriesTitle) {
		rec.Fields[types.FieldTitle] = []string{rec.Fields.First(types.FieldSeriesTitle)}
	}
	rec.FilterDate = FilterDates(rec)
}

// Get returns the record stored under id.
func (s *Store) Get(id string) (*types.Record, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Len returns the number of stored records.
func (s *Store) Len() int { return len(s.order) }

// Records returns the stored records in first-seen order. The records are
// shared with the store; callers must not modify them.
func (s *Store) Records() []*types.Record {
	out := make([]*types.Record, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// SetDetailsVisible records whether the detail view of id is expanded.
func (s *Store) SetDetailsVisible(id string, visible bool) bool {
	r, ok := s.byID[id]
	if !ok {
		return false
	}
	r.UI.DetailsVisible = visible
	return true
}

// AttachDetail stores an opaque detail rendering handle on id.
func (s *Store) AttachDetail(id string, detail any) bool {
	r, ok := s.byID[id]
	if !ok {
		return false
	}
	r.UI.Detail = detail
	return true
}

// Reset removes every record.
func (s *Store) Reset() {
	clear(s.byID)
	s.order = s.order[:0]
}

// FilterDates extracts one year from every date value of rec: record-level
// dates first, then each location's dates. Values without a four-digit
// run contribute nothing.
func FilterDates(rec *types.Record) []int {
	var years []int
	collect := func(values []string) {
		for _, v := range values {
			if y, ok := LastYear(v); ok {
				years = append(years, y)
			}
		}
	}
	collect(rec.Fields[types.FieldDate])
	for _, loc := range rec.Locations {
		collect(loc.Fields[types.FieldDate])
	}
	return years
}

// LastYear returns the last run of exactly four digits in s.
func LastYear(s string) (int, bool) {
	end := -1
	for i := len(s) - 1; i >= -1; i-- {
		isDigit := i >= 0 && s[i] >= '0' && s[i] <= '9'
		switch {
		case isDigit && end < 0:
			end = i + 1
		case !isDigit && end >= 0:
			if end-(i+1) == 4 {
				y, err := strconv.Atoi(s[i+1 : end])
				return y, err == nil
			}
			end = -1
		}
	}
	return 0, false
}

// locationYear returns the newest year found in the location's dates.
func locationYear(loc types.Location) (int, bool) {
	best, found := 0, false
	for _, v := range loc.Fields[types.FieldDate] {
		if y, ok := LastYear(v); ok && (!found || y > best) {
			best, found = y, true
		}
	}
	return best, found
}

// sortLocations orders locations newest first. Locations without a year
// go last; ties keep their order.
func sortLocations(locs []types.Location) {
	slices.SortStableFunc(locs, func(a, b types.Location) int {
		ya, okA := locationYear(a)
		yb, okB := locationYear(b)
		switch {
		case okA && okB:
			return yb - ya
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}
