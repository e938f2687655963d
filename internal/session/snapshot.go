// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"slices"

	"github.com/pdiddy/metasearch/internal/facet"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

// Snapshot is a consistent read of everything needed to render one page.
type Snapshot struct {
	Generation uint64    `json:"generation" yaml:"generation"`
	Query      string    `json:"query" yaml:"query"`
	View       view.View `json:"view" yaml:"view"`

	// Records is the current page.
	Records []types.Record `json:"records" yaml:"records"`

	// Total is the number of records the pager spans.
	Total     int `json:"total" yaml:"total"`
	PageCount int `json:"page_count" yaml:"page_count"`

	// DateInclusive counts the records that pass every filter but the
	// date filter.
	DateInclusive int `json:"date_inclusive" yaml:"date_inclusive"`

	Facets    []facet.Result `json:"facets" yaml:"facets"`
	Histogram []facet.Bucket `json:"histogram,omitempty" yaml:"histogram,omitempty"`

	Stat    types.BrokerStat     `json:"stat" yaml:"stat"`
	Targets []types.TargetStatus `json:"targets" yaml:"targets"`
	Busy    int                  `json:"busy" yaml:"busy"`
	Errors  int                  `json:"errors" yaml:"errors"`

	// Overflow is set when an idle target holds more hits than it loaded.
	Overflow    bool                 `json:"overflow" yaml:"overflow"`
	Overflowing []types.TargetStatus `json:"overflowing,omitempty" yaml:"overflowing,omitempty"`

	Unavailable bool `json:"unavailable" yaml:"unavailable"`
}

// Snapshot returns a copy of the current page and its surrounding state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.views[s.active]
	page := s.display
	if !s.serverPaged() {
		page = v.PageSlice(s.display)
	}
	recs := make([]types.Record, len(page))
	for i, r := range page {
		recs[i] = r.Clone(false)
	}

	total := s.resultCount()
	snap := Snapshot{
		Generation:    s.generation,
		Query:         s.query,
		View:          s.viewCopy(),
		Records:       recs,
		Total:         total,
		PageCount:     v.PageCount(total),
		DateInclusive: len(s.dateInclusive),
		Facets:        slices.Clone(s.facets),
		Stat:          s.stat,
		Targets:       s.tracker.All(),
		Busy:          s.tracker.BusyCount(),
		Errors:        s.tracker.ErrorCount(),
		Overflow:      s.tracker.OverflowCount() > 0,
		Overflowing:   s.tracker.Overflowing(),
		Unavailable:   s.unavailable,
	}
	if s.cfg.DateHistogram {
		for _, f := range s.facets {
			if f.Type == types.FacetDate {
				snap.Histogram = facet.Histogram(f.Terms, s.cfg.HistogramBucketYears)
			}
		}
	}
	return snap
}

// Overflow returns the unloaded hit count of target id.
func (s *Session) Overflow(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Overflow(id)
}

// Display returns copies of every record in the active view, sorted.
func (s *Session) Display() []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Record, len(s.display))
	for i, r := range s.display {
		out[i] = r.Clone(false)
	}
	return out
}
