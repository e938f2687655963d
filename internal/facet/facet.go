// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package facet counts term frequencies per facet type, either from the
// records themselves or from term lists supplied by the broker.
package facet

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/pdiddy/metasearch/internal/records"
	"github.com/pdiddy/metasearch/pkg/types"
)

// Term is one facet value and the number of records carrying it.
type Term struct {
	// Name is the display label.
	Name string `json:"name" yaml:"name"`

	// ID is the filter value when it differs from Name (target facets).
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	Frequency int `json:"frequency" yaml:"frequency"`
}

// Value returns the string to filter on when the term is selected.
func (t Term) Value() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Name
}

// Result is the computed term list of one facet type.
type Result struct {
	Type  string `json:"type" yaml:"type"`
	Terms []Term `json:"terms" yaml:"terms"`

	// Max is the highest frequency, used to scale bars.
	Max int `json:"max" yaml:"max"`

	// Visible reports whether enough terms exist to show the facet.
	Visible bool `json:"visible" yaml:"visible"`
}

// Aggregator computes facets for a fixed list of facet types.
type Aggregator struct {
	facets    []types.FacetConfig
	histogram bool
}

// NewAggregator returns an aggregator for facets. With histogram set the
// date facet keeps every year, ordered by frequency, for charting.
func NewAggregator(facets []types.FacetConfig, histogram bool) *Aggregator {
	return &Aggregator{facets: slices.Clone(facets), histogram: histogram}
}

func (a *Aggregator) config(facetType string) types.FacetConfig {
	for _, f := range a.facets {
		if f.Type == facetType {
			return f
		}
	}
	return types.FacetConfig{Type: facetType}
}

// Compute returns the terms of facetType. When preferExternal is set, no
// filter is active and the broker supplied a list, that list is returned
// verbatim. Otherwise the terms are counted over recs.
func (a *Aggregator) Compute(facetType string, recs []*types.Record, external []Term, preferExternal, filtersActive bool) Result {
	cfg := a.config(facetType)
	res := Result{Type: facetType}

	if preferExternal && !filtersActive && external != nil {
		res.Terms = external
	} else {
		res.Terms = a.count(cfg, recs)
	}

	for _, t := range res.Terms {
		res.Max = max(res.Max, t.Frequency)
	}
	res.Visible = len(res.Terms) > 0 && len(res.Terms) >= cfg.MinDisplay
	return res
}

// ComputeAll computes every configured facet. The date facet counts over
// dateInclusive, all others over display.
func (a *Aggregator) ComputeAll(display, dateInclusive []*types.Record, external map[string][]Term, preferExternal, filtersActive bool) []Result {
	out := make([]Result, 0, len(a.facets))
	for _, f := range a.facets {
		population := display
		if f.Type == types.FacetDate {
			population = dateInclusive
		}
		out = append(out, a.Compute(f.Type, population, external[f.Type], preferExternal, filtersActive))
	}
	return out
}

func (a *Aggregator) count(cfg types.FacetConfig, recs []*types.Record) []Term {
	index := make(map[string]int)
	var terms []Term
	for _, rec := range recs {
		seen := make(map[string]bool)
		for _, t := range recordTerms(cfg.Type, rec) {
			key := t.Value()
			if seen[key] {
				continue
			}
			seen[key] = true
			if i, ok := index[key]; ok {
				terms[i].Frequency++
				continue
			}
			index[key] = len(terms)
			t.Frequency = 1
			terms = append(terms, t)
		}
	}

	slices.SortFunc(terms, func(x, y Term) int {
		if c := cmp.Compare(y.Frequency, x.Frequency); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})

	var unknown *Term
	if cfg.Type == types.FieldLanguage {
		terms, unknown = takeUnknown(terms)
	}

	isDate := cfg.Type == types.FacetDate
	if isDate && a.histogram {
		return terms
	}
	if cfg.MaxFetch > 0 && len(terms) > cfg.MaxFetch {
		terms = terms[:cfg.MaxFetch]
	}
	if unknown != nil {
		terms = append(terms, *unknown)
	}
	if isDate {
		slices.SortStableFunc(terms, func(x, y Term) int {
			return compareYears(x.Name, y.Name)
		})
	}
	return terms
}

// recordTerms returns the facet values rec carries for facetType.
func recordTerms(facetType string, rec *types.Record) []Term {
	switch facetType {
	case types.FacetTargets:
		terms := make([]Term, 0, len(rec.Locations))
		for _, loc := range rec.Locations {
			name := loc.Name
			if name == "" {
				name = loc.ID
			}
			terms = append(terms, Term{Name: name, ID: loc.ID})
		}
		return terms
	case types.FacetDate:
		terms := make([]Term, 0, len(rec.FilterDate))
		for _, y := range rec.FilterDate {
			terms = append(terms, Term{Name: strconv.Itoa(y)})
		}
		return terms
	default:
		values := rec.Values(facetType)
		terms := make([]Term, 0, len(values))
		for _, v := range values {
			terms = append(terms, Term{Name: v})
		}
		return terms
	}
}

// takeUnknown removes the unknown-language term from terms. It is added
// back after truncation so it is always listed, and listed last.
func takeUnknown(terms []Term) ([]Term, *Term) {
	i := slices.IndexFunc(terms, func(t Term) bool { return t.Name == records.UnknownLanguage })
	if i < 0 {
		return terms, nil
	}
	unknown := terms[i]
	return slices.Delete(terms, i, i+1), &unknown
}

func compareYears(a, b string) int {
	ya, errA := strconv.Atoi(a)
	yb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	return cmp.Compare(ya, yb)
}
