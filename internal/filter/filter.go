// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter classifies records against the active facet filters.
//
// A filter set is a conjunction of disjunctions: a record must match at
// least one value of every filtered facet type. The date facet is treated
// specially so that a date histogram can still count records the date
// filter itself excludes.
package filter

import (
	"slices"
	"strings"

	"github.com/pdiddy/metasearch/pkg/types"
)

// YearRange is the half-open year interval [From, To).
type YearRange struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Contains reports whether From <= year < To.
func (r YearRange) Contains(year int) bool {
	return r.From <= year && year < r.To
}

// Value is one accepted filter value: a term, or a year range for the
// date facet.
type Value struct {
	Term  string     `json:"term,omitempty" yaml:"term,omitempty"`
	Range *YearRange `json:"range,omitempty" yaml:"range,omitempty"`
}

// Term returns a term filter value.
func Term(s string) Value { return Value{Term: s} }

// Years returns a year range filter value.
func Years(from, to int) Value { return Value{Range: &YearRange{From: from, To: to}} }

// Equal reports whether v and o accept the same records.
func (v Value) Equal(o Value) bool {
	if (v.Range == nil) != (o.Range == nil) {
		return false
	}
	if v.Range != nil {
		return *v.Range == *o.Range
	}
	return v.Term == o.Term
}

// Set maps a facet type to its accepted values.
type Set map[string][]Value

// Add accepts v for facetType. Adding a value twice has no effect.
func (s Set) Add(facetType string, v Value) {
	if slices.ContainsFunc(s[facetType], v.Equal) {
		return
	}
	s[facetType] = append(s[facetType], v)
}

// Remove drops v from facetType.
func (s Set) Remove(facetType string, v Value) {
	vals := slices.DeleteFunc(s[facetType], v.Equal)
	if len(vals) == 0 {
		delete(s, facetType)
		return
	}
	s[facetType] = vals
}

// Active reports whether any facet type has a value.
func (s Set) Active() bool {
	for _, vals := range s {
		if len(vals) > 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, vals := range s {
		cp := make([]Value, len(vals))
		for i, v := range vals {
			cp[i] = v
			if v.Range != nil {
				r := *v.Range
				cp[i].Range = &r
			}
		}
		out[k] = cp
	}
	return out
}

// Class is the outcome of classifying a record.
type Class int

const (
	// NoMatch means the record is excluded.
	NoMatch Class = iota
	// Match means the record passes every filter.
	Match
	// MatchExceptDate means the record fails only the date filter.
	MatchExceptDate
)

func (c Class) String() string {
	switch c {
	case Match:
		return "match"
	case MatchExceptDate:
		return "match-except-date"
	default:
		return "no-match"
	}
}

// Engine evaluates filter sets over a fixed, ordered list of facet types.
type Engine struct {
	facetTypes []string
}

// NewEngine returns an engine that evaluates facetTypes in order. Filters
// on facet types not listed are ignored.
func NewEngine(facetTypes []string) *Engine {
	return &Engine{facetTypes: slices.Clone(facetTypes)}
}

// FacetTypes returns the evaluated facet types in order.
func (e *Engine) FacetTypes() []string { return slices.Clone(e.facetTypes) }

// Classify evaluates rec against set.
func (e *Engine) Classify(rec *types.Record, set Set) Class {
	dateFailed := false
	for _, ft := range e.facetTypes {
		vals := set[ft]
		if len(vals) == 0 {
			continue
		}
		if matchesAny(rec, ft, vals) {
			continue
		}
		if ft == types.FacetDate {
			dateFailed = true
			continue
		}
		return NoMatch
	}
	if dateFailed {
		return MatchExceptDate
	}
	return Match
}

func matchesAny(rec *types.Record, facetType string, vals []Value) bool {
	for _, v := range vals {
		if matches(rec, facetType, v) {
			return true
		}
	}
	return false
}

func matches(rec *types.Record, facetType string, v Value) bool {
	switch {
	case v.Range != nil:
		if facetType != types.FacetDate {
			return false
		}
		for _, y := range rec.FilterDate {
			if v.Range.Contains(y) {
				return true
			}
		}
		return false
	case facetType == types.FacetTargets:
		for _, loc := range rec.Locations {
			if loc.ID == v.Term {
				return true
			}
		}
		return false
	default:
		want := strings.ToLower(v.Term)
		for _, got := range rec.Values(facetType) {
			if strings.ToLower(got) == want {
				return true
			}
		}
		return false
	}
}
