// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/metasearch/pkg/types"
)

var facetTypes = []string{
	types.FacetTargets, types.FieldMedium, types.FieldLanguage, types.FacetDate,
}

func testRecord() *types.Record {
	return &types.Record{
		ID: "r1",
		Fields: types.Fields{
			types.FieldMedium:   {"Book"},
			types.FieldLanguage: {"ger", "eng"},
		},
		Locations: []types.Location{
			{ID: "lib-a", Name: "Library A"},
			{ID: "lib-b", Name: "Library B"},
		},
		FilterDate: []int{2009},
	}
}

func TestClassifyEmptySetMatches(t *testing.T) {
	e := NewEngine(facetTypes)
	assert.Equal(t, Match, e.Classify(testRecord(), Set{}))
	assert.Equal(t, Match, e.Classify(testRecord(), nil))
}

func TestClassifyPerFacetType(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		want Class
	}{
		{"medium case-insensitive", Set{types.FieldMedium: {Term("book")}}, Match},
		{"medium miss", Set{types.FieldMedium: {Term("journal")}}, NoMatch},
		{"or within type", Set{types.FieldMedium: {Term("journal"), Term("BOOK")}}, Match},
		{"language any value", Set{types.FieldLanguage: {Term("eng")}}, Match},
		{"xtargets by location id", Set{types.FacetTargets: {Term("lib-b")}}, Match},
		{"xtargets name is not an id", Set{types.FacetTargets: {Term("Library B")}}, NoMatch},
		{"and across types", Set{
			types.FieldMedium:   {Term("book")},
			types.FieldLanguage: {Term("fre")},
		}, NoMatch},
		{"unknown facet type ignored", Set{"publisher": {Term("nobody")}}, Match},
		{"range on non-date type never matches", Set{types.FieldMedium: {Years(2000, 2010)}}, NoMatch},
	}
	e := NewEngine(facetTypes)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Classify(testRecord(), tt.set))
		})
	}
}

func TestClassifyDateHalfOpenRange(t *testing.T) {
	e := NewEngine(facetTypes)
	rec := testRecord()

	assert.Equal(t, Match, e.Classify(rec, Set{types.FacetDate: {Years(2009, 2010)}}))
	assert.Equal(t, MatchExceptDate, e.Classify(rec, Set{types.FacetDate: {Years(2010, 2011)}}))
	assert.Equal(t, MatchExceptDate, e.Classify(rec, Set{types.FacetDate: {Years(2000, 2009)}}))
}

func TestClassifyDateTermValue(t *testing.T) {
	e := NewEngine(facetTypes)
	assert.Equal(t, Match, e.Classify(testRecord(), Set{types.FacetDate: {Term("2009")}}))
	assert.Equal(t, MatchExceptDate, e.Classify(testRecord(), Set{types.FacetDate: {Term("2010")}}))
}

func TestClassifyMatchExceptDate(t *testing.T) {
	e := NewEngine(facetTypes)
	rec := testRecord()

	otherOK := Set{
		types.FieldMedium: {Term("book")},
		types.FacetDate:   {Years(1990, 2000)},
	}
	assert.Equal(t, MatchExceptDate, e.Classify(rec, otherOK))

	otherFails := Set{
		types.FieldMedium: {Term("journal")},
		types.FacetDate:   {Years(1990, 2000)},
	}
	assert.Equal(t, NoMatch, e.Classify(rec, otherFails))

	// The date facet is evaluated before a failing type declared later.
	dateFirst := NewEngine([]string{types.FacetDate, types.FieldMedium})
	assert.Equal(t, NoMatch, dateFirst.Classify(rec, otherFails))
	assert.Equal(t, MatchExceptDate, dateFirst.Classify(rec, otherOK))
}

func TestClassifyConjunctionOfDisjointSets(t *testing.T) {
	e := NewEngine(facetTypes)
	rec := testRecord()
	parts := []Set{
		{types.FieldMedium: {Term("book")}},
		{types.FieldMedium: {Term("journal")}},
		{types.FieldLanguage: {Term("ger")}},
		{types.FieldLanguage: {Term("fre")}},
		{types.FacetTargets: {Term("lib-a")}},
		{types.FacetTargets: {Term("lib-z")}},
	}
	union := func(a, b Set) Set {
		out := a.Clone()
		for k, v := range b {
			out[k] = append(out[k], v...)
		}
		return out
	}
	for i, f1 := range parts {
		for j, f2 := range parts {
			if i == j || overlaps(f1, f2) {
				continue
			}
			want := e.Classify(rec, f1) == Match && e.Classify(rec, f2) == Match
			got := e.Classify(rec, union(f1, f2)) == Match
			assert.Equal(t, want, got, "sets %d and %d", i, j)
		}
	}
}

func overlaps(a, b Set) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func TestSetAddRemove(t *testing.T) {
	s := Set{}
	s.Add(types.FieldMedium, Term("book"))
	s.Add(types.FieldMedium, Term("book"))
	s.Add(types.FacetDate, Years(2000, 2010))
	s.Add(types.FacetDate, Years(2000, 2010))

	assert.Len(t, s[types.FieldMedium], 1)
	assert.Len(t, s[types.FacetDate], 1)
	assert.True(t, s.Active())

	s.Remove(types.FieldMedium, Term("book"))
	s.Remove(types.FacetDate, Years(2000, 2010))
	_, ok := s[types.FieldMedium]
	assert.False(t, ok)
	assert.False(t, s.Active())
}

func TestSetCloneIsDeep(t *testing.T) {
	s := Set{types.FacetDate: {Years(2000, 2010)}}
	c := s.Clone()
	c[types.FacetDate][0].Range.From = 1900
	assert.Equal(t, 2000, s[types.FacetDate][0].Range.From)
}
