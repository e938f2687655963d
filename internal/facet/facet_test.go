// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/metasearch/pkg/types"
)

func withLanguages(langs ...string) *types.Record {
	return &types.Record{Fields: types.Fields{types.FieldLanguage: langs}}
}

func repeat(n int, langs ...string) []*types.Record {
	out := make([]*types.Record, n)
	for i := range out {
		out[i] = withLanguages(langs...)
	}
	return out
}

func names(terms []Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Name
	}
	return out
}

func TestComputeCountsOncePerRecord(t *testing.T) {
	a := NewAggregator(nil, false)
	recs := []*types.Record{
		withLanguages("ger", "ger", "eng"),
		withLanguages("ger"),
		withLanguages("fre"),
	}
	res := a.Compute(types.FieldLanguage, recs, nil, false, false)

	assert.Equal(t, []Term{
		{Name: "ger", Frequency: 2},
		{Name: "eng", Frequency: 1},
		{Name: "fre", Frequency: 1},
	}, res.Terms)
	assert.Equal(t, 2, res.Max)
	assert.True(t, res.Visible)
}

func TestComputeFrequencySumMatchesContributions(t *testing.T) {
	a := NewAggregator(nil, false)
	recs := []*types.Record{
		{Fields: types.Fields{types.FieldMedium: {"book", "book"}}},
		{Fields: types.Fields{types.FieldMedium: {"book", "ebook"}}},
		{Fields: types.Fields{types.FieldMedium: {"article"}}},
		{Fields: types.Fields{}},
	}
	res := a.Compute(types.FieldMedium, recs, nil, false, false)

	sum := 0
	for _, term := range res.Terms {
		sum += term.Frequency
	}
	// one distinct value, two distinct values, one, none
	assert.Equal(t, 4, sum)
}

func TestComputeUnknownLanguageLast(t *testing.T) {
	a := NewAggregator(nil, false)
	var recs []*types.Record
	recs = append(recs, repeat(5, "en")...)
	recs = append(recs, repeat(50, "zzz")...)
	recs = append(recs, repeat(3, "de")...)

	res := a.Compute(types.FieldLanguage, recs, nil, false, false)
	assert.Equal(t, []string{"en", "de", "zzz"}, names(res.Terms))
	assert.Equal(t, 50, res.Max)
}

func TestComputeUnknownLanguageSurvivesTruncation(t *testing.T) {
	a := NewAggregator(types.DefaultFacets(), false)
	var recs []*types.Record
	for i, lang := range []string{"pl", "de", "fr", "es", "it", "nl"} {
		recs = append(recs, repeat(i+1, lang)...)
	}
	recs = append(recs, repeat(50, "zzz")...)

	res := a.Compute(types.FieldLanguage, recs, nil, false, false)
	assert.Equal(t, []string{"nl", "it", "es", "fr", "de", "zzz"}, names(res.Terms))
	assert.Equal(t, 50, res.Max)
}

func TestComputeTieBreaksByName(t *testing.T) {
	a := NewAggregator(nil, false)
	recs := []*types.Record{withLanguages("b"), withLanguages("a"), withLanguages("c")}
	res := a.Compute(types.FieldLanguage, recs, nil, false, false)
	assert.Equal(t, []string{"a", "b", "c"}, names(res.Terms))
}

func TestComputePrefersExternalOnlyWhenUnfiltered(t *testing.T) {
	a := NewAggregator(nil, false)
	external := []Term{{Name: "zzz", Frequency: 9}, {Name: "en", Frequency: 1}}
	recs := []*types.Record{withLanguages("de")}

	res := a.Compute(types.FieldLanguage, recs, external, true, false)
	assert.Equal(t, external, res.Terms, "broker list is returned verbatim")
	assert.Equal(t, 9, res.Max)

	res = a.Compute(types.FieldLanguage, recs, external, true, true)
	assert.Equal(t, []string{"de"}, names(res.Terms))

	res = a.Compute(types.FieldLanguage, recs, external, false, false)
	assert.Equal(t, []string{"de"}, names(res.Terms))

	res = a.Compute(types.FieldLanguage, recs, nil, true, false)
	assert.Equal(t, []string{"de"}, names(res.Terms), "falls back to counting when the broker sent nothing")
}

func TestComputeTargetsUseLocationIDs(t *testing.T) {
	a := NewAggregator(nil, false)
	recs := []*types.Record{
		{Locations: []types.Location{{ID: "t1", Name: "Alpha"}, {ID: "t1", Name: "Alpha"}, {ID: "t2", Name: "Beta"}}},
		{Locations: []types.Location{{ID: "t2", Name: "Beta"}}},
	}
	res := a.Compute(types.FacetTargets, recs, nil, false, false)
	require.Len(t, res.Terms, 2)
	assert.Equal(t, Term{Name: "Beta", ID: "t2", Frequency: 2}, res.Terms[0])
	assert.Equal(t, "t1", res.Terms[1].Value())
	assert.Equal(t, 1, res.Terms[1].Frequency)
}

func dated(years ...int) *types.Record {
	return &types.Record{FilterDate: years}
}

func TestComputeDateListTruncatesThenSortsByYear(t *testing.T) {
	a := NewAggregator([]types.FacetConfig{{Type: types.FacetDate, MaxFetch: 3}}, false)
	recs := []*types.Record{
		dated(2010), dated(2010), dated(2010),
		dated(1999), dated(1999),
		dated(2020), dated(2020),
		dated(1850),
	}
	res := a.Compute(types.FacetDate, recs, nil, false, false)

	// Top three by frequency are 2010, 1999 and 2020; 1850 is cut first.
	assert.Equal(t, []string{"1999", "2010", "2020"}, names(res.Terms))
	assert.Equal(t, 3, res.Max)
}

func TestComputeDateHistogramKeepsAllYears(t *testing.T) {
	a := NewAggregator([]types.FacetConfig{{Type: types.FacetDate, MaxFetch: 1}}, true)
	recs := []*types.Record{dated(2010), dated(2010), dated(1999)}
	res := a.Compute(types.FacetDate, recs, nil, false, false)
	assert.Equal(t, []string{"2010", "1999"}, names(res.Terms))
}

func TestComputeMinDisplay(t *testing.T) {
	a := NewAggregator([]types.FacetConfig{{Type: types.FieldMedium, MinDisplay: 2}}, false)
	one := []*types.Record{{Fields: types.Fields{types.FieldMedium: {"book"}}}}
	assert.False(t, a.Compute(types.FieldMedium, one, nil, false, false).Visible)

	two := append(one, &types.Record{Fields: types.Fields{types.FieldMedium: {"article"}}})
	assert.True(t, a.Compute(types.FieldMedium, two, nil, false, false).Visible)
}

func TestComputeAllUsesDateInclusiveForDates(t *testing.T) {
	a := NewAggregator([]types.FacetConfig{
		{Type: types.FieldMedium},
		{Type: types.FacetDate},
	}, true)
	shown := &types.Record{Fields: types.Fields{types.FieldMedium: {"book"}}, FilterDate: []int{2001}}
	hidden := &types.Record{Fields: types.Fields{types.FieldMedium: {"book"}}, FilterDate: []int{1990}}

	results := a.ComputeAll([]*types.Record{shown}, []*types.Record{shown, hidden}, nil, false, true)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Terms[0].Frequency)
	assert.ElementsMatch(t, []string{"2001", "1990"}, names(results[1].Terms))
}

func TestHistogram(t *testing.T) {
	terms := []Term{
		{Name: "2003", Frequency: 2},
		{Name: "2001", Frequency: 1},
		{Name: "2000", Frequency: 4},
		{Name: "n/a", Frequency: 7},
	}
	assert.Equal(t, []Bucket{
		{From: 2000, To: 2001, Count: 4},
		{From: 2001, To: 2002, Count: 1},
		{From: 2002, To: 2003, Count: 0},
		{From: 2003, To: 2004, Count: 2},
	}, Histogram(terms, 1))

	assert.Equal(t, []Bucket{
		{From: 2000, To: 2010, Count: 7},
	}, Histogram(terms, 10))

	assert.Nil(t, Histogram(nil, 5))
}
