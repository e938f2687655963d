// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/metasearch/pkg/types"
)

func loc(id, date string) types.Location {
	l := types.Location{ID: id, Name: "Target " + id}
	if date != "" {
		l.Fields = types.Fields{types.FieldDate: {date}}
	}
	return l
}

func rec(id string, fields types.Fields, locs ...types.Location) types.Record {
	return types.Record{ID: id, Fields: fields, Locations: locs}
}

func TestMergeInsertsAndSkipsMissingID(t *testing.T) {
	s := NewStore(Options{})
	summary := s.Merge([]types.Record{
		rec("a", types.Fields{types.FieldTitle: {"A"}}),
		rec("", types.Fields{types.FieldTitle: {"no id"}}),
		rec("b", types.Fields{types.FieldTitle: {"B"}}),
	})

	assert.Equal(t, MergeSummary{Added: 2, Skipped: 1}, summary)
	assert.Equal(t, 2, s.Len())
	got := s.Records()
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestMergeIsIdempotent(t *testing.T) {
	r := rec("a", types.Fields{
		types.FieldTitle: {"A"},
		types.FieldDate:  {"2009"},
	}, loc("t1", "2009"), loc("t2", "2011"))

	once := NewStore(Options{SelfComputedFacets: true})
	once.Merge([]types.Record{r})

	twice := NewStore(Options{SelfComputedFacets: true})
	twice.Merge([]types.Record{r})
	twice.Merge([]types.Record{r})

	require.Equal(t, once.Len(), twice.Len())
	a, _ := once.Get("a")
	b, _ := twice.Get("a")
	assert.Equal(t, *a, *b)
}

func TestMergeDuplicateInvalidatesDetailOnLocationChange(t *testing.T) {
	s := NewStore(Options{})
	s.Merge([]types.Record{
		rec("a", types.Fields{types.FieldTitle: {"A"}}, loc("t1", "2001")),
	})
	require.True(t, s.AttachDetail("a", "rendered"))
	require.True(t, s.SetDetailsVisible("a", true))

	s.Merge([]types.Record{
		rec("b", types.Fields{types.FieldTitle: {"B"}}),
		rec("a", types.Fields{types.FieldTitle: {"A"}}, loc("t1", "2001"), loc("t2", "2005")),
	})

	assert.Equal(t, 2, s.Len())
	a, ok := s.Get("a")
	require.True(t, ok)
	assert.Len(t, a.Locations, 2)
	assert.True(t, a.UI.DetailsVisible)
	assert.Nil(t, a.UI.Detail)
}

func TestMergeBatchWithRepeatedID(t *testing.T) {
	s := NewStore(Options{})
	s.Merge([]types.Record{
		rec("a", types.Fields{types.FieldTitle: {"A"}}, loc("t1", "")),
		rec("b", types.Fields{types.FieldTitle: {"B"}}),
		rec("a", types.Fields{types.FieldTitle: {"A"}}, loc("t1", ""), loc("t2", "")),
	})

	assert.Equal(t, 2, s.Len())
	a, _ := s.Get("a")
	assert.Len(t, a.Locations, 2)
	assert.Nil(t, a.UI.Detail)
}

func TestMergeKeepsDetailWhenLocationCountUnchanged(t *testing.T) {
	s := NewStore(Options{})
	s.Merge([]types.Record{rec("a", nil, loc("t1", "2001"))})
	s.AttachDetail("a", "rendered")

	s.Merge([]types.Record{rec("a", types.Fields{types.FieldTitle: {"new"}}, loc("t1", "2001"))})

	a, _ := s.Get("a")
	assert.Equal(t, "rendered", a.UI.Detail)
	assert.Equal(t, "new", a.Title())
}

func TestMergeDoesNotAliasInput(t *testing.T) {
	s := NewStore(Options{})
	batch := []types.Record{rec("a", types.Fields{types.FieldTitle: {"A"}})}
	s.Merge(batch)
	batch[0].Fields[types.FieldTitle][0] = "changed"

	a, _ := s.Get("a")
	assert.Equal(t, "A", a.Title())
}

func TestNormalizeDefaults(t *testing.T) {
	tests := []struct {
		name         string
		selfComputed bool
		fields       types.Fields
		wantMedium   []string
		wantLanguage []string
	}{
		{"self computed fills defaults", true, types.Fields{}, []string{"other"}, []string{"zzz"}},
		{"self computed keeps values", true,
			types.Fields{types.FieldMedium: {"book"}, types.FieldLanguage: {"ger"}},
			[]string{"book"}, []string{"ger"}},
		{"broker facets leave fields alone", false, types.Fields{}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(Options{SelfComputedFacets: tt.selfComputed})
			s.Merge([]types.Record{rec("a", tt.fields)})
			a, _ := s.Get("a")
			assert.Equal(t, tt.wantMedium, a.Media())
			assert.Equal(t, tt.wantLanguage, a.Languages())
		})
	}
}

func TestNormalizeSynthesizesTitleFromSeries(t *testing.T) {
	s := NewStore(Options{})
	s.Merge([]types.Record{
		rec("a", types.Fields{types.FieldSeriesTitle: {"Series One", "Series Two"}}),
		rec("b", types.Fields{types.FieldTitle: {"Own"}, types.FieldSeriesTitle: {"Series"}}),
	})
	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.Equal(t, "Series One", a.Title())
	assert.Equal(t, "Own", b.Title())
}

func TestLastYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2009", 2009, true},
		{"1999-2003", 2003, true},
		{"[ca. 1850]", 1850, true},
		{"c2010, 2011 printing", 2011, true},
		{"12345", 0, false},
		{"2010 12345", 2010, true},
		{"n.d.", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := LastYear(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterDatesPreservesOrderWithoutDedup(t *testing.T) {
	r := rec("a", types.Fields{types.FieldDate: {"2009", "unknown"}},
		loc("t1", "2009"), loc("t2", "1990-1995"))
	assert.Equal(t, []int{2009, 2009, 1995}, FilterDates(&r))
}

func TestLocationsSortedNewestFirst(t *testing.T) {
	s := NewStore(Options{})
	s.Merge([]types.Record{rec("a", nil,
		loc("old", "1990"),
		loc("none1", ""),
		loc("new", "2015"),
		loc("none2", "s.a."),
		loc("mid", "2001"),
	)})

	a, _ := s.Get("a")
	var ids []string
	for _, l := range a.Locations {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "none1", "none2"}, ids)
}

func TestReset(t *testing.T) {
	s := NewStore(Options{})
	s.Merge([]types.Record{rec("a", nil), rec("b", nil)})
	s.Reset()
	assert.Equal(t, 0, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Merge([]types.Record{rec("c", nil)})
	assert.Equal(t, 1, s.Len())
}
