// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/pkg/types"
)

func rec(id, medium, date string, years ...int) *types.Record {
	return &types.Record{
		ID: id,
		Fields: types.Fields{
			types.FieldMedium: {medium},
			types.FieldDate:   {date},
		},
		FilterDate: years,
	}
}

func ids(list []*types.Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func projector() *Projector {
	return NewProjector(filter.NewEngine([]string{types.FieldMedium, types.FacetDate}))
}

func TestProjectFiltersAndSorts(t *testing.T) {
	source := []*types.Record{
		rec("a", "article", "2001", 2001),
		rec("b", "book", "1999", 1999),
		rec("c", "journal", "2010", 2010),
		rec("d", "book", "2012", 2012),
		rec("e", "article", "2003", 2003),
	}
	v := New(Query, order.Criteria{{Field: types.FieldDate, Direction: order.Descending}}, 20)
	v.Filters.Add(types.FieldMedium, filter.Term("book"))

	display, dateInclusive := projector().Project(source, v)

	assert.Equal(t, []string{"d", "b"}, ids(display))
	assert.ElementsMatch(t, []string{"b", "d"}, ids(dateInclusive))
}

func TestProjectDateInclusiveList(t *testing.T) {
	source := []*types.Record{
		rec("in", "book", "2009", 2009),
		rec("outside", "book", "2015", 2015),
		rec("wrong-medium", "article", "2009", 2009),
	}
	v := New(Query, nil, 20)
	v.Filters.Add(types.FieldMedium, filter.Term("book"))
	v.Filters.Add(types.FacetDate, filter.Years(2000, 2010))

	display, dateInclusive := projector().Project(source, v)

	assert.Equal(t, []string{"in"}, ids(display))
	assert.Equal(t, []string{"in", "outside"}, ids(dateInclusive))
}

func TestProjectDoesNotReorderSource(t *testing.T) {
	source := []*types.Record{
		rec("a", "book", "1990", 1990),
		rec("b", "book", "2020", 2020),
	}
	v := New(Query, order.Criteria{{Field: types.FieldDate, Direction: order.Descending}}, 20)
	display, _ := projector().Project(source, v)

	assert.Equal(t, []string{"b", "a"}, ids(display))
	assert.Equal(t, []string{"a", "b"}, ids(source))
}

func TestPaging(t *testing.T) {
	var list []*types.Record
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		list = append(list, rec(id, "book", ""))
	}
	v := New(Query, nil, 2)

	assert.Equal(t, 3, v.PageCount(len(list)))
	assert.Equal(t, []string{"1", "2"}, ids(v.PageSlice(list)))

	v.Page = 3
	assert.Equal(t, []string{"5"}, ids(v.PageSlice(list)))
	assert.Equal(t, 4, v.Offset())

	v.Page = 9
	assert.Nil(t, v.PageSlice(list))
	v.ClampPage(len(list))
	assert.Equal(t, 3, v.Page)

	v.ClampPage(0)
	assert.Equal(t, 1, v.Page)
}

func TestResetClearsFiltersAndPage(t *testing.T) {
	v := New(Clipboard, nil, 10)
	v.Filters.Add(types.FieldMedium, filter.Term("book"))
	v.Page = 4
	v.Reset()

	assert.False(t, v.Filters.Active())
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, Clipboard, v.Kind)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("clipboard")
	require.NoError(t, err)
	assert.Equal(t, Clipboard, k)

	_, err = ParseKind("history")
	assert.Error(t, err)
}
