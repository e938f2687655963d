// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/session"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
broker:
  url: http://localhost:9004/search.pz2
  poll_interval: 250ms
client:
  records_per_page: 10
  server_side_paging: true
storage:
  driver: redis
  addrs: [localhost:6379]
`)))

	c := loadConfig(v)
	assert.Equal(t, "http://localhost:9004/search.pz2", c.Broker.URL)
	assert.Equal(t, 250*time.Millisecond, c.Broker.PollInterval)
	assert.Equal(t, 10, c.Client.RecordsPerPage)
	assert.True(t, c.Client.ServerSidePaging)
	assert.Equal(t, 100, c.Client.MaxRecords, "defaults fill the rest")
	assert.Equal(t, "redis", c.Storage.Driver)
	assert.Equal(t, []string{"localhost:6379"}, c.Storage.Addrs)
	assert.Equal(t, types.DefaultFacets(), c.Client.Facets)
}

func TestParseFilter(t *testing.T) {
	typ, v, err := parseFilter("medium=book")
	require.NoError(t, err)
	assert.Equal(t, types.FieldMedium, typ)
	assert.Equal(t, filter.Term("book"), v)

	typ, v, err = parseFilter("filterDate=1990-2000")
	require.NoError(t, err)
	assert.Equal(t, types.FacetDate, typ)
	assert.Equal(t, filter.Years(1990, 2000), v)

	_, v, err = parseFilter("filterDate=1999")
	require.NoError(t, err)
	assert.Equal(t, filter.Term("1999"), v)

	for _, bad := range []string{"medium", "=book", "medium=", "filterDate=2000-1990"} {
		_, _, err := parseFilter(bad)
		assert.Error(t, err, bad)
	}
}

func TestPickRecords(t *testing.T) {
	recs := []types.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	all, err := pickRecords(recs, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := pickRecords(recs, []string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []types.Record{{ID: "c"}, {ID: "a"}}, some)

	_, err = pickRecords(recs, []string{"x"})
	assert.Error(t, err)
}

func TestPrintRecordsTable(t *testing.T) {
	snap := session.Snapshot{
		View: view.View{Page: 2, RecordsPerPage: 1},
		Records: []types.Record{{
			ID:     "r2",
			Fields: types.Fields{types.FieldTitle: {"Faust in Weimar"}, types.FieldAuthor: {"Goethe"}, types.FieldDate: {"1808"}},
		}},
		Total:     2,
		PageCount: 2,
	}
	var buf bytes.Buffer
	require.NoError(t, printRecords(context.Background(), &buf, formatTable, snap, []string{"faust"}))

	out := buf.String()
	assert.Contains(t, out, "*Faust* in Weimar")
	assert.Contains(t, out, "2     ", "numbering continues across pages")
	assert.Contains(t, out, "Page 2 of 2, 2 records")

	buf.Reset()
	require.NoError(t, printRecords(context.Background(), &buf, formatTable, session.Snapshot{}, nil))
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Schillerstr...", truncate("Schillerstraße 12", 14))
}
