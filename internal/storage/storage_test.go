// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/metasearch/pkg/types"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "metasearch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Set(ctx, "k", []byte("v1")))
	require.NoError(t, db.Set(ctx, "k", []byte("v2")))
	got, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, db.Delete(ctx, "k"))
	require.NoError(t, db.Delete(ctx, "k"))
	_, err = db.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "metasearch.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, KeyHistory, []byte("[]")))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), types.StorageConfig{Driver: "mongo"})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func clock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestClipboard(t *testing.T) {
	ctx := context.Background()
	c := NewClipboard(openTestDB(t))
	c.now = clock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	faust := types.Record{
		ID:        "faust",
		Fields:    types.Fields{types.FieldTitle: {"Faust"}},
		Locations: []types.Location{{ID: "libA", Name: "A"}},
		UI:        types.UIState{DetailsVisible: true, Detail: "cached"},
	}
	werther := types.Record{ID: "werther", Fields: types.Fields{types.FieldTitle: {"Werther"}}}

	n, err := c.Add(ctx, faust, werther, types.Record{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	faust.Fields[types.FieldTitle][0] = "changed after copy"

	items, err := c.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Faust", items[0].Record.Title(), "stored as a copy")
	assert.Equal(t, types.UIState{}, items[0].Record.UI)
	assert.Equal(t, "werther", items[1].Record.ID)
	first := items[0].TimeAdded

	// Re-adding refreshes the record but keeps its time.
	n, err = c.Add(ctx, types.Record{ID: "faust", Fields: types.Fields{types.FieldTitle: {"Faust I"}}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	it, err := c.Get(ctx, "faust")
	require.NoError(t, err)
	assert.Equal(t, "Faust I", it.Record.Title())
	assert.True(t, first.Equal(it.TimeAdded))

	removed, err := c.Remove(ctx, "faust", "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = c.Get(ctx, "faust")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Clear(ctx))
	items, err = c.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(openTestDB(t), 3)
	h.now = clock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	for _, q := range []string{"faust", "werther", "  ", "faust", "tasso", "egmont"} {
		require.NoError(t, h.Add(ctx, q))
	}

	entries, err := h.Entries(ctx)
	require.NoError(t, err)
	var queries []string
	for _, e := range entries {
		queries = append(queries, e.Query)
	}
	assert.Equal(t, []string{"egmont", "tasso", "faust"}, queries)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))

	require.NoError(t, h.Clear(ctx))
	entries, err = h.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
