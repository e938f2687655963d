// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/metasearch/pkg/types"
)

func hits(n int) *int { return &n }

func TestOverflowOnceIdle(t *testing.T) {
	tr := NewTracker()
	tr.Update([]types.TargetStatus{
		{ID: "libA", State: types.TargetIdle, Records: 10, Hits: hits(25)},
	})

	assert.Equal(t, 15, tr.Overflow("libA"))
	assert.Equal(t, 1, tr.OverflowCount())
	require.Len(t, tr.Overflowing(), 1)
	assert.Equal(t, "libA", tr.Overflowing()[0].ID)
}

func TestOverflowNotReportedWhileWorking(t *testing.T) {
	tr := NewTracker()
	tr.Update([]types.TargetStatus{
		{ID: "libA", State: types.TargetWorking, Records: 10, Hits: hits(25)},
		{ID: "libB", State: types.TargetIdle, Records: 10},
		{ID: "libC", State: types.TargetIdle, Records: 30, Hits: hits(25)},
	})

	assert.Equal(t, 0, tr.Overflow("libA"))
	assert.Equal(t, 0, tr.Overflow("libB"), "unknown hit count")
	assert.Equal(t, 0, tr.Overflow("libC"), "never negative")
	assert.Equal(t, 0, tr.Overflow("missing"))
	assert.Equal(t, 0, tr.OverflowCount())
}

func TestUpdateIsUpsert(t *testing.T) {
	tr := NewTracker()
	tr.Update([]types.TargetStatus{
		{ID: "a", State: types.TargetWorking},
		{ID: "b", State: types.TargetWorking},
	})
	tr.Update([]types.TargetStatus{
		{ID: "a", State: types.TargetIdle, Records: 3, Hits: hits(3)},
		{ID: "", State: types.TargetError},
	})
	// Regressions are accepted without validation.
	tr.Update([]types.TargetStatus{{ID: "a", State: types.TargetWorking}})

	assert.Equal(t, 2, tr.Len())
	a, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, types.TargetWorking, a.State)
	assert.Equal(t, []string{"a", "b"}, []string{tr.All()[0].ID, tr.All()[1].ID})
}

func TestAggregates(t *testing.T) {
	tr := NewTracker()
	tr.Update([]types.TargetStatus{
		{ID: "a", State: types.TargetWorking, Hits: hits(5)},
		{ID: "b", State: types.TargetError, Diagnostic: 2},
		{ID: "c", State: types.TargetIdle, Records: 1, Hits: hits(40)},
		{ID: "d", State: types.TargetDisconnected},
		{ID: "e", State: types.TargetError, Hits: hits(0)},
	})

	assert.Equal(t, 1, tr.BusyCount())
	assert.Equal(t, 2, tr.ErrorCount())
	assert.Equal(t, 1, tr.OverflowCount())
	assert.Equal(t, 45, tr.TotalHits())
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Update([]types.TargetStatus{{ID: "a", State: types.TargetIdle}})
	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.All())
}

func TestParseTargetState(t *testing.T) {
	tests := map[string]types.TargetState{
		"Client_Working":      types.TargetWorking,
		"Client_Connecting":   types.TargetWorking,
		"Client_Idle":         types.TargetIdle,
		"Client_Error":        types.TargetError,
		"Client_Failed":       types.TargetError,
		"Client_Disconnected": types.TargetDisconnected,
		"Idle":                types.TargetIdle,
		"":                    types.TargetError,
	}
	for in, want := range tests {
		assert.Equal(t, want, types.ParseTargetState(in), in)
	}
}
