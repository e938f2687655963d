// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package target caches the per-target transfer status reported by the
// broker. It is a plain upsert cache: any state may follow any other.
package target

import (
	"slices"

	"github.com/pdiddy/metasearch/pkg/types"
)

// Tracker holds the latest status of every target seen in this session.
type Tracker struct {
	byID  map[string]types.TargetStatus
	order []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byID: make(map[string]types.TargetStatus)}
}

// Update overwrites the status of every target in batch.
func (t *Tracker) Update(batch []types.TargetStatus) {
	for _, st := range batch {
		if st.ID == "" {
			continue
		}
		if _, ok := t.byID[st.ID]; !ok {
			t.order = append(t.order, st.ID)
		}
		t.byID[st.ID] = st
	}
}

// Get returns the status of id.
func (t *Tracker) Get(id string) (types.TargetStatus, bool) {
	st, ok := t.byID[id]
	return st, ok
}

// All returns every known status in first-seen order.
func (t *Tracker) All() []types.TargetStatus {
	out := make([]types.TargetStatus, len(t.order))
	for i, id := range t.order {
		out[i] = t.byID[id]
	}
	return out
}

// Overflow returns how many hits of id were not loaded. It is only
// meaningful once the target is idle and reports 0 otherwise.
func (t *Tracker) Overflow(id string) int {
	st, ok := t.byID[id]
	if !ok {
		return 0
	}
	return overflow(st)
}

func overflow(st types.TargetStatus) int {
	if st.State != types.TargetIdle || st.Hits == nil {
		return 0
	}
	return max(*st.Hits-st.Records, 0)
}

// BusyCount returns the number of targets still working.
func (t *Tracker) BusyCount() int {
	return t.count(func(st types.TargetStatus) bool { return st.State == types.TargetWorking })
}

// ErrorCount returns the number of targets in the error state.
func (t *Tracker) ErrorCount() int {
	return t.count(func(st types.TargetStatus) bool { return st.State == types.TargetError })
}

// OverflowCount returns the number of targets with unloaded hits.
func (t *Tracker) OverflowCount() int {
	return t.count(func(st types.TargetStatus) bool { return overflow(st) > 0 })
}

// Overflowing returns the targets with unloaded hits.
func (t *Tracker) Overflowing() []types.TargetStatus {
	return slices.DeleteFunc(t.All(), func(st types.TargetStatus) bool { return overflow(st) == 0 })
}

// TotalHits sums the known hit counts of all targets.
func (t *Tracker) TotalHits() int {
	total := 0
	for _, st := range t.byID {
		if st.Hits != nil {
			total += *st.Hits
		}
	}
	return total
}

// Len returns the number of known targets.
func (t *Tracker) Len() int { return len(t.order) }

// Reset forgets every target.
func (t *Tracker) Reset() {
	clear(t.byID)
	t.order = t.order[:0]
}

func (t *Tracker) count(pred func(types.TargetStatus) bool) int {
	n := 0
	for _, st := range t.byID {
		if pred(st) {
			n++
		}
	}
	return n
}
