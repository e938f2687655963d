// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/metasearch/pkg/types"
)

// History is the persisted list of past queries, newest first. A query
// appears at most once and the list is capped.
type History struct {
	kv    KV
	limit int
	now   func() time.Time

	mu sync.Mutex
}

// NewHistory returns a history stored in kv keeping at most limit entries.
func NewHistory(kv KV, limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{kv: kv, limit: limit, now: time.Now}
}

func (h *History) load(ctx context.Context) ([]types.HistoryEntry, error) {
	data, err := h.kv.Get(ctx, KeyHistory)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []types.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return entries, nil
}

// Entries returns the stored queries, newest first.
func (h *History) Entries(ctx context.Context) ([]types.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

// Add records query as the newest entry, dropping an earlier occurrence
// and the oldest entries beyond the limit. Blank queries are ignored.
func (h *History) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	entries, err := h.load(ctx)
	if err != nil {
		return err
	}

	out := make([]types.HistoryEntry, 0, len(entries)+1)
	out = append(out, types.HistoryEntry{Query: query, Timestamp: h.now().UTC()})
	for _, e := range entries {
		if e.Query != query {
			out = append(out, e)
		}
	}
	if len(out) > h.limit {
		out = out[:h.limit]
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return h.kv.Set(ctx, KeyHistory, data)
}

// Clear removes every entry.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kv.Delete(ctx, KeyHistory)
}
