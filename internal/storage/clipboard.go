// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pdiddy/metasearch/pkg/types"
)

// Clipboard is the persisted set of saved records, keyed by record ID.
// Items are deep copies, independent of the live result set.
type Clipboard struct {
	kv  KV
	now func() time.Time

	mu sync.Mutex
}

// NewClipboard returns a clipboard stored in kv.
func NewClipboard(kv KV) *Clipboard {
	return &Clipboard{kv: kv, now: time.Now}
}

func (c *Clipboard) load(ctx context.Context) (map[string]types.ClipboardItem, error) {
	data, err := c.kv.Get(ctx, KeyClipboard)
	if errors.Is(err, ErrNotFound) {
		return map[string]types.ClipboardItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	items := map[string]types.ClipboardItem{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding clipboard: %w", err)
	}
	return items, nil
}

func (c *Clipboard) save(ctx context.Context, items map[string]types.ClipboardItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding clipboard: %w", err)
	}
	return c.kv.Set(ctx, KeyClipboard, data)
}

// Items returns every item, oldest first.
func (c *Clipboard) Items(ctx context.Context) ([]types.ClipboardItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.ClipboardItem, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b types.ClipboardItem) int {
		if c := a.TimeAdded.Compare(b.TimeAdded); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ID, b.Record.ID)
	})
	return out, nil
}

// Get returns the item for id.
func (c *Clipboard) Get(ctx context.Context, id string) (types.ClipboardItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return types.ClipboardItem{}, err
	}
	it, ok := items[id]
	if !ok {
		return types.ClipboardItem{}, fmt.Errorf("clipboard item %s: %w", id, ErrNotFound)
	}
	return it, nil
}

// Add saves copies of recs without their UI state. A record already on
// the clipboard is refreshed and keeps its original TimeAdded. Add returns
// the number of new items.
func (c *Clipboard) Add(ctx context.Context, recs ...types.Record) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	now := c.now().UTC()
	for i := range recs {
		rec := recs[i].Clone(true)
		if rec.ID == "" {
			continue
		}
		it, ok := items[rec.ID]
		if !ok {
			it.TimeAdded = now
			added++
		}
		it.Record = rec
		items[rec.ID] = it
	}
	return added, c.save(ctx, items)
}

// Remove deletes the items for ids and returns how many existed.
func (c *Clipboard) Remove(ctx context.Context, ids ...string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		if _, ok := items[id]; ok {
			delete(items, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, c.save(ctx, items)
}

// Clear removes every item.
func (c *Clipboard) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Delete(ctx, KeyClipboard)
}
