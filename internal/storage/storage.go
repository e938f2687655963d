// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage persists the clipboard and the search history in an
// opaque key/value store backed by SQLite or Redis/Valkey.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/metasearch/pkg/types"
)

// ErrNotFound is returned when a key or item does not exist.
var ErrNotFound = errors.New("not found")

// Keys of the persisted values.
const (
	KeyClipboard = "clipboard"
	KeyHistory   = "history"
)

// KV is an opaque key/value store.
type KV interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg types.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "redis", "valkey":
		return OpenRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
