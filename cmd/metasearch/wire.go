// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/pdiddy/metasearch/internal/broker"
	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/internal/session"
	"github.com/pdiddy/metasearch/internal/storage"
)

// stores bundles the persistent clipboard and history over one backend.
type stores struct {
	kv        storage.KV
	clipboard *storage.Clipboard
	history   *storage.History
}

func (s *stores) Close() error { return s.kv.Close() }

func openStores(ctx context.Context) (*stores, error) {
	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	return &stores{
		kv:        kv,
		clipboard: storage.NewClipboard(kv),
		history:   storage.NewHistory(kv, cfg.Client.HistoryLimit),
	}, nil
}

func newBroker() (*broker.Client, error) {
	if cfg.Broker.URL == "" {
		return nil, fmt.Errorf("no broker configured: set broker.url or pass --broker")
	}
	creds := loadedSecrets.Proxy()
	if cfg.Broker.ServiceProxy && creds.IsZero() {
		log.Warn("service proxy enabled without credentials")
	}
	return broker.New(cfg.Broker, creds, nil), nil
}

// newSession builds a broker client and a session recording its queries in st.
func newSession(st *stores) (*session.Session, error) {
	b, err := newBroker()
	if err != nil {
		return nil, err
	}
	return session.New(cfg.Client, b,
		session.WithLogger(log),
		session.WithHistory(st.history),
		session.WithPollInterval(cfg.Broker.PollInterval))
}

func newConverter() *export.Converter {
	return export.NewConverter(cfg.Export)
}
