// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/broker"
	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/view"
)

// Follow polls the broker for generation gen until no target is active any
// more, the generation becomes stale or ctx is cancelled. Once the broker
// reports no active clients one final round is fetched. A recovered broker
// error keeps following; an unrecovered one is returned.
func (s *Session) Follow(ctx context.Context, gen uint64) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	final := false
	for {
		if !s.IsCurrent(gen) {
			return nil
		}
		active, err := s.poll(ctx, gen)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !s.OnError(ctx, err) {
				return err
			}
		} else if active == 0 {
			if final {
				s.log.Debug("search finished", zap.Uint64("generation", gen))
				return nil
			}
			final = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Refresh fetches one round of results and status for the current query,
// e.g. after the page changed in server-side paging mode.
func (s *Session) Refresh(ctx context.Context) error {
	gen := s.Generation()
	if gen == 0 {
		return nil
	}
	if _, err := s.poll(ctx, gen); err != nil {
		if !s.OnError(ctx, err) {
			return err
		}
	}
	return nil
}

// poll fetches results, status, targets and term lists once and returns
// the number of active clients.
func (s *Session) poll(ctx context.Context, gen uint64) (int, error) {
	s.searching.RLock()
	defer s.searching.RUnlock()

	res, err := s.broker.Show(ctx, s.showParams())
	if err != nil {
		return 0, err
	}
	s.onShow(gen, res)

	stat, err := s.broker.Stat(ctx)
	if err != nil {
		return 0, err
	}
	s.OnStatus(gen, stat)

	targets, err := s.broker.ByTarget(ctx)
	if err != nil {
		return 0, err
	}
	s.OnTargetStatus(gen, targets)

	if s.cfg.UseBrokerFacets {
		tl, err := s.broker.TermList(ctx, s.cfg.FacetTypes())
		if err != nil {
			return 0, err
		}
		s.OnTermList(gen, tl.Lists)
	}
	return stat.ActiveClients, nil
}

// showParams is the window to request: the current page in server-side
// paging mode, otherwise everything up to MaxRecords.
func (s *Session) showParams() broker.ShowParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	qv := s.views[view.Query]
	p := broker.ShowParams{Start: 0, Num: s.cfg.MaxRecords, Sort: query.SortSpec(qv.Sort)}
	if s.cfg.ServerSidePaging {
		p.Start = qv.Offset()
		p.Num = qv.RecordsPerPage
	}
	return p
}
