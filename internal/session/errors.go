// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/broker"
	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/internal/metrics"
)

const (
	// MaxConsecutiveErrors is the number of broker errors after which the
	// session gives up recovering and reports the service unavailable.
	MaxConsecutiveErrors = 3

	// RetryDelay is the wait before an unavailable session retries.
	RetryDelay = 15 * time.Second
)

type recovery int

const (
	giveUp recovery = iota
	reinit
	reauth
)

func (r recovery) String() string {
	switch r {
	case reinit:
		return "reinit"
	case reauth:
		return "reauth"
	}
	return "unavailable"
}

// classify picks the recovery for err and counts it. mu must be held.
func (s *Session) classify(err error) recovery {
	berr, ok := broker.AsError(err)
	if !ok || s.errorCount >= MaxConsecutiveErrors || berr.Status != http.StatusExpectationFailed {
		return giveUp
	}
	switch berr.Code {
	case broker.CodeNoSession:
		s.errorCount++
		return reinit
	case broker.CodeNotAuthenticated:
		s.errorCount++
		return reauth
	}
	return giveUp
}

// OnError handles a failed broker command. A lost session is re-opened
// and a lost proxy login re-established, after which the current query is
// issued again; both stop after MaxConsecutiveErrors attempts. Anything
// else marks the session unavailable and schedules a retry after
// RetryDelay. OnError reports whether the session recovered.
func (s *Session) OnError(ctx context.Context, err error) bool {
	log := s.log
	for {
		s.mu.Lock()
		action := s.classify(err)
		count := s.errorCount
		s.mu.Unlock()

		metrics.BrokerErrorsTotal.WithLabelValues(action.String()).Inc()
		log.Warn("broker error",
			zap.Error(err),
			zap.Stringer("action", action),
			zap.Int("error_count", count))

		if action == giveUp {
			s.markUnavailable()
			return false
		}
		if action == reauth {
			if err = s.broker.Authenticate(ctx); err != nil {
				continue
			}
		}
		if err = s.reinit(ctx); err != nil {
			continue
		}
		return true
	}
}

// reinit opens a new broker session and re-issues the current query with
// the parameters it was first sent with, without resetting the result
// state. Local filters set since then stay local.
func (s *Session) reinit(ctx context.Context) error {
	if err := s.broker.Init(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.initialised = true
	s.errorCount = 0
	s.unavailable = false
	q := s.query
	params := s.issued
	s.mu.Unlock()

	if q == "" {
		return nil
	}
	logger.FromContext(ctx).Debug("re-issuing query", zap.String("query", q))
	return s.broker.Search(ctx, params)
}

// markUnavailable flags the session and schedules a retry unless one is
// already pending.
func (s *Session) markUnavailable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = true
	if s.retry != nil {
		return
	}
	s.retry = s.afterFunc(RetryDelay, s.retryNow)
}

// retryNow resets the error counter and re-opens the broker session.
func (s *Session) retryNow() {
	s.mu.Lock()
	s.retry = nil
	s.errorCount = 0
	s.mu.Unlock()

	ctx := logger.WithContext(context.Background(), s.log)
	if err := s.reinit(ctx); err != nil {
		s.OnError(ctx, err)
		return
	}
	s.log.Info("broker available again")
}
