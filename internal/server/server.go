// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes a session, the clipboard and the search history
// as a local JSON API for a browser front-end.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/broker"
	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/internal/metrics"
	"github.com/pdiddy/metasearch/internal/records"
	"github.com/pdiddy/metasearch/internal/session"
	"github.com/pdiddy/metasearch/internal/storage"
)

// Error codes returned in error bodies.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeUnavailable = "service_unavailable"
	codeBroker      = "broker_error"
	codeInternal    = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle an error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the JSON API for one session.
type Server struct {
	session   *session.Session
	clipboard *storage.Clipboard
	history   *storage.History
	converter *export.Converter
	logger    *zap.Logger

	errorHandlers []errorHandler

	mu           sync.Mutex
	baseCtx      context.Context
	cancelFollow context.CancelFunc
	wg           sync.WaitGroup
}

// New returns a server for sess. converter may be nil.
func New(sess *session.Session, clip *storage.Clipboard, hist *storage.History, conv *export.Converter, log *zap.Logger) *Server {
	s := &Server{
		session:   sess,
		clipboard: clip,
		history:   hist,
		converter: conv,
		logger:    log,
		baseCtx:   logger.WithContext(context.Background(), log),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(session.ErrEmptyQuery, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(session.ErrUnavailable, http.StatusServiceUnavailable, codeUnavailable),
		sentinelHandler(records.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(storage.ErrNotFound, http.StatusNotFound, codeNotFound),
		brokerErrorHandler,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.search)
		r.Get("/results", s.results)
		r.Get("/records/{id}", s.record)
		r.Get("/records/{id}/detail", s.recordDetail)
		r.Post("/records/{id}/toggle", s.toggleDetails)

		r.Post("/filters", s.addFilter)
		r.Delete("/filters", s.removeFilter)
		r.Put("/filters/{type}", s.setFilter)
		r.Delete("/filters/all", s.clearFilters)
		r.Put("/date-range", s.setDateRange)
		r.Put("/sort", s.setSort)
		r.Put("/page", s.setPage)
		r.Put("/per-page", s.setPerPage)
		r.Put("/view", s.switchView)

		r.Get("/clipboard", s.listClipboard)
		r.Post("/clipboard", s.addClipboard)
		r.Delete("/clipboard/{id}", s.removeClipboard)
		r.Delete("/clipboard", s.clearClipboard)

		r.Get("/history", s.listHistory)
		r.Get("/export", s.export)
	})
	return r
}

// Close stops the background polling of the current search.
func (s *Server) Close() {
	s.mu.Lock()
	if s.cancelFollow != nil {
		s.cancelFollow()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// follow polls the broker for gen in the background, replacing any
// previous poller.
func (s *Server) follow(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFollow != nil {
		s.cancelFollow()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancelFollow = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		err := s.session.Follow(ctx, gen)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("following search", zap.Uint64("generation", gen), zap.Error(err))
			return
		}
		s.logger.Debug("search followed",
			zap.Uint64("generation", gen),
			zap.Duration("elapsed", time.Since(start)))
	}()
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.session.Unavailable() {
		status = "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func brokerErrorHandler(w http.ResponseWriter, err error) bool {
	berr, ok := broker.AsError(err)
	if !ok {
		return false
	}
	writeError(w, http.StatusBadGateway, codeBroker, berr.Error())
	return true
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Debug("request failed", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger emits one log line per request and puts a request-scoped
// logger into the context.
func requestLogger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			ctx := logger.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
