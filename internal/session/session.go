// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session ties the result pipeline together for one user: it
// issues queries to the broker, merges the batches it delivers, and keeps
// the derived display lists and facets current after every change.
//
// Every broker delivery is tagged with the generation of the query it
// belongs to. A delivery is applied only while its generation is current;
// issuing a new query bumps the generation, so late batches of an earlier
// query are dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/metasearch/internal/broker"
	"github.com/pdiddy/metasearch/internal/facet"
	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/internal/metrics"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/records"
	"github.com/pdiddy/metasearch/internal/target"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

var (
	// ErrEmptyQuery is returned by Search for a query without terms.
	ErrEmptyQuery = errors.New("empty query")

	// ErrUnavailable is returned while the broker is marked unavailable.
	ErrUnavailable = errors.New("search service unavailable")
)

// Broker is the subset of the broker client the session drives.
type Broker interface {
	Init(ctx context.Context) error
	Authenticate(ctx context.Context) error
	Search(ctx context.Context, p broker.SearchParams) error
	Show(ctx context.Context, p broker.ShowParams) (*broker.ShowResult, error)
	Stat(ctx context.Context) (types.BrokerStat, error)
	ByTarget(ctx context.Context) ([]types.TargetStatus, error)
	TermList(ctx context.Context, names []string) (*broker.TermLists, error)
	Record(ctx context.Context, id string) (*types.Record, error)
}

// HistoryRecorder stores issued queries.
type HistoryRecorder interface {
	Add(ctx context.Context, query string) error
}

// Timer is a scheduled call that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

// WithHistory records every issued query in h.
func WithHistory(h HistoryRecorder) Option { return func(s *Session) { s.history = h } }

// WithAfterFunc replaces the scheduler used for the unavailability retry.
func WithAfterFunc(f AfterFunc) Option { return func(s *Session) { s.afterFunc = f } }

// WithPollInterval sets the delay between polls in Follow.
func WithPollInterval(d time.Duration) Option { return func(s *Session) { s.pollInterval = d } }

// Session is the state of one search client. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg          types.ClientConfig
	broker       Broker
	history      HistoryRecorder
	log          *zap.Logger
	afterFunc    AfterFunc
	pollInterval time.Duration

	store      *records.Store
	clipboard  []*types.Record
	views      map[view.Kind]*view.View
	active     view.Kind
	projector  *view.Projector
	aggregator *facet.Aggregator
	tracker    *target.Tracker
	termLists  map[string][]facet.Term
	stat       types.BrokerStat
	merged     int

	query       string
	issued      broker.SearchParams
	generation  uint64
	initialised bool

	// searching is held for writing while a query is being issued so
	// polls never see the new generation before the broker does.
	searching sync.RWMutex

	errorCount  int
	unavailable bool
	retry       Timer

	display       []*types.Record
	dateInclusive []*types.Record
	facets        []facet.Result

	// details collapses concurrent fetches of the same record.
	details singleflight.Group
}

// New returns a session driving b with cfg. cfg should have its defaults
// applied.
func New(cfg types.ClientConfig, b Broker, opts ...Option) (*Session, error) {
	sortCriteria, err := order.Parse(cfg.Sort)
	if err != nil {
		return nil, fmt.Errorf("parsing default sort: %w", err)
	}
	if len(cfg.Facets) == 0 {
		cfg.Facets = types.DefaultFacets()
	}
	perPage := cfg.RecordsPerPage
	if perPage <= 0 {
		perPage = 20
	}

	s := &Session{
		cfg:          cfg,
		broker:       b,
		log:          zap.NewNop(),
		afterFunc:    realAfterFunc,
		pollInterval: time.Second,
		store:        records.NewStore(records.Options{SelfComputedFacets: !cfg.UseBrokerFacets}),
		views: map[view.Kind]*view.View{
			view.Query:     view.New(view.Query, sortCriteria, perPage),
			view.Clipboard: view.New(view.Clipboard, slices.Clone(sortCriteria), perPage),
		},
		active:     view.Query,
		projector:  view.NewProjector(filter.NewEngine(cfg.FacetTypes())),
		aggregator: facet.NewAggregator(cfg.Facets, cfg.DateHistogram),
		tracker:    target.NewTracker(),
		termLists:  make(map[string][]facet.Term),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s, nil
}

// Close cancels a pending unavailability retry.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

// Init authenticates with the service proxy and opens a broker session.
func (s *Session) Init(ctx context.Context) error {
	if err := s.broker.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if err := s.broker.Init(ctx); err != nil {
		return fmt.Errorf("initialising broker session: %w", err)
	}
	s.mu.Lock()
	s.initialised = true
	s.mu.Unlock()
	return nil
}

// Search resets the result state and issues q to the broker. It returns
// the generation the results of q will carry.
func (s *Session) Search(ctx context.Context, q query.Query) (uint64, error) {
	if q.IsEmpty() {
		return 0, ErrEmptyQuery
	}

	s.mu.Lock()
	if s.unavailable {
		s.mu.Unlock()
		return 0, ErrUnavailable
	}
	initialised := s.initialised
	s.mu.Unlock()

	if !initialised {
		if err := s.Init(ctx); err != nil && !s.OnError(ctx, err) {
			return 0, err
		}
	}

	ccl := q.CCL()
	s.searching.Lock()
	defer s.searching.Unlock()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.query = ccl
	s.resetPage()
	qv := s.views[view.Query]
	qv.QueryTerms = q.Terms()
	params := s.searchParams()
	s.issued = params
	s.recompute()
	s.mu.Unlock()

	metrics.SearchesTotal.Inc()
	s.log.Info("search", zap.String("query", ccl), zap.Uint64("generation", gen))

	if err := s.broker.Search(ctx, params); err != nil {
		if !s.OnError(ctx, err) {
			return gen, err
		}
	}

	if s.history != nil {
		if err := s.history.Add(ctx, ccl); err != nil {
			s.log.Warn("recording search history", zap.Error(err))
		}
	}
	return s.Generation(), nil
}

// searchParams must be called with mu held.
func (s *Session) searchParams() broker.SearchParams {
	qv := s.views[view.Query]
	f, l := query.FilterSpec(qv.Filters)
	return broker.SearchParams{
		Query:      s.query,
		MaxRecords: s.cfg.MaxRecords,
		Sort:       query.SortSpec(qv.Sort),
		Filter:     f,
		Limit:      l,
	}
}

// resetPage clears the result state of the query view. mu must be held.
func (s *Session) resetPage() {
	s.store.Reset()
	s.tracker.Reset()
	clear(s.termLists)
	s.stat = types.BrokerStat{}
	s.merged = 0
	s.views[view.Query].Reset()
}

// Generation returns the current query generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// IsCurrent reports whether gen is the current generation.
func (s *Session) IsCurrent(gen uint64) bool { return s.Generation() == gen }

// Query returns the current CCL query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Unavailable reports whether the broker is marked unavailable.
func (s *Session) Unavailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unavailable
}

// ErrorCount returns the number of consecutive broker errors.
func (s *Session) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// stale reports and counts a delivery for an old generation. mu must be held.
func (s *Session) stale(gen uint64, callback string) bool {
	if gen == s.generation {
		return false
	}
	metrics.StaleCallbacksTotal.WithLabelValues(callback).Inc()
	s.log.Debug("dropping stale delivery",
		zap.String("callback", callback),
		zap.Uint64("generation", gen),
		zap.Uint64("current", s.generation))
	return true
}

// OnResultsBatch merges hits delivered for generation gen. It reports
// whether the batch was applied.
func (s *Session) OnResultsBatch(gen uint64, hits []types.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "results") {
		return false
	}
	s.merge(hits)
	s.recompute()
	return true
}

// merge must be called with mu held.
func (s *Session) merge(hits []types.Record) {
	sum := s.store.Merge(hits)
	metrics.RecordsMergedTotal.WithLabelValues("added").Add(float64(sum.Added))
	metrics.RecordsMergedTotal.WithLabelValues("updated").Add(float64(sum.Updated))
	metrics.RecordsMergedTotal.WithLabelValues("skipped").Add(float64(sum.Skipped))
}

// onShow applies a show window. In server-side paging mode the window
// replaces the store contents.
func (s *Session) onShow(gen uint64, res *broker.ShowResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "results") {
		return false
	}
	if s.cfg.ServerSidePaging {
		s.store.Reset()
	}
	s.merged = res.Merged
	s.merge(res.Records)
	s.recompute()
	return true
}

// OnStatus records aggregate progress for generation gen.
func (s *Session) OnStatus(gen uint64, stat types.BrokerStat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "status") {
		return false
	}
	s.stat = stat
	return true
}

// OnTargetStatus records per-target status for generation gen.
func (s *Session) OnTargetStatus(gen uint64, entries []types.TargetStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "targets") {
		return false
	}
	s.tracker.Update(entries)
	return true
}

// OnTermList stores broker facet counts for generation gen.
func (s *Session) OnTermList(gen uint64, lists map[string][]facet.Term) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "termlist") {
		return false
	}
	for k, v := range lists {
		s.termLists[k] = v
	}
	s.recompute()
	return true
}

// recompute rebuilds the derived lists and facets. mu must be held.
func (s *Session) recompute() {
	v := s.views[s.active]
	source := s.clipboard
	if s.active == view.Query {
		source = s.store.Records()
	}
	s.display, s.dateInclusive = s.projector.Project(source, v)
	v.ClampPage(s.resultCount())

	preferExternal := s.cfg.UseBrokerFacets && s.active == view.Query
	s.facets = s.aggregator.ComputeAll(s.display, s.dateInclusive, s.termLists, preferExternal, v.Filters.Active())
}

// resultCount is the number of records the pager spans. mu must be held.
func (s *Session) resultCount() int {
	if s.serverPaged() {
		return max(s.merged, len(s.display))
	}
	return len(s.display)
}

// ServerPaged reports whether the active view is paged by the broker, so
// page and sort changes need a Refresh.
func (s *Session) ServerPaged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverPaged()
}

func (s *Session) serverPaged() bool {
	return s.cfg.ServerSidePaging && s.active == view.Query
}

// SetClipboard replaces the records of the clipboard view with deep
// copies of items, oldest first.
func (s *Session) SetClipboard(items []types.ClipboardItem) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b types.ClipboardItem) int {
		return a.TimeAdded.Compare(b.TimeAdded)
	})
	recs := make([]*types.Record, 0, len(sorted))
	for _, it := range sorted {
		rec := it.Record.Clone(true)
		rec.FilterDate = records.FilterDates(&rec)
		recs = append(recs, &rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = recs
	s.recompute()
}

// Record returns a copy of the record id from the query results.
func (s *Session) Record(id string) (types.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store.Get(id)
	if !ok {
		return types.Record{}, false
	}
	return rec.Clone(false), true
}

// ToggleDetails flips the expanded state of the record id.
func (s *Session) ToggleDetails(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store.Get(id)
	if !ok {
		return false
	}
	return s.store.SetDetailsVisible(id, !rec.UI.DetailsVisible)
}

// LoadDetail fetches the full record id from the broker and caches it on
// the stored record. The cache is dropped by the store when a later batch
// changes the record's locations; a detail whose record changed while it
// was being fetched is returned but not cached.
func (s *Session) LoadDetail(ctx context.Context, id string) (*types.Record, error) {
	s.mu.Lock()
	rec, ok := s.store.Get(id)
	var locations int
	gen := s.generation
	if ok {
		if cached, ok := rec.UI.Detail.(*types.Record); ok {
			out := cached.Clone(false)
			s.mu.Unlock()
			return &out, nil
		}
		locations = len(rec.Locations)
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, records.ErrNotFound)
	}

	v, err, shared := s.details.Do(id, func() (any, error) {
		s.mu.Lock()
		if rec, ok := s.store.Get(id); ok {
			if cached, ok := rec.UI.Detail.(*types.Record); ok {
				s.mu.Unlock()
				return cached, nil
			}
		}
		s.mu.Unlock()

		detail, err := s.broker.Record(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		// A batch or a new search may have replaced the record meanwhile.
		if cur, ok := s.store.Get(id); ok && s.generation == gen && len(cur.Locations) == locations {
			s.store.AttachDetail(id, detail)
		}
		s.mu.Unlock()
		return detail, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching record %s: %w", id, err)
	}
	logger.FromContext(ctx).Debug("record detail loaded", zap.String("id", id), zap.Bool("shared", shared))
	out := v.(*types.Record).Clone(false)
	return &out, nil
}
