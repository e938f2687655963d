// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/metasearch/internal/export"
	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

// search handles POST /api/search.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var q query.Query
	if !decode(w, r, &q) {
		return
	}
	gen, err := s.session.Search(r.Context(), q)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.follow(gen)
	writeJSON(w, http.StatusAccepted, map[string]any{"generation": gen, "query": q.CCL()})
}

// results handles GET /api/results.
func (s *Server) results(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// record handles GET /api/records/{id}.
func (s *Server) record(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.session.Record(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// recordDetail handles GET /api/records/{id}/detail.
func (s *Server) recordDetail(w http.ResponseWriter, r *http.Request) {
	rec, err := s.session.LoadDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// toggleDetails handles POST /api/records/{id}/toggle.
func (s *Server) toggleDetails(w http.ResponseWriter, r *http.Request) {
	if !s.session.ToggleDetails(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, codeNotFound, "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// filterRequest names one filter value: a term, or a year range for the
// date facet.
type filterRequest struct {
	Type string `json:"type"`
	Term string `json:"term,omitempty"`
	From int    `json:"from,omitempty"`
	To   int    `json:"to,omitempty"`
}

func (f filterRequest) value() (filter.Value, error) {
	if f.Type == "" {
		return filter.Value{}, fmt.Errorf("filter type is required")
	}
	if f.Term != "" {
		return filter.Term(f.Term), nil
	}
	if f.Type == types.FacetDate && f.To > f.From {
		return filter.Years(f.From, f.To), nil
	}
	return filter.Value{}, fmt.Errorf("filter needs a term or a year range")
}

// addFilter handles POST /api/filters.
func (s *Server) addFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := req.value()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.session.AddFilter(req.Type, v)
	s.viewChanged(w, r)
}

// removeFilter handles DELETE /api/filters.
func (s *Server) removeFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := req.value()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.session.RemoveFilter(req.Type, v)
	s.viewChanged(w, r)
}

// setFilter handles PUT /api/filters/{type} with a list of terms.
func (s *Server) setFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Terms []string `json:"terms"`
	}
	if !decode(w, r, &req) {
		return
	}
	values := make([]filter.Value, 0, len(req.Terms))
	for _, t := range req.Terms {
		values = append(values, filter.Term(t))
	}
	s.session.SetFilter(chi.URLParam(r, "type"), values)
	s.viewChanged(w, r)
}

// clearFilters handles DELETE /api/filters/all.
func (s *Server) clearFilters(w http.ResponseWriter, r *http.Request) {
	s.session.ClearFilters()
	s.viewChanged(w, r)
}

// setDateRange handles PUT /api/date-range.
func (s *Server) setDateRange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.session.SetDateRange(req.From, req.To)
	s.viewChanged(w, r)
}

// setSort handles PUT /api/sort.
func (s *Server) setSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sort string `json:"sort"`
	}
	if !decode(w, r, &req) {
		return
	}
	c, err := order.Parse(req.Sort)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.session.SetSort(c)
	s.refresh(w, r)
}

// setPage handles PUT /api/page.
func (s *Server) setPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.session.SetPage(req.Page)
	s.refresh(w, r)
}

// setPerPage handles PUT /api/per-page.
func (s *Server) setPerPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PerPage int `json:"per_page"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.PerPage <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "per_page must be positive")
		return
	}
	s.session.SetPerPage(req.PerPage)
	s.refresh(w, r)
}

// switchView handles PUT /api/view.
func (s *Server) switchView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	if !decode(w, r, &req) {
		return
	}
	kind, err := view.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if kind == view.Clipboard {
		if err := s.syncClipboard(r); err != nil {
			s.handleError(w, err)
			return
		}
	}
	s.session.SwitchView(kind)
	s.viewChanged(w, r)
}

// refresh re-fetches the broker window when the broker pages the results,
// then answers with the new snapshot.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if s.session.ServerPaged() {
		if err := s.session.Refresh(r.Context()); err != nil {
			s.handleError(w, err)
			return
		}
	}
	s.viewChanged(w, r)
}

func (s *Server) viewChanged(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// syncClipboard loads the stored clipboard into the session's clipboard view.
func (s *Server) syncClipboard(r *http.Request) error {
	items, err := s.clipboard.Items(r.Context())
	if err != nil {
		return err
	}
	s.session.SetClipboard(items)
	return nil
}

// listClipboard handles GET /api/clipboard.
func (s *Server) listClipboard(w http.ResponseWriter, r *http.Request) {
	items, err := s.clipboard.Items(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// addClipboard handles POST /api/clipboard with record IDs from the
// current results.
func (s *Server) addClipboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	recs := make([]types.Record, 0, len(req.IDs))
	for _, id := range req.IDs {
		rec, ok := s.session.Record(id)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "record not found: "+id)
			return
		}
		recs = append(recs, rec)
	}
	added, err := s.clipboard.Add(r.Context(), recs...)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if err := s.syncClipboard(r); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// removeClipboard handles DELETE /api/clipboard/{id}.
func (s *Server) removeClipboard(w http.ResponseWriter, r *http.Request) {
	removed, err := s.clipboard.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if removed == 0 {
		writeError(w, http.StatusNotFound, codeNotFound, "clipboard item not found")
		return
	}
	if err := s.syncClipboard(r); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearClipboard handles DELETE /api/clipboard.
func (s *Server) clearClipboard(w http.ResponseWriter, r *http.Request) {
	if err := s.clipboard.Clear(r.Context()); err != nil {
		s.handleError(w, err)
		return
	}
	s.session.SetClipboard(nil)
	w.WriteHeader(http.StatusNoContent)
}

// listHistory handles GET /api/history.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Entries(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// export handles GET /api/export?format=csl&source=clipboard. The default
// source is the filtered, sorted result list of the active view.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	var recs []types.Record
	switch src := r.URL.Query().Get("source"); src {
	case "", "results":
		recs = s.session.Display()
	case "clipboard":
		items, err := s.clipboard.Items(r.Context())
		if err != nil {
			s.handleError(w, err)
			return
		}
		for _, it := range items {
			recs = append(recs, it.Record)
		}
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown source "+src)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(r.Context(), &buf, format, recs, s.converter); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
