// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package broker is an HTTP client for the federated search broker's
// command protocol. Every command is a GET with a command parameter; the
// broker answers with an XML document named after the command, or with an
// <error code msg> document and HTTP 417.
package broker

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/facet"
	"github.com/pdiddy/metasearch/internal/httputil"
	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/internal/metrics"
	"github.com/pdiddy/metasearch/internal/secrets"
	"github.com/pdiddy/metasearch/pkg/types"
)

// Error codes the client reacts to.
const (
	// CodeNoSession means the broker no longer knows the session.
	CodeNoSession = 1

	// CodeNotAuthenticated means the service proxy needs a new login.
	CodeNotAuthenticated = 100
)

// Error is a failure reported by the broker or the transport in front of it.
type Error struct {
	// Code is the broker error code, 0 when the body was not a broker error.
	Code int

	// Status is the HTTP status of the response.
	Status int

	Msg     string
	AddInfo string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.AddInfo != "" {
		msg += ": " + e.AddInfo
	}
	return fmt.Sprintf("broker error %d (HTTP %d): %s", e.Code, e.Status, msg)
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrNoSession is returned when a command needs a session and Init has not
// succeeded yet.
var ErrNoSession = errors.New("no broker session")

// SearchParams are the parameters of the search command.
type SearchParams struct {
	Query      string
	MaxRecords int
	Sort       string
	Filter     string
	Limit      string
}

// ShowParams select a window of merged records.
type ShowParams struct {
	Start int
	Num   int
	Sort  string
}

// ShowResult is one window of merged records.
type ShowResult struct {
	ActiveClients int
	Merged        int
	Total         int
	Start         int
	Records       []types.Record
}

// TermLists are the broker's facet counts keyed by facet type.
type TermLists struct {
	ActiveClients int
	Lists         map[string][]facet.Term
}

// Client talks to one broker. It keeps the session ID returned by Init.
type Client struct {
	HTTP        *http.Client
	Config      types.BrokerConfig
	Credentials secrets.Credentials

	mu      sync.Mutex
	session string
}

// New returns a client for cfg. A nil hc gets a client with a cookie jar,
// which the service proxy needs to keep its login.
func New(cfg types.BrokerConfig, creds secrets.Credentials, hc *http.Client) *Client {
	if hc == nil {
		jar, _ := cookiejar.New(nil)
		hc = &http.Client{Timeout: cfg.Timeout, Jar: jar}
	}
	return &Client{HTTP: hc, Config: cfg, Credentials: creds}
}

// SessionID returns the current broker session, empty before Init.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Init opens a new broker session. Behind the service proxy the proxy owns
// the session and no ID is returned.
func (c *Client) Init(ctx context.Context) error {
	var resp xmlStatus
	if err := c.do(ctx, "init", url.Values{}, false, &resp); err != nil {
		return err
	}
	if !strings.EqualFold(resp.Status, "OK") {
		return fmt.Errorf("broker init returned status %q", resp.Status)
	}
	if resp.Session == "" && !c.Config.ServiceProxy {
		return fmt.Errorf("broker init returned no session")
	}
	c.mu.Lock()
	c.session = resp.Session
	c.mu.Unlock()
	logger.FromContext(ctx).Debug("broker session initialised", zap.String("session", resp.Session))
	return nil
}

// Authenticate logs in with the service proxy. It is a no-op when the
// client is not configured for one.
func (c *Client) Authenticate(ctx context.Context) error {
	if !c.Config.ServiceProxy || c.Config.AuthURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Config.AuthURL, nil)
	if err != nil {
		return fmt.Errorf("creating auth request: %w", err)
	}
	if !c.Credentials.IsZero() {
		req.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	c.observe("auth", start, resp)
	if err != nil {
		return fmt.Errorf("service proxy auth request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Code: CodeNotAuthenticated, Status: resp.StatusCode, Msg: "service proxy authentication failed"}
	}
	return nil
}

// Search starts a new query in the current session.
func (c *Client) Search(ctx context.Context, p SearchParams) error {
	params := url.Values{"query": {p.Query}}
	if p.MaxRecords > 0 {
		params.Set("maxrecs", strconv.Itoa(p.MaxRecords))
	}
	setIf(params, "sort", p.Sort)
	setIf(params, "filter", p.Filter)
	setIf(params, "limit", p.Limit)

	var resp xmlStatus
	if err := c.do(ctx, "search", params, true, &resp); err != nil {
		return err
	}
	if !strings.EqualFold(resp.Status, "OK") {
		return fmt.Errorf("broker search returned status %q", resp.Status)
	}
	return nil
}

// Show fetches a window of merged records.
func (c *Client) Show(ctx context.Context, p ShowParams) (*ShowResult, error) {
	params := url.Values{
		"start": {strconv.Itoa(max(p.Start, 0))},
		"num":   {strconv.Itoa(max(p.Num, 0))},
	}
	setIf(params, "sort", p.Sort)

	var resp xmlShow
	if err := c.do(ctx, "show", params, true, &resp); err != nil {
		return nil, err
	}
	out := &ShowResult{
		ActiveClients: resp.ActiveClients,
		Merged:        resp.Merged,
		Total:         resp.Total,
		Start:         resp.Start,
		Records:       make([]types.Record, 0, len(resp.Hits)),
	}
	for _, h := range resp.Hits {
		out.Records = append(out.Records, h.record())
	}
	return out, nil
}

// Stat fetches aggregate progress.
func (c *Client) Stat(ctx context.Context) (types.BrokerStat, error) {
	var resp xmlStat
	if err := c.do(ctx, "stat", url.Values{}, true, &resp); err != nil {
		return types.BrokerStat{}, err
	}
	return types.BrokerStat{
		Clients:       resp.Clients,
		ActiveClients: resp.ActiveClients,
		Records:       resp.Records,
		Hits:          resp.Hits,
	}, nil
}

// ByTarget fetches the status of every target.
func (c *Client) ByTarget(ctx context.Context) ([]types.TargetStatus, error) {
	var resp xmlByTarget
	if err := c.do(ctx, "bytarget", url.Values{}, true, &resp); err != nil {
		return nil, err
	}
	out := make([]types.TargetStatus, 0, len(resp.Targets))
	for _, t := range resp.Targets {
		out = append(out, t.status())
	}
	return out, nil
}

// TermList fetches the broker's facet counts for names.
func (c *Client) TermList(ctx context.Context, names []string) (*TermLists, error) {
	params := url.Values{"name": {strings.Join(names, ",")}}
	var resp xmlTermList
	if err := c.do(ctx, "termlist", params, true, &resp); err != nil {
		return nil, err
	}
	return &TermLists{ActiveClients: resp.ActiveClients, Lists: resp.terms()}, nil
}

// Record fetches the full record id with every location.
func (c *Client) Record(ctx context.Context, id string) (*types.Record, error) {
	var resp xmlRecord
	if err := c.do(ctx, "record", url.Values{"id": {id}}, true, &resp); err != nil {
		return nil, err
	}
	rec := types.Record{ID: resp.RecID, Fields: metadata(resp.Other), Locations: locations(resp.Locations)}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}

// do issues command and decodes the response into out.
func (c *Client) do(ctx context.Context, command string, params url.Values, needSession bool, out any) error {
	params.Set("command", command)
	if needSession && !c.Config.ServiceProxy {
		sid := c.SessionID()
		if sid == "" {
			return ErrNoSession
		}
		params.Set("session", sid)
	}

	u := c.Config.URL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", command, err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	c.observe(command, start, resp)
	if err != nil {
		return fmt.Errorf("broker %s request: %w", command, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading broker %s response: %w", command, err)
	}

	if berr := decodeError(body, resp.StatusCode); berr != nil {
		logger.FromContext(ctx).Debug("broker error",
			zap.String("command", command),
			zap.Int("code", berr.Code),
			zap.Int("status", berr.Status),
			zap.String("msg", berr.Msg))
		return berr
	}

	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return fmt.Errorf("parsing broker %s response: %w", command, err)
	}
	return nil
}

// decodeError returns the broker error carried by body, or an Error for a
// non-2xx status without one. It returns nil for a successful response.
func decodeError(body []byte, status int) *Error {
	var e xmlError
	if err := xml.Unmarshal(body, &e); err == nil && e.XMLName.Local == "error" {
		return &Error{Code: e.Code, Status: status, Msg: e.Msg, AddInfo: strings.TrimSpace(e.AddInfo)}
	}
	if status < 200 || status > 299 {
		return &Error{Status: status}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
}

func (c *Client) observe(command string, start time.Time, resp *http.Response) {
	metrics.BrokerRequestDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.BrokerRequestsTotal.WithLabelValues(command, status).Inc()
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
