// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/httputil"
	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/pkg/types"
)

// maxConvertedSize caps the converter response body.
const maxConvertedSize = 32 << 20

// Converter posts records to an external conversion endpoint that renders
// them as RIS, BibTeX, MARC or whatever formats it supports.
type Converter struct {
	Client *http.Client
	Config types.ExportConfig
}

// NewConverter returns a converter for cfg, or nil when no endpoint is
// configured.
func NewConverter(cfg types.ExportConfig) *Converter {
	if cfg.ConverterURL == "" {
		return nil
	}
	return &Converter{Client: &http.Client{Timeout: cfg.Timeout}, Config: cfg}
}

type convertRequest struct {
	Format  string         `json:"format"`
	Records []types.Record `json:"records"`
}

// Convert sends recs to the endpoint and returns the converted body.
func (c *Converter) Convert(ctx context.Context, format string, recs []types.Record) ([]byte, error) {
	payload, err := json.Marshal(convertRequest{Format: format, Records: recs})
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.ConverterURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, c.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("converter request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConvertedSize))
	if err != nil {
		return nil, fmt.Errorf("reading converter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("converter returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	logger.FromContext(ctx).Debug("records converted",
		zap.String("format", format),
		zap.Int("records", len(recs)),
		zap.Int("bytes", len(body)))
	return body, nil
}
