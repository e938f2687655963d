// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes record lists as JSON, YAML or CSL-YAML, saves and
// reloads result snapshots, and hands other formats to an external
// converter endpoint.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/metasearch/pkg/types"
)

// Local formats. Any other format name is passed to the converter.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSL  = "csl"
)

// Write renders recs in format to w. Formats other than the local ones
// need conv; a nil conv rejects them.
func Write(ctx context.Context, w io.Writer, format string, recs []types.Record, conv *Converter) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(w, recs)
	case FormatYAML:
		return WriteYAML(w, recs)
	case FormatCSL, "csl-yaml":
		return WriteCSL(recs, w)
	}
	if conv == nil {
		return fmt.Errorf("unsupported export format %q", format)
	}
	body, err := conv.Convert(ctx, format, recs)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// WriteJSON writes recs as an indented JSON array.
func WriteJSON(w io.Writer, recs []types.Record) error {
	if recs == nil {
		recs = []types.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteYAML writes recs as a YAML list.
func WriteYAML(w io.Writer, recs []types.Record) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(recs)
}

// ContentType returns the media type of a local format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return "application/json"
	case FormatYAML, FormatCSL, "csl-yaml":
		return "application/yaml"
	}
	return "application/octet-stream"
}
