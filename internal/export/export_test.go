// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

func sampleRecords() []types.Record {
	return []types.Record{
		{
			ID: "faust",
			Fields: types.Fields{
				types.FieldTitle:    {"Faust"},
				types.FieldAuthor:   {"Goethe, Johann Wolfgang von", "Schöne, Albrecht"},
				types.FieldDate:     {"[1808]"},
				types.FieldMedium:   {"book"},
				types.FieldLanguage: {"ger"},
			},
			Locations: []types.Location{{
				ID:   "libA",
				Name: "Library A",
				Fields: types.Fields{
					types.FieldISBN:      {"978-3-15-000001-5"},
					types.FieldPublisher: {"Reclam"},
					types.FieldPlace:     {"Stuttgart"},
				},
			}},
		},
		{
			ID: "paper",
			Fields: types.Fields{
				types.FieldTitle:    {"On Colour"},
				types.FieldAuthor:   {"Ada Lovelace"},
				types.FieldMedium:   {"article"},
				types.FieldJournal:  {"Journal of Optics"},
				types.FieldEISSN:    {"1234-5678"},
				types.FieldLanguage: {"zzz"},
				types.FieldDOI:      {"10.1000/xyz"},
			},
		},
	}
}

func TestToCSLItem(t *testing.T) {
	recs := sampleRecords()

	book := ToCSLItem(&recs[0])
	assert.Equal(t, "book", book.Type)
	assert.Equal(t, "Faust", book.Title)
	assert.Equal(t, []CSLName{
		{Family: "Goethe", Given: "Johann Wolfgang von"},
		{Family: "Schöne", Given: "Albrecht"},
	}, book.Author)
	require.NotNil(t, book.Issued)
	assert.Equal(t, [][]int{{1808}}, book.Issued.DateParts)
	assert.Equal(t, "978-3-15-000001-5", book.ISBN, "taken from the location")
	assert.Equal(t, "Reclam", book.Publisher)
	assert.Equal(t, "Stuttgart", book.PublisherPlace)
	assert.Equal(t, "ger", book.Language)

	article := ToCSLItem(&recs[1])
	assert.Equal(t, "article-journal", article.Type)
	assert.Equal(t, []CSLName{{Given: "Ada", Family: "Lovelace"}}, article.Author)
	assert.Nil(t, article.Issued)
	assert.Equal(t, "Journal of Optics", article.ContainerTitle)
	assert.Equal(t, "1234-5678", article.ISSN)
	assert.Equal(t, "10.1000/xyz", article.DOI)
	assert.Empty(t, article.Language, "unknown language is omitted")
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Goethe, Johann Wolfgang von", CSLName{Family: "Goethe", Given: "Johann Wolfgang von"}},
		{"Ada Lovelace", CSLName{Given: "Ada", Family: "Lovelace"}},
		{"Homer", CSLName{Literal: "Homer"}},
		{"Plato,", CSLName{Literal: "Plato"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAuthorName(tt.in), tt.in)
	}
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSL(sampleRecords(), &buf))

	var items []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "faust", items[0]["id"])
	assert.Contains(t, items[0], "issued")
	assert.Contains(t, items[1], "DOI")
}

func TestWriteLocalFormats(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, Write(ctx, &buf, "json", sampleRecords(), nil))
	var decoded []types.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Faust", decoded[0].Title())

	buf.Reset()
	require.NoError(t, Write(ctx, &buf, "JSON", nil, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(ctx, &buf, "yaml", sampleRecords(), nil))
	assert.Contains(t, buf.String(), "id: faust")

	err := Write(ctx, &buf, "ris", sampleRecords(), nil)
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestConverter(t *testing.T) {
	var got convertRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte("TY  - BOOK\nTI  - Faust\nER  -\n"))
	}))
	defer srv.Close()

	conv := NewConverter(types.ExportConfig{ConverterURL: srv.URL})
	require.NotNil(t, conv)

	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, "ris", sampleRecords()[:1], conv))
	assert.Equal(t, "ris", got.Format)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "faust", got.Records[0].ID)
	assert.Contains(t, buf.String(), "TI  - Faust")
}

func TestConverterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown format", http.StatusBadRequest)
	}))
	defer srv.Close()

	conv := NewConverter(types.ExportConfig{ConverterURL: srv.URL})
	_, err := conv.Convert(context.Background(), "nope", nil)
	assert.ErrorContains(t, err, "HTTP 400")
	assert.ErrorContains(t, err, "unknown format")

	assert.Nil(t, NewConverter(types.ExportConfig{}))
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faust.yaml")
	v := view.New(view.Query, order.Criteria{{Field: "date", Direction: order.Descending}}, 20)
	v.Filters.Add(types.FieldMedium, filter.Term("book"))
	v.Filters.Add(types.FacetDate, filter.Years(1800, 1850))
	hits := 25

	sf := SnapshotFile{
		Query:   query.Query{FreeText: "faust", Author: "Goethe", YearFrom: 1800},
		View:    *v,
		Records: sampleRecords(),
		Summary: Summary{
			Hits:      40,
			Targets:   []types.TargetStatus{{ID: "libA", State: types.TargetIdle, Records: 10, Hits: &hits}},
			Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, WriteSnapshot(path, sf))

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, sf.Query, got.Query)
	assert.Equal(t, 2, got.Summary.Total)
	assert.Equal(t, view.Query, got.View.Kind)
	assert.Equal(t, sf.View.Sort, got.View.Sort)
	assert.Equal(t, []filter.Value{filter.Years(1800, 1850)}, got.View.Filters[types.FacetDate])
	assert.Equal(t, "Faust", got.Records[0].Title())
	require.Len(t, got.Summary.Targets, 1)
	assert.Equal(t, 25, *got.Summary.Targets[0].Hits)

	_, err = ReadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading snapshot")
}
