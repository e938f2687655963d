// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the metasearch client:
// records and locations delivered by the broker, per-target status,
// clipboard and history entries, and configuration.
package types

import (
	"slices"
	"strconv"
	"time"
)

// Well-known metadata field names. The field namespace is open; these are
// the names the pipeline reads directly.
const (
	FieldTitle       = "title"
	FieldSeriesTitle = "series-title"
	FieldAuthor      = "author"
	FieldDate        = "date"
	FieldMedium      = "medium"
	FieldLanguage    = "language"
	FieldSubject     = "subject"
	FieldISBN        = "isbn"
	FieldISSN        = "issn"
	FieldEISSN       = "eissn"
	FieldPISSN       = "pissn"
	FieldDOI         = "doi"
	FieldPublisher   = "publication-name"
	FieldPlace       = "publication-place"
	FieldJournal     = "journal-title"
	FieldDescription = "description"
)

// Facet types that do not map one-to-one onto a metadata field.
const (
	// FacetTargets groups records by the targets holding them. Filter
	// values are target IDs; labels are target names.
	FacetTargets = "xtargets"

	// FacetDate groups records by the years in Record.FilterDate.
	FacetDate = "filterDate"
)

// Fields maps a metadata field name to its ordered values.
type Fields map[string][]string

// First returns the first value of name, or "" when absent.
func (f Fields) First(name string) string {
	if vs := f[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether name has at least one value.
func (f Fields) Has(name string) bool {
	return len(f[name]) > 0
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = slices.Clone(v)
	}
	return out
}

// Location is one holding or edition of a record at a specific target.
type Location struct {
	// ID identifies the target the location came from.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable target name.
	Name string `json:"name" yaml:"name"`

	// Fields holds the location's own metadata.
	Fields Fields `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// UIState is transient presentation state attached to a record by the
// front-end. It is never exported or persisted.
type UIState struct {
	// DetailsVisible reports whether the detail view is expanded.
	DetailsVisible bool

	// Detail is an opaque handle to a constructed detail rendering.
	Detail any
}

// Record is one bibliographic work as known by the broker.
type Record struct {
	// ID is the broker's stable record identifier.
	ID string `json:"id" yaml:"id"`

	// Fields holds merged record-level metadata.
	Fields Fields `json:"fields" yaml:"fields"`

	// Locations lists the holdings contributing to this record, newest first.
	Locations []Location `json:"locations,omitempty" yaml:"locations,omitempty"`

	// FilterDate holds the years extracted from the record's dates.
	FilterDate []int `json:"filter_date,omitempty" yaml:"filter_date,omitempty"`

	UI UIState `json:"-" yaml:"-"`
}

// Title returns the first title value.
func (r *Record) Title() string { return r.Fields.First(FieldTitle) }

// Authors returns the author values.
func (r *Record) Authors() []string { return r.Fields[FieldAuthor] }

// Date returns the primary date value.
func (r *Record) Date() string { return r.Fields.First(FieldDate) }

// Media returns the medium values.
func (r *Record) Media() []string { return r.Fields[FieldMedium] }

// Languages returns the language values.
func (r *Record) Languages() []string { return r.Fields[FieldLanguage] }

// Values returns the values used for filtering, faceting and sorting on
// name. Targets yield location names, "date" yields the dates of every
// location and FacetDate yields the extracted years; every other name is
// read from the record-level fields. A nil result means the field is
// absent.
func (r *Record) Values(name string) []string {
	switch name {
	case FacetTargets:
		var out []string
		for _, loc := range r.Locations {
			out = append(out, loc.Name)
		}
		return out
	case FieldDate:
		var out []string
		for _, loc := range r.Locations {
			out = append(out, loc.Fields[FieldDate]...)
		}
		if out == nil {
			return r.Fields[FieldDate]
		}
		return out
	case FacetDate:
		if r.FilterDate == nil {
			return nil
		}
		out := make([]string, len(r.FilterDate))
		for i, y := range r.FilterDate {
			out[i] = strconv.Itoa(y)
		}
		return out
	default:
		return r.Fields[name]
	}
}

// Clone returns a deep copy of r. UI state is carried over unless
// stripUI is set.
func (r *Record) Clone(stripUI bool) Record {
	out := Record{
		ID:         r.ID,
		Fields:     r.Fields.Clone(),
		FilterDate: slices.Clone(r.FilterDate),
	}
	if r.Locations != nil {
		out.Locations = make([]Location, len(r.Locations))
		for i, loc := range r.Locations {
			out.Locations[i] = Location{ID: loc.ID, Name: loc.Name, Fields: loc.Fields.Clone()}
		}
	}
	if !stripUI {
		out.UI = r.UI
	}
	return out
}

// FieldNames returns the record's field names in sorted order.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// ClipboardItem is a record copied to the clipboard. It is independent of
// the live result set once added.
type ClipboardItem struct {
	Record    Record    `json:"record" yaml:"record"`
	TimeAdded time.Time `json:"time_added" yaml:"time_added"`
}

// HistoryEntry is one past query.
type HistoryEntry struct {
	Query     string    `json:"query" yaml:"query"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
