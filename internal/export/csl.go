// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/metasearch/internal/records"
	"github.com/pdiddy/metasearch/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id" json:"id"`
	Type           string    `yaml:"type" json:"type"`
	Title          string    `yaml:"title" json:"title"`
	Author         []CSLName `yaml:"author,omitempty" json:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty" json:"issued,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty" json:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty" json:"publisher,omitempty"`
	PublisherPlace string    `yaml:"publisher-place,omitempty" json:"publisher-place,omitempty"`
	ISBN           string    `yaml:"ISBN,omitempty" json:"ISBN,omitempty"`
	ISSN           string    `yaml:"ISSN,omitempty" json:"ISSN,omitempty"`
	DOI            string    `yaml:"DOI,omitempty" json:"DOI,omitempty"`
	Language       string    `yaml:"language,omitempty" json:"language,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty" json:"family,omitempty"`
	Given   string `yaml:"given,omitempty" json:"given,omitempty"`
	Literal string `yaml:"literal,omitempty" json:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts" json:"date-parts"`
}

// cslTypes maps broker media to CSL item types.
var cslTypes = map[string]string{
	"book":         "book",
	"ebook":        "book",
	"article":      "article-journal",
	"electronic":   "webpage",
	"journal":      "periodical",
	"thesis":       "thesis",
	"map":          "map",
	"audio-visual": "motion_picture",
	"recording":    "song",
	"music-score":  "musical_score",
	"microform":    "document",
	"website":      "webpage",
	"multivolume":  "book",
	"newspaper":    "article-newspaper",
	"manuscript":   "manuscript",
	"game":         "software",
	"software":     "software",
	"other":        "document",
	"dissertation": "thesis",
	"proceedings":  "paper-conference",
}

// WriteCSL writes records as a CSL-YAML list to w.
func WriteCSL(recs []types.Record, w io.Writer) error {
	items := make([]CSLItem, len(recs))
	for i := range recs {
		items[i] = ToCSLItem(&recs[i])
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a record to a CSLItem. Values missing on the record
// are taken from its first location that has them.
func ToCSLItem(r *types.Record) CSLItem {
	item := CSLItem{
		ID:             r.ID,
		Type:           "document",
		Title:          r.Title(),
		Abstract:       first(r, types.FieldDescription),
		ContainerTitle: first(r, types.FieldJournal),
		Publisher:      first(r, types.FieldPublisher),
		PublisherPlace: first(r, types.FieldPlace),
		ISBN:           first(r, types.FieldISBN),
		DOI:            first(r, types.FieldDOI),
	}
	for _, f := range []string{types.FieldISSN, types.FieldPISSN, types.FieldEISSN} {
		if item.ISSN == "" {
			item.ISSN = first(r, f)
		}
	}
	if lang := r.Fields.First(types.FieldLanguage); lang != records.UnknownLanguage {
		item.Language = lang
	}
	if t, ok := cslTypes[strings.ToLower(r.Fields.First(types.FieldMedium))]; ok {
		item.Type = t
	}

	for _, a := range r.Authors() {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}

	if year, ok := records.LastYear(first(r, types.FieldDate)); ok {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}
	return item
}

// first returns the first value of field on r or, failing that, on the
// first location carrying it.
func first(r *types.Record, field string) string {
	if v := r.Fields.First(field); v != "" {
		return v
	}
	for _, loc := range r.Locations {
		if v := loc.Fields.First(field); v != "" {
			return v
		}
	}
	return ""
}

// parseAuthorName splits a name into CSL family/given parts. Catalogue
// names in "Family, Given" form split on the first comma; otherwise the
// last space separates given names from the family name. Single-token
// names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), ",."))
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		family, given = strings.TrimSpace(family), strings.TrimSpace(given)
		if given == "" {
			return CSLName{Literal: family}
		}
		return CSLName{Family: family, Given: given}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
