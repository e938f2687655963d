// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns structured search input into the broker's CCL query
// string and renders the sort and filter parameters the broker accepts.
package query

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/metasearch/internal/filter"
	"github.com/pdiddy/metasearch/internal/order"
	"github.com/pdiddy/metasearch/pkg/types"
)

// Query holds the search parameters.
type Query struct {
	FreeText string   `json:"free_text,omitempty" yaml:"free_text,omitempty"`
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Author   string   `json:"author,omitempty" yaml:"author,omitempty"`
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// YearFrom and YearTo bound the publication year, inclusive; 0 means open.
	YearFrom int `json:"year_from,omitempty" yaml:"year_from,omitempty"`
	YearTo   int `json:"year_to,omitempty" yaml:"year_to,omitempty"`
}

// IsEmpty reports whether the query contains no searchable terms. A year
// range alone is not searchable.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == "" &&
		strings.TrimSpace(q.Title) == "" &&
		strings.TrimSpace(q.Author) == "" &&
		strings.TrimSpace(q.Subject) == "" &&
		len(q.Keywords) == 0
}

// CCL renders the query for the broker, joining the parts with "and".
func (q Query) CCL() string {
	var parts []string
	if s := strings.Join(strings.Fields(q.FreeText), " "); s != "" {
		parts = append(parts, s)
	}
	for _, f := range []struct{ index, value string }{
		{"ti", q.Title},
		{"au", q.Author},
		{"su", q.Subject},
	} {
		if s := strings.Join(strings.Fields(f.value), " "); s != "" {
			parts = append(parts, f.index+"="+s)
		}
	}
	for _, kw := range q.Keywords {
		if s := strings.Join(strings.Fields(kw), " "); s != "" {
			parts = append(parts, "su="+s)
		}
	}
	if q.YearFrom > 0 || q.YearTo > 0 {
		r := "date="
		if q.YearFrom > 0 {
			r += strconv.Itoa(q.YearFrom)
		}
		r += "-"
		if q.YearTo > 0 {
			r += strconv.Itoa(q.YearTo)
		}
		parts = append(parts, r)
	}
	return strings.Join(parts, " and ")
}

// String returns the CCL form.
func (q Query) String() string { return q.CCL() }

var operators = map[string]bool{"and": true, "or": true, "not": true}

// Terms returns the lowercased words of the query used for highlighting,
// without duplicates, CCL operators or index prefixes.
func (q Query) Terms() []string {
	return Terms(strings.Join(append([]string{q.FreeText, q.Title, q.Author, q.Subject}, q.Keywords...), " "))
}

// Terms splits a raw query string into highlight terms.
func Terms(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if _, v, ok := strings.Cut(tok, "="); ok {
			tok = v
		}
		tok = strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if tok == "" || operators[tok] || slices.Contains(out, tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Highlight wraps every case-insensitive occurrence of terms in text with
// open and close.
func Highlight(text string, terms []string, open, close string) string {
	if len(terms) == 0 || text == "" {
		return text
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	if len(quoted) == 0 {
		return text
	}
	// Longer terms first so a term that prefixes another does not win.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	re := regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
	return re.ReplaceAllString(text, open+"${1}"+close)
}

// SortSpec renders criteria as the broker's sort parameter, e.g.
// "date:0,title:1" where 1 is ascending.
func SortSpec(c order.Criteria) string {
	parts := make([]string, len(c))
	for i, cr := range c {
		dir := "1"
		if cr.Direction == order.Descending {
			dir = "0"
		}
		parts[i] = cr.Field + ":" + dir
	}
	return strings.Join(parts, ",")
}

// FilterSpec renders the target filter as the broker's filter parameter
// ("pz:id=a|b") and the remaining term filters as its limit parameter
// ("medium=book|ebook,language=ger"). Date ranges are applied locally and
// are not sent.
func FilterSpec(set filter.Set) (filterParam, limitParam string) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var limits []string
	for _, k := range keys {
		var terms []string
		for _, v := range set[k] {
			if v.Range == nil && v.Term != "" {
				terms = append(terms, escapeLimit(v.Term))
			}
		}
		if len(terms) == 0 {
			continue
		}
		if k == types.FacetTargets {
			filterParam = "pz:id=" + strings.Join(terms, "|")
			continue
		}
		limits = append(limits, fmt.Sprintf("%s=%s", k, strings.Join(terms, "|")))
	}
	return filterParam, strings.Join(limits, ",")
}

// escapeLimit escapes the separators of the limit syntax.
func escapeLimit(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ",", `\,`, "|", `\|`)
	return r.Replace(s)
}
