// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package order sorts records by an ordered list of (field, direction)
// criteria. Sorting is stable: the result list is re-sorted on every
// update, and equal records must keep their relative order.
package order

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/metasearch/pkg/types"
)

// Direction is the sort direction of one criterion.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Criterion sorts on one field.
type Criterion struct {
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Criteria is evaluated in order; the first nonzero comparison wins.
type Criteria []Criterion

// unknownYear is used for records whose date has no parseable year, so
// they sort as very old.
const unknownYear = 1000

// Parse reads a specification such as "date:desc,title:asc". A field
// without a direction sorts ascending. The broker's "1" and "0" are
// accepted for ascending and descending.
func Parse(spec string) (Criteria, error) {
	var out Criteria
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("sort criterion %q has no field", part)
		}
		c := Criterion{Field: field, Direction: Ascending}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc", "ascending", "1":
		case "desc", "descending", "0":
			c.Direction = Descending
		default:
			return nil, fmt.Errorf("sort criterion %q: unknown direction %q", part, dir)
		}
		out = append(out, c)
	}
	return out, nil
}

// String renders c in the form accepted by Parse.
func (c Criteria) String() string {
	parts := make([]string, len(c))
	for i, cr := range c {
		parts[i] = cr.Field + ":" + cr.Direction.String()
	}
	return strings.Join(parts, ",")
}

// Compare returns -1, 0 or 1 ordering a before, equal to or after b.
func Compare(a, b *types.Record, criteria Criteria) int {
	for _, c := range criteria {
		var r int
		if c.Field == types.FieldDate {
			r = cmpInt(LatestYear(a), LatestYear(b))
		} else {
			r = compareKeys(a, b, c.Field)
		}
		if r != 0 {
			if c.Direction == Descending {
				return -r
			}
			return r
		}
	}
	return 0
}

// Sort orders list in place by criteria, keeping equal records in their
// current order.
func Sort(list []*types.Record, criteria Criteria) {
	if len(criteria) == 0 {
		return
	}
	slices.SortStableFunc(list, func(a, b *types.Record) int {
		return Compare(a, b, criteria)
	})
}

// LatestYear parses the last whitespace- or hyphen-delimited token of the
// record's primary date. Records without a parseable year yield 1000.
func LatestYear(rec *types.Record) int {
	tokens := strings.FieldsFunc(rec.Date(), func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return unknownYear
	}
	last := tokens[len(tokens)-1]
	end := strings.IndexFunc(last, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(last)
	}
	n, err := strconv.Atoi(last[:end])
	if err != nil {
		return unknownYear
	}
	return n
}

var leadingNonWord = regexp.MustCompile(`^\W+`)

// SortKey returns the normalized string a record sorts by on field, and
// false when the field is absent.
func SortKey(rec *types.Record, field string) (string, bool) {
	values := rec.Values(field)
	if len(values) == 0 {
		return "", false
	}
	key := strings.ToLower(strings.Join(values, " "))
	return leadingNonWord.ReplaceAllString(key, ""), true
}

func compareKeys(a, b *types.Record, field string) int {
	ka, okA := SortKey(a, field)
	kb, okB := SortKey(b, field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	default:
		return strings.Compare(ka, kb)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
