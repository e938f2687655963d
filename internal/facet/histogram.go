// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package facet

import "strconv"

// Bucket is one bar of the date histogram covering [From, To).
type Bucket struct {
	From  int `json:"from" yaml:"from"`
	To    int `json:"to" yaml:"to"`
	Count int `json:"count" yaml:"count"`
}

// Histogram groups date facet terms into buckets of bucketYears years,
// ascending and without gaps between the first and last bucket. Terms
// whose name is not a year are ignored.
func Histogram(terms []Term, bucketYears int) []Bucket {
	if bucketYears <= 0 {
		bucketYears = 1
	}

	counts := make(map[int]int)
	first, last, found := 0, 0, false
	for _, t := range terms {
		year, err := strconv.Atoi(t.Name)
		if err != nil {
			continue
		}
		start := floorDiv(year, bucketYears) * bucketYears
		counts[start] += t.Frequency
		if !found || start < first {
			first = start
		}
		if !found || start > last {
			last = start
		}
		found = true
	}
	if !found {
		return nil
	}

	out := make([]Bucket, 0, (last-first)/bucketYears+1)
	for start := first; start <= last; start += bucketYears {
		out = append(out, Bucket{From: start, To: start + bucketYears, Count: counts[start]})
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
