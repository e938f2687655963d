// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package broker

import (
	"encoding/xml"
	"strings"

	"github.com/pdiddy/metasearch/internal/facet"
	"github.com/pdiddy/metasearch/pkg/types"
)

// metadataPrefix marks metadata elements in hits and locations.
const metadataPrefix = "md-"

// Broker XML structures.

type xmlStatus struct {
	Status  string `xml:"status"`
	Session string `xml:"session"`
}

type xmlError struct {
	XMLName xml.Name `xml:"error"`
	Code    int      `xml:"code,attr"`
	Msg     string   `xml:"msg,attr"`
	AddInfo string   `xml:",chardata"`
}

type xmlElement struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlLocation struct {
	ID    string       `xml:"id,attr"`
	Name  string       `xml:"name,attr"`
	Other []xmlElement `xml:",any"`
}

type xmlHit struct {
	RecID     string        `xml:"recid"`
	Count     int           `xml:"count"`
	Locations []xmlLocation `xml:"location"`
	Other     []xmlElement  `xml:",any"`
}

type xmlShow struct {
	Status        string   `xml:"status"`
	ActiveClients int      `xml:"activeclients"`
	Merged        int      `xml:"merged"`
	Total         int      `xml:"total"`
	Start         int      `xml:"start"`
	Num           int      `xml:"num"`
	Hits          []xmlHit `xml:"hit"`
}

type xmlStat struct {
	ActiveClients int `xml:"activeclients"`
	Hits          int `xml:"hits"`
	Records       int `xml:"records"`
	Clients       int `xml:"clients"`
}

type xmlTarget struct {
	ID         string `xml:"id"`
	Name       string `xml:"name"`
	Hits       string `xml:"hits"`
	Diagnostic int    `xml:"diagnostic"`
	Records    int    `xml:"records"`
	Filtered   int    `xml:"filtered"`
	State      string `xml:"state"`
}

type xmlByTarget struct {
	Targets []xmlTarget `xml:"target"`
}

type xmlTerm struct {
	ID        string `xml:"id"`
	Name      string `xml:"name"`
	Frequency int    `xml:"frequency"`
}

type xmlTermList struct {
	ActiveClients int `xml:"activeclients"`
	Lists         []struct {
		Name  string    `xml:"name,attr"`
		Terms []xmlTerm `xml:"term"`
	} `xml:"list"`
}

type xmlRecord struct {
	RecID     string        `xml:"recid"`
	Locations []xmlLocation `xml:"location"`
	Other     []xmlElement  `xml:",any"`
}

// metadata collects md-* elements into a field map. Empty values and
// non-metadata elements are dropped.
func metadata(elems []xmlElement) types.Fields {
	fields := make(types.Fields)
	for _, e := range elems {
		name, ok := strings.CutPrefix(e.XMLName.Local, metadataPrefix)
		if !ok || name == "" {
			continue
		}
		v := strings.TrimSpace(e.Value)
		if v == "" {
			continue
		}
		fields[name] = append(fields[name], v)
	}
	return fields
}

func locations(xs []xmlLocation) []types.Location {
	if len(xs) == 0 {
		return nil
	}
	out := make([]types.Location, len(xs))
	for i, x := range xs {
		out[i] = types.Location{ID: x.ID, Name: x.Name, Fields: metadata(x.Other)}
	}
	return out
}

func (h xmlHit) record() types.Record {
	return types.Record{ID: h.RecID, Fields: metadata(h.Other), Locations: locations(h.Locations)}
}

func (t xmlTarget) status() types.TargetStatus {
	st := types.TargetStatus{
		ID:         t.ID,
		Name:       t.Name,
		State:      types.ParseTargetState(t.State),
		Records:    t.Records,
		Filtered:   t.Filtered,
		Diagnostic: t.Diagnostic,
	}
	if n, ok := parseCount(t.Hits); ok {
		st.Hits = &n
	}
	return st
}

func (l xmlTermList) terms() map[string][]facet.Term {
	out := make(map[string][]facet.Term, len(l.Lists))
	for _, list := range l.Lists {
		terms := make([]facet.Term, 0, len(list.Terms))
		for _, t := range list.Terms {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				continue
			}
			terms = append(terms, facet.Term{Name: name, ID: strings.TrimSpace(t.ID), Frequency: t.Frequency})
		}
		out[list.Name] = terms
	}
	return out
}
