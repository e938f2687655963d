// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// TargetState is the transfer state of one backend target.
type TargetState string

const (
	TargetWorking      TargetState = "Working"
	TargetIdle         TargetState = "Idle"
	TargetError        TargetState = "Error"
	TargetDisconnected TargetState = "Disconnected"
)

// ParseTargetState maps a broker state name such as "Client_Idle" onto a
// TargetState. Connection set-up states count as working and failures as
// errors; anything unrecognised is reported as an error.
func ParseTargetState(s string) TargetState {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "Client_")) {
	case "working", "connecting", "connected":
		return TargetWorking
	case "idle":
		return TargetIdle
	case "disconnected":
		return TargetDisconnected
	default:
		return TargetError
	}
}

// TargetStatus is the broker's view of one backend target.
type TargetStatus struct {
	ID    string      `json:"id" yaml:"id"`
	Name  string      `json:"name" yaml:"name"`
	State TargetState `json:"state" yaml:"state"`

	// Records is the number of records loaded from the target.
	Records int `json:"records" yaml:"records"`

	// Hits is the number of hits the target reports, nil when unknown.
	Hits *int `json:"hits,omitempty" yaml:"hits,omitempty"`

	// Filtered is the number of records dropped by broker-side filters.
	Filtered int `json:"filtered" yaml:"filtered"`

	// Diagnostic is the target's diagnostic code, 0 when none.
	Diagnostic int `json:"diagnostic" yaml:"diagnostic"`
}

// BrokerStat holds the aggregate progress numbers for the active query.
type BrokerStat struct {
	Clients       int `json:"clients" yaml:"clients"`
	ActiveClients int `json:"active_clients" yaml:"active_clients"`
	Records       int `json:"records" yaml:"records"`
	Hits          int `json:"hits" yaml:"hits"`
}
