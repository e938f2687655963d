// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors for broker traffic,
// result merging and the local HTTP API.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BrokerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "broker_requests_total",
			Help:      "Total number of broker commands issued",
		},
		[]string{"command", "status"},
	)

	BrokerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metasearch",
			Name:      "broker_request_duration_seconds",
			Help:      "Broker command duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"command"},
	)

	BrokerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "broker_errors_total",
			Help:      "Broker errors by handling outcome",
		},
		[]string{"action"}, // "reinit" / "reauth" / "unavailable"
	)

	RecordsMergedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "records_merged_total",
			Help:      "Records merged into the record store",
		},
		[]string{"outcome"}, // "added" / "updated" / "skipped"
	)

	StaleCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "stale_callbacks_total",
			Help:      "Broker deliveries dropped because they belong to an older query",
		},
		[]string{"callback"},
	)

	SearchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "searches_total",
			Help:      "Total number of queries issued",
		},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default registry. It is
// safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BrokerRequestsTotal,
			BrokerRequestDuration,
			BrokerErrorsTotal,
			RecordsMergedTotal,
			StaleCallbacksTotal,
			SearchesTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}
