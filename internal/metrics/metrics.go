// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendAttempts observes how many produce attempts one request needed.
	RecommendAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crate_recommend_attempts",
			Help:    "Candidate attempts per recommendation request",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
		},
		[]string{"mode", "outcome"},
	)

	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crate_recommend_requests_total",
			Help: "Recommendation requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crate_catalog_requests_total",
			Help: "Upstream catalog API calls by endpoint and HTTP status class",
		},
		[]string{"endpoint", "status"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crate_catalog_request_duration_seconds",
			Help:    "Upstream catalog API latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crate_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	UnresolvableItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crate_corpus_unresolvable_total",
			Help: "Corpus rows that could not be resolved against the catalog",
		},
		[]string{"source"},
	)

	AuditRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crate_audit_rows_total",
			Help: "Rows checked by the resolvability audit, by result",
		},
		[]string{"result"},
	)
)
