// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_runs_total",
			Help: "Total number of matching runs by final status",
		},
		[]string{"status"},
	)

	MatchingRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matching_run_duration_seconds",
			Help: "Duration of a full matching run in seconds",
		},
		[]string{"strategy"},
	)

	RoutingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_decisions_total",
			Help: "Routing decisions by outcome and referrer type",
		},
		[]string{"decision", "referrer_type"},
	)

	FeasiblePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feasibility_pool_size",
			Help:    "Candidate pool size after the feasibility filter",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_cache_requests_total",
			Help: "Cache lookups by area and result",
		},
		[]string{"area", "result"},
	)

	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Embedding model calls by result",
		},
		[]string{"result"},
	)
)
