// Package observability provides metrics and tracing for the application.
package observability

import (
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnapss_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheRequests counts cache-aside lookups by outcome (hit, miss, bypass).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnapss_cache_requests_total",
		Help: "Total cache-aside lookups by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cnapss_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// VoteCasts counts vote transitions by target type and resulting value.
	VoteCasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnapss_vote_casts_total",
		Help: "Total vote transitions by target type and resulting value",
	}, []string{"target_type", "value"})

	// VoteConflicts counts optimistic-concurrency collisions on target
	// aggregates during concurrent voting, labelled by outcome
	// (retried, exhausted).
	VoteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cnapss_vote_conflicts_total",
		Help: "Optimistic concurrency collisions during vote casting",
	}, []string{"outcome"})

	// MatchRequests counts availability match computations.
	MatchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cnapss_schedule_match_requests_total",
		Help: "Total group availability match computations",
	})
)

// InitMetrics creates the Prometheus middleware for the Fiber app.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
