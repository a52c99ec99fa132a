package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Mutation metrics: outcome is "applied" or "noop"
	MutationsTotal prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Feed metrics
	FeedGenerationTime prometheus.HistogramVec

	// Ranking metrics
	RankingRunsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			MutationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mutations_total",
					Help: "Social graph mutations by operation and outcome",
				},
				[]string{"operation", "outcome"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Cache hits by logical structure",
				},
				[]string{"structure"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Cache misses by logical structure",
				},
				[]string{"structure"},
			),
			FeedGenerationTime: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_generation_seconds",
					Help:    "Feed assembly latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"feed"},
			),
			RankingRunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ranking_runs_total",
					Help: "Trending recomputation runs by result",
				},
				[]string{"result"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, or nil before Initialize. All Record
// helpers tolerate the nil so library code never has to care.
func Get() *Metrics {
	return instance
}

// RecordMutation counts one mutation-service operation.
func RecordMutation(operation string, applied bool) {
	if instance == nil {
		return
	}
	outcome := "applied"
	if !applied {
		outcome = "noop"
	}
	instance.MutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCacheHit counts a hit on one of the logical cache structures.
func RecordCacheHit(structure string) {
	if instance == nil {
		return
	}
	instance.CacheHitsTotal.WithLabelValues(structure).Inc()
}

// RecordCacheMiss counts a miss on one of the logical cache structures.
func RecordCacheMiss(structure string) {
	if instance == nil {
		return
	}
	instance.CacheMissesTotal.WithLabelValues(structure).Inc()
}

// ObserveFeedGeneration records feed assembly latency.
func ObserveFeedGeneration(feed string, seconds float64) {
	if instance == nil {
		return
	}
	instance.FeedGenerationTime.WithLabelValues(feed).Observe(seconds)
}

// RecordRankingRun counts one trending recomputation.
func RecordRankingRun(ok bool) {
	if instance == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	instance.RankingRunsTotal.WithLabelValues(result).Inc()
}
