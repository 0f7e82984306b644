// Package metrics provides Prometheus metrics for mealhub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MealDBRequestsTotal counts outbound MealDB requests.
	MealDBRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealhub",
			Name:      "mealdb_requests_total",
			Help:      "Total number of MealDB API requests",
		},
		[]string{"op", "status"},
	)

	// MealDBRequestDuration measures MealDB request latency.
	MealDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mealhub",
			Name:      "mealdb_request_duration_seconds",
			Help:      "Duration of MealDB API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// AggregationsTotal counts aggregation runs by kind and result.
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealhub",
			Name:      "aggregations_total",
			Help:      "Total number of aggregation runs",
		},
		[]string{"kind", "result"},
	)

	// CachedMeals is the size of the current shared snapshot.
	CachedMeals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mealhub",
			Name:      "cached_meals",
			Help:      "Number of meals in the shared cache",
		},
	)

	// DetailCacheHits counts detail lookups served from the LRU.
	DetailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealhub",
			Name:      "detail_cache_hits_total",
			Help:      "Total number of detail lookups served without a request",
		},
	)
)

// RecordRequest records one MealDB request.
func RecordRequest(op, status string, seconds float64) {
	MealDBRequestsTotal.WithLabelValues(op, status).Inc()
	MealDBRequestDuration.WithLabelValues(op).Observe(seconds)
}

// RecordAggregation records the outcome of an aggregation run.
func RecordAggregation(kind, result string) {
	AggregationsTotal.WithLabelValues(kind, result).Inc()
}

// SetCachedMeals sets the shared cache size.
func SetCachedMeals(n int) {
	CachedMeals.Set(float64(n))
}
