// Package metrics defines Prometheus metrics for the device valuator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "valuator"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last liveness probe succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last readiness probe succeeded.",
	})
)

// Valuation metrics.
var (
	ValuationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "valuations_total",
		Help:      "Total number of completed valuations by confidence.",
	}, []string{"confidence"})

	ValuationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "valuation_duration_seconds",
		Help:      "End-to-end duration of valuation requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	ValuationFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "valuation_fallbacks_total",
		Help:      "Valuations priced by the spec heuristic instead of market data.",
	})

	ConditionScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "condition_score_distribution",
		Help:      "Distribution of normalized condition scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0, 10, 20, ..., 100
	})
)

// Market data metrics.
var (
	ObservationsFilteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_filtered_total",
		Help:      "Raw market observations dropped during cleaning.",
	})

	BandSampleSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "band_sample_size",
		Help:      "Cleaned sample sizes backing produced price bands.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
	})

	SearchCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_calls_total",
		Help:      "Total cumulative price search API calls.",
	})

	SearchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_errors_total",
		Help:      "Total price search API failures.",
	})
)

// Collaborator metrics.
var (
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of LLM spec extraction calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	ReportRenderFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_render_fallbacks_total",
		Help:      "Reports rendered by the template renderer after an LLM failure.",
	})

	ReferenceCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_cache_lookups_total",
		Help:      "Reference price cache lookups by outcome.",
	}, []string{"outcome"})
)
