// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// GenerationsTotal counts trivia requests by final outcome.
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localore",
			Name:      "generations_total",
			Help:      "Trivia generation requests by outcome.",
		},
		[]string{"outcome"},
	)

	// ProviderCalls counts individual model invocations by finish signal.
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localore",
			Name:      "provider_calls_total",
			Help:      "Model provider invocations by model and finish signal.",
		},
		[]string{"model", "finish"},
	)

	// ProviderDuration observes wall time of provider invocations.
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localore",
			Name:      "provider_duration_seconds",
			Help:      "Wall time of model provider invocations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// CorrectionsTotal counts follow-up correction prompts sent to models.
	CorrectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "localore",
			Name:      "corrections_total",
			Help:      "Correction prompts issued for out-of-range answers.",
		},
	)

	// CacheLookups counts semantic cache lookups by result.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localore",
			Name:      "cache_lookups_total",
			Help:      "Semantic cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		GenerationsTotal,
		ProviderCalls,
		ProviderDuration,
		CorrectionsTotal,
		CacheLookups,
	)
}
