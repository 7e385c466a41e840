// Package metrics defines the Prometheus collectors for the generation
// gateway. All collectors are created against an explicit Registerer so
// tests can use isolated registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the gateway components report into.
type Metrics struct {
	// AdmissionsTotal counts admission decisions by endpoint class and
	// outcome (allowed, denied).
	AdmissionsTotal *prometheus.CounterVec

	// CacheOpsTotal counts cache lookups by result (hit, miss, error)
	// and cache writes (write).
	CacheOpsTotal *prometheus.CounterVec

	// StoreFallbacksTotal counts operations served by the in-process
	// fallback store because the shared store was unreachable.
	StoreFallbacksTotal prometheus.Counter

	// ProviderAttemptsTotal counts orchestration attempts by provider and
	// outcome (success, error, timeout, malformed, skipped_cooldown).
	ProviderAttemptsTotal *prometheus.CounterVec

	// ProviderTokensTotal counts tokens by provider and kind (prompt,
	// completion). Failed attempts are included.
	ProviderTokensTotal *prometheus.CounterVec

	// ProviderCostUSD accumulates estimated spend by provider.
	ProviderCostUSD *prometheus.CounterVec

	// QualityResultsTotal counts assessments by artifact type and verdict
	// (passed, failed).
	QualityResultsTotal *prometheus.CounterVec

	// QualityDimensionFailures counts threshold failures by dimension.
	QualityDimensionFailures *prometheus.CounterVec

	// StageDuration observes per-stage latency in seconds (admission,
	// cache_get, generate, assess, cache_put).
	StageDuration *prometheus.HistogramVec
}

// New creates the gateway's collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "admissions_total",
			Help:      "Admission decisions by endpoint class and outcome.",
		}, []string{"endpoint_class", "outcome"}),

		CacheOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "cache_ops_total",
			Help:      "Cache operations by result.",
		}, []string{"result"}),

		StoreFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "store_fallbacks_total",
			Help:      "Operations served by the in-process fallback store.",
		}),

		ProviderAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "provider_attempts_total",
			Help:      "Provider attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),

		ProviderTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "provider_tokens_total",
			Help:      "Token usage by provider and kind, failed attempts included.",
		}, []string{"provider", "kind"}),

		ProviderCostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "provider_cost_usd_total",
			Help:      "Estimated provider spend in USD.",
		}, []string{"provider"}),

		QualityResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "quality_results_total",
			Help:      "Quality assessments by artifact type and verdict.",
		}, []string{"artifact_type", "verdict"}),

		QualityDimensionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessonforge",
			Name:      "quality_dimension_failures_total",
			Help:      "Quality threshold failures by dimension.",
		}, []string{"dimension"}),

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lessonforge",
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}

	reg.MustRegister(
		m.AdmissionsTotal,
		m.CacheOpsTotal,
		m.StoreFallbacksTotal,
		m.ProviderAttemptsTotal,
		m.ProviderTokensTotal,
		m.ProviderCostUSD,
		m.QualityResultsTotal,
		m.QualityDimensionFailures,
		m.StageDuration,
	)

	return m
}

// NewForTesting returns collectors registered against a throwaway registry.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}
