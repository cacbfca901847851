package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_provider_calls_total",
			Help: "Total number of map provider calls by provider and operation.",
		},
		[]string{"provider", "operation", "status"})

	ProviderRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_provider_retries_total",
			Help: "Total number of retried map provider calls.",
		},
		[]string{"provider", "operation"})

	ProviderFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "map_provider_fallbacks_total",
		Help: "Total number of calls that switched to the fallback provider.",
	})

	QuotaSuppressions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_provider_quota_suppressions_total",
			Help: "Total number of calls suppressed by the quota tracker.",
		},
		[]string{"provider"})

	TrafficCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "traffic_segment_cache_hits_total",
		Help: "Total number of full traffic segment cache hits.",
	})

	TrafficCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "traffic_segment_cache_misses_total",
		Help: "Total number of traffic segment cache misses.",
	})

	OccurrencesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occurrences_ingested_total",
			Help: "Total number of ingested occurrences by source.",
		},
		[]string{"source"})

	RiskRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_recomputes_total",
			Help: "Total number of region risk recomputations.",
		},
		[]string{"trigger"})
)

// Register registers all collectors on the default registry. Call once
// from main.
func Register() {
	prometheus.MustRegister(
		ProviderCalls,
		ProviderRetries,
		ProviderFallbacks,
		QuotaSuppressions,
		TrafficCacheHits,
		TrafficCacheMisses,
		OccurrencesIngested,
		RiskRecomputes,
	)
}

// Handler returns the scrape endpoint handler, served on a side listener
// separate from the API port.
func Handler() http.Handler {
	return promhttp.Handler()
}
