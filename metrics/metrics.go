// Package metrics exposes Prometheus counters for the cache and alert engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderCalls counts outbound weather provider calls by result
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fujin_provider_calls_total",
			Help: "Outbound weather provider calls by result",
		},
		[]string{"result"},
	)

	// Refreshes counts per-location cache refresh attempts by result
	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fujin_cache_refreshes_total",
			Help: "Per-location snapshot refresh attempts by result",
		},
		[]string{"result"},
	)

	// AlertsEvaluated counts alert rule evaluations
	AlertsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fujin_alerts_evaluated_total",
			Help: "Alert rule evaluations performed",
		},
	)

	// AlertsFired counts rule evaluations whose condition was satisfied
	AlertsFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fujin_alerts_fired_total",
			Help: "Alert rules whose condition was satisfied",
		},
	)

	// Dispatches counts notification dispatch outcomes
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fujin_notification_dispatches_total",
			Help: "Notification dispatch outcomes",
		},
		[]string{"result"},
	)

	// MirrorHits counts mirror cache reads that found a usable entry
	MirrorHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fujin_mirror_cache_hits_total",
			Help: "Mirror cache reads that found an entry",
		},
		[]string{"store"},
	)

	// MirrorMisses counts mirror cache reads that found nothing
	MirrorMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fujin_mirror_cache_misses_total",
			Help: "Mirror cache reads that found no entry",
		},
		[]string{"store"},
	)
)
