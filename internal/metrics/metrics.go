// Package metrics declares the Prometheus collectors of the scheduling engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Attempts counts Schedule calls by category and outcome
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_engine_attempts_total",
			Help: "Total number of scheduling attempts",
		},
		[]string{"category", "outcome"},
	)

	// Deliveries counts deliveries handed to the sink
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_engine_deliveries_total",
			Help: "Total number of deliveries handed to the sink",
		},
		[]string{"kind", "trigger", "group"},
	)

	// DigestSize tracks how many source notifications each digest merges
	DigestSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notify_engine_digest_size",
			Help:    "Number of notifications merged into a digest",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20, 50},
		},
	)

	// SinkFailures counts deliveries the sink rejected
	SinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_engine_sink_failures_total",
			Help: "Total number of deliveries rejected by the sink",
		},
		[]string{"kind"},
	)

	// PendingEntries tracks entries waiting in each batch group
	PendingEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notify_engine_pending_entries",
			Help: "Number of notifications waiting in a batch group",
		},
		[]string{"group"},
	)

	// PurgedEntries counts batch entries dropped for exceeding the max age
	PurgedEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_engine_purged_entries_total",
			Help: "Total number of batch entries dropped for age",
		},
		[]string{"group"},
	)

	// SettingsReloads counts configuration reloads triggered by the listener
	SettingsReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_engine_settings_reloads_total",
			Help: "Total number of settings reloads",
		},
	)

	// RateLimitExceeded counts API requests rejected by the per-IP limiter
	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_engine_api_rate_limited_total",
			Help: "Total number of API requests rejected by the rate limiter",
		},
	)
)
