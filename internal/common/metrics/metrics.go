// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_processed_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"kind", "outcome"},
	)

	ParseStrategyHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_parse_strategy_hits_total",
			Help: "Quantity parse results by winning strategy",
		},
		[]string{"strategy"},
	)

	ExternalCallFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_external_call_failures_total",
			Help: "Failed calls to external collaborators",
		},
		[]string{"service"},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_external_call_duration_seconds",
			Help:    "Duration of external collaborator calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	SessionStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_session_store_errors_total",
			Help: "Redis session store failures",
		},
	)
)
