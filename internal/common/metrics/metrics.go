// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_remote_calls_total",
			Help: "Backend operations by action and final outcome",
		},
		[]string{"action", "outcome"},
	)

	RemoteAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_remote_attempts_total",
			Help: "Individual backend attempts including retries",
		},
		[]string{"action", "attempt", "outcome"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contract_bot_remote_call_duration_seconds",
			Help:    "Duration of a single backend attempt in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"action"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_cache_lookups_total",
			Help: "Response cache lookups by action and result",
		},
		[]string{"action", "result"},
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contract_bot_cache_entries",
			Help: "Entries currently held in the response cache",
		},
	)

	RouterEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_router_events_total",
			Help: "Inbound chat events by kind and route",
		},
		[]string{"kind", "route"},
	)

	RouterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_router_failures_total",
			Help: "Events that ended in a user-facing error",
		},
		[]string{"route", "error_code"},
	)

	PendingEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_pending_edits_total",
			Help: "Pending edit lifecycle transitions",
		},
		[]string{"transition"},
	)

	DispatcherQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contract_bot_dispatcher_queue_depth",
			Help: "Events waiting per dispatcher shard",
		},
		[]string{"shard"},
	)

	TelegramRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_telegram_requests_total",
			Help: "Bot API calls by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	TelegramUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_bot_telegram_updates_total",
			Help: "Inbound updates by delivery mode and handling result",
		},
		[]string{"mode", "result"},
	)
)
