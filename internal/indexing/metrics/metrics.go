// Package metrics defines the prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsDispatched counts events handed to the materializer.
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketwatch_events_dispatched_total",
			Help: "Total number of events dispatched to the materializer",
		},
		[]string{"chain", "kind", "mode"}, // mode: live | replay
	)

	// ReplayRuns counts replay calls by outcome.
	ReplayRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketwatch_replay_runs_total",
			Help: "Total number of replay calls",
		},
		[]string{"chain", "outcome"}, // outcome: ok | error
	)

	// ReplayDuration tracks the wall time of replay calls.
	ReplayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketwatch_replay_duration_seconds",
			Help:    "Replay call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"chain"},
	)

	// CursorLastBlock tracks the persisted lastBlock cursor.
	CursorLastBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketwatch_cursor_last_block",
			Help: "Value of the lastBlock cursor",
		},
		[]string{"chain"},
	)

	// ChainHeadBlock tracks the chain head as seen by each transport.
	ChainHeadBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketwatch_chain_head_block",
			Help: "Chain head height per transport connection",
		},
		[]string{"chain", "transport"}, // transport: http | ws
	)

	// RPCCallsTotal tracks ledger gateway calls.
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketwatch_rpc_calls_total",
			Help: "Total number of ledger RPC calls",
		},
		[]string{"chain", "method"},
	)

	// RPCErrorsTotal tracks ledger gateway call failures.
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketwatch_rpc_errors_total",
			Help: "Total number of ledger RPC errors",
		},
		[]string{"chain", "method"},
	)

	// AlertsRaised counts alerts sent to the sink.
	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketwatch_alerts_raised_total",
			Help: "Total number of operational alerts raised",
		},
		[]string{"type"},
	)

	// NotifyConnections tracks open websocket connections.
	NotifyConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketwatch_notify_connections",
			Help: "Currently open notification connections",
		},
	)

	// NotifyRooms tracks live rooms.
	NotifyRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketwatch_notify_rooms",
			Help: "Currently existing rooms",
		},
	)

	// NotifyPublished counts fan-out frames sent to room members.
	NotifyPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketwatch_notify_published_total",
			Help: "Total notification frames published to room members",
		},
		[]string{"topic"},
	)

	// NotifyTerminated counts connections reaped by the liveness sweep.
	NotifyTerminated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketwatch_notify_terminated_total",
			Help: "Connections terminated by the liveness sweep",
		},
	)
)
