// Package alert carries operational alerts out of the process. Alerts are
// non-fatal: components raise them and keep going (or end their run), leaving
// the reaction to operators.
package alert

import (
	"log/slog"

	"github.com/vietddude/marketwatch/internal/indexing/metrics"
)

// Known alert types.
const (
	TypeOutOfSync    = "out-of-sync"
	TypeTooManydrift = "too-much-sync-error"
)

// Alert qualifies a raised error.
type Alert struct {
	Type     string
	Critical bool
	Metadata map[string]any
}

// Sink receives alerts.
type Sink interface {
	Raise(err error, a Alert)
}

// LogSink reports alerts through slog and a prometheus counter.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates the default sink.
func NewLogSink() *LogSink {
	return &LogSink{log: slog.Default().With("component", "alert")}
}

func (s *LogSink) Raise(err error, a Alert) {
	metrics.AlertsRaised.WithLabelValues(a.Type).Inc()

	args := []any{"type", a.Type, "critical", a.Critical, "error", err}
	for k, v := range a.Metadata {
		args = append(args, k, v)
	}
	if a.Critical {
		s.log.Error("alert raised", args...)
	} else {
		s.log.Warn("alert raised", args...)
	}
}
