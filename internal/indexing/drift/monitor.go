// Package drift compares the chain height seen by the streaming and the
// request/response connections. The two should track each other closely; a
// lasting gap means one node view is stale and live events are being missed.
//
// Each scheduled run is independent: error counters and alert state reset
// every time, and the scheduler's lease guarantees runs never overlap.
package drift

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/marketwatch/internal/infra/alert"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
)

const (
	// maxErrorCount bounds consecutive comparison failures per run.
	maxErrorCount = 3

	// errorBackoff is the pause between failed comparisons.
	defaultErrorBackoff = 5 * time.Second
)

// Config tunes one monitor run.
type Config struct {
	// StartupDelay is slept before the first comparison of each run, giving
	// fresh subscriptions time to settle.
	StartupDelay time.Duration

	// Threshold is the max tolerated height difference in blocks.
	Threshold uint64

	// ErrorBackoff overrides the pause between failed comparisons (tests).
	ErrorBackoff time.Duration
}

// Monitor runs the height comparison.
type Monitor struct {
	ws      ledger.HeightSource
	rpc     ledger.HeightSource
	sink    alert.Sink
	cfg     Config
	backoff time.Duration
	log     *slog.Logger
}

// NewMonitor creates a drift monitor over the two connections.
func NewMonitor(ws, rpc ledger.HeightSource, sink alert.Sink, cfg Config) *Monitor {
	backoff := cfg.ErrorBackoff
	if backoff == 0 {
		backoff = defaultErrorBackoff
	}
	return &Monitor{
		ws:      ws,
		rpc:     rpc,
		sink:    sink,
		cfg:     cfg,
		backoff: backoff,
		log:     slog.Default().With("component", "drift"),
	}
}

// Run executes one monitoring run: compare until synced or until three
// consecutive errors. At most one alert is raised per run.
func (m *Monitor) Run(ctx context.Context) {
	if !sleepCtx(ctx, m.cfg.StartupDelay) {
		return
	}

	errorCount := 0
	for errorCount < maxErrorCount {
		wsBlock, rpcBlock, err := m.compare(ctx)
		if err != nil {
			errorCount++
			m.log.Warn("height comparison failed", "errors", errorCount, "error", err)
			if errorCount >= maxErrorCount {
				m.sink.Raise(err, alert.Alert{
					Type:     alert.TypeTooManydrift,
					Critical: true,
					Metadata: map[string]any{"errorCount": errorCount},
				})
				return
			}
			if !sleepCtx(ctx, m.backoff) {
				return
			}
			continue
		}

		m.log.Debug("height comparison", "rpc", rpcBlock, "ws", wsBlock)
		if diff(wsBlock, rpcBlock) > m.cfg.Threshold {
			m.sink.Raise(
				fmt.Errorf("ledger node out of sync (RPC height: %d - WS height: %d)",
					rpcBlock, wsBlock),
				alert.Alert{
					Type:     alert.TypeOutOfSync,
					Critical: true,
					Metadata: map[string]any{"rpcBlock": rpcBlock, "wsBlock": wsBlock},
				},
			)
		}
		return
	}
}

// compare fetches both heights concurrently.
func (m *Monitor) compare(ctx context.Context) (wsBlock, rpcBlock uint64, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var e error
		wsBlock, e = m.ws.CurrentHeight(gctx)
		return e
	})
	g.Go(func() error {
		var e error
		rpcBlock, e = m.rpc.CurrentHeight(gctx)
		return e
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return wsBlock, rpcBlock, nil
}

func diff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// sleepCtx sleeps unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
