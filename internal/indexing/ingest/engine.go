// Package ingest keeps the read-model synchronized with the ledger, either
// by tailing live subscriptions or by replaying a historical block range.
//
// The engine performs no cross-call deduplication: after a crash mid-replay
// the same events are delivered again, and the materializer's
// upsert-by-business-key semantics absorb the repeats. Query and handler
// errors are never swallowed here; they bubble to the caller and no cursor
// advances for a failed replay.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/marketwatch/internal/core/cursor"
	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/indexing/metrics"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
)

// dispatchChunkSize bounds how many materializer calls are in flight while
// replaying. Chunk K+1 starts only once chunk K has fully resolved.
const dispatchChunkSize = 200

// Materializer consumes decoded events. Implementations must tolerate
// repeated delivery of the same event.
type Materializer interface {
	Handle(ctx context.Context, ev domain.ChainEvent, isReplay bool) error
}

// Config holds the engine settings for one chain.
type Config struct {
	ChainID         domain.ChainID
	Flavor          domain.Flavor
	BlocksBatchSize uint64 // max replay sub-range width, 0 = unbounded
}

// Engine is the ingestion and replay engine for one chain.
type Engine struct {
	gw        ledger.Gateway
	mat       Materializer
	cursors   *cursor.Store
	chainID   domain.ChainID
	kinds     []domain.EventKind
	batchSize uint64
	log       *slog.Logger
}

// NewEngine creates an engine. The tracked kind set is resolved from the
// flavor here, once, not per event.
func NewEngine(gw ledger.Gateway, mat Materializer, cursors *cursor.Store, cfg Config) *Engine {
	return &Engine{
		gw:        gw,
		mat:       mat,
		cursors:   cursors,
		chainID:   cfg.ChainID,
		kinds:     domain.TrackedKinds(cfg.Flavor),
		batchSize: cfg.BlocksBatchSize,
		log:       slog.Default().With("component", "ingest", "chain", cfg.ChainID),
	}
}

// SubscribeLive attaches one live handler per tracked kind plus a new-block
// handler. Each live event is forwarded to the materializer individually and
// immediately, tagged as non-replay; the new-block handler advances the
// lastBlock cursor.
func (e *Engine) SubscribeLive(ctx context.Context) error {
	for _, kind := range e.kinds {
		kind := kind
		err := e.gw.Subscribe(ctx, kind, func(ctx context.Context, ev domain.ChainEvent) {
			if err := e.mat.Handle(ctx, ev, false); err != nil {
				e.log.Error("live event handling failed",
					"kind", kind, "tx", ev.TxHash, "error", err)
				return
			}
			metrics.EventsDispatched.WithLabelValues(string(e.chainID), string(kind), "live").Inc()
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", kind, err)
		}
		e.log.Info("live subscription attached", "kind", kind)
	}

	err := e.gw.SubscribeNewBlock(ctx, func(ctx context.Context, n uint64) {
		if err := e.cursors.AdvanceLastBlock(ctx, n); err != nil {
			e.log.Error("lastBlock advance failed", "block", n, "error", err)
			return
		}
		metrics.CursorLastBlock.WithLabelValues(string(e.chainID)).Set(float64(n))
	})
	if err != nil {
		return fmt.Errorf("subscribe new blocks: %w", err)
	}

	e.log.Info("live subscriptions attached", "kinds", len(e.kinds))
	return nil
}

// Replay backfills [from, to] and returns the number of dispatched events.
// to == 0 means the ledger's current height. Ranges wider than the batch
// size are walked iteratively in increasing block order; an error at any
// point aborts the whole call with nothing checkpointed.
func (e *Engine) Replay(ctx context.Context, from, to uint64) (int, error) {
	start := time.Now()

	if to == 0 {
		current, err := e.gw.CurrentHeight(ctx)
		if err != nil {
			metrics.ReplayRuns.WithLabelValues(string(e.chainID), "error").Inc()
			return 0, fmt.Errorf("resolve current height: %w", err)
		}
		to = current
	}
	if from > to {
		e.log.Info("no new block to replay", "from", from, "to", to)
		return 0, nil
	}

	e.log.Info("replaying events", "from", from, "to", to)

	total := 0
	for _, r := range splitRange(from, to, e.batchSize) {
		n, err := e.replayRange(ctx, r)
		if err != nil {
			metrics.ReplayRuns.WithLabelValues(string(e.chainID), "error").Inc()
			return 0, fmt.Errorf("replay [%d, %d]: %w", r.From, r.To, err)
		}
		total += n
	}

	metrics.ReplayRuns.WithLabelValues(string(e.chainID), "ok").Inc()
	metrics.ReplayDuration.WithLabelValues(string(e.chainID)).Observe(time.Since(start).Seconds())
	e.log.Info("replayed events", "from", from, "to", to,
		"count", total, "took", time.Since(start))
	return total, nil
}

// replayRange processes one sub-range: all kind queries concurrently, then
// merge, filter stake losses, and dispatch in bounded chunks.
func (e *Engine) replayRange(ctx context.Context, r Range) (int, error) {
	e.log.Debug("replay batch", "from", r.From, "to", r.To)

	results := make([][]domain.ChainEvent, len(e.kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range e.kinds {
		i, kind := i, kind
		g.Go(func() error {
			events, err := e.gw.QueryRange(gctx, kind, r.From, r.To)
			if err != nil {
				return fmt.Errorf("query %s: %w", kind, err)
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var work []domain.ChainEvent
	for i, kind := range e.kinds {
		events := results[i]
		if kind == domain.KindStakeTransfer {
			events = FilterStakeLosses(events)
		}
		work = append(work, events...)
	}

	dispatched := len(work)
	e.log.Debug("batch events merged", "count", dispatched)

	for len(work) > 0 {
		chunk := work
		if len(chunk) > dispatchChunkSize {
			chunk = chunk[:dispatchChunkSize]
		}
		work = work[len(chunk):]

		cg, cctx := errgroup.WithContext(ctx)
		for _, ev := range chunk {
			ev := ev
			cg.Go(func() error {
				if err := e.mat.Handle(cctx, ev, true); err != nil {
					return fmt.Errorf("materialize %s %s/%d: %w",
						ev.Kind, ev.TxHash, ev.LogIndex, err)
				}
				metrics.EventsDispatched.WithLabelValues(
					string(e.chainID), string(ev.Kind), "replay").Inc()
				return nil
			})
		}
		if err := cg.Wait(); err != nil {
			return 0, err
		}
	}

	return dispatched, nil
}
