// Package ledger talks to the marketplace chain over two independent
// connections: JSON-RPC over HTTP for request/response queries and a
// websocket for live subscriptions. Both heights are exposed separately so
// the drift monitor can compare them.
package ledger

import (
	"context"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

// EventHandler consumes one decoded chain event.
type EventHandler func(ctx context.Context, ev domain.ChainEvent)

// BlockHandler consumes a new head block number.
type BlockHandler func(ctx context.Context, blockNumber uint64)

// Gateway is the ledger surface the ingestion engine consumes.
type Gateway interface {
	// CurrentHeight returns the head height over the request/response
	// connection.
	CurrentHeight(ctx context.Context) (uint64, error)

	// QueryRange returns the decoded events of one kind in [from, to],
	// in ledger order.
	QueryRange(ctx context.Context, kind domain.EventKind, from, to uint64) ([]domain.ChainEvent, error)

	// Subscribe attaches a live handler for one event kind.
	Subscribe(ctx context.Context, kind domain.EventKind, h EventHandler) error

	// SubscribeNewBlock attaches a live handler for new head blocks.
	SubscribeNewBlock(ctx context.Context, h BlockHandler) error
}

// HeightSource is one connection's view of the chain head. The drift monitor
// takes two of these.
type HeightSource interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// HeightFunc adapts a function to HeightSource.
type HeightFunc func(ctx context.Context) (uint64, error)

func (f HeightFunc) CurrentHeight(ctx context.Context) (uint64, error) { return f(ctx) }
