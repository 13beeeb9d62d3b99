package storage

import (
	"context"
	"errors"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

var (
	// ErrCursorNotFound is returned when a cursor record doesn't exist yet.
	ErrCursorNotFound = errors.New("cursor not found")
)

// CursorRepository persists the two named block cursors per chain.
type CursorRepository interface {
	// Get retrieves a cursor by name. Returns ErrCursorNotFound when absent.
	Get(ctx context.Context, chainID domain.ChainID, name domain.CursorName) (*domain.BlockCursor, error)

	// AdvanceMax atomically sets value = max(stored, value), creating the
	// record if absent. Safe under concurrent callers.
	AdvanceMax(ctx context.Context, chainID domain.ChainID, name domain.CursorName, value uint64) error

	// Set overwrites the cursor value (last writer wins), creating the
	// record if absent.
	Set(ctx context.Context, chainID domain.ChainID, name domain.CursorName, value uint64) error
}

// Deal is the materialized record of an OrdersMatched event. Volume is the
// matched order volume as a decimal string (token amounts exceed uint64).
type Deal struct {
	ChainID     domain.ChainID
	DealID      string
	Volume      string
	TxHash      string
	LogIndex    uint
	BlockNumber uint64
}

// Category is the materialized record of a CategoryCreated event.
type Category struct {
	ChainID     domain.ChainID
	CategoryID  string
	TxHash      string
	LogIndex    uint
	BlockNumber uint64
}

// MarketRepository is the materializer's durable store. All writes are
// upserts by business key so repeated delivery of the same event is a no-op.
type MarketRepository interface {
	UpsertDeal(ctx context.Context, deal *Deal) error
	UpsertCategory(ctx context.Context, cat *Category) error

	// CloseOrder marks an order hash dead for one of the order-closed kinds.
	CloseOrder(ctx context.Context, chainID domain.ChainID, kind domain.EventKind, orderHash string) error

	// SetOwner records current ownership of a registry asset.
	SetOwner(ctx context.Context, chainID domain.ChainID, kind domain.EventKind, tokenID, owner string) error

	// RevokeRole clears the KYC role of an account (enterprise flavor).
	RevokeRole(ctx context.Context, chainID domain.ChainID, account, role string) error
}
