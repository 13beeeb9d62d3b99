package domain

import "time"

// CursorName selects one of the two persisted cursors per chain.
type CursorName string

const (
	// CursorLastBlock tracks continuous ingestion progress. Updates are
	// max-merged: the stored value never decreases under concurrent writers.
	CursorLastBlock CursorName = "lastBlock"

	// CursorCheckpoint is a coarser, last-writer-wins bookmark set after a
	// successful replay.
	CursorCheckpoint CursorName = "checkpointBlock"
)

// BlockCursor is one persisted (chain, name) -> block height record.
type BlockCursor struct {
	ChainID   ChainID
	Name      CursorName
	Value     uint64
	UpdatedAt time.Time
}
