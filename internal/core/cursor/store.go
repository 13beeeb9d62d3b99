// Package cursor tracks ingestion progress for a chain.
//
// Two independent cursors are persisted per chain:
//
//   - lastBlock: advanced continuously by the live tail and by backfills.
//     Updates are max-merged so the value never decreases, whatever order
//     concurrent writers land in.
//   - checkpointBlock: a coarser bookmark written after a successful replay,
//     plain last-writer-wins.
//
// Both are created lazily: before the first write, reads fall back to the
// configured start block so a fresh deployment does not re-scan from genesis
// zero.
package cursor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage"
)

// Store exposes the two named cursors of one chain.
type Store struct {
	repo       storage.CursorRepository
	chainID    domain.ChainID
	startBlock uint64
	log        *slog.Logger
}

// NewStore creates a cursor store for one chain. startBlock is the fallback
// returned before any cursor record exists.
func NewStore(repo storage.CursorRepository, chainID domain.ChainID, startBlock uint64) *Store {
	return &Store{
		repo:       repo,
		chainID:    chainID,
		startBlock: startBlock,
		log:        slog.Default().With("component", "cursor", "chain", chainID),
	}
}

// NextBlockToProcess returns the first block not yet covered by lastBlock,
// or the configured start block when no record exists.
func (s *Store) NextBlockToProcess(ctx context.Context) (uint64, error) {
	c, err := s.repo.Get(ctx, s.chainID, domain.CursorLastBlock)
	if errors.Is(err, storage.ErrCursorNotFound) {
		return s.startBlock, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Value + 1, nil
}

// AdvanceLastBlock sets lastBlock = max(stored, n). The max-merge is the
// repository's responsibility so the live tail and a concurrently running
// backfill cannot regress it.
func (s *Store) AdvanceLastBlock(ctx context.Context, n uint64) error {
	if err := s.repo.AdvanceMax(ctx, s.chainID, domain.CursorLastBlock, n); err != nil {
		return err
	}
	s.log.Debug("advanced lastBlock", "block", n)
	return nil
}

// LastBlock returns the lastBlock cursor, or the configured start block when
// no record exists.
func (s *Store) LastBlock(ctx context.Context) (uint64, error) {
	c, err := s.repo.Get(ctx, s.chainID, domain.CursorLastBlock)
	if errors.Is(err, storage.ErrCursorNotFound) {
		return s.startBlock, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// Checkpoint returns the checkpointBlock cursor, or the configured start
// block when no record exists.
func (s *Store) Checkpoint(ctx context.Context) (uint64, error) {
	c, err := s.repo.Get(ctx, s.chainID, domain.CursorCheckpoint)
	if errors.Is(err, storage.ErrCursorNotFound) {
		return s.startBlock, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// SetCheckpoint overwrites the checkpointBlock cursor.
func (s *Store) SetCheckpoint(ctx context.Context, n uint64) error {
	if err := s.repo.Set(ctx, s.chainID, domain.CursorCheckpoint, n); err != nil {
		return err
	}
	s.log.Debug("set checkpointBlock", "block", n)
	return nil
}
