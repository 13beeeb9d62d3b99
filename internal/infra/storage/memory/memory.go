// Package memory provides in-memory repositories used when no database is
// configured and by tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage"
)

type cursorKey struct {
	chainID domain.ChainID
	name    domain.CursorName
}

// CursorRepo implements storage.CursorRepository in memory.
type CursorRepo struct {
	mu      sync.Mutex
	cursors map[cursorKey]*domain.BlockCursor
}

// NewCursorRepo creates an empty in-memory cursor repository.
func NewCursorRepo() *CursorRepo {
	return &CursorRepo{cursors: make(map[cursorKey]*domain.BlockCursor)}
}

func (r *CursorRepo) Get(
	ctx context.Context,
	chainID domain.ChainID,
	name domain.CursorName,
) (*domain.BlockCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cursors[cursorKey{chainID, name}]
	if !ok {
		return nil, storage.ErrCursorNotFound
	}
	// Return a copy
	out := *c
	return &out, nil
}

func (r *CursorRepo) AdvanceMax(
	ctx context.Context,
	chainID domain.ChainID,
	name domain.CursorName,
	value uint64,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cursorKey{chainID, name}
	c, ok := r.cursors[key]
	if !ok {
		r.cursors[key] = &domain.BlockCursor{
			ChainID:   chainID,
			Name:      name,
			Value:     value,
			UpdatedAt: time.Now(),
		}
		return nil
	}
	if value > c.Value {
		c.Value = value
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (r *CursorRepo) Set(
	ctx context.Context,
	chainID domain.ChainID,
	name domain.CursorName,
	value uint64,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cursors[cursorKey{chainID, name}] = &domain.BlockCursor{
		ChainID:   chainID,
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return nil
}
