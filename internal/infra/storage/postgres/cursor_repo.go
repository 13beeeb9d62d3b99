package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage"
)

// CursorRepo implements storage.CursorRepository using PostgreSQL.
type CursorRepo struct {
	db *DB
}

// NewCursorRepo creates a new PostgreSQL cursor repository.
func NewCursorRepo(db *DB) *CursorRepo {
	return &CursorRepo{db: db}
}

type cursorRow struct {
	ChainID   string    `db:"chain_id"`
	Name      string    `db:"name"`
	Value     int64     `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get retrieves a cursor by (chain, name).
func (r *CursorRepo) Get(
	ctx context.Context,
	chainID domain.ChainID,
	name domain.CursorName,
) (*domain.BlockCursor, error) {
	var row cursorRow
	err := r.db.GetContext(ctx, &row,
		`SELECT chain_id, name, value, updated_at
		 FROM block_cursors
		 WHERE chain_id = $1 AND name = $2`,
		string(chainID), string(name),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrCursorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cursor: %w", err)
	}

	return &domain.BlockCursor{
		ChainID:   domain.ChainID(row.ChainID),
		Name:      domain.CursorName(row.Name),
		Value:     uint64(row.Value),
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// AdvanceMax upserts the cursor with value = max(stored, value). The
// GREATEST in the conflict clause makes the max-merge atomic server-side, so
// concurrent writers (live tail vs. running backfill) cannot move it back.
func (r *CursorRepo) AdvanceMax(
	ctx context.Context,
	chainID domain.ChainID,
	name domain.CursorName,
	value uint64,
) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO block_cursors (chain_id, name, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (chain_id, name)
		 DO UPDATE SET value = GREATEST(block_cursors.value, EXCLUDED.value),
		               updated_at = now()`,
		string(chainID), string(name), int64(value),
	)
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}
	return nil
}

// Set upserts the cursor value, last writer wins.
func (r *CursorRepo) Set(
	ctx context.Context,
	chainID domain.ChainID,
	name domain.CursorName,
	value uint64,
) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO block_cursors (chain_id, name, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (chain_id, name)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		string(chainID), string(name), int64(value),
	)
	if err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	return nil
}
