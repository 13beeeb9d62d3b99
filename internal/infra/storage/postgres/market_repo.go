package postgres

import (
	"context"
	"fmt"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage"
)

// MarketRepo implements storage.MarketRepository using PostgreSQL. Every
// write is an upsert keyed by the event's business key, which is what makes
// at-least-once replay delivery safe.
type MarketRepo struct {
	db *DB
}

// NewMarketRepo creates a new PostgreSQL market repository.
func NewMarketRepo(db *DB) *MarketRepo {
	return &MarketRepo{db: db}
}

func (r *MarketRepo) UpsertDeal(ctx context.Context, deal *storage.Deal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deals (chain_id, deal_id, volume, tx_hash, log_index, block_number)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (chain_id, deal_id)
		 DO UPDATE SET volume = EXCLUDED.volume,
		               tx_hash = EXCLUDED.tx_hash,
		               log_index = EXCLUDED.log_index,
		               block_number = EXCLUDED.block_number`,
		string(deal.ChainID), deal.DealID, deal.Volume,
		deal.TxHash, int64(deal.LogIndex), int64(deal.BlockNumber),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert deal: %w", err)
	}
	return nil
}

func (r *MarketRepo) UpsertCategory(ctx context.Context, cat *storage.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (chain_id, category_id, tx_hash, log_index, block_number)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chain_id, category_id)
		 DO UPDATE SET tx_hash = EXCLUDED.tx_hash,
		               log_index = EXCLUDED.log_index,
		               block_number = EXCLUDED.block_number`,
		string(cat.ChainID), cat.CategoryID, cat.TxHash,
		int64(cat.LogIndex), int64(cat.BlockNumber),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

func (r *MarketRepo) CloseOrder(
	ctx context.Context,
	chainID domain.ChainID,
	kind domain.EventKind,
	orderHash string,
) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO closed_orders (chain_id, kind, order_hash)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (chain_id, kind, order_hash) DO NOTHING`,
		string(chainID), string(kind), orderHash,
	)
	if err != nil {
		return fmt.Errorf("failed to close order: %w", err)
	}
	return nil
}

func (r *MarketRepo) SetOwner(
	ctx context.Context,
	chainID domain.ChainID,
	kind domain.EventKind,
	tokenID, owner string,
) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO asset_owners (chain_id, kind, token_id, owner)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (chain_id, kind, token_id)
		 DO UPDATE SET owner = EXCLUDED.owner`,
		string(chainID), string(kind), tokenID, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to set owner: %w", err)
	}
	return nil
}

func (r *MarketRepo) RevokeRole(
	ctx context.Context,
	chainID domain.ChainID,
	account, role string,
) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM account_roles
		 WHERE chain_id = $1 AND account = $2 AND role = $3`,
		string(chainID), account, role,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}
