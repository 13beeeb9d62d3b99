package memory

import (
	"context"
	"sync"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage"
)

// MarketRepo implements storage.MarketRepository in memory.
type MarketRepo struct {
	mu         sync.Mutex
	deals      map[string]*storage.Deal
	categories map[string]*storage.Category
	closed     map[string]domain.EventKind
	owners     map[string]string
	roles      map[string]string
}

// NewMarketRepo creates an empty in-memory market repository.
func NewMarketRepo() *MarketRepo {
	return &MarketRepo{
		deals:      make(map[string]*storage.Deal),
		categories: make(map[string]*storage.Category),
		closed:     make(map[string]domain.EventKind),
		owners:     make(map[string]string),
		roles:      make(map[string]string),
	}
}

func key(chainID domain.ChainID, id string) string {
	return string(chainID) + ":" + id
}

func (r *MarketRepo) UpsertDeal(ctx context.Context, deal *storage.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := *deal
	r.deals[key(deal.ChainID, deal.DealID)] = &d
	return nil
}

func (r *MarketRepo) UpsertCategory(ctx context.Context, cat *storage.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cat
	r.categories[key(cat.ChainID, cat.CategoryID)] = &c
	return nil
}

func (r *MarketRepo) CloseOrder(
	ctx context.Context,
	chainID domain.ChainID,
	kind domain.EventKind,
	orderHash string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed[key(chainID, orderHash)] = kind
	return nil
}

func (r *MarketRepo) SetOwner(
	ctx context.Context,
	chainID domain.ChainID,
	kind domain.EventKind,
	tokenID, owner string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[key(chainID, string(kind)+":"+tokenID)] = owner
	return nil
}

func (r *MarketRepo) RevokeRole(
	ctx context.Context,
	chainID domain.ChainID,
	account, role string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roles, key(chainID, account))
	return nil
}
