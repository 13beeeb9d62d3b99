// Package materialize turns decoded chain events into durable read-model
// records. Handlers are keyed by event kind and upsert by business key, so
// the at-least-once delivery of live tailing and replay is safe here.
package materialize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage"
)

// Publisher pushes a live notification to a room topic. The notify broker
// satisfies this.
type Publisher interface {
	Publish(chainID domain.ChainID, topic string, payload any)
}

// Notification topics pushed to connected clients.
const (
	TopicDeals = "deals"
	TopicStake = "stake"
)

// Materializer dispatches events to per-kind handlers backed by the market
// repository. Live events additionally fan out notifications; replayed
// events never do.
type Materializer struct {
	repo      storage.MarketRepository
	publisher Publisher
	log       *slog.Logger
}

// New creates a materializer. publisher may be nil (no notifications).
func New(repo storage.MarketRepository, publisher Publisher) *Materializer {
	return &Materializer{
		repo:      repo,
		publisher: publisher,
		log:       slog.Default().With("component", "materialize"),
	}
}

// Handle processes one decoded event. Must tolerate repeated delivery of the
// same event.
func (m *Materializer) Handle(ctx context.Context, ev domain.ChainEvent, isReplay bool) error {
	switch ev.Kind {
	case domain.KindCategoryCreated:
		return m.repo.UpsertCategory(ctx, &storage.Category{
			ChainID:     ev.ChainID,
			CategoryID:  ev.Args["catid"],
			TxHash:      ev.TxHash,
			LogIndex:    ev.LogIndex,
			BlockNumber: ev.BlockNumber,
		})

	case domain.KindOrdersMatched:
		if err := m.repo.UpsertDeal(ctx, &storage.Deal{
			ChainID:     ev.ChainID,
			DealID:      ev.Args["dealid"],
			Volume:      ev.Args["volume"],
			TxHash:      ev.TxHash,
			LogIndex:    ev.LogIndex,
			BlockNumber: ev.BlockNumber,
		}); err != nil {
			return err
		}
		if !isReplay {
			m.publish(ev.ChainID, TopicDeals, map[string]any{
				"dealid":      ev.Args["dealid"],
				"blockNumber": ev.BlockNumber,
			})
		}
		return nil

	case domain.KindAppOrderClosed:
		return m.repo.CloseOrder(ctx, ev.ChainID, ev.Kind, ev.Args["appHash"])
	case domain.KindDatasetOrderClosed:
		return m.repo.CloseOrder(ctx, ev.ChainID, ev.Kind, ev.Args["datasetHash"])
	case domain.KindWorkerpoolOrderClosed:
		return m.repo.CloseOrder(ctx, ev.ChainID, ev.Kind, ev.Args["workerpoolHash"])
	case domain.KindRequestOrderClosed:
		return m.repo.CloseOrder(ctx, ev.ChainID, ev.Kind, ev.Args["requestHash"])

	case domain.KindAppTransfer, domain.KindDatasetTransfer, domain.KindWorkerpoolTransfer:
		return m.repo.SetOwner(ctx, ev.ChainID, ev.Kind, ev.Args["tokenId"], ev.To())

	case domain.KindStakeTransfer:
		// Only genuine losses notify: mints and zero-value transfers carry
		// no stake change for the source.
		if !isReplay && ev.From() != domain.ZeroAddress && ev.Value() != "0" {
			m.publish(ev.ChainID, TopicStake, map[string]any{
				"address": ev.From(),
				"value":   ev.Value(),
			})
		}
		return nil

	case domain.KindRoleRevoked:
		return m.repo.RevokeRole(ctx, ev.ChainID, ev.Args["account"], ev.Args["role"])

	default:
		return fmt.Errorf("unhandled event kind %s", ev.Kind)
	}
}

func (m *Materializer) publish(chainID domain.ChainID, topic string, payload any) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(chainID, topic, payload)
}
