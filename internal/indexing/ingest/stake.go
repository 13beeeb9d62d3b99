package ingest

import "github.com/vietddude/marketwatch/internal/core/domain"

// FilterStakeLosses reduces raw stake transfers to loss notifications:
// transfers from the zero address are mints and zero-value transfers carry
// no loss, both are dropped; of the remainder, only the first transfer per
// source address survives, so one staker produces at most one loss event per
// batch.
func FilterStakeLosses(events []domain.ChainEvent) []domain.ChainEvent {
	seen := make(map[string]struct{})
	out := make([]domain.ChainEvent, 0, len(events))

	for _, ev := range events {
		from := ev.From()
		if from == domain.ZeroAddress || ev.Value() == "0" {
			continue
		}
		if _, dup := seen[from]; dup {
			continue
		}
		seen[from] = struct{}{}
		out = append(out, ev)
	}
	return out
}
