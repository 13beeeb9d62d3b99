package ingest

import (
	"testing"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

func stakeTransfer(from, to, value string) domain.ChainEvent {
	return domain.ChainEvent{
		Kind: domain.KindStakeTransfer,
		Args: map[string]string{"from": from, "to": to, "value": value},
	}
}

func TestFilterStakeLosses(t *testing.T) {
	in := []domain.ChainEvent{
		stakeTransfer(domain.ZeroAddress, "0xx", "5"), // mint, dropped
		stakeTransfer("0xa", "0xb", "0"),              // zero value, dropped
		stakeTransfer("0xa", "0xc", "3"),              // first real loss for 0xa
		stakeTransfer("0xa", "0xd", "7"),              // duplicate source, dropped
	}

	out := FilterStakeLosses(in)

	if len(out) != 1 {
		t.Fatalf("Expected exactly 1 event, got %d", len(out))
	}
	if out[0].From() != "0xa" || out[0].To() != "0xc" || out[0].Value() != "3" {
		t.Errorf("Expected (0xa -> 0xc, 3), got (%s -> %s, %s)",
			out[0].From(), out[0].To(), out[0].Value())
	}
}

func TestFilterStakeLosses_KeepsDistinctSources(t *testing.T) {
	in := []domain.ChainEvent{
		stakeTransfer("0xa", "0xb", "1"),
		stakeTransfer("0xb", "0xc", "2"),
		stakeTransfer("0xc", "0xd", "3"),
	}

	out := FilterStakeLosses(in)
	if len(out) != 3 {
		t.Fatalf("Expected 3 events for 3 distinct sources, got %d", len(out))
	}
	// Original order preserved.
	for i, from := range []string{"0xa", "0xb", "0xc"} {
		if out[i].From() != from {
			t.Errorf("Position %d: expected source %s, got %s", i, from, out[i].From())
		}
	}
}

func TestFilterStakeLosses_Empty(t *testing.T) {
	if out := FilterStakeLosses(nil); len(out) != 0 {
		t.Errorf("Expected empty output, got %d events", len(out))
	}
}
