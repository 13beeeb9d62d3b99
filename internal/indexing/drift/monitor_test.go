package drift

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/marketwatch/internal/infra/alert"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
)

type recordingSink struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (s *recordingSink) Raise(err error, a alert.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

func (s *recordingSink) raised() []alert.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]alert.Alert(nil), s.alerts...)
}

// scriptedHeights returns a sequence of heights, one per call, erroring where
// the script says so.
type scriptedHeights struct {
	mu      sync.Mutex
	heights []uint64
	errs    []error
	calls   int
}

func (h *scriptedHeights) CurrentHeight(ctx context.Context) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.calls
	h.calls++
	if i >= len(h.heights) {
		i = len(h.heights) - 1
	}
	if h.errs != nil && h.errs[i] != nil {
		return 0, h.errs[i]
	}
	return h.heights[i], nil
}

func fixedHeight(n uint64) ledger.HeightSource {
	return ledger.HeightFunc(func(ctx context.Context) (uint64, error) { return n, nil })
}

func testConfig() Config {
	return Config{Threshold: 5, ErrorBackoff: time.Millisecond}
}

func TestRun_SyncedRaisesNothing(t *testing.T) {
	sink := &recordingSink{}
	m := NewMonitor(fixedHeight(4000100), fixedHeight(4000103), sink, testConfig())

	m.Run(context.Background())

	if n := len(sink.raised()); n != 0 {
		t.Errorf("Expected no alerts within threshold, got %d", n)
	}
}

func TestRun_DriftBeyondThresholdRaisesOnce(t *testing.T) {
	sink := &recordingSink{}
	m := NewMonitor(fixedHeight(4000100), fixedHeight(4000120), sink, testConfig())

	m.Run(context.Background())

	alerts := sink.raised()
	if len(alerts) != 1 {
		t.Fatalf("Expected exactly 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != alert.TypeOutOfSync {
		t.Errorf("Expected %q alert, got %q", alert.TypeOutOfSync, alerts[0].Type)
	}
	if !alerts[0].Critical {
		t.Error("Out-of-sync alert must be critical")
	}
}

func TestRun_DriftIsSymmetric(t *testing.T) {
	// Websocket ahead of RPC also counts as drift.
	sink := &recordingSink{}
	m := NewMonitor(fixedHeight(4000120), fixedHeight(4000100), sink, testConfig())

	m.Run(context.Background())

	if len(sink.raised()) != 1 {
		t.Fatalf("Expected 1 alert when WS leads, got %d", len(sink.raised()))
	}
}

func TestRun_ExactThresholdIsSynced(t *testing.T) {
	sink := &recordingSink{}
	m := NewMonitor(fixedHeight(4000100), fixedHeight(4000105), sink, testConfig())

	m.Run(context.Background())

	if n := len(sink.raised()); n != 0 {
		t.Errorf("Drift equal to threshold must not alert, got %d alerts", n)
	}
}

func TestRun_ThreeConsecutiveErrorsRaiseOnce(t *testing.T) {
	sink := &recordingSink{}
	boom := errors.New("node down")
	ws := &scriptedHeights{heights: []uint64{0, 0, 0}, errs: []error{boom, boom, boom}}
	m := NewMonitor(ws, fixedHeight(4000100), sink, testConfig())

	m.Run(context.Background())

	alerts := sink.raised()
	if len(alerts) != 1 {
		t.Fatalf("Expected exactly 1 alert after 3 failures, got %d", len(alerts))
	}
	if alerts[0].Type != alert.TypeTooManydrift {
		t.Errorf("Expected %q alert, got %q", alert.TypeTooManydrift, alerts[0].Type)
	}
}

func TestRun_RecoveryBeforeThirdErrorResetsCleanly(t *testing.T) {
	sink := &recordingSink{}
	boom := errors.New("transient")
	ws := &scriptedHeights{
		heights: []uint64{0, 0, 4000101},
		errs:    []error{boom, boom, nil},
	}
	m := NewMonitor(ws, fixedHeight(4000100), sink, testConfig())

	m.Run(context.Background())

	if n := len(sink.raised()); n != 0 {
		t.Errorf("Expected no alerts after recovery within budget, got %d", n)
	}
}

func TestRun_CancelledDuringStartupDelay(t *testing.T) {
	sink := &recordingSink{}
	cfg := testConfig()
	cfg.StartupDelay = time.Hour
	m := NewMonitor(fixedHeight(1), fixedHeight(100), sink, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	if n := len(sink.raised()); n != 0 {
		t.Errorf("Cancelled run must not alert, got %d", n)
	}
}
