package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vietddude/marketwatch/internal/core/cursor"
	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
	"github.com/vietddude/marketwatch/internal/infra/storage/memory"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeGateway struct {
	mu       sync.Mutex
	height   uint64
	events   map[domain.EventKind][]domain.ChainEvent
	failKind domain.EventKind // QueryRange for this kind errors
	queried  []Range

	subs     map[domain.EventKind]ledger.EventHandler
	blockSub ledger.BlockHandler
}

func newFakeGateway(height uint64) *fakeGateway {
	return &fakeGateway{
		height: height,
		events: make(map[domain.EventKind][]domain.ChainEvent),
		subs:   make(map[domain.EventKind]ledger.EventHandler),
	}
}

func (g *fakeGateway) CurrentHeight(ctx context.Context) (uint64, error) {
	return g.height, nil
}

func (g *fakeGateway) QueryRange(
	ctx context.Context,
	kind domain.EventKind,
	from, to uint64,
) ([]domain.ChainEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if kind == g.failKind && g.failKind != "" {
		return nil, errors.New("ledger unreachable")
	}
	if kind == domain.KindCategoryCreated {
		// Track sub-range walking through a single kind.
		g.queried = append(g.queried, Range{From: from, To: to})
	}

	var out []domain.ChainEvent
	for _, ev := range g.events[kind] {
		if ev.BlockNumber >= from && ev.BlockNumber <= to {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (g *fakeGateway) Subscribe(ctx context.Context, kind domain.EventKind, h ledger.EventHandler) error {
	g.subs[kind] = h
	return nil
}

func (g *fakeGateway) SubscribeNewBlock(ctx context.Context, h ledger.BlockHandler) error {
	g.blockSub = h
	return nil
}

type recordingMaterializer struct {
	mu      sync.Mutex
	handled []domain.ChainEvent
	replays []bool
	failOn  string // TxHash that errors
}

func (m *recordingMaterializer) Handle(ctx context.Context, ev domain.ChainEvent, isReplay bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && ev.TxHash == m.failOn {
		return errors.New("materializer down")
	}
	m.handled = append(m.handled, ev)
	m.replays = append(m.replays, isReplay)
	return nil
}

func (m *recordingMaterializer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handled)
}

func newTestEngine(gw *fakeGateway, mat Materializer) (*Engine, *cursor.Store) {
	cursors := cursor.NewStore(memory.NewCursorRepo(), "134", 0)
	e := NewEngine(gw, mat, cursors, Config{
		ChainID:         "134",
		Flavor:          domain.FlavorStandard,
		BlocksBatchSize: 300,
	})
	return e, cursors
}

// =============================================================================
// Replay
// =============================================================================

func TestReplay_DispatchesAllEvents(t *testing.T) {
	gw := newFakeGateway(1000)
	for i := 0; i < 5; i++ {
		gw.events[domain.KindOrdersMatched] = append(gw.events[domain.KindOrdersMatched],
			domain.ChainEvent{
				Kind:        domain.KindOrdersMatched,
				BlockNumber: uint64(100 + i),
				TxHash:      fmt.Sprintf("0xdeal%d", i),
				Args:        map[string]string{"dealid": fmt.Sprintf("0x%d", i)},
			})
	}
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)

	n, err := e.Replay(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 dispatched events, got %d", n)
	}
	if mat.count() != 5 {
		t.Errorf("Expected 5 handled events, got %d", mat.count())
	}
	for _, isReplay := range mat.replays {
		if !isReplay {
			t.Error("Replay dispatch must be tagged isReplay=true")
		}
	}
}

func TestReplay_WalksSubRangesInOrder(t *testing.T) {
	gw := newFakeGateway(1000)
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)

	if _, err := e.Replay(context.Background(), 0, 1000); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	want := []Range{{0, 290}, {291, 581}, {582, 872}, {873, 1000}}
	if len(gw.queried) != len(want) {
		t.Fatalf("Expected %d sub-ranges, got %d: %v", len(want), len(gw.queried), gw.queried)
	}
	for i, r := range gw.queried {
		if r != want[i] {
			t.Errorf("Sub-range %d: expected %v, got %v", i, want[i], r)
		}
	}
}

func TestReplay_ResolvesLatestHeight(t *testing.T) {
	gw := newFakeGateway(250)
	gw.events[domain.KindCategoryCreated] = []domain.ChainEvent{
		{Kind: domain.KindCategoryCreated, BlockNumber: 240, Args: map[string]string{"catid": "1"}},
	}
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)

	n, err := e.Replay(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 event up to resolved head 250, got %d", n)
	}
}

func TestReplay_NoNewBlock(t *testing.T) {
	gw := newFakeGateway(100)
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)

	// Start past the head: nothing to do, no error.
	n, err := e.Replay(context.Background(), 500, 0)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 events, got %d", n)
	}
}

func TestReplay_QueryFailureAborts(t *testing.T) {
	gw := newFakeGateway(1000)
	gw.failKind = domain.KindOrdersMatched
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)

	if _, err := e.Replay(context.Background(), 0, 1000); err == nil {
		t.Fatal("Expected error when a kind query fails, got nil")
	}
}

func TestReplay_MaterializerFailureAborts(t *testing.T) {
	gw := newFakeGateway(1000)
	gw.events[domain.KindOrdersMatched] = []domain.ChainEvent{
		{Kind: domain.KindOrdersMatched, BlockNumber: 10, TxHash: "0xbad"},
	}
	mat := &recordingMaterializer{failOn: "0xbad"}
	e, _ := newTestEngine(gw, mat)

	if _, err := e.Replay(context.Background(), 0, 1000); err == nil {
		t.Fatal("Expected materializer error to bubble, got nil")
	}
}

func TestReplay_AppliesStakeLossFilter(t *testing.T) {
	gw := newFakeGateway(1000)
	gw.events[domain.KindStakeTransfer] = []domain.ChainEvent{
		stakeTransferAt(10, domain.ZeroAddress, "0xx", "5"),
		stakeTransferAt(11, "0xa", "0xb", "0"),
		stakeTransferAt(12, "0xa", "0xc", "3"),
		stakeTransferAt(13, "0xa", "0xd", "7"),
	}
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)

	n, err := e.Replay(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 surviving stake loss, got %d", n)
	}
	if mat.count() != 1 || mat.handled[0].To() != "0xc" {
		t.Errorf("Expected only (0xa -> 0xc, 3) dispatched, got %v", mat.handled)
	}
}

func stakeTransferAt(block uint64, from, to, value string) domain.ChainEvent {
	return domain.ChainEvent{
		Kind:        domain.KindStakeTransfer,
		BlockNumber: block,
		Args:        map[string]string{"from": from, "to": to, "value": value},
	}
}

// =============================================================================
// Live subscriptions
// =============================================================================

func TestSubscribeLive_ForwardsEventsUntagged(t *testing.T) {
	gw := newFakeGateway(1000)
	mat := &recordingMaterializer{}
	e, _ := newTestEngine(gw, mat)
	ctx := context.Background()

	if err := e.SubscribeLive(ctx); err != nil {
		t.Fatalf("SubscribeLive failed: %v", err)
	}

	// One handler per tracked kind for the standard flavor, RoleRevoked
	// excluded.
	if len(gw.subs) != 10 {
		t.Errorf("Expected 10 subscriptions, got %d", len(gw.subs))
	}
	if _, ok := gw.subs[domain.KindRoleRevoked]; ok {
		t.Error("Standard flavor must not subscribe RoleRevoked")
	}

	gw.subs[domain.KindOrdersMatched](ctx, domain.ChainEvent{
		Kind:   domain.KindOrdersMatched,
		TxHash: "0xlive",
		Args:   map[string]string{"dealid": "0x1"},
	})

	if mat.count() != 1 {
		t.Fatalf("Expected 1 handled live event, got %d", mat.count())
	}
	if mat.replays[0] {
		t.Error("Live dispatch must be tagged isReplay=false")
	}
}

func TestSubscribeLive_EnterpriseTracksRoleRevoked(t *testing.T) {
	gw := newFakeGateway(1000)
	cursors := cursor.NewStore(memory.NewCursorRepo(), "134", 0)
	e := NewEngine(gw, &recordingMaterializer{}, cursors, Config{
		ChainID: "134",
		Flavor:  domain.FlavorEnterprise,
	})

	if err := e.SubscribeLive(context.Background()); err != nil {
		t.Fatalf("SubscribeLive failed: %v", err)
	}
	if _, ok := gw.subs[domain.KindRoleRevoked]; !ok {
		t.Error("Enterprise flavor must subscribe RoleRevoked")
	}
}

func TestSubscribeLive_NewBlockAdvancesCursor(t *testing.T) {
	gw := newFakeGateway(1000)
	mat := &recordingMaterializer{}
	e, cursors := newTestEngine(gw, mat)
	ctx := context.Background()

	if err := e.SubscribeLive(ctx); err != nil {
		t.Fatalf("SubscribeLive failed: %v", err)
	}

	gw.blockSub(ctx, 4000042)
	gw.blockSub(ctx, 4000041) // out of order, must not regress

	next, err := cursors.NextBlockToProcess(ctx)
	if err != nil {
		t.Fatalf("NextBlockToProcess failed: %v", err)
	}
	if next != 4000043 {
		t.Errorf("Expected next block 4000043, got %d", next)
	}
}
