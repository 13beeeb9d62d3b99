package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// memLeaser is an in-process Leaser for tests.
type memLeaser struct {
	mu   sync.Mutex
	held map[string]bool

	denyAll bool
}

func newMemLeaser() *memLeaser {
	return &memLeaser{held: make(map[string]bool)}
}

func (l *memLeaser) AcquireLease(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyAll || l.held[job] {
		return false, nil
	}
	l.held[job] = true
	return true, nil
}

func (l *memLeaser) ReleaseLease(ctx context.Context, job string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, job)
	return nil
}

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	s := New(newMemLeaser())
	defer s.Stop()

	var runs atomic.Int32
	s.Schedule(context.Background(), "tick", 10*time.Millisecond, time.Second,
		func(ctx context.Context) { runs.Add(1) })

	time.Sleep(100 * time.Millisecond)
	s.Cancel("tick")

	if n := runs.Load(); n < 2 {
		t.Errorf("Expected at least 2 runs, got %d", n)
	}
}

func TestScheduler_SkipsWhenLeaseHeld(t *testing.T) {
	leaser := newMemLeaser()
	leaser.denyAll = true

	s := New(leaser)
	defer s.Stop()

	var runs atomic.Int32
	s.Schedule(context.Background(), "locked", 10*time.Millisecond, time.Second,
		func(ctx context.Context) { runs.Add(1) })

	time.Sleep(80 * time.Millisecond)

	if n := runs.Load(); n != 0 {
		t.Errorf("Expected 0 runs while lease is held elsewhere, got %d", n)
	}
}

func TestScheduler_NoOverlappingRuns(t *testing.T) {
	s := New(newMemLeaser())
	defer s.Stop()

	var active atomic.Int32
	var maxActive atomic.Int32
	s.Schedule(context.Background(), "slow", 5*time.Millisecond, time.Second,
		func(ctx context.Context) {
			cur := active.Add(1)
			if cur > maxActive.Load() {
				maxActive.Store(cur)
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
		})

	time.Sleep(120 * time.Millisecond)
	s.Cancel("slow")

	if maxActive.Load() > 1 {
		t.Errorf("Job overlapped: max concurrent runs = %d", maxActive.Load())
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := New(newMemLeaser())
	defer s.Stop()

	var runs atomic.Int32
	s.Schedule(context.Background(), "short", 10*time.Millisecond, time.Second,
		func(ctx context.Context) { runs.Add(1) })

	time.Sleep(35 * time.Millisecond)
	s.Cancel("short")
	settled := runs.Load()

	time.Sleep(50 * time.Millisecond)
	if runs.Load() != settled {
		t.Errorf("Job ran after Cancel: %d -> %d", settled, runs.Load())
	}
}
