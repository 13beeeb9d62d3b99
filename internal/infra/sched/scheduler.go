// Package sched runs named jobs on fixed intervals under a lease lock.
//
// A job ticks every interval; each tick first takes the lease (Redis SetNX
// with TTL in production) and skips the tick when another holder has it, so
// the same job never runs twice concurrently, in-process or across replicas.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Leaser is the lock primitive behind the non-overlap guarantee.
type Leaser interface {
	AcquireLease(ctx context.Context, job string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, job string) error
}

// JobFunc is one job execution.
type JobFunc func(ctx context.Context)

// Scheduler runs leased periodic jobs.
type Scheduler struct {
	leaser Leaser
	log    *slog.Logger

	mu   sync.Mutex
	jobs map[string]context.CancelFunc
	wg   sync.WaitGroup
}

// New creates a scheduler backed by the given leaser.
func New(leaser Leaser) *Scheduler {
	return &Scheduler{
		leaser: leaser,
		log:    slog.Default().With("component", "sched"),
		jobs:   make(map[string]context.CancelFunc),
	}
}

// Schedule registers a job running every interval under a lease of the given
// duration. Scheduling an already-registered name replaces it.
func (s *Scheduler) Schedule(
	ctx context.Context,
	name string,
	interval, lease time.Duration,
	fn JobFunc,
) {
	s.mu.Lock()
	if cancel, ok := s.jobs[name]; ok {
		cancel()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	s.jobs[name] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(jobCtx, name, interval, lease, fn)
	s.log.Info("job scheduled", "job", name, "interval", interval)
}

// Cancel stops a scheduled job. Unknown names are a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.jobs[name]; ok {
		cancel()
		delete(s.jobs, name)
		s.log.Info("job cancelled", "job", name)
	}
}

// Stop cancels every job and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for name, cancel := range s.jobs {
		cancel()
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(
	ctx context.Context,
	name string,
	interval, lease time.Duration,
	fn JobFunc,
) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, name, lease, fn)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, name string, lease time.Duration, fn JobFunc) {
	held, err := s.leaser.AcquireLease(ctx, name, lease)
	if err != nil {
		s.log.Error("lease acquisition failed", "job", name, "error", err)
		return
	}
	if !held {
		s.log.Debug("lease held elsewhere, skipping tick", "job", name)
		return
	}
	defer func() {
		if err := s.leaser.ReleaseLease(ctx, name); err != nil {
			s.log.Warn("lease release failed", "job", name, "error", err)
		}
	}()

	fn(ctx)
}
