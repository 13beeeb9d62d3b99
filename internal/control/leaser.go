package control

import (
	"context"
	"sync"
	"time"
)

// localLeaser is the in-process fallback for the scheduler lease when Redis
// is not configured. It gives the same non-overlap guarantee within one
// process only.
type localLeaser struct {
	mu     sync.Mutex
	leases map[string]time.Time // job -> expiry
}

func newLocalLeaser() *localLeaser {
	return &localLeaser{leases: make(map[string]time.Time)}
}

func (l *localLeaser) AcquireLease(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, ok := l.leases[job]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	l.leases[job] = time.Now().Add(ttl)
	return true, nil
}

func (l *localLeaser) ReleaseLease(ctx context.Context, job string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, job)
	return nil
}
