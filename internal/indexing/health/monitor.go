package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/marketwatch/internal/core/cursor"
	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
)

// Lag thresholds in blocks.
const (
	lagDegraded = 10
	lagCritical = 100
)

// checkCacheTTL rate-limits upstream calls from the health endpoint.
const checkCacheTTL = 10 * time.Second

// BrokerStats is the broker surface the monitor reads. The notify hub
// satisfies it.
type BrokerStats interface {
	ConnectionCount() int
	RoomCount() int
}

// Monitor assembles the health report for one chain.
type Monitor struct {
	chainID domain.ChainID
	cursors *cursor.Store
	height  ledger.HeightSource
	broker  BrokerStats

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a health monitor. broker may be nil.
func NewMonitor(
	chainID domain.ChainID,
	cursors *cursor.Store,
	height ledger.HeightSource,
	broker BrokerStats,
) *Monitor {
	return &Monitor{
		chainID: chainID,
		cursors: cursors,
		height:  height,
		broker:  broker,
	}
}

// Check builds the current report. Results are cached briefly so probes
// cannot hammer the ledger node.
func (m *Monitor) Check(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < checkCacheTTL && m.lastReport.ChainID != "" {
		return m.lastReport
	}

	report := Report{
		ChainID: string(m.chainID),
		Status:  StatusHealthy,
	}

	head, err := m.height.CurrentHeight(ctx)
	if err != nil {
		report.Status = StatusDegraded
	} else {
		report.HeadBlock = head
	}

	if last, err := m.cursors.LastBlock(ctx); err == nil {
		report.LastBlock = last
		if head > last {
			report.BlockLag = head - last
		}
	} else {
		report.Status = StatusDegraded
	}
	if cp, err := m.cursors.Checkpoint(ctx); err == nil {
		report.CheckpointBlock = cp
	}

	if m.broker != nil {
		report.Connections = m.broker.ConnectionCount()
		report.Rooms = m.broker.RoomCount()
	}

	if report.Status == StatusHealthy {
		switch {
		case report.BlockLag > lagCritical:
			report.Status = StatusCritical
		case report.BlockLag > lagDegraded:
			report.Status = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
