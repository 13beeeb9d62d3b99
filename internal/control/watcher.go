// Package control assembles and runs the service: storage, ledger gateway,
// notification broker, ingestion engine, drift monitor and the ops server.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/marketwatch/internal/core/config"
	"github.com/vietddude/marketwatch/internal/core/cursor"
	"github.com/vietddude/marketwatch/internal/indexing/drift"
	"github.com/vietddude/marketwatch/internal/indexing/health"
	"github.com/vietddude/marketwatch/internal/indexing/ingest"
	"github.com/vietddude/marketwatch/internal/indexing/materialize"
	"github.com/vietddude/marketwatch/internal/infra/alert"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
	redisclient "github.com/vietddude/marketwatch/internal/infra/redis"
	"github.com/vietddude/marketwatch/internal/infra/sched"
	"github.com/vietddude/marketwatch/internal/infra/storage"
	"github.com/vietddude/marketwatch/internal/infra/storage/memory"
	"github.com/vietddude/marketwatch/internal/infra/storage/postgres"
	"github.com/vietddude/marketwatch/internal/notify"
)

// driftJobLease caps how long a crashed drift run blocks the next one.
const driftJobLease = 16 * time.Second

// Watcher owns the service lifecycle.
type Watcher struct {
	cfg config.AppConfig

	db          *postgres.DB
	redisClient *redisclient.Client
	gateway     *ledger.EVMGateway
	cursors     *cursor.Store
	hub         *notify.Hub
	engine      *ingest.Engine
	scheduler   *sched.Scheduler
	opsServer   *health.Server

	log *slog.Logger
}

// NewWatcher wires every component from the configuration. The database and
// Redis are optional: without a database state lives in memory, without Redis
// the job lease is process-local.
func NewWatcher(ctx context.Context, cfg config.AppConfig) (*Watcher, error) {
	chainCfg := cfg.Chain

	// Storage.
	var (
		cursorRepo storage.CursorRepository
		marketRepo storage.MarketRepository
		db         *postgres.DB
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		// goose works on the raw *sql.DB under sqlx.
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		cursorRepo = postgres.NewCursorRepo(db)
		marketRepo = postgres.NewMarketRepo(db)
		slog.Info("using postgres storage")
	} else {
		cursorRepo = memory.NewCursorRepo()
		marketRepo = memory.NewMarketRepo()
		slog.Info("using memory storage")
	}

	cursors := cursor.NewStore(cursorRepo, chainCfg.ChainID, chainCfg.StartBlock)

	// Ledger gateway.
	bindings, err := ledger.NewBindings(ledger.ContractAddresses{
		Hub:                chainCfg.Hub,
		AppRegistry:        chainCfg.AppRegistry,
		DatasetRegistry:    chainCfg.DatasetRegistry,
		WorkerpoolRegistry: chainCfg.WorkerpoolRegistry,
		Token:              chainCfg.Token,
	}, chainCfg.Flavor)
	if err != nil {
		return nil, fmt.Errorf("build contract bindings: %w", err)
	}
	gateway, err := ledger.NewEVMGateway(ctx, chainCfg.ChainID, chainCfg.HTTPURL, chainCfg.WSURL, bindings)
	if err != nil {
		return nil, fmt.Errorf("connect ledger: %w", err)
	}

	// Broker and materializer.
	hub := notify.NewHub(cfg.Notify.HeartbeatInterval)
	mat := materialize.New(marketRepo, hub)

	engine := ingest.NewEngine(gateway, mat, cursors, ingest.Config{
		ChainID:         chainCfg.ChainID,
		Flavor:          chainCfg.Flavor,
		BlocksBatchSize: chainCfg.BlocksBatchSize,
	})

	// Job scheduler: Redis lease when configured, process-local otherwise.
	var leaser sched.Leaser
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		leaser = redisClient
		slog.Info("using redis job lease")
	} else {
		leaser = newLocalLeaser()
		slog.Info("using process-local job lease")
	}
	scheduler := sched.New(leaser)

	healthMon := health.NewMonitor(chainCfg.ChainID, cursors, gateway.HTTPHeight(), hub)
	opsServer := health.NewServer(healthMon, hub.Handler(), cfg.Server.Port)

	return &Watcher{
		cfg:         cfg,
		db:          db,
		redisClient: redisClient,
		gateway:     gateway,
		cursors:     cursors,
		hub:         hub,
		engine:      engine,
		scheduler:   scheduler,
		opsServer:   opsServer,
		log:         slog.Default().With("component", "control"),
	}, nil
}

// Start brings the service up: ops server and broker sweep first, then a
// catch-up replay from the stored cursor, then the live subscriptions and the
// scheduled drift job.
func (w *Watcher) Start(ctx context.Context) error {
	go func() {
		if err := w.opsServer.Start(); err != nil {
			w.log.Error("ops server stopped", "error", err)
		}
	}()
	go w.hub.Run(ctx)

	// Catch up before tailing live: replay everything between the stored
	// cursor and the current head.
	from, err := w.cursors.NextBlockToProcess(ctx)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	head, err := w.gateway.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("resolve head: %w", err)
	}
	if n, err := w.engine.Replay(ctx, from, head); err != nil {
		return fmt.Errorf("catch-up replay: %w", err)
	} else if n > 0 || head >= from {
		if err := w.cursors.AdvanceLastBlock(ctx, head); err != nil {
			return fmt.Errorf("advance cursor: %w", err)
		}
		if err := w.cursors.SetCheckpoint(ctx, head); err != nil {
			return fmt.Errorf("set checkpoint: %w", err)
		}
	}

	if err := w.engine.SubscribeLive(ctx); err != nil {
		return fmt.Errorf("attach live subscriptions: %w", err)
	}

	sink := alert.NewLogSink()
	syncCfg := w.cfg.Chain.Sync
	w.scheduler.Schedule(ctx, "drift-check", syncCfg.CheckInterval, driftJobLease,
		func(ctx context.Context) {
			monitor := drift.NewMonitor(w.gateway.WSHeight(), w.gateway.HTTPHeight(), sink, drift.Config{
				StartupDelay: syncCfg.StartupDelay,
				Threshold:    syncCfg.OutOfSyncThreshold,
			})
			monitor.Run(ctx)
		})

	w.log.Info("watcher started", "chain", w.cfg.Chain.ChainID)
	return nil
}

// Stop shuts everything down in reverse order.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("stopping watcher")

	w.scheduler.Stop()

	if err := w.gateway.Close(); err != nil {
		w.log.Warn("ledger close failed", "error", err)
	}
	if w.redisClient != nil {
		if err := w.redisClient.Close(); err != nil {
			w.log.Warn("redis close failed", "error", err)
		}
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			w.log.Warn("database close failed", "error", err)
		}
	}
	return w.opsServer.Stop(ctx)
}
