package cli

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/marketwatch/internal/core/config"
	"github.com/vietddude/marketwatch/internal/core/cursor"
	"github.com/vietddude/marketwatch/internal/indexing/ingest"
	"github.com/vietddude/marketwatch/internal/indexing/materialize"
	"github.com/vietddude/marketwatch/internal/infra/ledger"
	"github.com/vietddude/marketwatch/internal/infra/storage/postgres"
)

var replayCmd = &cobra.Command{
	Use:   "replay [from_block] [to_block]",
	Short: "Replay a historical block range into the read model",
	Long:  `Runs a one-shot backfill of the given range. to_block of 0 means the current chain head. No notifications are pushed; only the database is updated.`,
	Args:  cobra.ExactArgs(2),
	Run:   runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	stylelog.InitDefault(&tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	})

	from, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		slog.Error("Invalid from_block", "error", err)
		os.Exit(1)
	}
	to, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		slog.Error("Invalid to_block", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	chainCfg := cfg.Chain
	bindings, err := ledger.NewBindings(ledger.ContractAddresses{
		Hub:                chainCfg.Hub,
		AppRegistry:        chainCfg.AppRegistry,
		DatasetRegistry:    chainCfg.DatasetRegistry,
		WorkerpoolRegistry: chainCfg.WorkerpoolRegistry,
		Token:              chainCfg.Token,
	}, chainCfg.Flavor)
	if err != nil {
		slog.Error("Failed to build contract bindings", "error", err)
		os.Exit(1)
	}
	gateway, err := ledger.NewEVMGateway(ctx, chainCfg.ChainID, chainCfg.HTTPURL, chainCfg.WSURL, bindings)
	if err != nil {
		slog.Error("Failed to connect ledger", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = gateway.Close()
	}()

	cursors := cursor.NewStore(postgres.NewCursorRepo(db), chainCfg.ChainID, chainCfg.StartBlock)
	mat := materialize.New(postgres.NewMarketRepo(db), nil)
	engine := ingest.NewEngine(gateway, mat, cursors, ingest.Config{
		ChainID:         chainCfg.ChainID,
		Flavor:          chainCfg.Flavor,
		BlocksBatchSize: chainCfg.BlocksBatchSize,
	})

	n, err := engine.Replay(ctx, from, to)
	if err != nil {
		slog.Error("Replay failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Replay finished", "from", from, "to", to, "events", n)
}
