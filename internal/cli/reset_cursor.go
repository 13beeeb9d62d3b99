package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vietddude/marketwatch/internal/core/config"
	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/infra/storage/postgres"
)

var resetCursorName string

var resetCursorCmd = &cobra.Command{
	Use:   "reset-cursor [chain_id] [block_height]",
	Short: "Reset a block cursor to a given height",
	Long:  `Overwrites the stored cursor so the next start replays from the given height. Use --name to pick which cursor (lastBlock or checkpointBlock).`,
	Args:  cobra.ExactArgs(2),
	Run:   runResetCursor,
}

func init() {
	resetCursorCmd.Flags().StringVar(&resetCursorName, "name",
		string(domain.CursorLastBlock), "cursor to reset (lastBlock or checkpointBlock)")
	rootCmd.AddCommand(resetCursorCmd)
}

func runResetCursor(cmd *cobra.Command, args []string) {
	chainID := domain.ChainID(args[0])
	height, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Invalid block height: %v\n", err)
		os.Exit(1)
	}

	name := domain.CursorName(resetCursorName)
	if name != domain.CursorLastBlock && name != domain.CursorCheckpoint {
		fmt.Printf("Unknown cursor name: %s\n", resetCursorName)
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

	// Deliberate overwrite, not a max-merge: resetting below the stored
	// value is the whole point of this command.
	query := `INSERT INTO block_cursors (chain_id, name, value, updated_at)
	          VALUES ($1, $2, $3, now())
	          ON CONFLICT (chain_id, name)
	          DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := db.ExecContext(ctx, query, string(chainID), string(name), int64(height)); err != nil {
		slog.Error("Failed to reset cursor", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Reset %s for chain %s to block %d\n", name, chainID, height)
}
