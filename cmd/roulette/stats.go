package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vrfRoulette/internal/config"
	"vrfRoulette/internal/stats"
	"vrfRoulette/internal/storage/postgres"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate decoded draws into per-window statistics",
		RunE:  runStats,
	}

	cmd.Flags().String("in", "./data/events.jsonl", "input decoded events JSONL")
	cmd.Flags().String("window", "1h", "aggregation window (e.g. 10m, 1h, 24h)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	cmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	cmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadStats(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	windowDuration, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	windowSeconds := uint64(windowDuration.Seconds())
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	var stateStore stats.StateStore
	if cfg.StateFile != "" {
		stateStore = &stats.FileStateStore{Path: cfg.StateFile, WindowSeconds: windowSeconds}
	} else {
		stateStore = &stats.DBStateStore{Store: store, WindowSeconds: windowSeconds}
	}

	agg := stats.NewAggregator(stats.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		StateStore:    stateStore,
	}, store, logger)

	logger.Info("stats start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
	)

	return agg.Run(ctx, cfg.Input)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
