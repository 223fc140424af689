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

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/chain"
	"vrfRoulette/internal/config"
	"vrfRoulette/internal/indexer"
	"vrfRoulette/internal/storage"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Backfill decoded casino events into JSONL",
		RunE:  runIndex,
	}

	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("contract", config.DefaultContract, "casino contract address")
	cmd.Flags().Uint64("from", 0, "start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	cmd.Flags().StringSlice("topic0", nil, "topic0 filter (comma-separated), default all casino events")
	cmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	cmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadIndex(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	contract, err := indexer.ParseAddress(cfg.Contract)
	if err != nil {
		return err
	}

	registry, err := casino.NewRegistry(casino.RegistryConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	topic0, err := indexer.ParseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		Contract:          contract,
		Topic0:            topic0,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, registry, storage.NewJsonlStorage(cfg.Out), logger)

	logger.Info("index start",
		zap.String("contract", contract.Hex()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}
