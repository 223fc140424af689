package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/chain"
	"vrfRoulette/internal/model"
	"vrfRoulette/internal/retry"
	"vrfRoulette/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Contract          common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// ChainReader is the subset of chain.Client the runner needs.
type ChainReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, q chain.LogQuery) ([]types.Log, error)
}

// Runner backfills casino logs, decodes them and writes them to storage.
type Runner struct {
	cfg        RunConfig
	chain      ChainReader
	registry   *casino.Registry
	storage    storage.EventSink
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainClient ChainReader, registry *casino.Registry, sink storage.EventSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		registry:   registry,
		storage:    sink,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled, cfg.Contract.Hex()),
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.registry == nil {
		return fmt.Errorf("registry is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.Contract == (common.Address{}) {
		return fmt.Errorf("contract address is required")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok && cp.LastProcessedBlock >= from {
		from = cp.LastProcessedBlock + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	topics := r.cfg.Topic0
	if len(topics) == 0 {
		for _, topic := range r.registry.Topics() {
			topics = append(topics, common.HexToHash(topic))
		}
	}

	var total, unknown int
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		query := chain.LogQuery{
			FromBlock: blockRange.From,
			ToBlock:   blockRange.To,
			Addresses: []common.Address{r.cfg.Contract},
			Topics:    [][]common.Hash{topics},
		}
		logs, err := r.filterLogsWithRetry(ctx, query)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		records := make([]model.DecodedRecord, 0, len(logs))
		for _, log := range logs {
			if log.Removed || r.isDuplicate(log) {
				continue
			}

			ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			raw := chain.LogRecord(chainIDValue, log, ts)
			event := casino.Decode(raw, r.registry)
			if event.IsUnknown() {
				unknown++
			}
			records = append(records, model.NewDecodedRecord(raw, event))
		}
		total += len(records)

		if err := r.storage.PutEventBatch(records); err != nil {
			return fmt.Errorf("store events: %w", err)
		}

		if err := r.checkpoint.Save(blockRange.To); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.Int("events", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	r.logger.Info("index complete", zap.Int("events", total), zap.Int("unknown", unknown))
	return nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, query chain.LogQuery) ([]types.Log, error) {
	var logs []types.Log
	err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, query)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", query.FromBlock), zap.Uint64("to", query.ToBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := retry.Do(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
