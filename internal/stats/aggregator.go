package stats

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vrfRoulette/internal/model"
	"vrfRoulette/internal/storage"
)

// Store persists draw window rows.
type Store interface {
	UpsertDrawWindowStats(ctx context.Context, stats []model.DrawWindowStats) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator turns decoded PlayResult events into per-window draw stats.
type Aggregator struct {
	cfg          Config
	store        Store
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, store Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run aggregates a decoded events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.DrawWindowStats, 0, a.cfg.BatchSize)
	var total, draws, windows, skipped, failed int

	err = storage.ScanDecodedRecords(inputPath, func(record model.DecodedRecord) error {
		total++
		if record.Event.Kind != model.KindResultReady || record.Timestamp <= startTs {
			skipped++
			return nil
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		key := contractKey(record.Address)
		acc := a.accumulators[key]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[key] = acc
		} else if acc.WindowStart != windowStart {
			if stats := acc.Stats(a.cfg.WindowSeconds); stats != nil {
				batch = append(batch, *stats)
				windows++
			}
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[key] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate draw", zap.Error(err), zap.String("contract", record.Address))
			return nil
		}
		draws++

		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertDrawWindowStats(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]

			if err := a.saveState(ctx, a.progress(startTs)); err != nil {
				return err
			}
		}
		return nil
	}, func(err error) {
		total++
		failed++
		a.logger.Warn("decode event record", zap.Error(err))
	})
	if err != nil {
		return err
	}

	// Windows still open at the end of the input are written as they stand,
	// and progress stops before them so the next run rebuilds them in full.
	progress := a.progress(startTs)
	for _, acc := range a.accumulators {
		if stats := acc.Stats(a.cfg.WindowSeconds); stats != nil {
			batch = append(batch, *stats)
			windows++
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.store.UpsertDrawWindowStats(ctx, batch); err != nil {
			return err
		}
	}

	if err := a.saveState(ctx, progress); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("draws", draws),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.String("fair_share", expectedShare()),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context, ts uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	return a.cfg.StateStore.Save(ctx, ts)
}

// progress returns the newest timestamp that no open window still needs,
// or fallback when no window is open.
func (a *Aggregator) progress(fallback uint64) uint64 {
	start, ok := minOpenWindowStart(a.accumulators)
	if !ok {
		return fallback
	}
	if start == 0 {
		return 0
	}
	return start - 1
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func contractKey(address string) string {
	return strings.ToLower(address)
}

func minOpenWindowStart(acc map[string]*Accumulator) (uint64, bool) {
	var min uint64
	found := false
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if !found || entry.WindowStart < min {
			min = entry.WindowStart
			found = true
		}
	}
	return min, found
}
