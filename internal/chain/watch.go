package chain

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"
)

// ChainIDReader reads the node's chain id.
type ChainIDReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
}

// WatchChainID polls the node chain id every interval and calls onChange
// whenever it differs from the last value seen. It returns when ctx is done.
func WatchChainID(ctx context.Context, reader ChainIDReader, initial uint64, interval time.Duration, logger *zap.Logger, onChange func(uint64)) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := initial
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		id, err := reader.GetChainID(ctx)
		if err != nil {
			logger.Warn("read chain id failed", zap.Error(err))
			continue
		}
		if id.Uint64() == current {
			continue
		}
		logger.Info("chain id changed", zap.Uint64("from", current), zap.Uint64("to", id.Uint64()))
		current = id.Uint64()
		onChange(current)
	}
}
