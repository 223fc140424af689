package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReverted is returned for transactions mined with a failure status.
var ErrReverted = errors.New("transaction reverted")

// ReceiptBackend is the subset of the client used to await confirmations.
type ReceiptBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// WaitConfig controls WaitForReceipt.
type WaitConfig struct {
	Confirmations uint64
	Interval      time.Duration
	MaxRetries    int
}

// DefaultWaitConfig matches the casino frontend: three confirmations.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{Confirmations: 3, Interval: 2 * time.Second, MaxRetries: 5}
}

// WaitForReceipt blocks until txHash is mined with at least cfg.Confirmations
// blocks on top (inclusive of its own block). The receipt is re-read on every
// tick so a reorged transaction is picked up at its new height.
func WaitForReceipt(ctx context.Context, backend ReceiptBackend, txHash common.Hash, cfg WaitConfig) (*types.Receipt, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWaitConfig().Interval
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}

	failures := 0
	fail := func(err error) (*types.Receipt, error) {
		return nil, &ReceiptError{TxHash: txHash.Hex(), Err: err}
	}

	for {
		receipt, done, err := checkReceipt(ctx, backend, txHash, cfg.Confirmations)
		switch {
		case errors.Is(err, ErrReverted):
			return fail(err)
		case err != nil:
			failures++
			if failures > cfg.MaxRetries {
				return fail(err)
			}
		case done:
			return receipt, nil
		default:
			failures = 0
		}

		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		case <-time.After(cfg.Interval):
		}
	}
}

func checkReceipt(ctx context.Context, backend ReceiptBackend, txHash common.Hash, confirmations uint64) (*types.Receipt, bool, error) {
	receipt, err := backend.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, false, ErrReverted
	}
	if receipt.BlockNumber == nil {
		return nil, false, nil
	}

	head, err := backend.LatestBlockNumber(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("fetch head: %w", err)
	}
	mined := receipt.BlockNumber.Uint64()
	if head < mined || head-mined+1 < confirmations {
		return nil, false, nil
	}
	return receipt, true, nil
}
