package eventsource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"vrfRoulette/internal/chain"
	"vrfRoulette/internal/model"
	"vrfRoulette/internal/retry"
)

// LogBackend is the subset of chain.Client used by ChainSource.
type LogBackend interface {
	FilterLogs(ctx context.Context, q chain.LogQuery) ([]types.Log, error)
	SubscribeLogs(ctx context.Context, q chain.LogQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// ChainSourceConfig controls resubscription.
type ChainSourceConfig struct {
	ChainID         uint64
	ResubscribeBase time.Duration
	ResubscribeMax  time.Duration
	Logger          *zap.Logger
}

// ChainSource reads logs straight from an RPC node.
type ChainSource struct {
	backend LogBackend
	cfg     ChainSourceConfig
	logger  *zap.Logger
}

// NewChainSource creates a source over backend.
func NewChainSource(backend LogBackend, cfg ChainSourceConfig) *ChainSource {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResubscribeBase <= 0 {
		cfg.ResubscribeBase = time.Second
	}
	if cfg.ResubscribeMax <= 0 {
		cfg.ResubscribeMax = 30 * time.Second
	}
	return &ChainSource{backend: backend, cfg: cfg, logger: logger}
}

// QueryLogs fetches logs matching q.
func (s *ChainSource) QueryLogs(ctx context.Context, q Query) ([]model.RawLogRecord, error) {
	logs, err := s.backend.FilterLogs(ctx, logQuery(q))
	if err != nil {
		return nil, &QueryError{Query: q, Err: err}
	}

	records := make([]model.RawLogRecord, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		records = append(records, chain.LogRecord(s.cfg.ChainID, log, 0))
	}
	return records, nil
}

// Subscribe pushes new logs matching q to deliver until the returned
// subscription is released or ctx ends. Transports without notifications
// yield a subscription that never delivers. A dropped subscription is
// re-established with backoff; logs emitted meanwhile are not replayed.
func (s *ChainSource) Subscribe(ctx context.Context, q Query, deliver func(model.RawLogRecord)) (Subscription, error) {
	ch := make(chan types.Log, 16)
	sub, err := s.backend.SubscribeLogs(ctx, logQuery(q), ch)
	if errors.Is(err, rpc.ErrNotificationsUnsupported) {
		s.logger.Warn("log subscriptions unsupported, relying on polling")
		return noopSubscription{}, nil
	}
	if err != nil {
		s.logger.Warn("subscribe logs failed, retrying", zap.Error(err))
		sub = nil
	}

	ctx, cancel := context.WithCancel(ctx)
	handle := &chainSubscription{cancel: cancel}
	go s.run(ctx, q, sub, ch, deliver)
	return handle, nil
}

func (s *ChainSource) run(ctx context.Context, q Query, sub ethereum.Subscription, ch chan types.Log, deliver func(model.RawLogRecord)) {
	policy := retry.NewBackOff(s.cfg.ResubscribeBase, s.cfg.ResubscribeMax)
	attempt := 0
	for {
		if sub == nil {
			timer := time.NewTimer(policy.NextBackOff())
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			var err error
			sub, err = s.backend.SubscribeLogs(ctx, logQuery(q), ch)
			if err != nil {
				attempt++
				s.logger.Warn("resubscribe logs failed", zap.Int("attempt", attempt), zap.Error(err))
				sub = nil
				continue
			}
			attempt = 0
			policy.Reset()
			s.logger.Info("log subscription restored")
		}

		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case err := <-sub.Err():
			s.logger.Warn("log subscription dropped", zap.Error(err))
			sub.Unsubscribe()
			sub = nil
		case log := <-ch:
			if log.Removed {
				continue
			}
			deliver(chain.LogRecord(s.cfg.ChainID, log, 0))
		}
	}
}

type chainSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (c *chainSubscription) Unsubscribe() {
	c.once.Do(c.cancel)
}

func logQuery(q Query) chain.LogQuery {
	out := chain.LogQuery{
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
		Topics:    q.Topics(),
	}
	if q.Address != "" {
		out.Addresses = []common.Address{common.HexToAddress(q.Address)}
	}
	return out
}
