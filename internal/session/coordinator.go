// Package session runs one wager round at a time: submit play(), wait for
// confirmations, then take the first matching PlayResult from either the
// push subscription or the poll query, reveal it and return to idle.
package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/eventsource"
	"vrfRoulette/internal/model"
)

// Guard errors returned by Spin.
var (
	ErrNoNumber        = errors.New("pick a number between 0 and 36")
	ErrNotConnected    = errors.New("wallet not connected")
	ErrWrongNetwork    = errors.New("wallet is on the wrong network")
	ErrRoundInProgress = errors.New("a round is already in progress")
	ErrStopped         = errors.New("session stopped")
)

const (
	DefaultPollInterval  = 5 * time.Second
	DefaultRevealTimeout = 4500 * time.Millisecond
)

// Config wires a Coordinator.
type Config struct {
	Contract        string
	ExpectedChainID uint64
	Wallet          model.Wallet
	PollInterval    time.Duration
	RevealTimeout   time.Duration

	Chain    Chain
	Source   eventsource.Source
	Registry *casino.Registry
	Recorder OutcomeRecorder
	Observer Observer
	Timers   TimerFactory
	Logger   *zap.Logger
	Now      func() time.Time
}

// Coordinator owns the live round. All state changes happen on the Run
// goroutine; the exported methods only post messages to it.
type Coordinator struct {
	cfg      Config
	logger   *zap.Logger
	observer Observer
	timers   TimerFactory
	now      func() time.Time

	resultTopic string

	inbox   chan any
	done    chan struct{}
	updates chan model.RoundSnapshot

	mu       sync.RWMutex
	snapshot model.RoundSnapshot

	// loop state
	ctx    context.Context
	wallet model.Wallet
	round  round
}

// New validates cfg and creates a Coordinator. Call Run to start it.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Chain == nil {
		return nil, errors.New("session: chain is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("session: event source is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("session: registry is required")
	}
	result, ok := cfg.Registry.Signature(model.KindResultReady)
	if !ok {
		return nil, errors.New("session: registry has no result event")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RevealTimeout <= 0 {
		cfg.RevealTimeout = DefaultRevealTimeout
	}

	c := &Coordinator{
		cfg:         cfg,
		logger:      cfg.Logger,
		observer:    cfg.Observer,
		timers:      cfg.Timers,
		now:         cfg.Now,
		resultTopic: result.TopicHash.Hex(),
		inbox:       make(chan any, 64),
		done:        make(chan struct{}),
		updates:     make(chan model.RoundSnapshot, 16),
		wallet:      cfg.Wallet,
		round:       round{phase: model.PhaseIdle},
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.timers == nil {
		c.timers = realTimers{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.snapshot = c.round.snapshot()
	return c, nil
}

// Run subscribes to casino logs and processes messages until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	c.ctx = ctx

	sub, err := c.cfg.Source.Subscribe(ctx, eventsource.Query{Address: c.cfg.Contract}, func(record model.RawLogRecord) {
		c.post(pushMsg{record: record})
	})
	if err != nil {
		c.logger.Warn("push subscription unavailable, polling only", zap.Error(err))
	} else {
		defer sub.Unsubscribe()
	}

	for {
		select {
		case <-ctx.Done():
			c.round.disarm()
			return ctx.Err()
		case msg := <-c.inbox:
			c.handle(msg)
			c.publish()
		}
	}
}

// Spin starts a round on number. It returns once the guards have been
// checked; the round continues in the background.
func (c *Coordinator) Spin(ctx context.Context, number int) error {
	reply := make(chan error, 1)
	if !c.send(ctx, spinMsg{number: number, reply: reply}) {
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// RevealComplete signals that the reveal animation of round finished. round
// is RoundSnapshot.Round; a signal for any other round is ignored.
func (c *Coordinator) RevealComplete(round uint64) { c.post(revealCompleteMsg{gen: round}) }

// Reset abandons the current round, whatever its phase.
func (c *Coordinator) Reset() { c.post(resetMsg{}) }

// CheckNow polls for the result immediately.
func (c *Coordinator) CheckNow() { c.post(checkNowMsg{}) }

// WalletChanged reports a new account or chain. A round in progress is reset.
func (c *Coordinator) WalletChanged(w model.Wallet) { c.post(walletMsg{wallet: w}) }

// Snapshot returns the current read-only view of the round.
func (c *Coordinator) Snapshot() model.RoundSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Updates streams snapshots as they change. Slow readers miss
// intermediate snapshots, never the latest one.
func (c *Coordinator) Updates() <-chan model.RoundSnapshot {
	return c.updates
}

func (c *Coordinator) post(msg any) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) send(ctx context.Context, msg any) bool {
	select {
	case c.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

func (c *Coordinator) publish() {
	next := c.round.snapshot()

	c.mu.Lock()
	prev := c.snapshot
	c.snapshot = next
	c.mu.Unlock()

	if reflect.DeepEqual(prev, next) {
		return
	}
	if prev.Phase != next.Phase {
		c.observer.PhaseChanged(next.Phase)
	}

	select {
	case c.updates <- next:
		return
	default:
	}
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- next:
	default:
	}
}
