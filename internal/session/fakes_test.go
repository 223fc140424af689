package session

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/eventsource"
	"vrfRoulette/internal/model"
)

const (
	testPlayer   = "0x1111111111111111111111111111111111111111"
	testOther    = "0x2222222222222222222222222222222222222222"
	testContract = "0xb4bcbe5fb9117683c58549c4669894b6f38b11f0"
	testTx       = "0x00000000000000000000000000000000000000000000000000000000000000aa"
	testChainID  = 11155111
	testPoll     = 5 * time.Second
	testReveal   = 4500 * time.Millisecond
)

type confirmation struct {
	receipt model.TxReceipt
	err     error
}

type fakeChain struct {
	submitErr error
	confirms  chan confirmation
}

func newFakeChain() *fakeChain {
	return &fakeChain{confirms: make(chan confirmation, 1)}
}

func (f *fakeChain) SubmitPlay(ctx context.Context) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return testTx, nil
}

func (f *fakeChain) WaitConfirmed(ctx context.Context, txHash string) (model.TxReceipt, error) {
	select {
	case c := <-f.confirms:
		return c.receipt, c.err
	case <-ctx.Done():
		return model.TxReceipt{}, ctx.Err()
	}
}

type queryResult struct {
	records []model.RawLogRecord
	err     error
}

type fakeSource struct {
	mu      sync.Mutex
	deliver func(model.RawLogRecord)
	results []queryResult
	queries []eventsource.Query
}

func (f *fakeSource) Subscribe(_ context.Context, _ eventsource.Query, deliver func(model.RawLogRecord)) (eventsource.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliver = deliver
	return noopSub{}, nil
}

func (f *fakeSource) QueryLogs(_ context.Context, q eventsource.Query) ([]model.RawLogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if len(f.results) == 0 {
		return nil, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next.records, next.err
}

func (f *fakeSource) queueResult(records []model.RawLogRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, queryResult{records: records, err: err})
}

func (f *fakeSource) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeSource) push(record model.RawLogRecord) {
	f.mu.Lock()
	deliver := f.deliver
	f.mu.Unlock()
	deliver(record)
}

type noopSub struct{}

func (noopSub) Unsubscribe() {}

type manualTimer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the callback unless the timer was stopped.
func (t *manualTimer) fire() bool {
	if t.Stop() {
		t.fn()
		return true
	}
	return false
}

type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualTimers) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// last returns the newest timer armed with duration d.
func (m *manualTimers) last(d time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.timers) - 1; i >= 0; i-- {
		if m.timers[i].d == d {
			return m.timers[i]
		}
	}
	return nil
}

func (m *manualTimers) count(d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if t.d == d {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []model.RoundOutcome
}

func (f *fakeRecorder) RecordOutcome(_ context.Context, outcome model.RoundOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func (f *fakeRecorder) all() []model.RoundOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RoundOutcome(nil), f.outcomes...)
}

type fakeObserver struct {
	mu         sync.Mutex
	phases     []model.Phase
	accepted   int
	dropped    int
	pollFailed int
}

func (f *fakeObserver) PhaseChanged(p model.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases = append(f.phases, p)
}

func (f *fakeObserver) ResultDelivered(_ model.DeliveryPath, accepted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if accepted {
		f.accepted++
	} else {
		f.dropped++
	}
}

func (f *fakeObserver) PollFailed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollFailed++
}

func (f *fakeObserver) RoundFinished(model.RoundOutcome) {}

func (f *fakeObserver) sawPhase(p model.Phase) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seen := range f.phases {
		if seen == p {
			return true
		}
	}
	return false
}

type harness struct {
	t        *testing.T
	c        *Coordinator
	chain    *fakeChain
	source   *fakeSource
	timers   *manualTimers
	recorder *fakeRecorder
	observer *fakeObserver
	registry *casino.Registry
}

func newHarness(t *testing.T, chain *fakeChain) *harness {
	t.Helper()
	registry, err := casino.NewRegistry(casino.RegistryConfig{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	h := &harness{
		t:        t,
		chain:    chain,
		source:   &fakeSource{},
		timers:   &manualTimers{},
		recorder: &fakeRecorder{},
		observer: &fakeObserver{},
		registry: registry,
	}
	c, err := New(Config{
		Contract:        testContract,
		ExpectedChainID: testChainID,
		Wallet:          model.Wallet{Account: testPlayer, ChainID: testChainID},
		PollInterval:    testPoll,
		RevealTimeout:   testReveal,
		Chain:           chain,
		Source:          h.source,
		Registry:        registry,
		Recorder:        h.recorder,
		Observer:        h.observer,
		Timers:          h.timers,
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	h.flush()
	return h
}

// flush waits until every message posted so far has been handled.
func (h *harness) flush() {
	h.t.Helper()
	done := make(chan struct{})
	h.c.post(barrierMsg{done: done})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("coordinator did not drain inbox")
	}
}

func (h *harness) waitFor(desc string, cond func(model.RoundSnapshot) bool) model.RoundSnapshot {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := h.c.Snapshot()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s, last snapshot %+v", desc, s)
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) waitPhase(p model.Phase) model.RoundSnapshot {
	h.t.Helper()
	return h.waitFor(string(p), func(s model.RoundSnapshot) bool { return s.Phase == p })
}

// spin starts a round and waits until the transaction hash is known.
func (h *harness) spin(number int) {
	h.t.Helper()
	if err := h.c.Spin(context.Background(), number); err != nil {
		h.t.Fatalf("spin: %v", err)
	}
	if h.chain.submitErr == nil {
		h.waitFor("tx hash", func(s model.RoundSnapshot) bool { return s.TxHash != "" })
	}
}

func (h *harness) confirm(block uint64, logs ...model.RawLogRecord) {
	h.t.Helper()
	h.chain.confirms <- confirmation{receipt: model.TxReceipt{TxHash: testTx, BlockNumber: block, Logs: logs}}
	h.waitPhase(model.PhaseWaitingForResult)
}

// revealDone reports the reveal of the current round as finished.
func (h *harness) revealDone() {
	h.c.RevealComplete(h.c.Snapshot().Round)
}

func (h *harness) firePoll() {
	h.t.Helper()
	timer := h.timers.last(testPoll)
	if timer == nil || !timer.fire() {
		h.t.Fatalf("no armed poll timer")
	}
}

func (h *harness) resultLog(player string, number int, block, index uint64) model.RawLogRecord {
	h.t.Helper()
	data := h.pack(casino.EventPlayResult, uint8(number))
	sig, _ := h.registry.Signature(model.KindResultReady)
	return rawLog(sig.TopicHash, data, block, index, "0xfeed", playerTopic(player))
}

func (h *harness) requestLog(player, txHash string, id int64, block uint64) model.RawLogRecord {
	h.t.Helper()
	data := h.pack(casino.EventPlayRequested, big.NewInt(id))
	sig, _ := h.registry.Signature(model.KindRequestInitiated)
	return rawLog(sig.TopicHash, data, block, 0, txHash, playerTopic(player))
}

func (h *harness) pack(event string, value any) []byte {
	h.t.Helper()
	parsed, err := casino.CasinoABI()
	if err != nil {
		h.t.Fatalf("abi: %v", err)
	}
	data, err := parsed.Events[event].Inputs.NonIndexed().Pack(value)
	if err != nil {
		h.t.Fatalf("pack %s: %v", event, err)
	}
	return data
}

func playerTopic(player string) common.Hash {
	return common.BytesToHash(common.HexToAddress(player).Bytes())
}

func rawLog(topic0 common.Hash, data []byte, block, index uint64, txHash string, indexed ...common.Hash) model.RawLogRecord {
	topics := []string{topic0.Hex()}
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}
	return model.RawLogRecord{
		ChainID:     testChainID,
		Address:     testContract,
		Topics:      topics,
		Data:        hexutil.Encode(data),
		BlockNumber: block,
		TxHash:      txHash,
		LogIndex:    index,
	}
}
