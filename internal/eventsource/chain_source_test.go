package eventsource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"vrfRoulette/internal/chain"
	"vrfRoulette/internal/model"
)

type fakeSub struct {
	errc chan error
	once sync.Once
}

func newFakeSub() *fakeSub { return &fakeSub{errc: make(chan error, 1)} }

func (s *fakeSub) Unsubscribe()      { s.once.Do(func() {}) }
func (s *fakeSub) Err() <-chan error { return s.errc }

type fakeLogBackend struct {
	mu        sync.Mutex
	logs      []types.Log
	filterErr error
	subErrs   []error
	subs      []*fakeSub
	chans     []chan<- types.Log
	queries   []chain.LogQuery
	attempts  int
}

func (f *fakeLogBackend) FilterLogs(_ context.Context, q chain.LogQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.logs, f.filterErr
}

func (f *fakeLogBackend) SubscribeLogs(_ context.Context, _ chain.LogQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt := f.attempts
	f.attempts++
	if attempt < len(f.subErrs) && f.subErrs[attempt] != nil {
		return nil, f.subErrs[attempt]
	}
	sub := newFakeSub()
	f.subs = append(f.subs, sub)
	f.chans = append(f.chans, ch)
	return sub, nil
}

func (f *fakeLogBackend) subCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeLogBackend) lastSub() (*fakeSub, chan<- types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[len(f.subs)-1], f.chans[len(f.chans)-1]
}

func TestQueryTopics(t *testing.T) {
	player := "0x00000000000000000000000000000000000000Aa"
	q := Query{Topic0: "0x01", Player: player}
	topics := q.Topics()
	if len(topics) != 2 {
		t.Fatalf("expected 2 topic positions, got %d", len(topics))
	}
	if topics[0][0] != common.HexToHash("0x01") {
		t.Fatalf("unexpected topic0: %s", topics[0][0].Hex())
	}
	want := common.BytesToHash(common.HexToAddress(player).Bytes())
	if topics[1][0] != want {
		t.Fatalf("unexpected player topic: %s", topics[1][0].Hex())
	}

	if got := (Query{Player: player}).Topics(); got[0] != nil || len(got) != 2 {
		t.Fatalf("expected wildcard topic0, got %v", got)
	}
}

func TestQueryLogsConvertsAndSkipsRemoved(t *testing.T) {
	backend := &fakeLogBackend{logs: []types.Log{
		{BlockNumber: 10, Index: 1},
		{BlockNumber: 11, Index: 0, Removed: true},
	}}
	source := NewChainSource(backend, ChainSourceConfig{ChainID: 5})

	records, err := source.QueryLogs(context.Background(), Query{Address: "0x01", FromBlock: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].BlockNumber != 10 || records[0].ChainID != 5 {
		t.Fatalf("unexpected records: %+v", records)
	}
	q := backend.queries[0]
	if q.FromBlock != 10 || q.ToBlock != 0 || len(q.Addresses) != 1 {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestQueryLogsWrapsError(t *testing.T) {
	boom := errors.New("boom")
	source := NewChainSource(&fakeLogBackend{filterErr: boom}, ChainSourceConfig{})

	_, err := source.QueryLogs(context.Background(), Query{FromBlock: 3})
	var queryErr *QueryError
	if !errors.As(err, &queryErr) || !errors.Is(err, boom) {
		t.Fatalf("expected QueryError wrapping boom, got %v", err)
	}
	if queryErr.Query.FromBlock != 3 {
		t.Fatalf("unexpected query in error: %+v", queryErr.Query)
	}
}

func TestSubscribeUnsupportedIsNoop(t *testing.T) {
	backend := &fakeLogBackend{subErrs: []error{rpc.ErrNotificationsUnsupported}}
	source := NewChainSource(backend, ChainSourceConfig{})

	sub, err := source.Subscribe(context.Background(), Query{}, func(model.RawLogRecord) {
		t.Fatalf("unexpected delivery")
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.Unsubscribe()
}

func TestSubscribeDeliversAndResubscribes(t *testing.T) {
	backend := &fakeLogBackend{}
	source := NewChainSource(backend, ChainSourceConfig{ResubscribeBase: time.Millisecond, ResubscribeMax: time.Millisecond})

	delivered := make(chan model.RawLogRecord, 4)
	sub, err := source.Subscribe(context.Background(), Query{}, func(r model.RawLogRecord) {
		delivered <- r
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	first, ch := backend.lastSub()
	ch <- types.Log{BlockNumber: 1, Removed: true}
	ch <- types.Log{BlockNumber: 2}
	select {
	case r := <-delivered:
		if r.BlockNumber != 2 {
			t.Fatalf("expected block 2, got %d", r.BlockNumber)
		}
	case <-time.After(time.Second):
		t.Fatalf("no delivery")
	}

	first.errc <- errors.New("connection reset")
	deadline := time.After(time.Second)
	for backend.subCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("subscription not restored")
		case <-time.After(time.Millisecond):
		}
	}

	_, ch = backend.lastSub()
	ch <- types.Log{BlockNumber: 3}
	select {
	case r := <-delivered:
		if r.BlockNumber != 3 {
			t.Fatalf("expected block 3, got %d", r.BlockNumber)
		}
	case <-time.After(time.Second):
		t.Fatalf("no delivery after resubscribe")
	}
}
