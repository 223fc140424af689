package storage

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vrfRoulette/internal/model"
)

func TestJsonlEventsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	store := NewJsonlStorage(path)

	records := []model.DecodedRecord{
		{BlockNumber: 1, Event: model.DecodedEvent{Name: "PlayResult", Kind: model.KindResultReady, Fields: map[string]model.FieldValue{
			"number": {Raw: "0x11", Int: big.NewInt(17)},
		}}},
		{BlockNumber: 2, Event: model.UnknownEvent()},
	}
	if err := store.PutEventBatch(records); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutEventBatch(nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}

	var got []model.DecodedRecord
	err := ScanDecodedRecords(path, func(r model.DecodedRecord) error {
		got = append(got, r)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[1].BlockNumber != 2 || !got[1].Event.IsUnknown() {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].Event.Fields["number"].Int.Int64() != 17 {
		t.Fatalf("number lost in round trip: %+v", got[0].Event.Fields)
	}
}

func TestScanDecodedRecordsSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := "{\"block_number\":5}\nnot json\n\n{\"block_number\":6}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var blocks []uint64
	bad := 0
	err := ScanDecodedRecords(path, func(r model.DecodedRecord) error {
		blocks = append(blocks, r.BlockNumber)
		return nil
	}, func(error) { bad++ })
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(blocks) != 2 || blocks[0] != 5 || blocks[1] != 6 || bad != 1 {
		t.Fatalf("unexpected scan result: %v bad=%d", blocks, bad)
	}
}

func TestRecordOutcomeAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rounds.jsonl")
	store := NewJsonlStorage(path)

	for _, reason := range []model.EndReason{model.EndRevealed, model.EndReset} {
		if err := store.RecordOutcome(context.Background(), model.RoundOutcome{TxHash: "0xaa", Reason: reason}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var last model.RoundOutcome
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if last.Reason != model.EndReset {
		t.Fatalf("unexpected outcome: %+v", last)
	}
}

type failingSink struct{ err error }

func (f failingSink) RecordOutcome(context.Context, model.RoundOutcome) error { return f.err }

func TestMultiOutcomeSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rounds.jsonl")
	boom := errors.New("db down")
	sink := MultiOutcomeSink{failingSink{err: boom}, nil, NewJsonlStorage(path)}

	if err := sink.RecordOutcome(context.Background(), model.RoundOutcome{TxHash: "0xaa"}); !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("later sink not called: %v", err)
	}
}
