package storage

import (
	"context"

	"vrfRoulette/internal/model"
)

// EventSink defines a sink for decoded casino events.
type EventSink interface {
	PutEventBatch(records []model.DecodedRecord) error
}

// OutcomeSink persists finished rounds.
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, outcome model.RoundOutcome) error
}

// MultiOutcomeSink fans an outcome out to every sink, returning the first error.
type MultiOutcomeSink []OutcomeSink

func (m MultiOutcomeSink) RecordOutcome(ctx context.Context, outcome model.RoundOutcome) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.RecordOutcome(ctx, outcome); err != nil && first == nil {
			first = err
		}
	}
	return first
}
