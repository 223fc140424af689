package stats

import (
	"fmt"
	"strings"
	"time"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/model"
)

// Accumulator holds draw counts for one contract window.
type Accumulator struct {
	ChainID     uint64
	Contract    string
	WindowStart uint64
	WindowEnd   uint64
	DrawCount   uint64
	Counts      [model.MaxWagerNumber + 1]int64
	FirstBlock  uint64
	LastBlock   uint64

	players map[string]struct{}
}

func NewAccumulator(record model.DecodedRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:     record.ChainID,
		Contract:    strings.ToLower(record.Address),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		FirstBlock:  record.BlockNumber,
		LastBlock:   record.BlockNumber,
		players:     make(map[string]struct{}),
	}
}

// AddEvent counts a PlayResult draw. Other casino events are ignored.
func (a *Accumulator) AddEvent(record model.DecodedRecord) error {
	if record.Event.Kind != model.KindResultReady {
		return nil
	}
	draw, ok := casino.Typed(record.Event).(casino.ResultReady)
	if !ok {
		return fmt.Errorf("malformed %s at block %d", record.Event.Name, record.BlockNumber)
	}

	if record.BlockNumber > a.LastBlock {
		a.LastBlock = record.BlockNumber
	}
	if a.FirstBlock == 0 || record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}

	a.Counts[draw.Number]++
	a.DrawCount++
	a.players[strings.ToLower(draw.Player)] = struct{}{}
	return nil
}

// Stats returns the window row, or nil when no draw was counted.
func (a *Accumulator) Stats(windowSeconds uint64) *model.DrawWindowStats {
	if a == nil || a.DrawCount == 0 {
		return nil
	}

	counts := make([]int64, len(a.Counts))
	copy(counts, a.Counts[:])
	top, topCount := mostDrawn(counts)
	share := shareOf(topCount, a.DrawCount)

	return &model.DrawWindowStats{
		ChainID:         a.ChainID,
		Contract:        a.Contract,
		WindowSizeSecs:  int64(windowSeconds),
		WindowStart:     time.Unix(int64(a.WindowStart), 0).UTC(),
		WindowEnd:       time.Unix(int64(a.WindowEnd), 0).UTC(),
		DrawCount:       a.DrawCount,
		NumberCounts:    counts,
		DistinctPlayers: uint64(len(a.players)),
		TopNumber:       &top,
		TopShare:        share,
		FirstBlock:      a.FirstBlock,
		LastBlock:       a.LastBlock,
	}
}
