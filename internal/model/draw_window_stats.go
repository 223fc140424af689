package model

import "time"

// DrawWindowStats stores aggregated draws of one contract for a window.
// NumberCounts is indexed by wheel number.
type DrawWindowStats struct {
	ChainID         uint64
	Contract        string
	WindowSizeSecs  int64
	WindowStart     time.Time
	WindowEnd       time.Time
	DrawCount       uint64
	NumberCounts    []int64
	DistinctPlayers uint64
	TopNumber       *int
	TopShare        *string
	FirstBlock      uint64
	LastBlock       uint64
}
