package stats

import (
	"context"
	"fmt"

	"vrfRoulette/internal/storage/postgres"
)

// DBStateStore stores progress in the indexer_state table, one row per
// window size.
type DBStateStore struct {
	Store         *postgres.Store
	WindowSeconds uint64
}

func (s *DBStateStore) name() string {
	return fmt.Sprintf("draw_stats_%ds", s.WindowSeconds)
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.name())
}

func (s *DBStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.name(), ts)
}
