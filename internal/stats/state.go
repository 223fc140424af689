package stats

import (
	"context"
	"fmt"
	"time"

	"vrfRoulette/internal/storage"
)

// StateStore persists the timestamp up to which draws are aggregated.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// FileStateStore stores progress in a local JSON file. Progress saved
// under another window size is ignored.
type FileStateStore struct {
	Path          string
	WindowSeconds uint64
}

type stateRecord struct {
	LastProcessed uint64 `json:"last_processed_ts"`
	WindowSeconds uint64 `json:"window_seconds"`
	UpdatedAt     string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	var rec stateRecord
	found, err := storage.ReadJSONFile(s.Path, &rec)
	if err != nil {
		return 0, false, fmt.Errorf("load state: %w", err)
	}
	if !found || rec.WindowSeconds != s.WindowSeconds {
		return 0, false, nil
	}
	return rec.LastProcessed, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	return storage.WriteJSONFile(s.Path, stateRecord{
		LastProcessed: ts,
		WindowSeconds: s.WindowSeconds,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	})
}
