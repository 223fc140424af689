package indexer

import (
	"fmt"
	"strings"
	"time"

	"vrfRoulette/internal/storage"
)

// Checkpoint tracks the last processed block of one contract.
type Checkpoint struct {
	Contract           string `json:"contract"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. A checkpoint written for
// another contract is ignored.
type CheckpointStore struct {
	path     string
	enabled  bool
	contract string
}

func NewCheckpointStore(path string, enabled bool, contract string) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled, contract: strings.ToLower(contract)}
}

func (c *CheckpointStore) active() bool {
	return c != nil && c.enabled && c.path != ""
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.active() {
		return Checkpoint{}, false, nil
	}

	var cp Checkpoint
	found, err := storage.ReadJSONFile(c.path, &cp)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	if !found || !strings.EqualFold(cp.Contract, c.contract) {
		return Checkpoint{}, false, nil
	}
	return cp, true, nil
}

func (c *CheckpointStore) Save(lastProcessed uint64) error {
	if !c.active() {
		return nil
	}
	err := storage.WriteJSONFile(c.path, Checkpoint{
		Contract:           c.contract,
		LastProcessedBlock: lastProcessed,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
