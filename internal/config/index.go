package config

import (
	"time"

	"github.com/spf13/pflag"
)

// IndexConfig holds configuration for the index command.
type IndexConfig struct {
	RPCURL            string
	Contract          string
	FromBlock         uint64
	ToBlock           uint64
	Topic0            []string
	Topic0Map         map[string]string
	BatchSize         uint64
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadIndex merges config file, environment variables, and flags into IndexConfig.
func LoadIndex(cfgFile string, flags *pflag.FlagSet) (IndexConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"contract":           DefaultContract,
		"batch-size":         uint64(2000),
		"out":                "./data/events.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return IndexConfig{}, err
	}

	return IndexConfig{
		RPCURL:            v.GetString("rpc"),
		Contract:          v.GetString("contract"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Topic0:            getStringSlice(v, "topic0"),
		Topic0Map:         getStringMap(v, "topic0-map"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}
