package config

import (
	"github.com/spf13/pflag"
)

// StatsConfig holds configuration for the stats command.
type StatsConfig struct {
	Input         string
	Window        string
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom string
	LogLevel      string
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"in":         "./data/events.jsonl",
		"window":     "1h",
		"batch-size": 1000,
	})
	if err != nil {
		return StatsConfig{}, err
	}

	return StatsConfig{
		Input:         v.GetString("in"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: v.GetString("recompute-from"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}
