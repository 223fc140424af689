package config

import (
	"github.com/spf13/pflag"
)

// LogsConfig holds configuration for the logs command.
type LogsConfig struct {
	ExplorerURL string
	ExplorerKey string
	Contract    string
	ChainID     uint64
	FromBlock   uint64
	Limit       int
	Info        bool
	Source      bool
	Topic0Map   map[string]string
	LogLevel    string
}

// LoadLogs merges config file, environment variables, and flags into LogsConfig.
func LoadLogs(cfgFile string, flags *pflag.FlagSet) (LogsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"explorer-url": "https://api-sepolia.etherscan.io/api",
		"contract":     DefaultContract,
		"chain-id":     DefaultChainID,
		"limit":        50,
	})
	if err != nil {
		return LogsConfig{}, err
	}

	return LogsConfig{
		ExplorerURL: v.GetString("explorer-url"),
		ExplorerKey: v.GetString("explorer-key"),
		Contract:    v.GetString("contract"),
		ChainID:     v.GetUint64("chain-id"),
		FromBlock:   v.GetUint64("from"),
		Limit:       v.GetInt("limit"),
		Info:        v.GetBool("info"),
		Source:      v.GetBool("source"),
		Topic0Map:   getStringMap(v, "topic0-map"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
