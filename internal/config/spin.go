package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// NoNumber marks a spin without a chosen number.
const NoNumber = -1

// SpinConfig holds configuration for the spin command.
type SpinConfig struct {
	RPCURL        string
	Contract      string
	PrivateKey    string
	ChainID       uint64
	Confirmations uint64
	PollInterval  time.Duration
	RevealTimeout time.Duration
	SpinDuration  time.Duration
	WatchInterval time.Duration
	Number        int
	Out           string
	PGDSN         string
	MetricsAddr   string
	Topic0Map     map[string]string
	LogLevel      string
}

// LoadSpin merges config file, environment variables, and flags into SpinConfig.
func LoadSpin(cfgFile string, flags *pflag.FlagSet) (SpinConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"contract":       DefaultContract,
		"chain-id":       DefaultChainID,
		"confirmations":  uint64(3),
		"poll-interval":  5 * time.Second,
		"reveal-timeout": 4500 * time.Millisecond,
		"spin-duration":  3 * time.Second,
		"watch-interval": 15 * time.Second,
		"number":         NoNumber,
		"out":            "./data/rounds.jsonl",
	})
	if err != nil {
		return SpinConfig{}, err
	}

	cfg := SpinConfig{
		RPCURL:        v.GetString("rpc"),
		Contract:      v.GetString("contract"),
		PrivateKey:    v.GetString("private-key"),
		ChainID:       v.GetUint64("chain-id"),
		Confirmations: v.GetUint64("confirmations"),
		PollInterval:  v.GetDuration("poll-interval"),
		RevealTimeout: v.GetDuration("reveal-timeout"),
		SpinDuration:  v.GetDuration("spin-duration"),
		WatchInterval: v.GetDuration("watch-interval"),
		Number:        v.GetInt("number"),
		Out:           v.GetString("out"),
		PGDSN:         v.GetString("pg-dsn"),
		MetricsAddr:   v.GetString("metrics-addr"),
		Topic0Map:     getStringMap(v, "topic0-map"),
		LogLevel:      v.GetString("log-level"),
	}
	return cfg, cfg.Validate()
}

// Validate checks values that have no usable default.
func (c SpinConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	if c.Contract == "" {
		return fmt.Errorf("contract is required")
	}
	if c.Confirmations == 0 {
		return fmt.Errorf("confirmations must be > 0")
	}
	if c.PollInterval <= 0 || c.RevealTimeout <= 0 {
		return fmt.Errorf("poll-interval and reveal-timeout must be > 0")
	}
	return nil
}
