package model

import (
	"encoding/json"
)

// RawLogRecord is the normalized representation of a contract log as delivered
// by the chain or the block explorer. Topics and Data are 0x-prefixed hex.
type RawLogRecord struct {
	ChainID          uint64   `json:"chain_id"`
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      uint64   `json:"block_number"`
	BlockHash        string   `json:"block_hash"`
	Timestamp        uint64   `json:"timestamp"`
	TxHash           string   `json:"tx_hash"`
	LogIndex         uint64   `json:"log_index"`
	TransactionIndex uint64   `json:"tx_index"`
	Removed          bool     `json:"removed"`
}

// Topic0 returns the signature topic, or "" for anonymous logs.
func (r RawLogRecord) Topic0() string {
	if len(r.Topics) == 0 {
		return ""
	}
	return r.Topics[0]
}

// Before reports whether r precedes other in (block, log index) order.
func (r RawLogRecord) Before(other RawLogRecord) bool {
	if r.BlockNumber != other.BlockNumber {
		return r.BlockNumber < other.BlockNumber
	}
	return r.LogIndex < other.LogIndex
}

// MarshalJSON ensures RawLogRecord is encoded with stable field names.
func (r RawLogRecord) MarshalJSON() ([]byte, error) {
	type Alias RawLogRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a RawLogRecord from JSON.
func (r *RawLogRecord) UnmarshalJSON(data []byte) error {
	type Alias RawLogRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = RawLogRecord(a)
	return nil
}
