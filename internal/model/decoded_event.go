package model

import "math/big"

// UnknownEventName is the name given to logs whose signature is not registered.
const UnknownEventName = "Unknown"

// EventKind identifies a registered casino event shape.
type EventKind string

const (
	KindUnknown             EventKind = ""
	KindRequestInitiated    EventKind = "request_initiated"
	KindResultReady         EventKind = "result_ready"
	KindRandomnessFulfilled EventKind = "randomness_fulfilled"
)

// FieldValue is a single decoded event field.
// Raw always carries the wire value; Fallback marks a field that could not be
// decoded and holds only Raw.
type FieldValue struct {
	Raw      string   `json:"raw"`
	Address  string   `json:"address,omitempty"`
	Int      *big.Int `json:"int,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
}

// DecodedEvent is a log decoded against the signature registry.
type DecodedEvent struct {
	Name   string                `json:"name"`
	Kind   EventKind             `json:"kind,omitempty"`
	Fields map[string]FieldValue `json:"fields"`
}

// UnknownEvent returns the event produced for unrecognized logs.
func UnknownEvent() DecodedEvent {
	return DecodedEvent{Name: UnknownEventName, Fields: map[string]FieldValue{}}
}

// IsUnknown reports whether the log matched no registered signature.
func (e DecodedEvent) IsUnknown() bool {
	return e.Kind == KindUnknown
}

// DecodedRecord pairs a decoded event with the raw log it came from.
type DecodedRecord struct {
	ChainID     uint64       `json:"chain_id"`
	BlockNumber uint64       `json:"block_number"`
	BlockHash   string       `json:"block_hash"`
	TxHash      string       `json:"tx_hash"`
	LogIndex    uint64       `json:"log_index"`
	Address     string       `json:"address"`
	Timestamp   uint64       `json:"timestamp"`
	Event       DecodedEvent `json:"event"`
	Raw         *RawLogRef   `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}

// NewDecodedRecord builds a DecodedRecord from a raw log and its decoded event.
func NewDecodedRecord(record RawLogRecord, event DecodedEvent) DecodedRecord {
	return DecodedRecord{
		ChainID:     record.ChainID,
		BlockNumber: record.BlockNumber,
		BlockHash:   record.BlockHash,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Address:     record.Address,
		Timestamp:   record.Timestamp,
		Event:       event,
		Raw:         &RawLogRef{Topic0: record.Topic0(), Data: record.Data},
	}
}
