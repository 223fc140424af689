package casino

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"vrfRoulette/internal/model"
)

const (
	// DrawnNumberField is the PlayResult field carrying the wheel number.
	DrawnNumberField = "number"
	// DrawnNumberAlias resolves to the same value as DrawnNumberField.
	DrawnNumberAlias = "result"
)

// Decode turns a raw log into a DecodedEvent using the registry.
//
// Decoding is narrow on purpose: a non-indexed unsigned integer field is read
// from the whole data blob, so a signature with more than one non-indexed field
// decodes incorrectly. Every registered casino event has exactly one.
// Decode never fails; undecodable fields keep their raw value with Fallback set.
func Decode(record model.RawLogRecord, registry *Registry) model.DecodedEvent {
	if len(record.Topics) == 0 {
		return model.UnknownEvent()
	}
	sig, ok := registry.Lookup(record.Topics[0])
	if !ok {
		return model.UnknownEvent()
	}

	fields := make(map[string]model.FieldValue, len(sig.Fields)+1)
	cursor := 1
	for _, field := range sig.Fields {
		var value model.FieldValue
		if field.Indexed {
			if cursor < len(record.Topics) {
				value = decodeIndexed(field, record.Topics[cursor])
			} else {
				value = model.FieldValue{Fallback: true}
			}
			cursor++
		} else {
			value = decodeData(field, record.Data)
		}

		fields[field.Name] = value
		if field.Name == DrawnNumberField {
			fields[DrawnNumberAlias] = value
		}
	}

	return model.DecodedEvent{
		Name:   sig.Name,
		Kind:   sig.Kind,
		Fields: fields,
	}
}

func decodeIndexed(field Field, topic string) model.FieldValue {
	if field.typ.T != abi.AddressTy {
		return model.FieldValue{Raw: topic}
	}
	addr, err := addressFromTopic(topic)
	if err != nil {
		return model.FieldValue{Raw: topic, Fallback: true}
	}
	return model.FieldValue{Raw: topic, Address: addr}
}

func decodeData(field Field, data string) model.FieldValue {
	if field.typ.T != abi.UintTy {
		return model.FieldValue{Raw: data}
	}
	value, err := uintFromData(data)
	if err != nil {
		return model.FieldValue{Raw: data, Fallback: true}
	}
	return model.FieldValue{Raw: data, Int: value}
}

// addressFromTopic keeps the low 20 bytes of a 32-byte topic.
func addressFromTopic(topic string) (string, error) {
	b, err := hexutil.Decode(topic)
	if err != nil {
		return "", fmt.Errorf("invalid topic: %w", err)
	}
	if len(b) != common.HashLength {
		return "", fmt.Errorf("topic length %d", len(b))
	}
	return "0x" + hex.EncodeToString(b[common.HashLength-common.AddressLength:]), nil
}

func uintFromData(data string) (*big.Int, error) {
	b, err := hexutil.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	return new(big.Int).SetBytes(b), nil
}
