package chain

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"vrfRoulette/internal/model"
)

// LogRecord converts a go-ethereum log into the normalized record.
func LogRecord(chainID uint64, log types.Log, timestamp uint64) model.RawLogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.RawLogRecord{
		ChainID:          chainID,
		Address:          log.Address.Hex(),
		Topics:           topics,
		Data:             hexutil.Encode(log.Data),
		BlockNumber:      log.BlockNumber,
		BlockHash:        log.BlockHash.Hex(),
		Timestamp:        timestamp,
		TxHash:           log.TxHash.Hex(),
		LogIndex:         uint64(log.Index),
		TransactionIndex: uint64(log.TxIndex),
		Removed:          log.Removed,
	}
}

// ReceiptRecord converts a receipt and its logs.
func ReceiptRecord(chainID uint64, receipt *types.Receipt) model.TxReceipt {
	out := model.TxReceipt{TxHash: receipt.TxHash.Hex()}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	out.Logs = make([]model.RawLogRecord, 0, len(receipt.Logs))
	for _, log := range receipt.Logs {
		if log == nil {
			continue
		}
		out.Logs = append(out.Logs, LogRecord(chainID, *log, 0))
	}
	return out
}
