package chain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestLogRecord(t *testing.T) {
	log := types.Log{
		Address:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Topics:      []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
		Data:        []byte{0x11},
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xabc"),
		TxIndex:     3,
		Index:       7,
	}

	record := LogRecord(11155111, log, 1700000000)
	if record.ChainID != 11155111 || record.BlockNumber != 42 || record.LogIndex != 7 || record.TransactionIndex != 3 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(record.Topics) != 2 || record.Topic0() != common.HexToHash("0x01").Hex() {
		t.Fatalf("unexpected topics: %v", record.Topics)
	}
	if record.Data != "0x11" {
		t.Fatalf("unexpected data: %s", record.Data)
	}
	if !strings.EqualFold(record.Address, "0x00000000000000000000000000000000000000aa") {
		t.Fatalf("unexpected address: %s", record.Address)
	}
}

func TestReceiptRecord(t *testing.T) {
	receipt := &types.Receipt{
		TxHash:      common.HexToHash("0xdead"),
		BlockNumber: big.NewInt(9),
		Logs:        []*types.Log{{BlockNumber: 9, Index: 1}, nil},
	}

	out := ReceiptRecord(1, receipt)
	if out.BlockNumber != 9 || out.TxHash != receipt.TxHash.Hex() {
		t.Fatalf("unexpected receipt: %+v", out)
	}
	if len(out.Logs) != 1 || out.Logs[0].LogIndex != 1 {
		t.Fatalf("unexpected logs: %+v", out.Logs)
	}
}
