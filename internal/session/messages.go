package session

import "vrfRoulette/internal/model"

// Messages processed by the loop. Those carrying gen belong to one round and
// are dropped once that round is gone.

type spinMsg struct {
	number int
	reply  chan error
}

type submittedMsg struct {
	gen    uint64
	txHash string
	err    error
}

type confirmedMsg struct {
	gen     uint64
	receipt model.TxReceipt
	err     error
}

type pushMsg struct {
	record model.RawLogRecord
}

type pollTickMsg struct {
	gen uint64
}

type pollDoneMsg struct {
	gen     uint64
	records []model.RawLogRecord
	err     error
}

type revealTimeoutMsg struct {
	gen uint64
}

type revealCompleteMsg struct {
	gen uint64
}

type resetMsg struct{}

type checkNowMsg struct{}

type walletMsg struct {
	wallet model.Wallet
}

type barrierMsg struct {
	done chan struct{}
}
