package model

import "time"

// Phase is the lifecycle stage of a wager round.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhasePendingTransaction Phase = "pending-transaction"
	PhaseWaitingForResult   Phase = "waiting-for-result"
	PhaseRevealing          Phase = "revealing"
)

// MaxWagerNumber is the highest number on the wheel.
const MaxWagerNumber = 36

// ValidWagerNumber reports whether n is a pocket on the wheel.
func ValidWagerNumber(n int) bool {
	return n >= 0 && n <= MaxWagerNumber
}

// RoundSnapshot is the read-only projection of the live round.
// Nil pointers mean "not set".
type RoundSnapshot struct {
	// Round identifies the round the snapshot belongs to.
	Round             uint64  `json:"round"`
	Phase             Phase   `json:"phase"`
	ChosenNumber      *int    `json:"chosen_number"`
	ResultNumber      *int    `json:"result_number"`
	IsWinner          bool    `json:"is_winner"`
	RequestID         *string `json:"request_id"`
	TxHash            string  `json:"tx_hash,omitempty"`
	LastObservedBlock *uint64 `json:"last_observed_block"`
}

// EndReason explains how a round returned to idle.
type EndReason string

const (
	EndRevealed EndReason = "revealed"
	EndReset    EndReason = "reset"
	EndFailed   EndReason = "failed"
)

// DeliveryPath names the path that delivered a round's result.
type DeliveryPath string

const (
	DeliveryPush DeliveryPath = "push"
	DeliveryPoll DeliveryPath = "poll"
)

// RoundOutcome records a finished round.
type RoundOutcome struct {
	ChainID      uint64       `json:"chain_id"`
	TxHash       string       `json:"tx_hash"`
	Player       string       `json:"player"`
	ChosenNumber int          `json:"chosen_number"`
	ResultNumber *int         `json:"result_number,omitempty"`
	IsWinner     bool         `json:"is_winner"`
	RequestID    string       `json:"request_id,omitempty"`
	Delivery     DeliveryPath `json:"delivery,omitempty"`
	ResultBlock  uint64       `json:"result_block,omitempty"`
	Reason       EndReason    `json:"reason"`
	Error        string       `json:"error,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// Wallet is the active account and the network it is connected to.
// An empty Account means no wallet is connected.
type Wallet struct {
	Account string `json:"account"`
	ChainID uint64 `json:"chain_id"`
}

// Connected reports whether an account is available.
func (w Wallet) Connected() bool {
	return w.Account != ""
}

// TxReceipt is a confirmed transaction with the logs it emitted.
type TxReceipt struct {
	TxHash      string         `json:"tx_hash"`
	BlockNumber uint64         `json:"block_number"`
	Logs        []RawLogRecord `json:"logs"`
}
