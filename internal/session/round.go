package session

import (
	"context"
	"time"

	"vrfRoulette/internal/model"
)

// round is the live wager. Only the loop goroutine touches it.
type round struct {
	gen   uint64
	phase model.Phase

	account   string
	chainID   uint64
	chosen    *int
	txHash    string
	startedAt time.Time

	// requestID is promoted from pendingRequestID on confirmation.
	pendingRequestID  string
	requestID         *string
	result            *int
	isWinner          bool
	delivery          model.DeliveryPath
	resultBlock       uint64
	lastObservedBlock *uint64

	cancel       context.CancelFunc
	pollTimer    Timer
	revealTimer  Timer
	pollInFlight bool
}

// disarm stops every timer and cancels in-flight work of the round.
func (r *round) disarm() {
	r.stopPoll()
	if r.revealTimer != nil {
		r.revealTimer.Stop()
		r.revealTimer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *round) stopPoll() {
	if r.pollTimer != nil {
		r.pollTimer.Stop()
		r.pollTimer = nil
	}
}

func (r *round) snapshot() model.RoundSnapshot {
	s := model.RoundSnapshot{
		Round:    r.gen,
		Phase:    r.phase,
		IsWinner: r.isWinner,
		TxHash:   r.txHash,
	}
	if r.chosen != nil {
		v := *r.chosen
		s.ChosenNumber = &v
	}
	if r.result != nil {
		v := *r.result
		s.ResultNumber = &v
	}
	if r.requestID != nil {
		v := *r.requestID
		s.RequestID = &v
	}
	if r.lastObservedBlock != nil {
		v := *r.lastObservedBlock
		s.LastObservedBlock = &v
	}
	return s
}

func (r *round) outcome(reason model.EndReason, err error, now time.Time) model.RoundOutcome {
	out := model.RoundOutcome{
		ChainID:     r.chainID,
		TxHash:      r.txHash,
		Player:      r.account,
		IsWinner:    r.isWinner,
		Delivery:    r.delivery,
		ResultBlock: r.resultBlock,
		Reason:      reason,
		StartedAt:   r.startedAt,
		FinishedAt:  now,
	}
	if r.chosen != nil {
		out.ChosenNumber = *r.chosen
	}
	if r.result != nil {
		v := *r.result
		out.ResultNumber = &v
	}
	if r.requestID != nil {
		out.RequestID = *r.requestID
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}
