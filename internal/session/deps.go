package session

import (
	"context"
	"time"

	"vrfRoulette/internal/model"
)

// Chain submits the wager and waits for it to be confirmed.
type Chain interface {
	SubmitPlay(ctx context.Context) (string, error)
	WaitConfirmed(ctx context.Context, txHash string) (model.TxReceipt, error)
}

// OutcomeRecorder persists finished rounds.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome model.RoundOutcome) error
}

// Observer receives coordinator telemetry.
type Observer interface {
	PhaseChanged(phase model.Phase)
	ResultDelivered(path model.DeliveryPath, accepted bool)
	PollFailed()
	RoundFinished(outcome model.RoundOutcome)
}

type nopObserver struct{}

func (nopObserver) PhaseChanged(model.Phase)                 {}
func (nopObserver) ResultDelivered(model.DeliveryPath, bool) {}
func (nopObserver) PollFailed()                              {}
func (nopObserver) RoundFinished(model.RoundOutcome)         {}

// Timer is an armed one-shot timer.
type Timer interface {
	Stop() bool
}

// TimerFactory arms timers. fn runs on its own goroutine.
type TimerFactory interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realTimers struct{}

func (realTimers) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
