package session

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"vrfRoulette/internal/casino"
	"vrfRoulette/internal/eventsource"
	"vrfRoulette/internal/model"
)

const recordTimeout = 5 * time.Second

func (c *Coordinator) handle(msg any) {
	switch m := msg.(type) {
	case spinMsg:
		m.reply <- c.startRound(m.number)
	case submittedMsg:
		c.onSubmitted(m)
	case confirmedMsg:
		c.onConfirmed(m)
	case pushMsg:
		c.onRecord(m.record, model.DeliveryPush)
	case pollTickMsg:
		if m.gen == c.round.gen {
			c.round.pollTimer = nil
			c.startPoll()
		}
	case pollDoneMsg:
		c.onPollDone(m)
	case revealTimeoutMsg:
		if m.gen == c.round.gen && c.round.phase == model.PhaseRevealing {
			c.logger.Info("reveal timed out", zap.String("tx", c.round.txHash))
			c.finish(model.EndRevealed, nil)
		}
	case revealCompleteMsg:
		if m.gen == c.round.gen && c.round.phase == model.PhaseRevealing {
			c.finish(model.EndRevealed, nil)
		}
	case resetMsg:
		if c.round.phase != model.PhaseIdle {
			c.logger.Info("round reset", zap.String("phase", string(c.round.phase)))
			c.finish(model.EndReset, nil)
		}
	case checkNowMsg:
		c.startPoll()
	case walletMsg:
		c.onWallet(m.wallet)
	case barrierMsg:
		close(m.done)
	default:
		c.logger.Warn("unknown message", zap.Any("msg", msg))
	}
}

func (c *Coordinator) startRound(number int) error {
	if c.round.phase != model.PhaseIdle {
		return ErrRoundInProgress
	}
	if !model.ValidWagerNumber(number) {
		return ErrNoNumber
	}
	if !c.wallet.Connected() {
		return ErrNotConnected
	}
	if c.cfg.ExpectedChainID != 0 && c.wallet.ChainID != c.cfg.ExpectedChainID {
		return ErrWrongNetwork
	}

	ctx, cancel := context.WithCancel(c.ctx)
	chosen := number
	c.round = round{
		gen:       c.round.gen + 1,
		phase:     model.PhasePendingTransaction,
		account:   c.wallet.Account,
		chainID:   c.wallet.ChainID,
		chosen:    &chosen,
		startedAt: c.now(),
		cancel:    cancel,
	}
	c.logger.Info("round started", zap.Int("number", number), zap.String("player", c.wallet.Account))

	gen := c.round.gen
	go func() {
		txHash, err := c.cfg.Chain.SubmitPlay(ctx)
		c.post(submittedMsg{gen: gen, txHash: txHash, err: err})
		if err != nil {
			return
		}
		receipt, err := c.cfg.Chain.WaitConfirmed(ctx, txHash)
		c.post(confirmedMsg{gen: gen, receipt: receipt, err: err})
	}()
	return nil
}

func (c *Coordinator) onSubmitted(m submittedMsg) {
	if m.gen != c.round.gen || c.round.phase != model.PhasePendingTransaction {
		return
	}
	if m.err != nil {
		c.logger.Warn("submission failed", zap.Error(m.err))
		c.finish(model.EndFailed, m.err)
		return
	}
	c.round.txHash = m.txHash
	c.logger.Info("transaction submitted", zap.String("tx", m.txHash))
}

func (c *Coordinator) onConfirmed(m confirmedMsg) {
	if m.gen != c.round.gen || c.round.phase != model.PhasePendingTransaction {
		return
	}
	if m.err != nil {
		c.logger.Warn("transaction failed", zap.String("tx", c.round.txHash), zap.Error(m.err))
		c.finish(model.EndFailed, m.err)
		return
	}

	if c.round.txHash == "" {
		c.round.txHash = m.receipt.TxHash
	}
	block := m.receipt.BlockNumber
	c.round.lastObservedBlock = &block
	c.round.phase = model.PhaseWaitingForResult

	for _, record := range m.receipt.Logs {
		c.onRecord(record, model.DeliveryPush)
	}
	if c.round.requestID == nil && c.round.pendingRequestID != "" {
		id := c.round.pendingRequestID
		c.round.requestID = &id
	}
	c.logger.Info("transaction confirmed", zap.String("tx", c.round.txHash), zap.Uint64("block", block))

	if c.round.phase == model.PhaseWaitingForResult {
		c.armPoll()
	}
}

// onRecord applies a delivered log to the round. It is the single entry
// point for both delivery paths.
func (c *Coordinator) onRecord(record model.RawLogRecord, path model.DeliveryPath) {
	if record.Removed {
		return
	}
	switch ev := casino.Typed(casino.Decode(record, c.cfg.Registry)).(type) {
	case casino.RequestInitiated:
		c.onRequest(ev, record)
	case casino.ResultReady:
		c.onResult(ev, record, path)
	case casino.RandomnessFulfilled:
		c.logger.Debug("randomness fulfilled", zap.String("request_id", ev.RequestID.String()))
	case casino.Unknown:
	}
}

func (c *Coordinator) onRequest(ev casino.RequestInitiated, record model.RawLogRecord) {
	r := &c.round
	if r.txHash == "" || !strings.EqualFold(record.TxHash, r.txHash) || !casino.SamePlayer(ev.Player, r.account) {
		return
	}
	id := ev.RequestID.String()
	switch r.phase {
	case model.PhasePendingTransaction:
		r.pendingRequestID = id
	case model.PhaseWaitingForResult, model.PhaseRevealing:
		if r.requestID == nil {
			r.requestID = &id
		}
	default:
		return
	}
	c.logger.Info("randomness requested", zap.String("tx", r.txHash), zap.String("request_id", id))
}

func (c *Coordinator) onResult(ev casino.ResultReady, record model.RawLogRecord, path model.DeliveryPath) {
	r := &c.round
	if !casino.SamePlayer(ev.Player, r.account) {
		return
	}
	if r.phase != model.PhaseWaitingForResult {
		if r.phase != model.PhaseIdle {
			c.observer.ResultDelivered(path, false)
		}
		return
	}
	// Both paths only accept results from the confirmation block on.
	if r.lastObservedBlock != nil && record.BlockNumber < *r.lastObservedBlock {
		c.observer.ResultDelivered(path, false)
		c.logger.Debug("result before confirmation block dropped",
			zap.Uint64("block", record.BlockNumber),
			zap.Uint64("from", *r.lastObservedBlock),
		)
		return
	}

	number := ev.Number
	r.result = &number
	r.isWinner = r.chosen != nil && *r.chosen == number
	r.delivery = path
	r.resultBlock = record.BlockNumber
	r.phase = model.PhaseRevealing
	r.stopPoll()
	c.observer.ResultDelivered(path, true)
	c.logger.Info("result received",
		zap.Int("number", number),
		zap.Bool("winner", r.isWinner),
		zap.String("path", string(path)),
		zap.Uint64("block", record.BlockNumber),
	)

	gen := r.gen
	r.revealTimer = c.timers.AfterFunc(c.cfg.RevealTimeout, func() {
		c.post(revealTimeoutMsg{gen: gen})
	})
}

func (c *Coordinator) armPoll() {
	gen := c.round.gen
	c.round.pollTimer = c.timers.AfterFunc(c.cfg.PollInterval, func() {
		c.post(pollTickMsg{gen: gen})
	})
}

func (c *Coordinator) startPoll() {
	r := &c.round
	if r.phase != model.PhaseWaitingForResult || r.pollInFlight || r.lastObservedBlock == nil {
		return
	}
	r.stopPoll()
	r.pollInFlight = true

	q := eventsource.Query{
		Address:   c.cfg.Contract,
		FromBlock: *r.lastObservedBlock,
		Topic0:    c.resultTopic,
		Player:    r.account,
	}
	ctx := c.ctx
	gen := r.gen
	go func() {
		records, err := c.cfg.Source.QueryLogs(ctx, q)
		c.post(pollDoneMsg{gen: gen, records: records, err: err})
	}()
}

func (c *Coordinator) onPollDone(m pollDoneMsg) {
	if m.gen != c.round.gen {
		return
	}
	c.round.pollInFlight = false
	if c.round.phase != model.PhaseWaitingForResult {
		return
	}

	if m.err != nil {
		c.observer.PollFailed()
		c.logger.Warn("poll for result failed", zap.Error(m.err))
	} else if latest, ok := c.latestResult(m.records); ok {
		c.onRecord(latest, model.DeliveryPoll)
	}

	if c.round.phase == model.PhaseWaitingForResult {
		c.armPoll()
	}
}

// latestResult returns the newest PlayResult for the round's player.
func (c *Coordinator) latestResult(records []model.RawLogRecord) (model.RawLogRecord, bool) {
	matches := make([]model.RawLogRecord, 0, len(records))
	for _, record := range records {
		if record.Removed {
			continue
		}
		ev, ok := casino.Typed(casino.Decode(record, c.cfg.Registry)).(casino.ResultReady)
		if !ok || !casino.SamePlayer(ev.Player, c.round.account) {
			continue
		}
		matches = append(matches, record)
	}
	return casino.Latest(matches)
}

func (c *Coordinator) onWallet(w model.Wallet) {
	prev := c.wallet
	c.wallet = w
	if c.round.phase == model.PhaseIdle {
		return
	}
	if strings.EqualFold(prev.Account, w.Account) && prev.ChainID == w.ChainID {
		return
	}
	c.logger.Warn("wallet changed mid-round, resetting",
		zap.String("account", w.Account),
		zap.Uint64("chain_id", w.ChainID),
	)
	c.finish(model.EndReset, nil)
}

// finish records the round, disarms it and returns to a fresh idle round.
func (c *Coordinator) finish(reason model.EndReason, err error) {
	outcome := c.round.outcome(reason, err, c.now())
	c.round.disarm()
	c.round = round{gen: c.round.gen + 1, phase: model.PhaseIdle}

	c.observer.RoundFinished(outcome)
	if c.cfg.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), recordTimeout)
	defer cancel()
	if err := c.cfg.Recorder.RecordOutcome(ctx, outcome); err != nil {
		c.logger.Warn("record outcome failed", zap.String("tx", outcome.TxHash), zap.Error(err))
	}
}
