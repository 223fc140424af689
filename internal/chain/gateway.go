package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"vrfRoulette/internal/model"
)

// Gateway exposes submission and confirmation in the session's terms.
type Gateway struct {
	client    *Client
	submitter *Submitter
	chainID   uint64
	wait      WaitConfig
}

// NewGateway combines a client and a submitter.
func NewGateway(client *Client, submitter *Submitter, chainID uint64, wait WaitConfig) *Gateway {
	return &Gateway{client: client, submitter: submitter, chainID: chainID, wait: wait}
}

// Wallet returns the submitting account and chain.
func (g *Gateway) Wallet() model.Wallet {
	return model.Wallet{Account: g.submitter.Account().Hex(), ChainID: g.chainID}
}

// SubmitPlay sends play() and returns the transaction hash.
func (g *Gateway) SubmitPlay(ctx context.Context) (string, error) {
	hash, err := g.submitter.Play(ctx)
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

// WaitConfirmed waits for the configured confirmations on txHash.
func (g *Gateway) WaitConfirmed(ctx context.Context, txHash string) (model.TxReceipt, error) {
	receipt, err := WaitForReceipt(ctx, g.client, common.HexToHash(txHash), g.wait)
	if err != nil {
		return model.TxReceipt{}, err
	}
	return ReceiptRecord(g.chainID, receipt), nil
}
