package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"vrfRoulette/internal/casino"
)

// Submitter signs and sends casino contract calls from one account.
type Submitter struct {
	contract *bind.BoundContract
	opts     bind.TransactOpts
	account  common.Address
}

// NewSubmitter binds the casino contract at address with a keyed transactor.
func NewSubmitter(client *Client, address common.Address, privateKeyHex string, chainID *big.Int) (*Submitter, error) {
	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	parsed, err := casino.CasinoABI()
	if err != nil {
		return nil, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	return &Submitter{
		contract: bind.NewBoundContract(address, parsed, client.ethClient, client.ethClient, client.ethClient),
		opts:     *opts,
		account:  opts.From,
	}, nil
}

// Account returns the signing account.
func (s *Submitter) Account() common.Address {
	return s.account
}

// Play submits play() and returns the transaction hash.
func (s *Submitter) Play(ctx context.Context) (common.Hash, error) {
	opts := s.opts
	opts.Context = ctx

	tx, err := s.contract.Transact(&opts, casino.MethodPlay)
	if err != nil {
		return common.Hash{}, &SubmissionError{Method: casino.MethodPlay, Err: err}
	}
	return tx.Hash(), nil
}

func parsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if raw == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
