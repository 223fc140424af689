package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// LogQuery selects logs for FilterLogs. ToBlock 0 means latest.
type LogQuery struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []common.Address
	Topics    [][]common.Hash
}

// NewClient creates a new chain client from the RPC URL.
// A ws:// or wss:// URL enables log subscriptions.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// FilterLogs returns logs matching the query.
func (c *Client) FilterLogs(ctx context.Context, q LogQuery) ([]types.Log, error) {
	return c.ethClient.FilterLogs(ctx, q.filterQuery())
}

// SubscribeLogs streams new logs matching the query into ch.
// Block bounds are ignored for subscriptions.
func (c *Client) SubscribeLogs(ctx context.Context, q LogQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	query := q.filterQuery()
	query.FromBlock = nil
	query.ToBlock = nil
	return c.ethClient.SubscribeFilterLogs(ctx, query, ch)
}

// TransactionReceipt returns the receipt of a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

func (q LogQuery) filterQuery() ethereum.FilterQuery {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(q.FromBlock),
		Addresses: q.Addresses,
		Topics:    q.Topics,
	}
	if q.ToBlock > 0 {
		query.ToBlock = new(big.Int).SetUint64(q.ToBlock)
	}
	return query
}
