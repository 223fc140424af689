package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/time/rate"

	"vrfRoulette/internal/model"
)

// DefaultBaseURL is the Sepolia Etherscan API.
const DefaultBaseURL = "https://api-sepolia.etherscan.io/api"

// DefaultRequestsPerSecond matches the free Etherscan tier.
const DefaultRequestsPerSecond = 5

const noRecords = "No records found"

// Config configures the explorer client.
type Config struct {
	BaseURL string
	APIKey  string
	ChainID uint64
	Timeout time.Duration
	// RequestsPerSecond caps outgoing calls. Zero means the default.
	RequestsPerSecond float64
}

// Client talks to an Etherscan-compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	chainID    uint64
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid explorer url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		chainID:    cfg.ChainID,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// ContractInfo is the verified source metadata of a contract.
type ContractInfo struct {
	ContractName     string `json:"ContractName"`
	CompilerVersion  string `json:"CompilerVersion"`
	OptimizationUsed string `json:"OptimizationUsed"`
	SourceCode       string `json:"SourceCode"`
}

// Optimized reports whether the optimizer was enabled.
func (i ContractInfo) Optimized() bool {
	return i.OptimizationUsed == "1"
}

// FetchLogs returns the logs emitted by address from fromBlock on, in the
// order the API returns them (ascending).
func (c *Client) FetchLogs(ctx context.Context, address string, fromBlock uint64) ([]model.RawLogRecord, error) {
	params := url.Values{}
	params.Set("module", "logs")
	params.Set("action", "getLogs")
	params.Set("address", address)
	params.Set("fromBlock", strconv.FormatUint(fromBlock, 10))
	params.Set("toBlock", "latest")

	var result []apiLog
	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}

	records := make([]model.RawLogRecord, 0, len(result))
	for i, log := range result {
		record, err := log.record(c.chainID)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// FetchContractInfo returns verified source metadata for address.
func (c *Client) FetchContractInfo(ctx context.Context, address string) (ContractInfo, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)

	var result []ContractInfo
	if err := c.get(ctx, params, &result); err != nil {
		return ContractInfo{}, err
	}
	if len(result) == 0 {
		return ContractInfo{}, errors.New("explorer returned no contract info")
	}
	return result[0], nil
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("explorer http status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode explorer response: %w", err)
	}
	if payload.Status != "1" {
		if strings.EqualFold(payload.Message, noRecords) {
			return nil
		}
		var detail string
		_ = json.Unmarshal(payload.Result, &detail)
		return fmt.Errorf("explorer error: %s %s", payload.Message, detail)
	}
	if err := json.Unmarshal(payload.Result, out); err != nil {
		return fmt.Errorf("decode explorer result: %w", err)
	}
	return nil
}

type apiLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      string   `json:"blockNumber"`
	BlockHash        string   `json:"blockHash"`
	TimeStamp        string   `json:"timeStamp"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
	LogIndex         string   `json:"logIndex"`
}

func (l apiLog) record(chainID uint64) (model.RawLogRecord, error) {
	block, err := parseQuantity(l.BlockNumber)
	if err != nil {
		return model.RawLogRecord{}, fmt.Errorf("block number: %w", err)
	}
	ts, err := parseQuantity(l.TimeStamp)
	if err != nil {
		return model.RawLogRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	logIndex, err := parseQuantity(l.LogIndex)
	if err != nil {
		return model.RawLogRecord{}, fmt.Errorf("log index: %w", err)
	}
	txIndex, err := parseQuantity(l.TransactionIndex)
	if err != nil {
		return model.RawLogRecord{}, fmt.Errorf("tx index: %w", err)
	}

	topics := make([]string, 0, len(l.Topics))
	for _, topic := range l.Topics {
		if topic != "" {
			topics = append(topics, topic)
		}
	}

	return model.RawLogRecord{
		ChainID:          chainID,
		Address:          strings.ToLower(l.Address),
		Topics:           topics,
		Data:             l.Data,
		BlockNumber:      block,
		BlockHash:        l.BlockHash,
		Timestamp:        ts,
		TxHash:           l.TransactionHash,
		LogIndex:         logIndex,
		TransactionIndex: txIndex,
	}, nil
}

// parseQuantity accepts hex quantities and the empty "0x" the API uses for zero.
func parseQuantity(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "0x":
		return 0, nil
	}
	if !strings.HasPrefix(raw, "0x") {
		return strconv.ParseUint(raw, 10, 64)
	}
	digits := strings.TrimLeft(raw[2:], "0")
	if digits == "" {
		return 0, nil
	}
	return hexutil.DecodeUint64("0x" + digits)
}
