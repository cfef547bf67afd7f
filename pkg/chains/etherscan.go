package chains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// erc20TransferTopic is keccak256("Transfer(address,address,uint256)").
const erc20TransferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// maxTokenTransfers caps how many decoded transfers reach the prompt.
const maxTokenTransfers = 5

const userAgent = "txlens/1.0"

// ErrTxNotFound means no registered chain knows the hash.
var ErrTxNotFound = errors.New("transaction not found on any chain")

// ClientConfig configures the Etherscan v2 client.
type ClientConfig struct {
	// BaseURL of the Etherscan v2 API. Defaults to the public endpoint.
	BaseURL string

	// APIKey is optional; without it the free tier applies.
	APIKey string

	// Timeout per chain probe. Defaults to 8s; a lookup may probe every
	// registered chain, so keep this tight.
	Timeout time.Duration
}

// Client queries the Etherscan v2 API across the chains in a Registry.
type Client struct {
	baseURL    string
	apiKey     string
	registry   *Registry
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an Etherscan client over the given registry.
func NewClient(cfg ClientConfig, registry *Registry, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.etherscan.io"
	}
	if cfg.APIKey == "" {
		// Etherscan's documented free-tier key
		cfg.APIKey = "YourApiKeyToken"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		registry:   registry,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// FindTransaction probes the registry for the hash: priority chains first,
// then the rest. A chain that errors is skipped. Returns ErrTxNotFound when
// no chain knows the hash.
func (c *Client) FindTransaction(ctx context.Context, txHash string) (*Transaction, error) {
	c.logger.Debug("searching chains for transaction",
		zap.String("tx_hash", txHash),
		zap.Int("chain_count", c.registry.Len()),
	)

	for _, chain := range append(c.registry.Priority(), c.registry.Rest()...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tx, err := c.fetchFromChain(ctx, txHash, chain)
		if err != nil {
			c.logger.Debug("chain probe failed",
				zap.String("chain", chain.Name),
				zap.Error(err),
			)
			continue
		}
		if tx != nil {
			c.logger.Info("transaction found",
				zap.String("chain", chain.Name),
				zap.String("tx_hash", txHash),
			)
			return tx, nil
		}
	}

	return nil, ErrTxNotFound
}

// proxyEnvelope is the module=proxy response shape. Result is either a
// transaction/receipt object, null, or an error string.
type proxyEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type rawTransaction struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Gas         string `json:"gas"`
	GasPrice    string `json:"gasPrice"`
	BlockNumber string `json:"blockNumber"`
	Input       string `json:"input"`
	Nonce       string `json:"nonce"`
}

type rawReceipt struct {
	Status  string `json:"status"`
	GasUsed string `json:"gasUsed"`
	Logs    []struct {
		Address string   `json:"address"`
		Topics  []string `json:"topics"`
		Data    string   `json:"data"`
	} `json:"logs"`
}

// fetchFromChain asks one chain for the transaction. A nil Transaction with
// nil error means the chain simply doesn't know the hash.
func (c *Client) fetchFromChain(ctx context.Context, txHash string, chain Chain) (*Transaction, error) {
	var env proxyEnvelope
	if err := c.get(ctx, c.proxyURL(chain.ChainID, "eth_getTransactionByHash", txHash), &env); err != nil {
		return nil, err
	}

	var raw rawTransaction
	if !decodeResult(env.Result, &raw) {
		return nil, nil
	}

	// Found it; now get the receipt for gas usage, status and logs.
	// A missing receipt (pending tx) is tolerated.
	var receipt rawReceipt
	haveReceipt := false
	var receiptEnv proxyEnvelope
	if err := c.get(ctx, c.proxyURL(chain.ChainID, "eth_getTransactionReceipt", txHash), &receiptEnv); err == nil {
		haveReceipt = decodeResult(receiptEnv.Result, &receipt)
	}

	return buildTransaction(txHash, chain, &raw, &receipt, haveReceipt), nil
}

// decodeResult unmarshals a proxy result object. Null results and string
// results (error text) both mean "not found here".
func decodeResult(result json.RawMessage, v any) bool {
	trimmed := strings.TrimSpace(string(result))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, `"`) {
		return false
	}

	return json.Unmarshal(result, v) == nil
}

func buildTransaction(txHash string, chain Chain, raw *rawTransaction, receipt *rawReceipt, haveReceipt bool) *Transaction {
	valueWei := parseBigHex(raw.Value)
	gasPriceWei := parseHexUint(raw.GasPrice)
	gasLimit := parseHexUint(raw.Gas)

	gasUsed := gasLimit
	status := "Failed"
	if haveReceipt {
		gasUsed = parseHexUint(receipt.GasUsed)
		if receipt.Status == "0x1" {
			status = "Success"
		}
	}

	valueNative := weiToNative(valueWei)
	gasFee := weiToNative(new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), new(big.Int).SetUint64(gasPriceWei)))

	value := fmt.Sprintf("0 %s", chain.Symbol)
	if valueNative > 0 {
		value = fmt.Sprintf("%.6f %s", valueNative, chain.Symbol)
	}

	var transfers []TokenTransfer
	if haveReceipt {
		transfers = decodeTokenTransfers(receipt)
	}
	if transfers == nil {
		transfers = []TokenTransfer{}
	}

	to := raw.To
	if to == "" {
		to = "Contract Creation"
	}

	input := raw.Input
	if input == "" {
		input = "0x"
	}

	return &Transaction{
		Hash:           txHash,
		From:           orUnknown(raw.From),
		To:             to,
		Value:          value,
		GasUsed:        gasUsed,
		GasPrice:       fmt.Sprintf("%.2f gwei", float64(gasPriceWei)/1e9),
		GasFee:         fmt.Sprintf("%.6f %s", gasFee, chain.Symbol),
		BlockNumber:    parseHexUint(raw.BlockNumber),
		Status:         status,
		Chain:          chain.Name,
		ChainExplorer:  fmt.Sprintf("%s/tx/%s", chain.Explorer, txHash),
		Symbol:         chain.Symbol,
		TokenTransfers: transfers,
		IsContractCall: input != "0x",
		InputData:      truncateInput(input, 100),
		Nonce:          parseHexUint(raw.Nonce),
	}
}

func decodeTokenTransfers(receipt *rawReceipt) []TokenTransfer {
	var transfers []TokenTransfer
	for _, log := range receipt.Logs {
		if len(transfers) == maxTokenTransfers {
			break
		}
		if len(log.Topics) < 3 || log.Topics[0] != erc20TransferTopic {
			continue
		}

		amount := parseBigHex(log.Data)
		transfers = append(transfers, TokenTransfer{
			Token:  truncateInput(log.Address, 10) + "...",
			Amount: amount.String(),
			From:   "0x" + lastChars(log.Topics[1], 40),
			To:     "0x" + lastChars(log.Topics[2], 40),
		})
	}
	return transfers
}

// accountEnvelope is the module=account response shape.
type accountEnvelope struct {
	Status string `json:"status"`
	Result []struct {
		Hash      string `json:"hash"`
		From      string `json:"from"`
		To        string `json:"to"`
		Value     string `json:"value"`
		TimeStamp string `json:"timeStamp"`
		IsError   string `json:"isError"`
	} `json:"result"`
}

// AccountTransactions fetches the most recent transactions of an address on
// one chain (newest first).
func (c *Client) AccountTransactions(ctx context.Context, chainID int64, address string, limit int) (*AccountActivity, error) {
	chain, ok := c.registry.ByChainID(chainID)
	if !ok {
		return nil, fmt.Errorf("chain id %d is not registered", chainID)
	}

	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(chain.ChainID, 10))
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(limit))
	q.Set("sort", "desc")
	q.Set("apikey", c.apiKey)

	var env accountEnvelope
	if err := c.get(ctx, c.baseURL+"/v2/api?"+q.Encode(), &env); err != nil {
		return nil, err
	}

	activity := &AccountActivity{
		Address:      address,
		Chain:        chain.Name,
		Explorer:     fmt.Sprintf("%s/address/%s", chain.Explorer, address),
		Transactions: make([]AccountTx, 0, len(env.Result)),
	}

	for _, r := range env.Result {
		wei, ok := new(big.Int).SetString(r.Value, 10)
		if !ok {
			wei = big.NewInt(0)
		}
		ts, _ := strconv.ParseInt(r.TimeStamp, 10, 64)

		activity.Transactions = append(activity.Transactions, AccountTx{
			Hash:      r.Hash,
			From:      r.From,
			To:        r.To,
			Value:     fmt.Sprintf("%.6f %s", weiToNative(wei), chain.Symbol),
			Timestamp: ts,
			Failed:    r.IsError == "1",
		})
	}

	return activity, nil
}

func (c *Client) proxyURL(chainID int64, action, txHash string) string {
	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(chainID, 10))
	q.Set("module", "proxy")
	q.Set("action", action)
	q.Set("txhash", txHash)
	q.Set("apikey", c.apiKey)

	return c.baseURL + "/v2/api?" + q.Encode()
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("explorer returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

func parseHexUint(s string) uint64 {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBigHex(s string) *big.Int {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func weiToNative(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return f
}

func lastChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func truncateInput(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
