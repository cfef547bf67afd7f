package opengradient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultBaseURL is the hosted inference gateway.
const DefaultBaseURL = "https://api.opengradient.ai"

// placeholder markers left in unconfigured .env files
const keyPlaceholder = "YOUR_PRIVATE_KEY"

// Config configures the inference client.
type Config struct {
	// BaseURL of the inference gateway. Defaults to DefaultBaseURL.
	BaseURL string

	// PrivateKey authenticates to the network and funds settlement.
	PrivateKey string

	// RetryMax is the number of retries after the first attempt.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Timeout for a single inference call. TEE inference is slow; default 2m.
	Timeout time.Duration
}

// ErrNotConfigured is returned by New when no usable credential is present.
// Callers treat this as "run without live inference", not as a fatal error.
type ErrNotConfigured struct{}

func (ErrNotConfigured) Error() string {
	return "opengradient: private key not configured"
}

// Client calls the OpenGradient inference gateway.
type Client struct {
	baseURL    string
	privateKey string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Client. Returns ErrNotConfigured when the private key is
// empty or still the placeholder text.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.PrivateKey == "" || strings.Contains(cfg.PrivateKey, keyPlaceholder) {
		return nil, ErrNotConfigured{}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 2
	}
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = 2 * time.Second
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 10 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.Logger = &retryLogger{sugar: logger.Sugar()}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		privateKey: cfg.PrivateKey,
		httpClient: retryClient.StandardClient(),
		logger:     logger,
	}, nil
}

// Chat runs a chat completion inside the TEE and returns the output along
// with the payment hash of the settled call.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/v1/chat"
	c.logger.Debug("calling inference gateway",
		zap.String("url", url),
		zap.String("model", req.Model),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.privateKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d: %s", httpResp.StatusCode, string(body))
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.ChatOutput.Content == "" {
		return nil, fmt.Errorf("gateway returned empty chat output")
	}

	c.logger.Debug("inference complete",
		zap.Duration("duration", time.Since(start)),
		zap.String("payment_hash", resp.PaymentHash),
	)

	return &resp, nil
}

// retryLogger adapts zap to the leveled logger retryablehttp expects.
type retryLogger struct {
	sugar *zap.SugaredLogger
}

func (l *retryLogger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}
