// internal/common/anthropic/client.go
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"linkedin-agent/internal/common/errors"
	httpclient "linkedin-agent/internal/common/http"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultVersion = "2023-06-01"
)

// APIError is returned when the Messages API responds with a non-200 status.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("anthropic: HTTP %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsOverloaded reports an HTTP 529 response.
func (e *APIError) IsOverloaded() bool {
	return e.StatusCode == 529
}

type Config struct {
	APIKey         string
	BaseURL        string
	Version        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

type Client struct {
	config     Config
	httpClient *httpclient.Client
	logger     logger.Logger
}

func NewClient(config Config, log logger.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Version == "" {
		config.Version = DefaultVersion
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 20 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: httpclient.NewClient(config.Timeout, ""),
		logger:     log.With(map[string]interface{}{"component": "anthropic"}),
	}
}

// CreateMessage sends one Messages API request.
func (c *Client) CreateMessage(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
		var apiErr *APIError
		if stderrors.As(err, &apiErr) {
			status = strconv.Itoa(apiErr.StatusCode)
		}
	}
	metrics.LLMRequestDuration.WithLabelValues(req.Model, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	metrics.LLMTokens.WithLabelValues(req.Model, "input").Add(float64(resp.Usage.InputTokens))
	metrics.LLMTokens.WithLabelValues(req.Model, "output").Add(float64(resp.Usage.OutputTokens))
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", c.config.Version)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: sending request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, readAPIError(httpResp)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("anthropic: decoding response: %w", err)
	}
	return &resp, nil
}

// readAPIError parses {"error":{"type":"...","message":"..."}}.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var wire struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Type: wire.Error.Type, Message: wire.Error.Message}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
}

// CreateWithRetry retries overloaded (529) responses up to MaxRetries
// attempts, waiting RetryBaseDelay * 2^attempt in between. Any other
// failure is returned at once. Errors are classified as StandardErrors.
func (c *Client) CreateWithRetry(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		resp, err := c.CreateMessage(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr *APIError
		if !stderrors.As(err, &apiErr) || !apiErr.IsOverloaded() || attempt == c.config.MaxRetries-1 {
			return nil, classify(ctx, err)
		}

		wait := c.config.RetryBaseDelay * time.Duration(1<<attempt)
		c.logger.Warn("API overloaded, retrying", map[string]interface{}{
			"attempt":     attempt + 1,
			"maxAttempts": c.config.MaxRetries,
			"wait":        wait.String(),
		})
		metrics.LLMOverloadRetries.Inc()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, errors.NewLLMTimeoutError(ctx.Err())
		}
	}

	return nil, classify(ctx, lastErr)
}

func classify(ctx context.Context, err error) error {
	var apiErr *APIError
	var netErr net.Error
	switch {
	case stderrors.As(err, &apiErr) && apiErr.IsOverloaded():
		return errors.NewLLMOverloadedError(err)
	case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil,
		stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.NewLLMTimeoutError(err)
	default:
		return errors.NewLLMRequestFailedError(err)
	}
}
