package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fieldops/techrank/pkg/logger"
	"github.com/fieldops/techrank/pkg/metrics"
)

// Client defaults.
const (
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second
	DefaultRetries   = 2

	apiVersion     = "2023-06-01"
	defaultBackoff = time.Second
	maxErrorBody   = 512
)

// ClientConfig configures the Messages API client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff    time.Duration
	Limiter    *rate.Limiter
	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client calls the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     logger.Logger
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient fills unset config fields with defaults.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		limiter:    cfg.Limiter,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("insight")
	}
	return c
}

// Complete sends prompt as a single user message and returns the text of
// the reply. Rate-limited (429) and server (5xx) responses and transport
// errors are retried with exponential backoff. Every failure wraps
// ErrUnavailable.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		metrics.RecordInsightError("no_api_key")
		return "", fmt.Errorf("%w: API key not configured", ErrUnavailable)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", ErrUnavailable, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.logger.Warn(ctx, "retrying model call",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", wait),
				logger.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", c.fail("timeout", ctx.Err())
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", c.fail("rate_limited", err)
		}

		text, retry, err := c.attempt(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry {
			return "", c.fail("bad_response", err)
		}
	}
	return "", c.fail("retries_exhausted", fmt.Errorf("max retries exceeded: %w", lastErr))
}

// attempt performs one request. retry reports whether the failure is
// transient.
func (c *Client) attempt(ctx context.Context, body []byte) (text string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordInsightLatency(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, errors.New("rate limit exceeded (429)")
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", true, fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(raw))
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw))
	}

	var mr messageResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return "", false, fmt.Errorf("parse response: %w", err)
	}
	if mr.Error != nil {
		return "", false, fmt.Errorf("API error: %s", mr.Error.Message)
	}

	var out strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", false, errors.New("no text content returned")
	}
	return strings.TrimSpace(out.String()), false, nil
}

func (c *Client) fail(reason string, err error) error {
	metrics.RecordInsightError(reason)
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
