package generative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/logging"
)

// HTTPClient talks to a word-bounded generation backend over HTTP. Calls
// are rate limited, retried with exponential backoff on transient failures,
// and cut off by a circuit breaker when the backend stays down.
type HTTPClient struct {
	endpoint    string
	apiKey      string
	model       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *circuitBreaker
	maxRetries  int
	backoffBase time.Duration
	logger      *logging.Logger
}

// NewHTTPClient builds a client from cfg. The endpoint is required.
func NewHTTPClient(cfg config.GenerativeConfig, logger *logging.Logger) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("generative endpoint required for provider http")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := cfg.BackoffBase.Duration()
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}

	return &HTTPClient{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:      cfg.APIKey.Value(),
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(limit), burst),
		breaker:     newCircuitBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.SuccessThreshold, cfg.Breaker.Timeout.Duration()),
		maxRetries:  cfg.MaxRetries,
		backoffBase: backoff,
		logger:      logger,
	}, nil
}

type generateRequest struct {
	Model       string `json:"model,omitempty"`
	Instruction string `json:"instruction"`
	Content     string `json:"content"`
	MinWords    int    `json:"min_words,omitempty"`
	MaxWords    int    `json:"max_words,omitempty"`
	Style       string `json:"style"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Generate implements Service.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	if !c.breaker.allow() {
		return "", fmt.Errorf("circuit %s: %w", c.breaker.currentState(), ErrServiceUnavailable)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	wire := generateRequest{
		Model:       c.model,
		Instruction: req.Instruction,
		Content:     req.Content,
		MinWords:    req.MinWords,
		MaxWords:    req.MaxWords,
		Style:       string(req.Style),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := c.doRequest(ctx, wire)
		if err == nil {
			c.breaker.recordSuccess()
			return text, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
		c.logger.Debug(ctx, "generation attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	c.breaker.recordFailure()
	return "", fmt.Errorf("%w: retries exhausted: %v", ErrServiceUnavailable, lastErr)
}

func (c *HTTPClient) doRequest(ctx context.Context, wire generateRequest) (string, error) {
	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(payload))}
	}
	if resp.StatusCode != http.StatusOK {
		var decoded generateResponse
		if err := json.Unmarshal(payload, &decoded); err == nil && decoded.Error != "" {
			return "", fmt.Errorf("backend error (%d): %s", resp.StatusCode, decoded.Error)
		}
		return "", fmt.Errorf("backend error (%d): %s", resp.StatusCode, string(payload))
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if strings.TrimSpace(decoded.Text) == "" {
		return "", ErrEmptyResponse
	}
	return decoded.Text, nil
}

// retryableError marks failures worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*retryableError)
	return ok
}
