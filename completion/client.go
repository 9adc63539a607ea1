// Package completion talks to the external text-generation service used
// for report analysis. It issues exactly one synchronous POST per request:
// no retries, no backoff, no caching. The single outbound call is bounded
// by a timeout and guarded by a circuit breaker that fails fast after
// sustained upstream failure.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"emergencycore/config"
	"emergencycore/errors"
)

// Request is the wire payload sent to the completion endpoint.
type Request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

// Message is a single chat message in a Request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a completion for a built request. Implementations must
// reduce every failure to one of the errors package kinds.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// NewClient selects the transport for the configured provider.
func NewClient(cfg config.CompletionConfig, breaker config.CircuitBreakerConfig, logger *zap.Logger) Client {
	if cfg.Provider == "stub" {
		return Stub{}
	}
	return NewHTTPClient(cfg, breaker, logger)
}

// Wire shape of a successful response. Anything that does not carry
// choices[0].message.content is treated as malformed.
type apiResponse struct {
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Message apiMessage `json:"message"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HTTPClient implements Client against the real completion endpoint.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewHTTPClient creates a client for the configured endpoint. The breaker
// trips after the configured number of consecutive failures; while open,
// calls fail immediately without touching the network.
func NewHTTPClient(cfg config.CompletionConfig, bc config.CircuitBreakerConfig, logger *zap.Logger) *HTTPClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "completion",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &HTTPClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: breaker,
		logger:  logger,
	}
}

// Complete issues the single outbound POST through the breaker and returns
// the completion text.
func (c *HTTPClient) Complete(ctx context.Context, req *Request) (string, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", errors.NewTransportError("", fmt.Errorf("completion endpoint unavailable: %w", err))
		}
		return "", err
	}
	return v.(string), nil
}

// do executes one request/response cycle and maps failures onto the error
// taxonomy: transport errors before a status exists, upstream errors with
// the status and body verbatim, internal errors for malformed bodies.
func (c *HTTPClient) do(ctx context.Context, req *Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", errors.NewInternalError("", fmt.Errorf("marshal completion request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewInternalError("", fmt.Errorf("create completion request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// DNS, connection refused, TLS, timeout: no status to report
		return "", errors.NewTransportError("", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewInternalError("", fmt.Errorf("read completion response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("completion endpoint error",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_length", len(body)),
		)
		return "", errors.NewUpstreamError("", resp.StatusCode, string(body))
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return "", errors.NewInternalError("", fmt.Errorf("unmarshal completion response: %w", err))
	}
	if len(api.Choices) == 0 || api.Choices[0].Message.Content == "" {
		return "", errors.NewInternalError("", fmt.Errorf("completion response has no content"))
	}

	return api.Choices[0].Message.Content, nil
}
