package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"emergencycore/config"
	"emergencycore/errors"
)

func testRequest() *Request {
	return &Request{
		Model:     "grok-beta",
		MaxTokens: 500,
		System:    "system prompt",
		Messages: []Message{
			{Role: "user", Content: "analysis prompt"},
		},
	}
}

func clientConfig(endpoint string) config.CompletionConfig {
	return config.CompletionConfig{
		Provider: "http",
		Endpoint: endpoint,
		Model:    "grok-beta",
		APIKey:   "test-key",
		Timeout:  time.Second,
	}
}

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 100,
	}
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grok-beta", req.Model)
		assert.Equal(t, 500, req.MaxTokens)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "the analysis"}},
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(clientConfig(srv.URL), breakerConfig(), zaptest.NewLogger(t))
	got, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "the analysis", got)
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server busy"))
	}))
	defer srv.Close()

	c := NewHTTPClient(clientConfig(srv.URL), breakerConfig(), zaptest.NewLogger(t))
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)

	var coreErr *errors.CoreError
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, errors.UpstreamError, coreErr.Type)
	assert.Equal(t, 500, coreErr.UpstreamStatus)
	assert.Equal(t, "server busy", coreErr.UpstreamBody)
}

func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(clientConfig(url), breakerConfig(), zaptest.NewLogger(t))
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, errors.TransportError, errors.KindOf(err))
}

func TestCompleteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewHTTPClient(clientConfig(srv.URL), breakerConfig(), zaptest.NewLogger(t))
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, errors.InternalError, errors.KindOf(err))
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(clientConfig(srv.URL), breakerConfig(), zaptest.NewLogger(t))
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, errors.InternalError, errors.KindOf(err))
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	bc := breakerConfig()
	bc.FailureThreshold = 2

	c := NewHTTPClient(clientConfig(srv.URL), bc, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		_, err := c.Complete(context.Background(), testRequest())
		assert.Equal(t, errors.UpstreamError, errors.KindOf(err))
	}

	// Breaker is now open: the call fails fast without reaching the server
	_, err := c.Complete(context.Background(), testRequest())
	assert.Equal(t, errors.TransportError, errors.KindOf(err))
	assert.Equal(t, 2, hits)
}

func TestNewClientSelectsProvider(t *testing.T) {
	logger := zaptest.NewLogger(t)

	stubCfg := clientConfig("")
	stubCfg.Provider = "stub"
	assert.IsType(t, Stub{}, NewClient(stubCfg, breakerConfig(), logger))

	httpCfg := clientConfig("https://api.x.ai/v1/chat/completions")
	assert.IsType(t, &HTTPClient{}, NewClient(httpCfg, breakerConfig(), logger))
}
