package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamErrorPreservesAnswer(t *testing.T) {
	err := NewUpstreamError("req-1", http.StatusInternalServerError, "server busy")

	assert.Equal(t, UpstreamError, err.Type)
	assert.Equal(t, 500, err.UpstreamStatus)
	assert.Equal(t, "server busy", err.UpstreamBody)
	assert.Equal(t, http.StatusBadGateway, err.Code)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			name: "validation error",
			err:  NewValidationError("req-1", "bad input", nil),
			want: ValidationError,
		},
		{
			name: "transport error",
			err:  NewTransportError("req-1", fmt.Errorf("connection refused")),
			want: TransportError,
		},
		{
			name: "wrapped upstream error",
			err:  fmt.Errorf("analyze: %w", NewUpstreamError("req-1", 503, "unavailable")),
			want: UpstreamError,
		},
		{
			name: "plain error folds to internal",
			err:  fmt.Errorf("something odd"),
			want: InternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMatching(t *testing.T) {
	err := NewValidationError("req-1", "bad input", nil)

	// Is matches on type only
	assert.ErrorIs(t, err, &CoreError{Type: ValidationError})
	assert.NotErrorIs(t, err, &CoreError{Type: TransportError})

	var coreErr *CoreError
	require.True(t, As(fmt.Errorf("wrap: %w", err), &coreErr))
	assert.Equal(t, "bad input", coreErr.Message)
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	err := NewTransportError("req-1", inner)

	assert.Equal(t, inner, err.Unwrap())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewValidationError("req-1", "bad input", map[string]interface{}{
		"field": "location",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp["type"])
	assert.Equal(t, "bad input", resp["message"])
	assert.Equal(t, "req-1", resp["request_id"])

	// Internal fields never leak into the JSON surface
	assert.NotContains(t, resp, "code")
	assert.NotContains(t, resp, "upstream_status")
}

func TestErrorWithType(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-9")
	ErrorWithType(rec, "not allowed", ValidationError, http.StatusMethodNotAllowed)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp["type"])
	assert.Equal(t, "req-9", resp["request_id"])
}
