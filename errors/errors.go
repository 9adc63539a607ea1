// Package errors provides the error handling system for the EmergencyCore
// server. It defines the error kinds every handler reduces its failures to,
// JSON response formatting for protocol-level errors, request ID tracking,
// and integrated logging with Uber's zap logger.
//
// The taxonomy is deliberately small:
//
//   - ValidationError: the caller's input was unusable; no outbound call
//     was made.
//   - UpstreamError: the completion endpoint answered with a non-2xx
//     status. The status code and body are preserved verbatim.
//   - TransportError: the completion endpoint could not be reached at all
//     (DNS, connection refused, TLS, timeout).
//   - InternalError: everything else, including malformed upstream bodies.
//
// None of these are retried or escalated; each is terminal for its request
// and ends up as a readable string in the UI.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// If nil is provided, the function will do nothing to prevent
// accidentally disabling logging.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType categorizes a failure for presentation and metrics.
type ErrorType string

const (
	// ValidationError represents unusable caller input
	ValidationError ErrorType = "validation_error"

	// UpstreamError represents a non-2xx answer from the completion endpoint
	UpstreamError ErrorType = "upstream_error"

	// TransportError represents a failure to reach the completion endpoint
	TransportError ErrorType = "transport_error"

	// InternalError represents unexpected internal failures
	InternalError ErrorType = "internal_error"
)

// CoreError is the error type used across the server. It implements the
// error interface and carries enough context to render both the JSON
// protocol surface and the plain display string the UI shows.
type CoreError struct {
	// Type categorizes the error for presentation and metrics
	Type ErrorType `json:"type"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Code is the HTTP status code (not exposed in JSON)
	Code int `json:"-"`

	// RequestID links the error to a specific request
	RequestID string `json:"request_id"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`

	// UpstreamStatus and UpstreamBody hold the verbatim answer of the
	// completion endpoint for UpstreamError values (not exposed in JSON)
	UpstreamStatus int    `json:"-"`
	UpstreamBody   string `json:"-"`

	// err is the underlying error (not exposed in JSON)
	err error
}

// Error implements the error interface. It returns a string that
// combines the error type, message, and underlying error (if any).
func (e *CoreError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, implementing the unwrap
// interface for error chains.
func (e *CoreError) Unwrap() error {
	return e.err
}

// Is implements error matching for errors.Is, allowing type-based
// error matching while ignoring other fields.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError formats and writes a CoreError to an http.ResponseWriter.
// It sets the appropriate content type and status code, then writes
// the error as a JSON response.
func WriteError(w http.ResponseWriter, err *CoreError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
}

// Error is a drop-in replacement for http.Error that creates and writes
// a CoreError with the InternalError type. It automatically includes
// the request ID from the response headers if available.
func Error(w http.ResponseWriter, message string, code int) {
	requestID := w.Header().Get("X-Request-ID")
	err := &CoreError{
		Type:      InternalError,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	}
	WriteError(w, err)
}

// ErrorWithType is like Error but allows specifying the error type.
// This is useful when you want to indicate specific error categories
// to the client while maintaining the simple interface of http.Error.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	requestID := w.Header().Get("X-Request-ID")
	err := &CoreError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	}
	WriteError(w, err)
}
