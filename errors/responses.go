// Package errors provides error response utilities.
package errors

import (
	"errors"
)

const RequestIDKey = "request_id"

// ErrorResponse represents a standardized error response format
// that is returned to clients when a protocol-level error occurs.
// It includes:
//   - Error type for categorization
//   - Human-readable message
//   - Request ID for correlation
//   - Optional details for additional context
type ErrorResponse struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// As is a wrapper around errors.As for better error type assertion
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// KindOf returns the ErrorType of err if it is (or wraps) a CoreError,
// and InternalError otherwise. Handlers use it to fold arbitrary errors
// into the taxonomy before presentation.
func KindOf(err error) ErrorType {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Type
	}
	return InternalError
}
