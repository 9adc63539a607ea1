package errors

import (
	"net/http"
)

// NewError creates a new CoreError with the given parameters.
// It is a general-purpose constructor that allows full control over
// the error's fields. For most cases, you should use one of the
// specialized constructors below.
//
// Example:
//
//	err := NewError(InternalError, "decode response failed", 500, "req_123", nil, decodeErr)
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *CoreError {
	return &CoreError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewValidationError creates a validation error with appropriate defaults.
// Use this for any request validation failures, such as:
//   - Empty or whitespace-only report text
//   - Missing location in a weather request
//   - Prompts exceeding the configured token budget
//
// A validation error always means no outbound call was made.
//
// Example:
//
//	err := NewValidationError("req_123", "report text is required", map[string]interface{}{
//	    "field": "report_text",
//	    "error": "must not be empty",
//	})
func NewValidationError(requestID, message string, validationDetails map[string]interface{}) *CoreError {
	return &CoreError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		Details:   validationDetails,
	}
}

// NewUpstreamError creates an upstream error carrying the completion
// endpoint's answer verbatim. The status code and body survive untouched so
// the presentation layer can show exactly what the endpoint said.
//
// Example:
//
//	err := NewUpstreamError("req_123", 500, "server busy")
func NewUpstreamError(requestID string, status int, body string) *CoreError {
	return &CoreError{
		Type:           UpstreamError,
		Message:        "completion endpoint returned an error",
		Code:           http.StatusBadGateway,
		RequestID:      requestID,
		UpstreamStatus: status,
		UpstreamBody:   body,
		Details: map[string]interface{}{
			"upstream_status": status,
			"upstream_body":   body,
		},
	}
}

// NewTransportError creates a transport error for failures that happen
// before any HTTP status is available: DNS resolution, connection refused,
// TLS handshake, or a timed-out request.
//
// Example:
//
//	err := NewTransportError("req_123", dialErr)
func NewTransportError(requestID string, err error) *CoreError {
	return &CoreError{
		Type:      TransportError,
		Message:   "completion endpoint unreachable",
		Code:      http.StatusBadGateway,
		RequestID: requestID,
		err:       err,
	}
}

// NewInternalError creates an internal server error with appropriate defaults.
// Use this for unexpected errors that are not covered by other error types:
//   - Panics
//   - Malformed upstream response bodies
//   - Unexpected system failures
//
// Example:
//
//	err := NewInternalError("req_123", decodeErr)
func NewInternalError(requestID string, err error) *CoreError {
	return &CoreError{
		Type:      InternalError,
		Message:   "An internal error occurred",
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}
