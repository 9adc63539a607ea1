package handlers

import (
	"fmt"

	"emergencycore/errors"
)

// Display strings for the report panels. Every failure in the analysis
// pipeline reduces to exactly one of these lines; the panels never see a
// stack trace or a bare HTTP status.
//
// analysisErrorText is the single place where error kinds become UI text.
// Handlers return typed errors and pass them through here unchanged.
func analysisErrorText(err error) string {
	var coreErr *errors.CoreError
	if !errors.As(err, &coreErr) {
		return fmt.Sprintf("🚨 Critical Error: %s", err)
	}

	switch coreErr.Type {
	case errors.ValidationError:
		return fmt.Sprintf("🚨 Error: %s", coreErr.Message)
	case errors.UpstreamError:
		// Status and body verbatim, exactly as the endpoint answered.
		return fmt.Sprintf("🚨 API Error: %d - %s", coreErr.UpstreamStatus, coreErr.UpstreamBody)
	case errors.TransportError:
		return fmt.Sprintf("🚨 Network Error: %s", causeText(coreErr))
	default:
		return fmt.Sprintf("🚨 Critical Error: %s", causeText(coreErr))
	}
}

// causeText prefers the underlying error over the taxonomy wrapper's own
// message, so the UI shows "dial tcp ..." rather than a generic label.
func causeText(err *errors.CoreError) string {
	if inner := err.Unwrap(); inner != nil {
		return inner.Error()
	}
	return err.Message
}
