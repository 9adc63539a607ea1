// Package handlers provides HTTP handlers for the EmergencyCore server.
// It implements the three independent panels of the original system:
// report analysis backed by the completion endpoint, the weather advisory
// stub, and the damage image stub.
//
// The package follows these design principles:
//  1. Consistent error handling using the errors package
//  2. Structured logging with request IDs
//  3. Business failures answer 200 with a readable display string in the
//     "report" field; only protocol misuse (bad JSON, wrong content type)
//     gets an HTTP error response
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"emergencycore/completion"
	"emergencycore/errors"
	"emergencycore/report"
	"emergencycore/server/metrics"
	"emergencycore/server/middleware"
)

// validate is the shared validator instance for request structs.
var validate = validator.New()

// defaultUrgency is used when a request omits the urgency field, matching
// the dropdown default of the original interface.
const defaultUrgency = "Medium"

// AnalyzeRequest is the report analysis request body. The urgency value is
// free-form beyond a length cap; unknown tiers fall back to the generic
// glyph at render time rather than being rejected.
type AnalyzeRequest struct {
	ReportText string `json:"report_text" validate:"max=524288"`
	Urgency    string `json:"urgency" validate:"max=64"`
}

// ReportResponse is the uniform response shape of all three panels: one
// display string, whether the operation succeeded or not.
type ReportResponse struct {
	Report string `json:"report"`
}

// AnalyzeHandler handles emergency report analysis requests. It builds the
// prompt, performs the single outbound completion call, and renders the
// result into the display report.
type AnalyzeHandler struct {
	builder   *report.Builder
	client    completion.Client
	formatter *report.Formatter
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewAnalyzeHandler creates an analysis handler. The metrics argument may
// be nil, in which case no metrics are recorded.
func NewAnalyzeHandler(builder *report.Builder, client completion.Client, formatter *report.Formatter, m *metrics.Metrics, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		builder:   builder,
		client:    client,
		formatter: formatter,
		metrics:   m,
		logger:    logger,
	}
}

// ServeHTTP implements http.Handler. Pipeline failures of any kind still
// answer 200: the display string is the product, and a readable error line
// is a valid display string.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
	)

	var req AnalyzeRequest
	if !decodeJSON(w, r, requestID, &req) {
		return
	}

	if err := validate.Struct(&req); err != nil {
		logger.Warn("oversized analysis request", zap.Error(err))
		h.finish(w, logger, errors.NewValidationError(requestID, "Report is too long to analyze.", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = defaultUrgency
	}

	creq, err := h.builder.Build(req.ReportText, urgency)
	if err != nil {
		logger.Warn("prompt build rejected", zap.Error(err))
		h.finish(w, logger, err)
		return
	}

	if h.metrics != nil {
		if tokens := h.builder.PromptTokens(creq); tokens >= 0 {
			h.metrics.PromptTokens.Observe(float64(tokens))
		}
	}

	raw, err := h.client.Complete(r.Context(), creq)
	if err != nil {
		errors.LogError(logger, err, requestID)
		h.recordUpstream(err)
		h.finish(w, logger, err)
		return
	}
	h.recordUpstream(nil)

	if h.metrics != nil {
		h.metrics.AnalysisTotal.WithLabelValues("ok").Inc()
	}
	writeReport(w, logger, h.formatter.Format(raw, urgency))
}

// finish records the failure outcome and writes its display string.
func (h *AnalyzeHandler) finish(w http.ResponseWriter, logger *zap.Logger, err error) {
	if h.metrics != nil {
		h.metrics.AnalysisTotal.WithLabelValues(string(errors.KindOf(err))).Inc()
	}
	writeReport(w, logger, analysisErrorText(err))
}

// recordUpstream tracks the completion endpoint's answer by status code.
// A nil error counts as a 200.
func (h *AnalyzeHandler) recordUpstream(err error) {
	if h.metrics == nil {
		return
	}
	if err == nil {
		h.metrics.UpstreamStatus.WithLabelValues("200").Inc()
		return
	}
	var coreErr *errors.CoreError
	if errors.As(err, &coreErr) && coreErr.Type == errors.UpstreamError {
		h.metrics.UpstreamStatus.WithLabelValues(strconv.Itoa(coreErr.UpstreamStatus)).Inc()
	}
}

// decodeJSON parses a JSON request body. Malformed JSON is protocol
// misuse, not a business failure, so it answers 400 with the standard
// error response instead of a display string.
func decodeJSON(w http.ResponseWriter, r *http.Request, requestID string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		errors.WriteError(w, errors.NewValidationError(requestID, "Invalid request format", map[string]interface{}{
			"error": err.Error(),
		}))
		return false
	}
	return true
}

// writeReport answers 200 with the display string.
func writeReport(w http.ResponseWriter, logger *zap.Logger, text string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ReportResponse{Report: text}); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
