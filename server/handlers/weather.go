package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"emergencycore/config"
	"emergencycore/server/middleware"
)

// WeatherRequest is the weather panel request body.
type WeatherRequest struct {
	Location string `json:"location" validate:"max=256"`
}

// WeatherHandler answers the weather panel. The prediction is a stub:
// every location gets the configured risk tier and its advisory string.
// No weather service is contacted.
type WeatherHandler struct {
	cfg    config.WeatherConfig
	titler cases.Caser
	now    func() time.Time
	logger *zap.Logger
}

// NewWeatherHandler creates a weather handler using the wall clock.
func NewWeatherHandler(cfg config.WeatherConfig, logger *zap.Logger) *WeatherHandler {
	return NewWeatherHandlerWithClock(cfg, time.Now, logger)
}

// NewWeatherHandlerWithClock creates a weather handler with a fixed clock
// source, used by tests to pin the generated timestamp.
func NewWeatherHandlerWithClock(cfg config.WeatherConfig, now func() time.Time, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		cfg:    cfg,
		titler: cases.Title(language.Und),
		now:    now,
		logger: logger,
	}
}

func (h *WeatherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(zap.String("request_id", requestID))

	var req WeatherRequest
	if !decodeJSON(w, r, requestID, &req) {
		return
	}

	if err := validate.Struct(&req); err != nil || strings.TrimSpace(req.Location) == "" {
		writeReport(w, logger, "🌍 Error: Please enter a valid location.")
		return
	}

	tier := h.cfg.RiskTier
	text := fmt.Sprintf(`🌦️ Weather Prediction for %s
Risk Level: %s
%s

🕒 Generated: %s
⚠️ Always cross-check with local meteorological services`,
		h.titler.String(req.Location),
		tier,
		h.cfg.Advisories[tier],
		h.now().Format("2006-01-02 15:04:05"),
	)

	writeReport(w, logger, text)
}
