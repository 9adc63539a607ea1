// Package server assembles the EmergencyCore HTTP server: routing,
// middleware stack, the three panel handlers, and lifecycle management
// with configuration hot reload.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"emergencycore/completion"
	"emergencycore/config"
	"emergencycore/errors"
	"emergencycore/report"
	"emergencycore/server/handlers"
	"emergencycore/server/metrics"
	"emergencycore/server/middleware"
)

// Server is the HTTP server. The active router is swapped atomically when
// the configuration changes; the listener itself is never restarted, so a
// port change still requires a restart.
type Server struct {
	watcher    config.Watcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	handler    atomic.Value
	httpServer *http.Server
}

// NewServer creates a server from a config file path, watching the file
// for changes.
func NewServer(configPath string, logger *zap.Logger) (*Server, error) {
	watcher, err := config.NewConfigWatcher(configPath, logger)
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	return NewServerWithWatcher(watcher, logger)
}

// NewServerWithWatcher creates a server over an existing watcher. Tests
// use this with a StaticWatcher.
func NewServerWithWatcher(watcher config.Watcher, logger *zap.Logger) (*Server, error) {
	s := &Server{
		watcher: watcher,
		logger:  logger,
		metrics: metrics.NewMetrics(),
	}

	cfg := watcher.GetCurrentConfig()
	s.handler.Store(s.buildRouter(cfg))

	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        http.HandlerFunc(s.serveHTTP),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// serveHTTP dispatches to the currently active router.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.Load().(http.Handler).ServeHTTP(w, r)
}

// Handler returns the active router. Exposed for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveHTTP)
}

// buildRouter wires the middleware stack and the panel handlers for one
// configuration snapshot.
func (s *Server) buildRouter(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTimer)
	r.Use(errors.ErrorHandler(s.logger))
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.PrometheusMetrics(s.metrics))
	r.Use(middleware.CORS)

	builder := report.NewBuilder(cfg.Completion, s.logger)
	client := completion.NewClient(cfg.Completion, cfg.CircuitBreaker, s.logger)
	formatter := report.NewFormatter()

	analyze := handlers.NewAnalyzeHandler(builder, client, formatter, s.metrics, s.logger)
	weather := handlers.NewWeatherHandler(cfg.Weather, s.logger)
	image := handlers.NewImageHandler(s.logger)

	r.Post("/v1/reports/analyze", analyze.ServeHTTP)
	r.Post("/v1/weather", weather.ServeHTTP)
	r.Post("/v1/images", image.ServeHTTP)

	r.Get("/", serveIndex)
	r.Get("/health", handlers.Health)
	r.Handle("/metrics", s.metrics.Handler())

	return r
}

// Start runs the server until ctx is cancelled, applying configuration
// updates as they arrive. It blocks until shutdown completes.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	updates := s.watcher.Subscribe()

	g.Go(func() error {
		s.logger.Info("Server started", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(
					context.Background(),
					s.watcher.GetCurrentConfig().Server.ShutdownTimeout,
				)
				defer cancel()

				s.logger.Info("Shutting down server")
				if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				return nil

			case cfg, ok := <-updates:
				if !ok {
					updates = nil
					continue
				}
				s.handler.Store(s.buildRouter(cfg))
				s.logger.Info("Configuration applied",
					zap.String("provider", cfg.Completion.Provider),
					zap.String("model", cfg.Completion.Model),
				)
			}
		}
	})

	return g.Wait()
}
