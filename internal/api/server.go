// Package api is the emulator's admin HTTP surface: health, Prometheus
// metrics, a read-only state snapshot, the order-lifecycle audit trail,
// and operator auth — never order entry, which arrives over the message
// bus per the concurrency model, not HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/api/handlers"
	"github.com/pi5trading/order-emulator/internal/audit"
	"github.com/pi5trading/order-emulator/internal/auth"
	"github.com/pi5trading/order-emulator/internal/config"
	ownmetrics "github.com/pi5trading/order-emulator/internal/metrics"
)

// Server wraps the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	logger zerolog.Logger
}

// NewServer wires the admin HTTP surface.
func NewServer(
	cfg *config.ServerConfig,
	authCfg *config.AuthConfig,
	db handlers.Pinger,
	snapshot handlers.EmulatorSnapshot,
	auditLog *audit.Logger,
	m *ownmetrics.EmulatorMetrics,
	logger zerolog.Logger,
) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(ownmetrics.HTTPMetricsMiddleware(m))

	jwtService := auth.NewJWTService(authCfg.JWTSecret, logger)
	authHandler := handlers.NewAuthHandler(jwtService, authCfg.OperatorUser, authCfg.OperatorPassKey, logger)
	healthHandler := handlers.NewHealthHandler(db, logger)
	snapshotHandler := handlers.NewSnapshotHandler(snapshot, logger)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtService, logger))

		r.Get("/snapshot", snapshotHandler.Handle)

		if auditLog != nil {
			auditHandler := handlers.NewAuditHandler(auditLog, logger)
			r.Get("/audit/logs", auditHandler.GetAuditLogs)
		}
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{router: r, server: httpServer, logger: logger}
}

// Start runs the HTTP server, blocking until it stops.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting admin HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down admin HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: shutdown server: %w", err)
	}
	return nil
}

// JWTAuthMiddleware gates a route group behind a valid operator JWT.
func JWTAuthMiddleware(jwtService *auth.JWTService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authz, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if _, err := jwtService.ValidateToken(token); err != nil {
				logger.Debug().Err(err).Msg("api: rejected invalid token")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs HTTP requests using zerolog.
func LoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("admin http request")
		})
	}
}
