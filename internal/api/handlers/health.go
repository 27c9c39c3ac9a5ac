package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Pinger is the minimal health-check surface a cache backend exposes.
type Pinger interface {
	Ping() error
}

// HealthHandler reports process and cache-backend health.
type HealthHandler struct {
	db     Pinger
	logger zerolog.Logger
}

func NewHealthHandler(db Pinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Handle responds 200 with component status, or 503 if the cache backend
// is unreachable.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	components := map[string]string{"cache": "ok"}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Warn().Err(err).Msg("health: cache backend unreachable")
			components["cache"] = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
	})
}
