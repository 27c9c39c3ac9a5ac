package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/audit"
)

// AuditHandler exposes the durable order-lifecycle audit trail.
type AuditHandler struct {
	log    *audit.Logger
	logger zerolog.Logger
}

func NewAuditHandler(log *audit.Logger, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{log: log, logger: logger}
}

// GetAuditLogs returns audit logs with optional filters.
// GET /api/v1/audit/logs
func (h *AuditHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := audit.QueryFilters{
		EventType:     audit.EventType(query.Get("event_type")),
		ClientOrderID: query.Get("client_order_id"),
		StrategyID:    query.Get("strategy_id"),
		Limit:         100,
	}
	if v := query.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.StartTime = t
		}
	}
	if v := query.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.EndTime = t
		}
	}
	if v := query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.Limit = n
		}
	}

	events, err := h.log.GetLogs(r.Context(), filters)
	if err != nil {
		h.logger.Error().Err(err).Msg("audit: query logs")
		writeError(w, http.StatusInternalServerError, "failed to retrieve audit logs")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
