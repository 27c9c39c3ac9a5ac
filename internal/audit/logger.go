// Package audit persists a record of the order-lifecycle transitions the
// emulator drives to Postgres. Events reach it through the bus's audit
// topic, which is delivered non-blocking like every other topic, so an
// event is dropped when that subscriber's buffer is full; a failed insert
// is logged and not retried.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// EventType narrows audit.EventType to the order-lifecycle transitions and
// operational milestones the emulator itself can originate.
type EventType string

const (
	EventTypeOrderEmulated  EventType = "order_emulated"
	EventTypeOrderReleased  EventType = "order_released"
	EventTypeOrderCanceled  EventType = "order_canceled"
	EventTypeOrderRejected  EventType = "order_rejected"
	EventTypeOrderExpired   EventType = "order_expired"
	EventTypeOrderUpdated   EventType = "order_updated"
	EventTypeSystemStart    EventType = "system_start"
	EventTypeSystemStop     EventType = "system_stop"
	EventTypeReactivation   EventType = "reactivation"
)

// Event is a single audit log entry.
type Event struct {
	ID            string                 `json:"id" db:"id"`
	EventType     EventType              `json:"event_type" db:"event_type"`
	Timestamp     time.Time              `json:"timestamp" db:"timestamp"`
	ClientOrderID string                 `json:"client_order_id,omitempty" db:"client_order_id"`
	StrategyID    string                 `json:"strategy_id,omitempty" db:"strategy_id"`
	Status        string                 `json:"status" db:"status"`
	Details       map[string]interface{} `json:"details,omitempty" db:"details"`
	ErrorMsg      string                 `json:"error_msg,omitempty" db:"error_msg"`
}

// Logger writes audit events to Postgres.
type Logger struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewLogger(pool *pgxpool.Pool, logger zerolog.Logger) *Logger {
	return &Logger{pool: pool, logger: logger}
}

// InitSchema creates the audit_log table.
func (l *Logger) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			client_order_id TEXT,
			strategy_id TEXT,
			status TEXT NOT NULL,
			details JSONB,
			error_msg TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_log_event_type ON audit_log(event_type);
		CREATE INDEX IF NOT EXISTS idx_audit_log_client_order_id ON audit_log(client_order_id);
	`
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("audit: init schema: %w", err)
	}
	l.logger.Info().Msg("audit: schema initialized")
	return nil
}

// Log writes evt, generating an id and timestamp when absent.
func (l *Logger) Log(ctx context.Context, evt *Event) {
	if evt.ID == "" {
		evt.ID = fmt.Sprintf("%d-%s", time.Now().UnixNano(), evt.ClientOrderID)
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.Status == "" {
		evt.Status = "success"
	}

	var detailsJSON []byte
	if evt.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(evt.Details)
		if err != nil {
			l.logger.Warn().Err(err).Msg("audit: marshal details")
			detailsJSON = []byte("{}")
		}
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO audit_log (id, event_type, timestamp, client_order_id, strategy_id, status, details, error_msg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, evt.ID, evt.EventType, evt.Timestamp, evt.ClientOrderID, evt.StrategyID, evt.Status, detailsJSON, evt.ErrorMsg)
	if err != nil {
		l.logger.Error().Err(err).Str("event_type", string(evt.EventType)).Msg("audit: write event")
	}
}

// QueryFilters narrows a GetLogs query.
type QueryFilters struct {
	EventType     EventType
	ClientOrderID string
	StrategyID    string
	StartTime     time.Time
	EndTime       time.Time
	Limit         int
}

// GetLogs queries audit_log with the given filters, newest first.
func (l *Logger) GetLogs(ctx context.Context, filters QueryFilters) ([]*Event, error) {
	query := `
		SELECT id, event_type, timestamp, client_order_id, strategy_id, status, details, error_msg
		FROM audit_log WHERE 1=1
	`
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if filters.EventType != "" {
		add("event_type =", filters.EventType)
	}
	if filters.ClientOrderID != "" {
		add("client_order_id =", filters.ClientOrderID)
	}
	if filters.StrategyID != "" {
		add("strategy_id =", filters.StrategyID)
	}
	if !filters.StartTime.IsZero() {
		add("timestamp >=", filters.StartTime)
	}
	if !filters.EndTime.IsZero() {
		add("timestamp <=", filters.EndTime)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d", limit)

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query logs: %w", err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		evt := &Event{}
		var detailsJSON []byte
		if err := rows.Scan(&evt.ID, &evt.EventType, &evt.Timestamp, &evt.ClientOrderID, &evt.StrategyID, &evt.Status, &detailsJSON, &evt.ErrorMsg); err != nil {
			l.logger.Warn().Err(err).Msg("audit: scan row")
			continue
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &evt.Details); err != nil {
				l.logger.Warn().Err(err).Msg("audit: unmarshal details")
			}
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}
