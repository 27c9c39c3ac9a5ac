// Package metrics defines the Prometheus instrumentation surface for the
// emulator: HTTP admin-API metrics (grounded on the teacher's middleware)
// plus counters over the matching core's own activity, absent from the
// retrieved teacher pack and authored fresh here since none of its
// projects expose a domain-specific Prometheus registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// EmulatorMetrics is the full Prometheus registry for the process: the
// admin HTTP surface plus the command/event counters the component budget
// table tracks in Emulator state.
type EmulatorMetrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CommandsProcessedTotal *prometheus.CounterVec
	EventsEmittedTotal     *prometheus.CounterVec
	OrdersEmulatedGauge    *prometheus.GaugeVec
	TriggerLatencySeconds  prometheus.Histogram
	BusMessagesDroppedTotal *prometheus.CounterVec
}

// New registers and returns a fresh EmulatorMetrics on reg.
func New(reg prometheus.Registerer) *EmulatorMetrics {
	m := &EmulatorMetrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emulator_http_requests_total",
			Help: "Total HTTP requests to the admin API by method, path, and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emulator_http_request_duration_seconds",
			Help:    "HTTP request latency for the admin API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CommandsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emulator_commands_processed_total",
			Help: "Trading commands dispatched through Emulator.Execute, by command variant.",
		}, []string{"command"}),
		EventsEmittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emulator_events_emitted_total",
			Help: "Order-lifecycle events emitted, by event type.",
		}, []string{"event_type"}),
		OrdersEmulatedGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "emulator_orders_resting",
			Help: "Orders currently resting in a matching core, by instrument.",
		}, []string{"instrument_id"}),
		TriggerLatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emulator_trigger_latency_seconds",
			Help:    "Time from a market-data tick to a triggered release within MatchOrder.",
			Buckets: prometheus.DefBuckets,
		}),
		BusMessagesDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emulator_bus_messages_dropped_total",
			Help: "Messages dropped by the bus due to a full subscriber buffer, by topic.",
		}, []string{"topic"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CommandsProcessedTotal,
		m.EventsEmittedTotal,
		m.OrdersEmulatedGauge,
		m.TriggerLatencySeconds,
		m.BusMessagesDroppedTotal,
	)
	return m
}
