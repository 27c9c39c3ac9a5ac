package domain

import "time"

// EventType tags the concrete type of an order-lifecycle Event, following
// the teacher's event.go tagged-event pattern.
type EventType string

const (
	EventTypeOrderEmulated     EventType = "order_emulated"
	EventTypeOrderInitialized  EventType = "order_initialized"
	EventTypeOrderReleased     EventType = "order_released"
	EventTypeOrderCanceled     EventType = "order_canceled"
	EventTypeOrderUpdated      EventType = "order_updated"
	EventTypeOrderRejected     EventType = "order_rejected"
	EventTypeOrderExpired      EventType = "order_expired"
	EventTypeOrderFilled       EventType = "order_filled"
)

// Event is the base interface satisfied by every order-lifecycle event.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	OrderID() string
	CorrelationID() string
}

// BaseEvent provides the common fields shared by every event. CorrID
// carries the correlation ID of the input whose handling emitted the
// event: the TradingCommand in Execute, or the market-data tick in
// OnQuoteTick/OnTradeTick, which each get a fresh ID. A contingency-driven
// cancel nested inside a command carries that command's ID; a GTD expiry
// found during a tick carries the tick's ID, not the ID of the command that
// submitted the order.
type BaseEvent struct {
	EvtType   EventType
	EvtTime   time.Time
	ClientOID string
	CorrID    string
}

func (e BaseEvent) Type() EventType      { return e.EvtType }
func (e BaseEvent) Timestamp() time.Time { return e.EvtTime }
func (e BaseEvent) OrderID() string      { return e.ClientOID }
func (e BaseEvent) CorrelationID() string { return e.CorrID }

// OrderEmulatedEvent marks an order's acceptance into a matching core.
type OrderEmulatedEvent struct {
	BaseEvent
	StrategyID   string
	InstrumentID string
}

func NewOrderEmulatedEvent(order *Order, ts time.Time, correlationID string) *OrderEmulatedEvent {
	return &OrderEmulatedEvent{
		BaseEvent:    BaseEvent{EvtType: EventTypeOrderEmulated, EvtTime: ts, ClientOID: order.ClientOrderID, CorrID: correlationID},
		StrategyID:   order.StrategyID,
		InstrumentID: order.InstrumentID,
	}
}

// OrderInitializedEvent is emitted for the transformed order when it is
// released, preceding OrderReleasedEvent.
type OrderInitializedEvent struct {
	BaseEvent
	StrategyID string
	OrderType  OrderType
	Side       Side
}

func NewOrderInitializedEvent(order *Order, ts time.Time, correlationID string) *OrderInitializedEvent {
	return &OrderInitializedEvent{
		BaseEvent:  BaseEvent{EvtType: EventTypeOrderInitialized, EvtTime: ts, ClientOID: order.ClientOrderID, CorrID: correlationID},
		StrategyID: order.StrategyID,
		OrderType:  order.OrderType,
		Side:       order.Side,
	}
}

// OrderReleasedEvent marks the transition from emulated to a routed order.
type OrderReleasedEvent struct {
	BaseEvent
	StrategyID    string
	ReleasedPrice Price
}

func NewOrderReleasedEvent(order *Order, releasedPrice Price, ts time.Time, correlationID string) *OrderReleasedEvent {
	return &OrderReleasedEvent{
		BaseEvent:     BaseEvent{EvtType: EventTypeOrderReleased, EvtTime: ts, ClientOID: order.ClientOrderID, CorrID: correlationID},
		StrategyID:    order.StrategyID,
		ReleasedPrice: releasedPrice,
	}
}

// OrderCanceledEvent marks a local cancellation.
type OrderCanceledEvent struct {
	BaseEvent
	StrategyID string
	Reason     string
}

func NewOrderCanceledEvent(order *Order, reason string, ts time.Time, correlationID string) *OrderCanceledEvent {
	return &OrderCanceledEvent{
		BaseEvent:  BaseEvent{EvtType: EventTypeOrderCanceled, EvtTime: ts, ClientOID: order.ClientOrderID, CorrID: correlationID},
		StrategyID: order.StrategyID,
		Reason:     reason,
	}
}

// OrderUpdatedEvent carries a quantity/leaves_qty/price change. Quantity
// is set when the order's total size changed; Leaves is set when only the
// unfilled remainder changed (e.g. a partial fill) — the two drive
// different OUO propagation paths.
type OrderUpdatedEvent struct {
	BaseEvent
	StrategyID string
	Quantity   *Quantity
	Leaves     *Quantity
	Price      *Price
	Trigger    *Price
}

func NewOrderUpdatedEvent(order *Order, ts time.Time, correlationID string) *OrderUpdatedEvent {
	return &OrderUpdatedEvent{
		BaseEvent:  BaseEvent{EvtType: EventTypeOrderUpdated, EvtTime: ts, ClientOID: order.ClientOrderID, CorrID: correlationID},
		StrategyID: order.StrategyID,
		Price:      order.Price,
		Trigger:    order.TriggerPrice,
	}
}

// OrderRejectedEvent and OrderFilledEvent model inbound downstream signals
// the Contingency Coordinator reacts to; the emulator itself never
// originates these, it only observes them when they are passed to
// Emulator.OnOrderEvent.
type OrderRejectedEvent struct {
	BaseEvent
	Reason string
}

type OrderFilledEvent struct {
	BaseEvent
	FilledQty   Quantity
	FillPrice   Price
	ExecSpawnID string
}

// OrderExpiredEvent marks a resting order whose good_till_date_ns elapsed
// while it was still being emulated; the emulator originates this itself
// from the matching core's GTD sweep (Iterate), unlike OrderRejectedEvent
// and OrderFilledEvent above, which only ever arrive as downstream
// signals.
type OrderExpiredEvent struct {
	BaseEvent
	StrategyID string
}

func NewOrderExpiredEvent(order *Order, ts time.Time, correlationID string) *OrderExpiredEvent {
	return &OrderExpiredEvent{
		BaseEvent:  BaseEvent{EvtType: EventTypeOrderExpired, EvtTime: ts, ClientOID: order.ClientOrderID, CorrID: correlationID},
		StrategyID: order.StrategyID,
	}
}
