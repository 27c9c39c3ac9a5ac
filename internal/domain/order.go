package domain

// Side is the buy/sell direction of an order.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		panic("domain: invalid order side")
	}
}

// OrderType enumerates the order types the matching core understands.
type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
	OrderTypeMarketIfTouched
	OrderTypeLimitIfTouched
	OrderTypeTrailingStopMarket
	OrderTypeTrailingStopLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStopMarket:
		return "STOP_MARKET"
	case OrderTypeStopLimit:
		return "STOP_LIMIT"
	case OrderTypeMarketIfTouched:
		return "MARKET_IF_TOUCHED"
	case OrderTypeLimitIfTouched:
		return "LIMIT_IF_TOUCHED"
	case OrderTypeTrailingStopMarket:
		return "TRAILING_STOP_MARKET"
	case OrderTypeTrailingStopLimit:
		return "TRAILING_STOP_LIMIT"
	default:
		panic("domain: invalid order type")
	}
}

// HasStopLeg reports whether the order type is triggered by a stop/touch
// condition before (possibly) resting as a limit.
func (t OrderType) HasStopLeg() bool {
	switch t {
	case OrderTypeStopMarket, OrderTypeStopLimit, OrderTypeMarketIfTouched,
		OrderTypeLimitIfTouched, OrderTypeTrailingStopMarket, OrderTypeTrailingStopLimit:
		return true
	default:
		return false
	}
}

// HasLimitLeg reports whether the order type, once its stop leg (if any)
// fires, is evaluated against a resting limit price.
func (t OrderType) HasLimitLeg() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStopLimit, OrderTypeLimitIfTouched, OrderTypeTrailingStopLimit:
		return true
	default:
		return false
	}
}

func (t OrderType) IsTrailing() bool {
	return t == OrderTypeTrailingStopMarket || t == OrderTypeTrailingStopLimit
}

// OrderStatus is the order lifecycle state.
type OrderStatus int

const (
	OrderStatusInitialized OrderStatus = iota
	OrderStatusEmulated
	OrderStatusReleased
	OrderStatusPendingCancel
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusExpired
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInitialized:
		return "INITIALIZED"
	case OrderStatusEmulated:
		return "EMULATED"
	case OrderStatusReleased:
		return "RELEASED"
	case OrderStatusPendingCancel:
		return "PENDING_CANCEL"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCanceled:
		return "CANCELED"
	case OrderStatusExpired:
		return "EXPIRED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		panic("domain: invalid order status")
	}
}

func (s OrderStatus) IsOpen() bool {
	switch s {
	case OrderStatusInitialized, OrderStatusEmulated, OrderStatusReleased, OrderStatusPendingCancel:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsClosed() bool { return !s.IsOpen() }

// EmulationTrigger is the price-signal class a resting emulated order is
// watched against.
type EmulationTrigger int

const (
	TriggerNone EmulationTrigger = iota
	TriggerDefault
	TriggerBidAsk
	TriggerLastTrade
	// TriggerUnsupported is a catch-all for any trigger mode outside the
	// supported set, used only to drive the UnsupportedTrigger rejection
	// path; it never appears on an order that made it into a core.
	TriggerUnsupported
)

func (t EmulationTrigger) IsSupported() bool {
	return t == TriggerDefault || t == TriggerBidAsk || t == TriggerLastTrade
}

func (t EmulationTrigger) String() string {
	switch t {
	case TriggerNone:
		return "NO_TRIGGER"
	case TriggerDefault:
		return "DEFAULT"
	case TriggerBidAsk:
		return "BID_ASK"
	case TriggerLastTrade:
		return "LAST_TRADE"
	default:
		return "UNSUPPORTED"
	}
}

// ContingencyType classifies how an order is linked to others in its group.
type ContingencyType int

const (
	ContingencyNone ContingencyType = iota
	ContingencyOTO
	ContingencyOCO
	ContingencyOUO
)

func (c ContingencyType) String() string {
	switch c {
	case ContingencyNone:
		return "NO_CONTINGENCY"
	case ContingencyOTO:
		return "OTO"
	case ContingencyOCO:
		return "OCO"
	case ContingencyOUO:
		return "OUO"
	default:
		panic("domain: invalid contingency type")
	}
}

// Order is the mutable order record the emulator and matching cores operate
// on by reference. The cache collaborator is the order's conceptual owner;
// the emulator mutates it only through the documented paths.
type Order struct {
	ClientOrderID       string
	StrategyID          string
	TraderID            string
	InstrumentID        string
	TriggerInstrumentID string // defaults to InstrumentID when empty

	Side      Side
	OrderType OrderType

	Quantity  Quantity
	FilledQty Quantity

	Price        *Price
	TriggerPrice *Price

	// Trailing-stop geometry. Absent from spec.md's Data Model; added
	// here to carry the offsets the trailing calculator ratchets against.
	TrailingOffset *Price
	LimitOffset    *Price

	Status           OrderStatus
	EmulationTrigger EmulationTrigger

	ContingencyType ContingencyType
	LinkedOrderIDs  []string
	ParentOrderID   string

	ExecAlgorithmID string
	ExecSpawnID     string

	// ExpireTimeNs is the GTD expiration the matching core's Iterate
	// checks against the clock; nil means no expiry (GTC).
	ExpireTimeNs *int64

	TsInit int64 // nanoseconds
}

// LeavesQty is the unfilled remainder of Quantity.
func (o *Order) LeavesQty() Quantity {
	return o.Quantity.Sub(o.FilledQty)
}

// EffectiveTriggerInstrument returns the instrument the matching core keys
// this order under.
func (o *Order) EffectiveTriggerInstrument() string {
	if o.TriggerInstrumentID != "" {
		return o.TriggerInstrumentID
	}
	return o.InstrumentID
}

// SubmitOrder is the command the emulator caches from acceptance until
// release or cancel, preserving routing metadata across transformation.
type SubmitOrder struct {
	Order      *Order
	PositionID string
	ClientID   string
	StrategyID string
	TraderID   string
}

// SubmitOrderList carries an ordered batch of orders, some of which may be
// linked by OTO contingency to a primary in the same list.
type SubmitOrderList struct {
	Orders     []*SubmitOrder
	PositionID string
	ClientID   string
}

// ModifyOrder requests a price/trigger_price/quantity change; absent
// fields are left nil and filled from the existing order.
type ModifyOrder struct {
	ClientOrderID string
	Price         *Price
	TriggerPrice  *Price
	Quantity      *Quantity
}

// CancelOrder targets a single order by client_order_id.
type CancelOrder struct {
	ClientOrderID string
}

// CancelAllOrders cancels every order for an instrument, optionally
// filtered by side.
type CancelAllOrders struct {
	InstrumentID string
	Side         *Side
}

// TradingCommand is the tagged union accepted by Emulator.Execute. Exactly
// one field is non-nil. CorrelationID identifies the command for tracing
// through to every event it produces; callers may set it (e.g. to carry a
// correlation ID from an upstream request) and Execute stamps one in if
// left blank.
type TradingCommand struct {
	SubmitOrder     *SubmitOrder
	SubmitOrderList *SubmitOrderList
	ModifyOrder     *ModifyOrder
	CancelOrder     *CancelOrder
	CancelAllOrders *CancelAllOrders
	CorrelationID   string
}

// QuoteTick is an inbound bid/ask update for an instrument.
type QuoteTick struct {
	InstrumentID string
	Bid          Price
	Ask          Price
	TsEvent      int64
}

// TradeTick is an inbound last-trade update for an instrument.
type TradeTick struct {
	InstrumentID string
	Price        Price
	Size         Quantity
	TsEvent      int64
}
