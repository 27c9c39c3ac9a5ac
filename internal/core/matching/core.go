// Package matching holds the per-instrument trigger/matching engine: the
// largest single component, responsible for resting emulated orders,
// tracking bid/ask/last price state, and firing the three trigger
// transitions a resting order can undergo.
package matching

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/domain"
)

// Sink is the callback contract a MatchingCore dispatches into: the three
// trigger callbacks, fired when an order's trigger condition is met, plus
// Expire for the GTD sweep. Modeling it as an interface (rather
// than a back-pointer to the emulator) avoids a core/owner reference
// cycle, per the design note on callback wiring.
type Sink interface {
	// TriggerStop fires once, the first time a STOP_LIMIT-family order's
	// stop leg condition is satisfied; the order is then evaluated
	// against its limit leg in the same pass.
	TriggerStop(order *domain.Order)
	// FillMarket fires for STOP_MARKET/MARKET_IF_TOUCHED/TRAILING_STOP_MARKET.
	FillMarket(order *domain.Order)
	// FillLimit fires for MARKET/LIMIT (the plain path) and for the limit
	// leg of STOP_LIMIT/LIMIT_IF_TOUCHED/TRAILING_STOP_LIMIT once armed.
	FillLimit(order *domain.Order)
	// Expire fires once, when Iterate finds a resting order whose GTD has
	// passed. The core has already removed the order from its book by
	// the time this is called; the sink owns everything downstream of
	// that (cache, events, contingency).
	Expire(order *domain.Order)
}

// TrailingUpdater recomputes an order's trigger/limit geometry against
// current price state; it is the Trailing Stop Calculator's pure function,
// injected rather than imported so the core stays decoupled from it.
type TrailingUpdater func(priceIncrement domain.Price, order *domain.Order, bid, ask, last domain.Price, bidInit, askInit, lastInit bool) (newTrigger *domain.Price, newPrice *domain.Price, err error)

// Core is the per-(trigger-)instrument matching state engine.
type Core struct {
	InstrumentID   string
	PriceIncrement domain.Price

	bidRaw, askRaw, lastRaw                int64
	bidInitialized, askInitialized, lastInitialized bool

	bidOrders []*domain.Order // descending by trigger/limit price, best first
	askOrders []*domain.Order // ascending

	index     map[string]*domain.Order
	triggered map[string]bool // stop leg already fired, for STOP_LIMIT family

	sink            Sink
	trailingUpdater TrailingUpdater
	logger          zerolog.Logger
}

// New constructs a Core bound to its callback sink.
func New(instrumentID string, priceIncrement domain.Price, sink Sink, trailingUpdater TrailingUpdater, logger zerolog.Logger) *Core {
	return &Core{
		InstrumentID:    instrumentID,
		PriceIncrement:  priceIncrement,
		index:           make(map[string]*domain.Order),
		triggered:       make(map[string]bool),
		sink:            sink,
		trailingUpdater: trailingUpdater,
		logger:          logger,
	}
}

// AddOrder places order into its side list (maintaining sort order) and
// the client_order_id index. Rejects (no-op) if already present.
func (c *Core) AddOrder(order *domain.Order) bool {
	if _, exists := c.index[order.ClientOrderID]; exists {
		return false
	}
	c.index[order.ClientOrderID] = order
	if order.Side == domain.SideBuy {
		c.bidOrders = append(c.bidOrders, order)
		c.SortBidOrders()
	} else {
		c.askOrders = append(c.askOrders, order)
		c.SortAskOrders()
	}
	return true
}

// DeleteOrder removes order from its side list and the index. No-op if
// absent.
func (c *Core) DeleteOrder(order *domain.Order) {
	if _, exists := c.index[order.ClientOrderID]; !exists {
		return
	}
	delete(c.index, order.ClientOrderID)
	delete(c.triggered, order.ClientOrderID)
	if order.Side == domain.SideBuy {
		c.bidOrders = removeOrder(c.bidOrders, order.ClientOrderID)
	} else {
		c.askOrders = removeOrder(c.askOrders, order.ClientOrderID)
	}
}

func removeOrder(list []*domain.Order, cid string) []*domain.Order {
	for i, o := range list {
		if o.ClientOrderID == cid {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (c *Core) OrderExists(cid string) bool {
	_, ok := c.index[cid]
	return ok
}

func (c *Core) GetOrders() []*domain.Order {
	out := make([]*domain.Order, 0, len(c.index))
	out = append(out, c.bidOrders...)
	out = append(out, c.askOrders...)
	return out
}

func (c *Core) GetOrdersBid() []*domain.Order { return c.bidOrders }
func (c *Core) GetOrdersAsk() []*domain.Order { return c.askOrders }

func (c *Core) SetBidRaw(raw int64) {
	c.bidRaw = raw
	c.bidInitialized = true
}

func (c *Core) SetAskRaw(raw int64) {
	c.askRaw = raw
	c.askInitialized = true
}

func (c *Core) SetLastRaw(raw int64) {
	c.lastRaw = raw
	c.lastInitialized = true
}

func (c *Core) bid() domain.Price  { return domain.PriceFromRaw(c.bidRaw, c.PriceIncrement.Precision()) }
func (c *Core) ask() domain.Price  { return domain.PriceFromRaw(c.askRaw, c.PriceIncrement.Precision()) }
func (c *Core) last() domain.Price { return domain.PriceFromRaw(c.lastRaw, c.PriceIncrement.Precision()) }

// BidPrice, AskPrice, and LastPrice expose the core's current reference
// price state to callers outside the package (the emulator needs them to
// stamp released_price and to seed the trailing calculator).
func (c *Core) BidPrice() domain.Price  { return c.bid() }
func (c *Core) AskPrice() domain.Price  { return c.ask() }
func (c *Core) LastPrice() domain.Price { return c.last() }

func (c *Core) BidInitialized() bool  { return c.bidInitialized }
func (c *Core) AskInitialized() bool  { return c.askInitialized }
func (c *Core) LastInitialized() bool { return c.lastInitialized }

// SortBidOrders restores descending-by-trigger-price order after a price
// modification.
func (c *Core) SortBidOrders() {
	sort.SliceStable(c.bidOrders, func(i, j int) bool {
		return c.sortKey(c.bidOrders[i]).GreaterThan(c.sortKey(c.bidOrders[j]))
	})
}

// SortAskOrders restores ascending-by-trigger-price order.
func (c *Core) SortAskOrders() {
	sort.SliceStable(c.askOrders, func(i, j int) bool {
		return c.sortKey(c.askOrders[i]).LessThan(c.sortKey(c.askOrders[j]))
	})
}

// sortKey is the price the side list is ordered by: trigger_price when
// present (stop-family orders), else price (plain limit orders).
func (c *Core) sortKey(o *domain.Order) domain.Price {
	if o.TriggerPrice != nil {
		return *o.TriggerPrice
	}
	if o.Price != nil {
		return *o.Price
	}
	return domain.PriceFromRaw(0, c.PriceIncrement.Precision())
}

// isStopTriggered evaluates the stop/touch leg for stop-family order
// types against current price state.
func (c *Core) isStopTriggered(o *domain.Order) bool {
	if o.TriggerPrice == nil {
		return false
	}
	useLast := o.EmulationTrigger == domain.TriggerLastTrade
	switch o.Side {
	case domain.SideBuy:
		if useLast {
			if !c.lastInitialized {
				return false
			}
			return c.last().GreaterOrEqual(*o.TriggerPrice)
		}
		if !c.askInitialized {
			return false
		}
		return c.ask().GreaterOrEqual(*o.TriggerPrice)
	case domain.SideSell:
		if useLast {
			if !c.lastInitialized {
				return false
			}
			return c.last().LessOrEqual(*o.TriggerPrice)
		}
		if !c.bidInitialized {
			return false
		}
		return c.bid().LessOrEqual(*o.TriggerPrice)
	default:
		panic("matching: invalid order side")
	}
}

// isLimitTriggered evaluates the limit leg (or a plain LIMIT order)
// against current price state.
func (c *Core) isLimitTriggered(o *domain.Order) bool {
	if o.Price == nil {
		return false
	}
	switch o.Side {
	case domain.SideBuy:
		if !c.askInitialized {
			return false
		}
		return c.ask().LessOrEqual(*o.Price)
	case domain.SideSell:
		if !c.bidInitialized {
			return false
		}
		return c.bid().GreaterOrEqual(*o.Price)
	default:
		panic("matching: invalid order side")
	}
}

// MatchOrder classifies a single order against current price state and,
// if triggerable, invokes the appropriate sink callback synchronously.
// initial=true is the submission-time check that honors an immediately
// marketable order without waiting for the next tick.
func (c *Core) MatchOrder(o *domain.Order, initial bool) {
	switch o.OrderType {
	case domain.OrderTypeMarket:
		c.sink.FillLimit(o)
		return

	case domain.OrderTypeLimit:
		if c.isLimitTriggered(o) {
			c.sink.FillLimit(o)
		}
		return

	case domain.OrderTypeStopMarket, domain.OrderTypeMarketIfTouched, domain.OrderTypeTrailingStopMarket:
		if c.isStopTriggered(o) {
			c.sink.FillMarket(o)
		}
		return

	case domain.OrderTypeStopLimit, domain.OrderTypeLimitIfTouched, domain.OrderTypeTrailingStopLimit:
		if !c.triggered[o.ClientOrderID] {
			if !c.isStopTriggered(o) {
				return
			}
			c.triggered[o.ClientOrderID] = true
			c.sink.TriggerStop(o)
		}
		if c.isLimitTriggered(o) {
			c.sink.FillLimit(o)
		}
		return

	default:
		panic("matching: invalid order type")
	}
}

// Iterate scans resting orders: recomputes trailing-stop geometry, fires
// matured triggers, and expires orders whose GTD has passed now_ns. O(n)
// over every resting order in the core per tick; see the design notes for
// the intended indexing improvement.
func (c *Core) Iterate(nowNs uint64) {
	for _, o := range c.GetOrders() {
		if o.ExpireTimeNs != nil && uint64(*o.ExpireTimeNs) <= nowNs {
			c.DeleteOrder(o)
			c.sink.Expire(o)
			continue
		}

		if o.OrderType.IsTrailing() && c.trailingUpdater != nil {
			newTrigger, newPrice, err := c.trailingUpdater(c.PriceIncrement, o, c.bid(), c.ask(), c.last(), c.bidInitialized, c.askInitialized, c.lastInitialized)
			if err != nil {
				c.logger.Warn().Err(err).Str("client_order_id", o.ClientOrderID).Msg("matching: trailing stop update failed, keeping prior trigger")
			} else {
				changed := false
				if newTrigger != nil {
					o.TriggerPrice = newTrigger
					changed = true
				}
				if newPrice != nil {
					o.Price = newPrice
					changed = true
				}
				if changed {
					if o.Side == domain.SideBuy {
						c.SortBidOrders()
					} else {
						c.SortAskOrders()
					}
				}
			}
		}

		c.MatchOrder(o, false)
	}
}
