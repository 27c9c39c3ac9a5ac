// Package emulator is the top-level Order Emulator: command intake,
// market-data intake, lifecycle management, event emission, and routing.
// It performs no internal parallelism and takes no locks; all execution is
// serialized by its hosting goroutine (see cmd/emulator), which is the
// sole writer into it.
package emulator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/bus"
	"github.com/pi5trading/order-emulator/internal/cache"
	"github.com/pi5trading/order-emulator/internal/clock"
	"github.com/pi5trading/order-emulator/internal/core/contingency"
	"github.com/pi5trading/order-emulator/internal/core/matching"
	"github.com/pi5trading/order-emulator/internal/core/trailing"
	"github.com/pi5trading/order-emulator/internal/core/transform"
	"github.com/pi5trading/order-emulator/internal/domain"
	"github.com/pi5trading/order-emulator/internal/marketdata"
	"github.com/pi5trading/order-emulator/internal/metrics"
)

// Emulator is the stateful trigger/matching engine plus contingent-order
// coordination protocol described by the component budget table: it owns
// the set of per-instrument matching cores, the command cache, and the
// subscription bookkeeping, and wires itself as the matching.Sink and
// contingency.Armer its two collaborating packages dispatch into.
type Emulator struct {
	cache cache.Cache
	feed  marketdata.Feed
	egress *bus.Egress
	clock clock.Clock
	logger zerolog.Logger

	cores        map[string]*matching.Core // keyed by trigger instrument_id
	commandCache map[string]*domain.SubmitOrder
	quoteSubs    map[string]bool
	tradeSubs    map[string]bool
	strategySubs map[string]bool
	positionIDs  map[string]bool

	commandCount uint64
	eventCount   uint64

	// currentCorrelationID is the correlation ID of whatever is presently
	// dispatching — a TradingCommand in Execute, or a market-data tick in
	// OnQuoteTick/OnTradeTick — so every event emitted while handling it
	// carries a traceable ID.
	currentCorrelationID string

	lastTickAt time.Time

	metrics     *metrics.EmulatorMetrics
	contingency *contingency.Coordinator
}

// New constructs an Emulator bound to its collaborators. m may be nil, in
// which case no Prometheus instrumentation is recorded. The Contingency
// Coordinator is attached after construction via AttachContingency since
// it in turn needs the Emulator as its Armer.
func New(c cache.Cache, feed marketdata.Feed, eg *bus.Egress, clk clock.Clock, m *metrics.EmulatorMetrics, logger zerolog.Logger) *Emulator {
	return &Emulator{
		cache:        c,
		feed:         feed,
		egress:       eg,
		clock:        clk,
		metrics:      m,
		logger:       logger,
		cores:        make(map[string]*matching.Core),
		commandCache: make(map[string]*domain.SubmitOrder),
		quoteSubs:    make(map[string]bool),
		tradeSubs:    make(map[string]bool),
		strategySubs: make(map[string]bool),
		positionIDs:  make(map[string]bool),
	}
}

// AttachContingency wires the Contingency Coordinator, which needs the
// Emulator itself as its Armer.
func (e *Emulator) AttachContingency(co *contingency.Coordinator) {
	e.contingency = co
}

// CommandCount and EventCount expose the counters in Emulator state for
// operational visibility (the admin snapshot endpoint reads these).
func (e *Emulator) CommandCount() uint64 { return e.commandCount }
func (e *Emulator) EventCount() uint64   { return e.eventCount }
func (e *Emulator) CoreCount() int       { return len(e.cores) }

func (e *Emulator) now() time.Time { return time.Unix(0, int64(e.clock.TimestampNs())) }

// Execute classifies a TradingCommand by variant and dispatches it.
func (e *Emulator) Execute(cmd *domain.TradingCommand) {
	e.commandCount++
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.New().String()
	}
	e.currentCorrelationID = cmd.CorrelationID
	variant := "unknown"
	switch {
	case cmd.SubmitOrder != nil:
		variant = "submit_order"
		e.handleSubmitOrder(cmd.SubmitOrder)
	case cmd.SubmitOrderList != nil:
		variant = "submit_order_list"
		e.handleSubmitOrderList(cmd.SubmitOrderList)
	case cmd.ModifyOrder != nil:
		variant = "modify_order"
		e.handleModifyOrder(cmd.ModifyOrder)
	case cmd.CancelOrder != nil:
		variant = "cancel_order"
		e.handleCancelOrder(cmd.CancelOrder)
	case cmd.CancelAllOrders != nil:
		variant = "cancel_all_orders"
		e.handleCancelAllOrders(cmd.CancelAllOrders)
	default:
		e.logger.Error().Msg("emulator: command with no variant set")
	}
	if e.metrics != nil {
		e.metrics.CommandsProcessedTotal.WithLabelValues(variant).Inc()
	}
}

// publishEvent is the single point every order-lifecycle event passes
// through: it counts the event both in Emulator's own counter and, when
// instrumented, in the Prometheus registry, before publishing it.
func (e *Emulator) publishEvent(strategyID string, evt domain.Event) {
	e.egress.PublishOrderEvent(strategyID, evt)
	e.eventCount++
	if e.metrics != nil {
		e.metrics.EventsEmittedTotal.WithLabelValues(string(evt.Type())).Inc()
	}
}

// setCoreGauge reports the number of orders resting in core to the
// per-instrument Prometheus gauge.
func (e *Emulator) setCoreGauge(instID string, core *matching.Core) {
	if e.metrics == nil {
		return
	}
	e.metrics.OrdersEmulatedGauge.WithLabelValues(instID).Set(float64(len(core.GetOrders())))
}

// handleSubmitOrder is the §4.3 SubmitOrder path.
func (e *Emulator) handleSubmitOrder(so *domain.SubmitOrder) {
	order := so.Order

	if order.EmulationTrigger == domain.TriggerNone {
		e.egress.SendToRiskEngine(&domain.TradingCommand{SubmitOrder: so})
		return
	}

	if !order.EmulationTrigger.IsSupported() {
		e.logger.Error().
			Str("client_order_id", order.ClientOrderID).
			Str("trigger", order.EmulationTrigger.String()).
			Msg("emulator: unsupported emulation trigger, canceling")
		e.cancelLocally(order, ErrUnsupportedTrigger.Error())
		return
	}

	e.strategySubs[order.StrategyID] = true
	if so.PositionID != "" {
		e.positionIDs[so.PositionID] = true
	}

	triggerInstID := order.EffectiveTriggerInstrument()
	priceIncrement, ok := e.resolveTriggerInstrument(triggerInstID, order.InstrumentID)
	if !ok {
		e.logger.Error().
			Str("client_order_id", order.ClientOrderID).
			Str("instrument_id", triggerInstID).
			Msg("emulator: unknown instrument or synthetic, canceling")
		e.cancelLocally(order, ErrUnknownInstrument.Error())
		return
	}

	core := e.getOrCreateCore(triggerInstID, priceIncrement)

	if order.OrderType.IsTrailing() {
		if !e.runInitialTrailingUpdate(core, order) {
			return // canceled: trailing stop with no trigger and no market data
		}
	}

	e.commandCache[order.ClientOrderID] = so
	core.MatchOrder(order, true)

	if _, stillCached := e.commandCache[order.ClientOrderID]; !stillCached {
		// Released synchronously during initial match; the release path
		// already emitted its events and popped the cache entry. The
		// re-entrancy guard: skip emulation-event emission entirely.
		return
	}

	switch order.EmulationTrigger {
	case domain.TriggerLastTrade:
		e.subscribeTrade(triggerInstID)
	default:
		e.subscribeQuote(triggerInstID)
	}

	order.Status = domain.OrderStatusEmulated
	evt := domain.NewOrderEmulatedEvent(order, e.now(), e.currentCorrelationID)
	e.publishEvent(order.StrategyID, evt)
	if err := e.cache.AddOrder(order, so.PositionID, so.ClientID, true); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: add order on emulation")
	}
	e.egress.SendRiskEvent(evt)

	core.AddOrder(order)
	e.setCoreGauge(triggerInstID, core)
}

// runInitialTrailingUpdate runs the trailing calculation once at
// submission. Returns false if the order was canceled (no trigger price
// and no market data available).
func (e *Emulator) runInitialTrailingUpdate(core *matching.Core, order *domain.Order) bool {
	newTrigger, newPrice, err := trailing.Calculate(
		core.PriceIncrement, order,
		core.BidPrice(), core.AskPrice(), core.LastPrice(),
		core.BidInitialized(), core.AskInitialized(), core.LastInitialized(),
	)
	if err != nil {
		if order.TriggerPrice == nil {
			e.logger.Warn().Err(err).Str("client_order_id", order.ClientOrderID).
				Msg("emulator: trailing stop submitted with no trigger and no market data, canceling")
			e.cancelLocally(order, ErrInsufficientMarketData.Error())
			return false
		}
		e.logger.Warn().Err(err).Str("client_order_id", order.ClientOrderID).
			Msg("emulator: trailing stop update failed at submission, keeping prior trigger")
		return true
	}
	if newTrigger != nil {
		order.TriggerPrice = newTrigger
	}
	if newPrice != nil {
		order.Price = newPrice
	}
	return true
}

// resolveTriggerInstrument resolves triggerInstID to a price_increment,
// looking at a synthetic definition first when the instrument itself
// isn't found directly, falling back to the underlying instrument's
// increment.
func (e *Emulator) resolveTriggerInstrument(triggerInstID, underlyingInstID string) (domain.Price, bool) {
	if inst, ok := e.cache.Instrument(triggerInstID); ok {
		return inst.PriceIncrement, true
	}
	if _, ok := e.cache.Synthetic(triggerInstID); ok {
		if inst, ok := e.cache.Instrument(underlyingInstID); ok {
			return inst.PriceIncrement, true
		}
		return domain.NewPrice(0.01, 2), true
	}
	return domain.Price{}, false
}

// getOrCreateCore lazily constructs a core for instID, seeding it from
// any market data already known to the cache (so reactivation and
// late-arriving submissions see the last observed prices immediately).
func (e *Emulator) getOrCreateCore(instID string, priceIncrement domain.Price) *matching.Core {
	if core, ok := e.cores[instID]; ok {
		return core
	}
	core := matching.New(instID, priceIncrement, e, trailing.Calculate, e.logger)
	if q, ok := e.cache.QuoteTick(instID); ok {
		core.SetBidRaw(q.Bid.Raw())
		core.SetAskRaw(q.Ask.Raw())
	}
	if t, ok := e.cache.TradeTick(instID); ok {
		core.SetLastRaw(t.Price.Raw())
	}
	e.cores[instID] = core
	return core
}

// handleSubmitOrderList is the §4.3 SubmitOrderList path: orders whose
// parent has OTO contingency are deferred, only the primary is armed now.
func (e *Emulator) handleSubmitOrderList(list *domain.SubmitOrderList) {
	byID := make(map[string]*domain.SubmitOrder, len(list.Orders))
	for _, so := range list.Orders {
		byID[so.Order.ClientOrderID] = so
	}

	for _, so := range list.Orders {
		order := so.Order
		if order.ParentOrderID != "" {
			if parent, ok := byID[order.ParentOrderID]; ok && parent.Order.ContingencyType == domain.ContingencyOTO {
				continue
			}
		}
		e.handleSubmitOrder(so)
	}
}

// handleModifyOrder is the §4.3 ModifyOrder path.
func (e *Emulator) handleModifyOrder(mod *domain.ModifyOrder) {
	order, ok := e.cache.Order(mod.ClientOrderID)
	if !ok {
		// The guarded log references the command's id, not order.*: a
		// nil order has no client_order_id to dereference.
		e.logger.Error().Str("client_order_id", mod.ClientOrderID).Msg("emulator: modify order: unknown order")
		return
	}

	quantityChanged := false
	if mod.Price != nil {
		order.Price = mod.Price
	}
	if mod.TriggerPrice != nil {
		order.TriggerPrice = mod.TriggerPrice
	}
	if mod.Quantity != nil && !mod.Quantity.Equal(order.Quantity) {
		order.Quantity = *mod.Quantity
		quantityChanged = true
	}

	evt := domain.NewOrderUpdatedEvent(order, e.now(), e.currentCorrelationID)
	if quantityChanged {
		q := order.Quantity
		evt.Quantity = &q
	}
	e.publishEvent(order.StrategyID, evt)
	if err := e.cache.UpdateOrder(order); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: update order on modify")
	}

	if core, ok := e.cores[order.EffectiveTriggerInstrument()]; ok && core.OrderExists(order.ClientOrderID) {
		core.MatchOrder(order, false)
		if _, stillCached := e.commandCache[order.ClientOrderID]; stillCached {
			if order.Side == domain.SideBuy {
				core.SortBidOrders()
			} else {
				core.SortAskOrders()
			}
		}
	}
}

// handleCancelOrder is the §4.3 CancelOrder path.
func (e *Emulator) handleCancelOrder(cmd *domain.CancelOrder) {
	order, ok := e.cache.Order(cmd.ClientOrderID)
	if !ok {
		e.logger.Debug().Str("client_order_id", cmd.ClientOrderID).Msg("emulator: cancel order: unknown order")
		return
	}

	core, hasCore := e.cores[order.EffectiveTriggerInstrument()]
	inCore := hasCore && core.OrderExists(order.ClientOrderID)

	if !inCore && order.Status.IsOpen() && order.Status != domain.OrderStatusPendingCancel {
		e.egress.SendReleasedOrRouted(&domain.TradingCommand{CancelOrder: cmd}, order.ExecAlgorithmID)
		return
	}

	e.cancelLocally(order, "canceled by request")
}

// handleCancelAllOrders is the §4.3 CancelAllOrders path.
func (e *Emulator) handleCancelAllOrders(cmd *domain.CancelAllOrders) {
	core, ok := e.cores[cmd.InstrumentID]
	if !ok {
		return
	}
	for _, order := range core.GetOrders() {
		if cmd.Side != nil && order.Side != *cmd.Side {
			continue
		}
		e.cancelLocally(order, "canceled by cancel-all")
	}
}

// cancelLocally is the §4.5 cancel path, shared by CancelOrder,
// CancelAllOrders, and the Contingency Coordinator's OCO/OUO propagation.
func (e *Emulator) cancelLocally(order *domain.Order, reason string) {
	order.EmulationTrigger = domain.TriggerNone
	if core, ok := e.cores[order.EffectiveTriggerInstrument()]; ok {
		core.DeleteOrder(order)
		e.setCoreGauge(order.EffectiveTriggerInstrument(), core)
	}
	delete(e.commandCache, order.ClientOrderID)
	order.Status = domain.OrderStatusCanceled

	if err := e.cache.UpdateOrder(order); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: update order on cancel")
	}

	evt := domain.NewOrderCanceledEvent(order, reason, e.now(), e.currentCorrelationID)
	e.publishEvent(order.StrategyID, evt)
	e.egress.SendExecEvent(evt)

	if e.contingency != nil {
		e.contingency.OnOrderCanceled(order)
	}
}

// OnQuoteTick is the market-data collaborator's push for a bid/ask update.
func (e *Emulator) OnQuoteTick(tick domain.QuoteTick) {
	e.currentCorrelationID = uuid.New().String()
	e.lastTickAt = e.now()
	e.quoteSubs[tick.InstrumentID] = true
	core, ok := e.cores[tick.InstrumentID]
	if !ok {
		return
	}
	core.SetBidRaw(tick.Bid.Raw())
	core.SetAskRaw(tick.Ask.Raw())
	core.Iterate(e.clock.TimestampNs())
}

// OnTradeTick is the market-data collaborator's push for a last-trade
// update. When the instrument has no quote subscription, bid and ask are
// seeded from last, matching §4.4.
func (e *Emulator) OnTradeTick(tick domain.TradeTick) {
	e.currentCorrelationID = uuid.New().String()
	e.lastTickAt = e.now()
	core, ok := e.cores[tick.InstrumentID]
	if !ok {
		return
	}
	core.SetLastRaw(tick.Price.Raw())
	if !e.quoteSubs[tick.InstrumentID] {
		core.SetBidRaw(tick.Price.Raw())
		core.SetAskRaw(tick.Price.Raw())
	}
	core.Iterate(e.clock.TimestampNs())
}

func (e *Emulator) subscribeQuote(instID string) {
	if e.quoteSubs[instID] {
		return
	}
	e.quoteSubs[instID] = true
	if e.feed == nil {
		return
	}
	if err := e.feed.SubscribeQuoteTicks(context.Background(), instID); err != nil {
		e.logger.Error().Err(err).Str("instrument_id", instID).Msg("emulator: subscribe quote ticks failed")
	}
}

func (e *Emulator) subscribeTrade(instID string) {
	if e.tradeSubs[instID] {
		return
	}
	e.tradeSubs[instID] = true
	if e.feed == nil {
		return
	}
	if err := e.feed.SubscribeTradeTicks(context.Background(), instID); err != nil {
		e.logger.Error().Err(err).Str("instrument_id", instID).Msg("emulator: subscribe trade ticks failed")
	}
}

// Reactivate is the §4.7 start-up path: every cache order whose status is
// EMULATED (accepted into a core before the restart) is resubmitted through
// the normal path, making the emulator stateless across restarts. Orders
// still INITIALIZED in the cache are not resubmitted.
func (e *Emulator) Reactivate() {
	for _, order := range e.cache.OrdersEmulated() {
		if order.Status != domain.OrderStatusEmulated {
			continue
		}
		positionID, _ := e.cache.PositionID(order.ClientOrderID)
		clientID, _ := e.cache.ClientID(order.ClientOrderID)
		so := &domain.SubmitOrder{
			Order:      order,
			PositionID: positionID,
			ClientID:   clientID,
			StrategyID: order.StrategyID,
			TraderID:   order.TraderID,
		}
		e.Execute(&domain.TradingCommand{SubmitOrder: so})
	}
}

// OnReset clears every core and command-cache entry and zeroes counters.
func (e *Emulator) OnReset() {
	e.cores = make(map[string]*matching.Core)
	e.commandCache = make(map[string]*domain.SubmitOrder)
	e.quoteSubs = make(map[string]bool)
	e.tradeSubs = make(map[string]bool)
	e.strategySubs = make(map[string]bool)
	e.positionIDs = make(map[string]bool)
	e.commandCount = 0
	e.eventCount = 0
}

// --- matching.Sink ---

// TriggerStop fires once when a STOP_LIMIT-family order's stop leg first
// satisfies its condition; the core immediately re-checks the limit leg
// in the same pass, so there is nothing further to do here beyond
// observability.
func (e *Emulator) TriggerStop(order *domain.Order) {
	e.logger.Debug().Str("client_order_id", order.ClientOrderID).Msg("emulator: stop leg triggered, evaluating limit leg")
}

// FillMarket releases order via the MARKET transform; used for the
// STOP_MARKET/MARKET_IF_TOUCHED/TRAILING_STOP_MARKET family.
func (e *Emulator) FillMarket(order *domain.Order) {
	e.release(order, func(o *domain.Order, tsNs int64) {
		transform.ToMarket(o, tsNs)
	})
}

// FillLimit releases order preserving its MARKET identity if it was
// already a plain MARKET order, otherwise via the LIMIT transform at its
// existing limit price; used for plain MARKET/LIMIT and the limit leg of
// STOP_LIMIT/LIMIT_IF_TOUCHED/TRAILING_STOP_LIMIT.
func (e *Emulator) FillLimit(order *domain.Order) {
	e.release(order, func(o *domain.Order, tsNs int64) {
		if o.OrderType == domain.OrderTypeMarket {
			transform.ToMarket(o, tsNs)
			return
		}
		var price domain.Price
		if o.Price != nil {
			price = *o.Price
		}
		transform.ToLimit(o, price, tsNs)
	})
}

// Expire fires when the core's GTD sweep (Iterate) finds a resting order
// past its good_till_date_ns; the core has already removed it from its
// book by the time this is called. Mirrors cancelLocally's bookkeeping
// (command-cache eviction, cache update, event emission, contingency
// propagation) since an expired leg is, from every other leg's
// perspective, a closed leg exactly like a cancellation.
func (e *Emulator) Expire(order *domain.Order) {
	order.EmulationTrigger = domain.TriggerNone
	if core, ok := e.cores[order.EffectiveTriggerInstrument()]; ok {
		e.setCoreGauge(order.EffectiveTriggerInstrument(), core)
	}
	delete(e.commandCache, order.ClientOrderID)
	order.Status = domain.OrderStatusExpired

	if err := e.cache.UpdateOrder(order); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: update order on expire")
	}

	evt := domain.NewOrderExpiredEvent(order, e.now(), e.currentCorrelationID)
	e.publishEvent(order.StrategyID, evt)
	e.egress.SendExecEvent(evt)

	if e.contingency != nil {
		e.contingency.OnOrderExpired(order)
	}
}

// release is the shared §4.5 release path.
func (e *Emulator) release(order *domain.Order, applyTransform func(*domain.Order, int64)) {
	so, ok := e.commandCache[order.ClientOrderID]
	if !ok {
		e.logger.Debug().Str("client_order_id", order.ClientOrderID).Msg("emulator: release for already-released order, dropping")
		return
	}
	delete(e.commandCache, order.ClientOrderID)

	instID := order.EffectiveTriggerInstrument()
	core, hasCore := e.cores[instID]
	if hasCore {
		core.DeleteOrder(order)
		e.setCoreGauge(instID, core)
	}

	if e.metrics != nil && !e.lastTickAt.IsZero() {
		e.metrics.TriggerLatencySeconds.Observe(e.now().Sub(e.lastTickAt).Seconds())
	}

	order.EmulationTrigger = domain.TriggerNone
	order.Status = domain.OrderStatusReleased

	var releasedPrice domain.Price
	if hasCore {
		if order.Side == domain.SideBuy {
			releasedPrice = core.AskPrice()
		} else {
			releasedPrice = core.BidPrice()
		}
	}

	nowNs := int64(e.clock.TimestampNs())
	applyTransform(order, nowNs)

	if err := e.cache.UpdateOrder(order); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: update order on release")
	}
	so.Order = order

	nowT := time.Unix(0, nowNs)
	e.publishEvent(order.StrategyID, domain.NewOrderInitializedEvent(order, nowT, e.currentCorrelationID))
	e.publishEvent(order.StrategyID, domain.NewOrderReleasedEvent(order, releasedPrice, nowT, e.currentCorrelationID))

	e.egress.SendReleasedOrRouted(&domain.TradingCommand{SubmitOrder: so}, order.ExecAlgorithmID)
}

// --- contingency.Armer ---

func (e *Emulator) IsArmed(clientOrderID string) bool {
	if _, ok := e.commandCache[clientOrderID]; ok {
		return true
	}
	for _, core := range e.cores {
		if core.OrderExists(clientOrderID) {
			return true
		}
	}
	return false
}

func (e *Emulator) ArmChild(so *domain.SubmitOrder) error {
	e.Execute(&domain.TradingCommand{SubmitOrder: so})
	return nil
}

func (e *Emulator) CancelLocally(order *domain.Order, reason string) {
	e.cancelLocally(order, reason)
}

func (e *Emulator) UpdateQuantity(order *domain.Order, newQuantity domain.Quantity) {
	order.Quantity = newQuantity
	evt := domain.NewOrderUpdatedEvent(order, e.now(), e.currentCorrelationID)
	q := newQuantity
	evt.Quantity = &q
	e.publishEvent(order.StrategyID, evt)
	if err := e.cache.UpdateOrder(order); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: update order quantity")
	}
}

func (e *Emulator) UpdateLeaves(order *domain.Order, newLeaves domain.Quantity) {
	order.FilledQty = order.Quantity.Sub(newLeaves)
	evt := domain.NewOrderUpdatedEvent(order, e.now(), e.currentCorrelationID)
	l := newLeaves
	evt.Leaves = &l
	e.publishEvent(order.StrategyID, evt)
	if err := e.cache.UpdateOrder(order); err != nil {
		e.logger.Error().Err(err).Str("client_order_id", order.ClientOrderID).Msg("emulator: update order leaves")
	}
}

// --- inbound lifecycle events from downstream (risk/exec engines) ---

// OnOrderEvent is the handler for inbound order-lifecycle events. It
// updates the cache and drives the Contingency Coordinator. The emulator
// records observed strategy IDs but subscribes to no
// events.order.{strategy_id} topic itself, and cmd/emulator routes no bus
// traffic here; events reach it only from a caller that invokes it.
func (e *Emulator) OnOrderEvent(evt domain.Event) {
	switch ev := evt.(type) {
	case *domain.OrderFilledEvent:
		order, ok := e.cache.Order(ev.OrderID())
		if !ok {
			e.logger.Debug().Str("client_order_id", ev.OrderID()).Msg("emulator: order filled event for unknown order")
			return
		}
		order.FilledQty = order.FilledQty.Add(ev.FilledQty)
		order.Status = domain.OrderStatusFilled
		if err := e.cache.UpdateOrder(order); err != nil {
			e.logger.Error().Err(err).Msg("emulator: update order on fill")
		}
		if e.contingency != nil {
			e.contingency.OnOrderFilled(order, ev.FilledQty, ev.ExecSpawnID)
		}

	case *domain.OrderCanceledEvent:
		order, ok := e.cache.Order(ev.OrderID())
		if !ok {
			return
		}
		if e.contingency != nil {
			e.contingency.OnOrderCanceled(order)
		}

	case *domain.OrderRejectedEvent:
		order, ok := e.cache.Order(ev.OrderID())
		if !ok {
			return
		}
		if e.contingency != nil {
			e.contingency.OnOrderRejected(order)
		}

	case *domain.OrderExpiredEvent:
		order, ok := e.cache.Order(ev.OrderID())
		if !ok {
			return
		}
		if e.contingency != nil {
			e.contingency.OnOrderExpired(order)
		}

	case *domain.OrderUpdatedEvent:
		order, ok := e.cache.Order(ev.OrderID())
		if !ok {
			return
		}
		if e.contingency != nil {
			e.contingency.OnOrderUpdated(order, ev.Quantity != nil, ev.Leaves != nil)
		}
	}
}

// OnPositionEvent is a no-op stub: the source left this handler empty, and
// spec leaves its semantics unspecified. Kept as an explicit, documented
// no-op rather than omitted; nothing in cmd/emulator subscribes to
// events.position.{strategy_id} or calls it.
func (e *Emulator) OnPositionEvent(_ domain.Event) {}
