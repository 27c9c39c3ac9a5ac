package emulator

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/bus"
	"github.com/pi5trading/order-emulator/internal/cache"
	"github.com/pi5trading/order-emulator/internal/clock"
	"github.com/pi5trading/order-emulator/internal/core/contingency"
	"github.com/pi5trading/order-emulator/internal/domain"
)

const testInstrument = "AAPL.NASDAQ"

func newTestEmulator(t *testing.T) (*Emulator, *cache.Memory, *bus.Bus, *clock.Fake) {
	t.Helper()
	c := cache.NewMemory()
	c.SetInstrument(cache.Instrument{InstrumentID: testInstrument, PriceIncrement: domain.NewPrice(0.01, 2)})
	b := bus.New(16, zerolog.Nop())
	eg := bus.NewEgress(b)
	clk := clock.NewFake(1_000_000_000)
	e := New(c, nil, eg, clk, nil, zerolog.Nop())
	co := contingency.New(c, e, zerolog.Nop())
	e.AttachContingency(co)
	return e, c, b, clk
}

func submit(side domain.Side, ot domain.OrderType, cid string) *domain.SubmitOrder {
	return &domain.SubmitOrder{
		Order: &domain.Order{
			ClientOrderID:    cid,
			StrategyID:       "strat-1",
			InstrumentID:     testInstrument,
			Side:             side,
			OrderType:        ot,
			Quantity:         domain.NewQuantity(100, 0),
			EmulationTrigger: domain.TriggerDefault,
		},
		StrategyID: "strat-1",
	}
}

func drain(ch <-chan bus.Message) []domain.Event {
	var out []domain.Event
	for {
		select {
		case msg := <-ch:
			out = append(out, msg.Payload.(domain.Event))
		default:
			return out
		}
	}
}

// Scenario: NO_TRIGGER orders bypass emulation entirely.
func TestSubmitOrderWithoutTriggerSkipsEmulation(t *testing.T) {
	t.Parallel()
	e, _, b, _ := newTestEmulator(t)
	riskCh := b.Subscribe(bus.EndpointRiskEngineExecute)

	so := submit(domain.SideBuy, domain.OrderTypeMarket, "1")
	so.Order.EmulationTrigger = domain.TriggerNone
	e.Execute(&domain.TradingCommand{SubmitOrder: so})

	select {
	case msg := <-riskCh:
		cmd := msg.Payload.(*domain.TradingCommand)
		if cmd.SubmitOrder.Order.ClientOrderID != "1" {
			t.Fatalf("forwarded wrong order")
		}
	default:
		t.Fatalf("expected order forwarded to risk engine")
	}
	if e.CoreCount() != 0 {
		t.Fatalf("core created for a NO_TRIGGER order")
	}
}

// Scenario: a plain LIMIT order marketable at submission releases
// synchronously and never emits OrderEmulated.
func TestLimitOrderMarketableAtSubmissionSkipsEmulatedEvent(t *testing.T) {
	t.Parallel()
	e, c, b, _ := newTestEmulator(t)
	c.SetQuote(domain.QuoteTick{InstrumentID: testInstrument, Bid: domain.NewPrice(99.00, 2), Ask: domain.NewPrice(99.50, 2)})
	orderCh := b.Subscribe(bus.OrderEventTopic("strat-1"))
	execCh := b.Subscribe(bus.EndpointExecEngineExecute)

	price := domain.NewPrice(100.00, 2) // BUY limit at 100, ask 99.50 already marketable
	so := submit(domain.SideBuy, domain.OrderTypeLimit, "1")
	so.Order.Price = &price
	e.Execute(&domain.TradingCommand{SubmitOrder: so})

	events := drain(orderCh)
	for _, evt := range events {
		if evt.Type() == domain.EventTypeOrderEmulated {
			t.Fatalf("OrderEmulated event emitted for a synchronously-released order")
		}
	}

	select {
	case <-execCh:
	default:
		t.Fatalf("expected released order routed to exec engine")
	}
}

// Scenario: a resting STOP_MARKET order emulates, then releases once the
// ask crosses its trigger, with exactly one OrderEmulated event and one
// release pair.
func TestStopMarketOrderEmulatesThenReleasesOnTick(t *testing.T) {
	t.Parallel()
	e, _, b, clk := newTestEmulator(t)
	orderCh := b.Subscribe(bus.OrderEventTopic("strat-1"))

	trigger := domain.NewPrice(105.00, 2)
	so := submit(domain.SideBuy, domain.OrderTypeStopMarket, "1")
	so.Order.TriggerPrice = &trigger
	e.Execute(&domain.TradingCommand{SubmitOrder: so})

	events := drain(orderCh)
	if len(events) != 1 || events[0].Type() != domain.EventTypeOrderEmulated {
		t.Fatalf("events after submission = %v, want exactly one OrderEmulated", events)
	}
	if e.CoreCount() != 1 {
		t.Fatalf("expected a matching core for the trigger instrument")
	}

	clk.Advance(1)
	e.OnQuoteTick(domain.QuoteTick{InstrumentID: testInstrument, Bid: domain.NewPrice(104.50, 2), Ask: domain.NewPrice(105.00, 2)})

	events = drain(orderCh)
	var sawInit, sawReleased bool
	for _, evt := range events {
		switch evt.Type() {
		case domain.EventTypeOrderInitialized:
			sawInit = true
		case domain.EventTypeOrderReleased:
			sawReleased = true
		}
	}
	if !sawInit || !sawReleased {
		t.Fatalf("events after trigger = %v, want OrderInitialized and OrderReleased", events)
	}
}

// Scenario: canceling a still-emulated order removes it from its core and
// emits OrderCanceled without ever reaching the exec engine.
func TestCancelEmulatedOrderRemovesFromCore(t *testing.T) {
	t.Parallel()
	e, _, b, _ := newTestEmulator(t)
	orderCh := b.Subscribe(bus.OrderEventTopic("strat-1"))
	execCh := b.Subscribe(bus.EndpointExecEngineExecute)

	trigger := domain.NewPrice(105.00, 2)
	so := submit(domain.SideBuy, domain.OrderTypeStopMarket, "1")
	so.Order.TriggerPrice = &trigger
	e.Execute(&domain.TradingCommand{SubmitOrder: so})
	drain(orderCh)

	e.Execute(&domain.TradingCommand{CancelOrder: &domain.CancelOrder{ClientOrderID: "1"}})

	events := drain(orderCh)
	if len(events) != 1 || events[0].Type() != domain.EventTypeOrderCanceled {
		t.Fatalf("events after cancel = %v, want exactly one OrderCanceled", events)
	}
	select {
	case <-execCh:
		t.Fatalf("canceled order must not reach the exec engine")
	default:
	}
}

// Scenario: a resting order whose good_till_date_ns elapses during a tick
// is removed from its core, marked expired in the cache, and emits
// OrderExpired — not just silently dropped from the book.
func TestGTDOrderExpiresAndNotifiesDownstream(t *testing.T) {
	t.Parallel()
	e, c, b, clk := newTestEmulator(t)
	orderCh := b.Subscribe(bus.OrderEventTopic("strat-1"))

	trigger := domain.NewPrice(105.00, 2)
	so := submit(domain.SideBuy, domain.OrderTypeStopMarket, "1")
	so.Order.TriggerPrice = &trigger
	expireNs := int64(clk.TimestampNs()) + 1
	so.Order.ExpireTimeNs = &expireNs
	e.Execute(&domain.TradingCommand{SubmitOrder: so})
	drain(orderCh)

	clk.Advance(1)
	e.OnQuoteTick(domain.QuoteTick{InstrumentID: testInstrument, Bid: domain.NewPrice(99.00, 2), Ask: domain.NewPrice(99.50, 2)})

	events := drain(orderCh)
	if len(events) != 1 || events[0].Type() != domain.EventTypeOrderExpired {
		t.Fatalf("events after expiry = %v, want exactly one OrderExpired", events)
	}

	order, ok := c.Order("1")
	if !ok {
		t.Fatalf("expired order missing from cache")
	}
	if order.Status != domain.OrderStatusExpired {
		t.Fatalf("cached order status = %v, want OrderStatusExpired", order.Status)
	}
}

// Scenario: OTO arms the child only once the primary fills.
func TestOTOChildArmedOnPrimaryFillEvent(t *testing.T) {
	t.Parallel()
	e, c, b, _ := newTestEmulator(t)
	orderCh := b.Subscribe(bus.OrderEventTopic("strat-1"))

	parent := submit(domain.SideBuy, domain.OrderTypeMarket, "parent")
	parent.Order.EmulationTrigger = domain.TriggerNone
	parent.Order.ContingencyType = domain.ContingencyOTO
	parent.Order.LinkedOrderIDs = []string{"child"}

	child := submit(domain.SideSell, domain.OrderTypeStopMarket, "child")
	stopPrice := domain.NewPrice(90.00, 2)
	child.Order.TriggerPrice = &stopPrice
	child.Order.ParentOrderID = "parent"

	c.AddOrder(parent.Order, "", "", true)
	c.AddOrder(child.Order, "", "", true)

	e.OnOrderEvent(&domain.OrderFilledEvent{
		BaseEvent: domain.BaseEvent{EvtType: domain.EventTypeOrderFilled, ClientOID: "parent"},
		FilledQty: domain.NewQuantity(100, 0),
	})

	if e.CoreCount() != 1 {
		t.Fatalf("expected child's core created once armed")
	}
	drain(orderCh)
}
