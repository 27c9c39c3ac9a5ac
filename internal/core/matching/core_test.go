package matching

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/domain"
)

// recordingSink captures callback invocations for assertions rather than
// reacting to them, keeping these tests scoped to the core's dispatch
// logic alone.
type recordingSink struct {
	triggered []*domain.Order
	market    []*domain.Order
	limit     []*domain.Order
	expired   []*domain.Order
}

func (r *recordingSink) TriggerStop(o *domain.Order) { r.triggered = append(r.triggered, o) }
func (r *recordingSink) FillMarket(o *domain.Order)  { r.market = append(r.market, o) }
func (r *recordingSink) FillLimit(o *domain.Order)   { r.limit = append(r.limit, o) }
func (r *recordingSink) Expire(o *domain.Order)      { r.expired = append(r.expired, o) }

func testOrder(cid string, side domain.Side, ot domain.OrderType) *domain.Order {
	return &domain.Order{
		ClientOrderID: cid,
		InstrumentID:  "AAPL.NASDAQ",
		Side:          side,
		OrderType:     ot,
		Quantity:      domain.NewQuantity(100, 0),
	}
}

func newTestCore(sink Sink) *Core {
	return New("AAPL.NASDAQ", domain.NewPrice(0.01, 2), sink, nil, zerolog.Nop())
}

func TestMarketOrderFillsImmediately(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	c := newTestCore(sink)
	o := testOrder("1", domain.SideBuy, domain.OrderTypeMarket)

	c.MatchOrder(o, true)

	if len(sink.limit) != 1 {
		t.Fatalf("FillLimit calls = %d, want 1", len(sink.limit))
	}
}

func TestLimitOrderWaitsForPrice(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	c := newTestCore(sink)
	price := domain.NewPrice(100.00, 2)
	o := testOrder("1", domain.SideBuy, domain.OrderTypeLimit)
	o.Price = &price

	c.SetAskRaw(domain.NewPrice(100.50, 2).Raw())
	c.MatchOrder(o, true)
	if len(sink.limit) != 0 {
		t.Fatalf("FillLimit calls = %d, want 0 (ask above limit)", len(sink.limit))
	}

	c.SetAskRaw(domain.NewPrice(99.50, 2).Raw())
	c.MatchOrder(o, false)
	if len(sink.limit) != 1 {
		t.Fatalf("FillLimit calls = %d, want 1 (ask at or below limit)", len(sink.limit))
	}
}

func TestStopMarketTriggersOnAsk(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	c := newTestCore(sink)
	trigger := domain.NewPrice(105.00, 2)
	o := testOrder("1", domain.SideBuy, domain.OrderTypeStopMarket)
	o.TriggerPrice = &trigger
	o.EmulationTrigger = domain.TriggerDefault

	c.SetAskRaw(domain.NewPrice(104.00, 2).Raw())
	c.MatchOrder(o, false)
	if len(sink.market) != 0 {
		t.Fatalf("FillMarket calls = %d, want 0", len(sink.market))
	}

	c.SetAskRaw(domain.NewPrice(105.00, 2).Raw())
	c.MatchOrder(o, false)
	if len(sink.market) != 1 {
		t.Fatalf("FillMarket calls = %d, want 1", len(sink.market))
	}
}

func TestStopLimitTriggersOnceThenEvaluatesLimitLeg(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	c := newTestCore(sink)
	trigger := domain.NewPrice(105.00, 2)
	limit := domain.NewPrice(105.50, 2)
	o := testOrder("1", domain.SideBuy, domain.OrderTypeStopLimit)
	o.TriggerPrice = &trigger
	o.Price = &limit
	o.EmulationTrigger = domain.TriggerDefault

	c.SetAskRaw(domain.NewPrice(106.00, 2).Raw())
	c.MatchOrder(o, false)
	if len(sink.triggered) != 1 {
		t.Fatalf("TriggerStop calls = %d, want 1", len(sink.triggered))
	}
	if len(sink.limit) != 0 {
		t.Fatalf("FillLimit calls = %d, want 0 (ask above limit)", len(sink.limit))
	}

	c.SetAskRaw(domain.NewPrice(105.25, 2).Raw())
	c.MatchOrder(o, false)
	if len(sink.triggered) != 1 {
		t.Fatalf("TriggerStop calls = %d, want 1 (fires once)", len(sink.triggered))
	}
	if len(sink.limit) != 1 {
		t.Fatalf("FillLimit calls = %d, want 1", len(sink.limit))
	}
}

func TestLastTradeTriggerIgnoresQuotes(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	c := newTestCore(sink)
	trigger := domain.NewPrice(50.00, 2)
	o := testOrder("1", domain.SideSell, domain.OrderTypeStopMarket)
	o.TriggerPrice = &trigger
	o.EmulationTrigger = domain.TriggerLastTrade

	c.SetBidRaw(domain.NewPrice(40.00, 2).Raw()) // would trigger if bid-based
	c.MatchOrder(o, false)
	if len(sink.market) != 0 {
		t.Fatalf("FillMarket calls = %d, want 0 (no last trade observed yet)", len(sink.market))
	}

	c.SetLastRaw(domain.NewPrice(49.00, 2).Raw())
	c.MatchOrder(o, false)
	if len(sink.market) != 1 {
		t.Fatalf("FillMarket calls = %d, want 1 (last at or below trigger)", len(sink.market))
	}
}

func TestAddOrderRejectsDuplicate(t *testing.T) {
	t.Parallel()
	c := newTestCore(&recordingSink{})
	o := testOrder("1", domain.SideBuy, domain.OrderTypeLimit)

	if !c.AddOrder(o) {
		t.Fatalf("first AddOrder = false, want true")
	}
	if c.AddOrder(o) {
		t.Fatalf("second AddOrder = true, want false (duplicate)")
	}
}

func TestIterateExpiresGTDOrders(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	c := newTestCore(sink)
	expireNs := int64(1000)
	o := testOrder("1", domain.SideBuy, domain.OrderTypeLimit)
	o.ExpireTimeNs = &expireNs
	c.AddOrder(o)

	c.Iterate(500)
	if !c.OrderExists("1") {
		t.Fatalf("order expired before its expire_time_ns")
	}
	if len(sink.expired) != 0 {
		t.Fatalf("Expire calls = %d, want 0 before expire_time_ns", len(sink.expired))
	}

	c.Iterate(1000)
	if c.OrderExists("1") {
		t.Fatalf("order still resting after its expire_time_ns elapsed")
	}
	if len(sink.expired) != 1 {
		t.Fatalf("Expire calls = %d, want 1 after expire_time_ns elapsed", len(sink.expired))
	}
	if sink.expired[0].ClientOrderID != "1" {
		t.Fatalf("Expire called with order %s, want 1", sink.expired[0].ClientOrderID)
	}
}

func TestSortBidOrdersDescending(t *testing.T) {
	t.Parallel()
	c := newTestCore(&recordingSink{})
	p1 := domain.NewPrice(100.00, 2)
	p2 := domain.NewPrice(105.00, 2)
	p3 := domain.NewPrice(102.00, 2)
	o1 := testOrder("1", domain.SideBuy, domain.OrderTypeLimit)
	o1.Price = &p1
	o2 := testOrder("2", domain.SideBuy, domain.OrderTypeLimit)
	o2.Price = &p2
	o3 := testOrder("3", domain.SideBuy, domain.OrderTypeLimit)
	o3.Price = &p3

	c.AddOrder(o1)
	c.AddOrder(o2)
	c.AddOrder(o3)

	got := c.GetOrdersBid()
	want := []string{"2", "3", "1"}
	for i, cid := range want {
		if got[i].ClientOrderID != cid {
			t.Fatalf("bidOrders[%d] = %s, want %s", i, got[i].ClientOrderID, cid)
		}
	}
}
