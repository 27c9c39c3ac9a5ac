package trailing

import (
	"errors"
	"testing"

	"github.com/pi5trading/order-emulator/internal/domain"
)

func trailingOrder(side domain.Side, ot domain.OrderType, offset float64) *domain.Order {
	o := offsetPrice(offset)
	return &domain.Order{
		ClientOrderID:    "1",
		Side:             side,
		OrderType:        ot,
		TrailingOffset:   &o,
		EmulationTrigger: domain.TriggerDefault,
	}
}

func offsetPrice(v float64) domain.Price { return domain.NewPrice(v, 2) }

func TestCalculateReturnsInsufficientMarketDataBeforeFirstQuote(t *testing.T) {
	t.Parallel()
	order := trailingOrder(domain.SideBuy, domain.OrderTypeTrailingStopMarket, 1.00)

	_, _, err := Calculate(domain.NewPrice(0.01, 2), order, domain.Price{}, domain.Price{}, domain.Price{}, false, false, false)
	if !errors.Is(err, ErrInsufficientMarketData) {
		t.Fatalf("err = %v, want ErrInsufficientMarketData", err)
	}
}

func TestCalculateBuyRatchetsDownOnly(t *testing.T) {
	t.Parallel()
	order := trailingOrder(domain.SideBuy, domain.OrderTypeTrailingStopMarket, 1.00)
	increment := domain.NewPrice(0.01, 2)

	ask := domain.NewPrice(100.00, 2)
	newTrigger, _, err := Calculate(increment, order, domain.Price{}, ask, domain.Price{}, false, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTrigger == nil || !newTrigger.Equal(domain.NewPrice(101.00, 2)) {
		t.Fatalf("newTrigger = %v, want 101.00", newTrigger)
	}
	order.TriggerPrice = newTrigger

	// Ask rises: a BUY trailing stop should not loosen (move up).
	ask = domain.NewPrice(102.00, 2)
	newTrigger, _, err = Calculate(increment, order, domain.Price{}, ask, domain.Price{}, false, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTrigger != nil {
		t.Fatalf("newTrigger = %v, want nil (trigger must not loosen)", newTrigger)
	}

	// Ask falls: the trigger ratchets down with it.
	ask = domain.NewPrice(99.00, 2)
	newTrigger, _, err = Calculate(increment, order, domain.Price{}, ask, domain.Price{}, false, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTrigger == nil || !newTrigger.Equal(domain.NewPrice(100.00, 2)) {
		t.Fatalf("newTrigger = %v, want 100.00", newTrigger)
	}
}

func TestCalculateSellRatchetsUpOnly(t *testing.T) {
	t.Parallel()
	order := trailingOrder(domain.SideSell, domain.OrderTypeTrailingStopMarket, 1.00)
	increment := domain.NewPrice(0.01, 2)

	bid := domain.NewPrice(100.00, 2)
	newTrigger, _, err := Calculate(increment, order, bid, domain.Price{}, domain.Price{}, true, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTrigger == nil || !newTrigger.Equal(domain.NewPrice(99.00, 2)) {
		t.Fatalf("newTrigger = %v, want 99.00", newTrigger)
	}
	order.TriggerPrice = newTrigger

	bid = domain.NewPrice(98.00, 2)
	newTrigger, _, err = Calculate(increment, order, bid, domain.Price{}, domain.Price{}, true, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTrigger != nil {
		t.Fatalf("newTrigger = %v, want nil (trigger must not loosen)", newTrigger)
	}
}

func TestCalculateTrailingStopLimitDerivesLimitFromOffset(t *testing.T) {
	t.Parallel()
	order := trailingOrder(domain.SideBuy, domain.OrderTypeTrailingStopLimit, 1.00)
	limitOffset := domain.NewPrice(0.10, 2)
	order.LimitOffset = &limitOffset
	increment := domain.NewPrice(0.01, 2)

	ask := domain.NewPrice(100.00, 2)
	newTrigger, newPrice, err := Calculate(increment, order, domain.Price{}, ask, domain.Price{}, false, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newPrice == nil || !newPrice.Equal(domain.NewPrice(101.10, 2)) {
		t.Fatalf("newPrice = %v, want 101.10", newPrice)
	}
	_ = newTrigger
}

func TestCalculateNonTrailingOrderIsNoOp(t *testing.T) {
	t.Parallel()
	order := &domain.Order{ClientOrderID: "1", OrderType: domain.OrderTypeLimit}

	newTrigger, newPrice, err := Calculate(domain.NewPrice(0.01, 2), order, domain.Price{}, domain.Price{}, domain.Price{}, true, true, true)
	if err != nil || newTrigger != nil || newPrice != nil {
		t.Fatalf("Calculate on non-trailing order = (%v, %v, %v), want (nil, nil, nil)", newTrigger, newPrice, err)
	}
}
