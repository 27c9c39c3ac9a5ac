// Package trailing implements the Trailing Stop Calculator: a pure
// function of an order and current price state, never holding any state
// of its own.
package trailing

import (
	"errors"

	"github.com/pi5trading/order-emulator/internal/domain"
)

// ErrInsufficientMarketData is returned when the reference price the
// order's trailing geometry needs hasn't been observed yet.
var ErrInsufficientMarketData = errors.New("trailing: insufficient market data")

// Calculate recomputes an order's trigger (and, for TRAILING_STOP_LIMIT,
// limit) price against current bid/ask/last. Returns (nil, nil, nil) when
// no update is warranted. The ratchet only ever tightens toward the
// market: a BUY trailing stop's trigger only moves down, a SELL trailing
// stop's only moves up, grounded on the teacher pack's trailing-stop
// executor (recompute-on-favorable-move, never loosen).
func Calculate(priceIncrement domain.Price, order *domain.Order, bid, ask, last domain.Price, bidInit, askInit, lastInit bool) (newTrigger *domain.Price, newPrice *domain.Price, err error) {
	if !order.OrderType.IsTrailing() {
		return nil, nil, nil
	}
	if order.TrailingOffset == nil {
		return nil, nil, ErrInsufficientMarketData
	}

	useLast := order.EmulationTrigger == domain.TriggerLastTrade
	var ref domain.Price
	switch {
	case useLast:
		if !lastInit {
			return nil, nil, ErrInsufficientMarketData
		}
		ref = last
	case order.Side == domain.SideBuy:
		if !askInit {
			return nil, nil, ErrInsufficientMarketData
		}
		ref = ask
	default:
		if !bidInit {
			return nil, nil, ErrInsufficientMarketData
		}
		ref = bid
	}

	offset := *order.TrailingOffset

	switch order.Side {
	case domain.SideBuy:
		candidate := ref.Add(offset)
		if order.TriggerPrice == nil || candidate.LessThan(*order.TriggerPrice) {
			t := candidate
			newTrigger = &t
		}
	case domain.SideSell:
		candidate := ref.Sub(offset)
		if order.TriggerPrice == nil || candidate.GreaterThan(*order.TriggerPrice) {
			t := candidate
			newTrigger = &t
		}
	default:
		panic("trailing: invalid order side")
	}

	if order.OrderType == domain.OrderTypeTrailingStopLimit && newTrigger != nil && order.LimitOffset != nil {
		limitOffset := *order.LimitOffset
		var p domain.Price
		if order.Side == domain.SideBuy {
			p = newTrigger.Add(limitOffset)
		} else {
			p = newTrigger.Sub(limitOffset)
		}
		p = snapToIncrement(p, priceIncrement)
		newPrice = &p
	}

	if newTrigger != nil {
		snapped := snapToIncrement(*newTrigger, priceIncrement)
		newTrigger = &snapped
	}

	return newTrigger, newPrice, nil
}

// snapToIncrement rounds a price down to the nearest multiple of the
// instrument's price_increment, keeping the matching core's numeric domain
// tick-quantized end to end.
func snapToIncrement(p domain.Price, increment domain.Price) domain.Price {
	if increment.Raw() <= 0 {
		return p
	}
	steps := p.Raw() / increment.Raw()
	return domain.PriceFromRaw(steps*increment.Raw(), p.Precision())
}
