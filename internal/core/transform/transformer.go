// Package transform rewrites a triggered emulated order into a plain
// MARKET or LIMIT order, preserving its identity across the rewrite.
package transform

import "github.com/pi5trading/order-emulator/internal/domain"

// ToMarket transforms order into a plain MARKET order in place, clearing
// its emulation trigger and stamping a fresh ts_init, preserving
// client_order_id, strategy_id, and quantities.
func ToMarket(order *domain.Order, tsInitNs int64) *domain.Order {
	order.OrderType = domain.OrderTypeMarket
	order.Price = nil
	order.TriggerPrice = nil
	order.TrailingOffset = nil
	order.LimitOffset = nil
	order.EmulationTrigger = domain.TriggerNone
	order.TsInit = tsInitNs
	return order
}

// ToLimit transforms order into a plain LIMIT order at limitPrice, in
// place, clearing its emulation trigger and stamping a fresh ts_init.
func ToLimit(order *domain.Order, limitPrice domain.Price, tsInitNs int64) *domain.Order {
	order.OrderType = domain.OrderTypeLimit
	order.Price = &limitPrice
	order.TriggerPrice = nil
	order.TrailingOffset = nil
	order.LimitOffset = nil
	order.EmulationTrigger = domain.TriggerNone
	order.TsInit = tsInitNs
	return order
}
