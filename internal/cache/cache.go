// Package cache defines the persistent order/instrument collaborator the
// emulator is specified to read and mutate through, never to own. The
// emulator's entire working set is a view of this cache plus its in-memory
// matching cores; on restart it rebuilds state by replay (see
// internal/core/emulator's Reactivate).
package cache

import "github.com/pi5trading/order-emulator/internal/domain"

// Instrument is the minimal definition needed to resolve a trigger
// instrument and size its matching core.
type Instrument struct {
	InstrumentID   string
	PriceIncrement domain.Price
}

// Synthetic is a composite instrument whose price is derived from
// components; the emulator only needs to know one exists to resolve
// trigger_instrument_id, never its derivation.
type Synthetic struct {
	InstrumentID string
	Components   []string
}

// Cache is the required read/mutation surface from spec §6. Reads never
// fail loudly (bool/ok pattern); mutations return an error, logged and
// dropped by the caller per the propagation policy in §7.
type Cache interface {
	Order(cid string) (*domain.Order, bool)
	OrdersEmulated() []*domain.Order
	PositionID(cid string) (string, bool)
	ClientID(cid string) (string, bool)
	Instrument(iid string) (Instrument, bool)
	Synthetic(iid string) (Synthetic, bool)
	OrdersForExecSpawn(spawnID string) []*domain.Order
	QuoteTick(iid string) (domain.QuoteTick, bool)
	TradeTick(iid string) (domain.TradeTick, bool)

	// UpdateOrder persists a mutation made to an order already known to
	// the cache.
	UpdateOrder(order *domain.Order) error

	// AddOrder registers order under cid with its routing metadata. The
	// emulator always calls this with override=true, matching the
	// documented mutation surface: it never needs a reject-on-duplicate
	// variant since a client_order_id is unique by construction upstream.
	AddOrder(order *domain.Order, positionID, clientID string, override bool) error
}
