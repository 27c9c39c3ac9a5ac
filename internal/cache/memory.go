package cache

import (
	"sync"

	"github.com/pi5trading/order-emulator/internal/domain"
)

// entry bundles an order with the routing metadata SubmitOrder carries,
// mirroring the shape the Postgres-backed implementation persists.
type entry struct {
	order      *domain.Order
	positionID string
	clientID   string
}

// Memory is an in-process Cache, used directly by tests and as the
// reactivation source in deployments that don't need cross-restart
// persistence.
type Memory struct {
	mu          sync.RWMutex
	orders      map[string]*entry
	instruments map[string]Instrument
	synthetics  map[string]Synthetic
	quotes      map[string]domain.QuoteTick
	trades      map[string]domain.TradeTick
}

func NewMemory() *Memory {
	return &Memory{
		orders:      make(map[string]*entry),
		instruments: make(map[string]Instrument),
		synthetics:  make(map[string]Synthetic),
		quotes:      make(map[string]domain.QuoteTick),
		trades:      make(map[string]domain.TradeTick),
	}
}

func (m *Memory) Order(cid string) (*domain.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.orders[cid]
	if !ok {
		return nil, false
	}
	return e.order, true
}

func (m *Memory) OrdersEmulated() []*domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for _, e := range m.orders {
		if e.order.Status == domain.OrderStatusEmulated || e.order.Status == domain.OrderStatusInitialized {
			out = append(out, e.order)
		}
	}
	return out
}

func (m *Memory) PositionID(cid string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.orders[cid]
	if !ok {
		return "", false
	}
	return e.positionID, true
}

func (m *Memory) ClientID(cid string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.orders[cid]
	if !ok {
		return "", false
	}
	return e.clientID, true
}

func (m *Memory) Instrument(iid string) (Instrument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instruments[iid]
	return inst, ok
}

func (m *Memory) Synthetic(iid string) (Synthetic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.synthetics[iid]
	return s, ok
}

func (m *Memory) OrdersForExecSpawn(spawnID string) []*domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for _, e := range m.orders {
		if e.order.ExecSpawnID == spawnID {
			out = append(out, e.order)
		}
	}
	return out
}

func (m *Memory) QuoteTick(iid string) (domain.QuoteTick, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[iid]
	return q, ok
}

func (m *Memory) TradeTick(iid string) (domain.TradeTick, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trades[iid]
	return t, ok
}

func (m *Memory) UpdateOrder(order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.orders[order.ClientOrderID]
	if !ok {
		m.orders[order.ClientOrderID] = &entry{order: order}
		return nil
	}
	e.order = order
	return nil
}

func (m *Memory) AddOrder(order *domain.Order, positionID, clientID string, override bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !override {
		if _, exists := m.orders[order.ClientOrderID]; exists {
			return nil
		}
	}
	m.orders[order.ClientOrderID] = &entry{order: order, positionID: positionID, clientID: clientID}
	return nil
}

// Ping always succeeds: Memory has no external backend to lose connection
// to, satisfying handlers.Pinger for dev/test deployments.
func (m *Memory) Ping() error { return nil }

// SetInstrument and SetSynthetic let tests and the reactivation bootstrap
// seed the instrument universe; SetQuote/SetTrade seed market-data reads.
func (m *Memory) SetInstrument(inst Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments[inst.InstrumentID] = inst
}

func (m *Memory) SetSynthetic(s Synthetic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synthetics[s.InstrumentID] = s
}

func (m *Memory) SetQuote(q domain.QuoteTick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.InstrumentID] = q
}

func (m *Memory) SetTrade(t domain.TradeTick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[t.InstrumentID] = t
}
