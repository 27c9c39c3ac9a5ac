package contingency

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/cache"
	"github.com/pi5trading/order-emulator/internal/domain"
)

// fakeArmer records every call the coordinator makes through the Armer
// interface, standing in for the emulator in isolation.
type fakeArmer struct {
	armed     map[string]bool
	canceled  []string
	quantities map[string]domain.Quantity
	leaves     map[string]domain.Quantity
}

func newFakeArmer() *fakeArmer {
	return &fakeArmer{
		armed:      make(map[string]bool),
		quantities: make(map[string]domain.Quantity),
		leaves:     make(map[string]domain.Quantity),
	}
}

func (f *fakeArmer) IsArmed(cid string) bool { return f.armed[cid] }
func (f *fakeArmer) ArmChild(so *domain.SubmitOrder) error {
	f.armed[so.Order.ClientOrderID] = true
	return nil
}
func (f *fakeArmer) CancelLocally(o *domain.Order, reason string) {
	f.canceled = append(f.canceled, o.ClientOrderID)
	o.Status = domain.OrderStatusCanceled
}
func (f *fakeArmer) UpdateQuantity(o *domain.Order, q domain.Quantity) {
	f.quantities[o.ClientOrderID] = q
}
func (f *fakeArmer) UpdateLeaves(o *domain.Order, l domain.Quantity) {
	f.leaves[o.ClientOrderID] = l
}

func newTestCoordinator() (*Coordinator, *cache.Memory, *fakeArmer) {
	c := cache.NewMemory()
	armer := newFakeArmer()
	return New(c, armer, zerolog.Nop()), c, armer
}

func TestOTOArmsChildOnParentFill(t *testing.T) {
	t.Parallel()
	co, c, armer := newTestCoordinator()

	parent := &domain.Order{
		ClientOrderID:   "parent",
		StrategyID:      "s1",
		ContingencyType: domain.ContingencyOTO,
		LinkedOrderIDs:  []string{"child"},
		Status:          domain.OrderStatusFilled,
	}
	child := &domain.Order{
		ClientOrderID:    "child",
		StrategyID:       "s1",
		EmulationTrigger: domain.TriggerDefault,
		Status:           domain.OrderStatusInitialized,
	}
	c.AddOrder(parent, "", "", true)
	c.AddOrder(child, "", "", true)

	co.OnOrderFilled(parent, domain.NewQuantity(10, 0), "")

	if !armer.armed["child"] {
		t.Fatalf("child was not armed after parent fill")
	}
}

func TestOCOCancelsSiblingOnFill(t *testing.T) {
	t.Parallel()
	co, c, armer := newTestCoordinator()

	a := &domain.Order{ClientOrderID: "a", StrategyID: "s1", ContingencyType: domain.ContingencyOCO, LinkedOrderIDs: []string{"a", "b"}, Status: domain.OrderStatusFilled}
	b := &domain.Order{ClientOrderID: "b", StrategyID: "s1", ContingencyType: domain.ContingencyOCO, LinkedOrderIDs: []string{"a", "b"}, Status: domain.OrderStatusEmulated}
	c.AddOrder(a, "", "", true)
	c.AddOrder(b, "", "", true)

	co.OnOrderFilled(a, domain.NewQuantity(10, 0), "")

	if len(armer.canceled) != 1 || armer.canceled[0] != "b" {
		t.Fatalf("canceled = %v, want [b]", armer.canceled)
	}
}

func TestOUOCancelsSiblingsWhenLegCloses(t *testing.T) {
	t.Parallel()
	co, c, armer := newTestCoordinator()

	a := &domain.Order{ClientOrderID: "a", StrategyID: "s1", ContingencyType: domain.ContingencyOUO, LinkedOrderIDs: []string{"a", "b", "c"}, Status: domain.OrderStatusCanceled}
	b := &domain.Order{ClientOrderID: "b", StrategyID: "s1", ContingencyType: domain.ContingencyOUO, LinkedOrderIDs: []string{"a", "b", "c"}, Status: domain.OrderStatusEmulated}
	cc := &domain.Order{ClientOrderID: "c", StrategyID: "s1", ContingencyType: domain.ContingencyOUO, LinkedOrderIDs: []string{"a", "b", "c"}, Status: domain.OrderStatusEmulated}
	c.AddOrder(a, "", "", true)
	c.AddOrder(b, "", "", true)
	c.AddOrder(cc, "", "", true)

	co.OnOrderCanceled(a)

	if len(armer.canceled) != 2 {
		t.Fatalf("canceled = %v, want 2 siblings", armer.canceled)
	}
}

func TestOUOPropagatesQuantityChange(t *testing.T) {
	t.Parallel()
	co, c, armer := newTestCoordinator()

	a := &domain.Order{ClientOrderID: "a", StrategyID: "s1", ContingencyType: domain.ContingencyOUO, LinkedOrderIDs: []string{"a", "b"}, Quantity: domain.NewQuantity(50, 0), Status: domain.OrderStatusEmulated}
	b := &domain.Order{ClientOrderID: "b", StrategyID: "s1", ContingencyType: domain.ContingencyOUO, LinkedOrderIDs: []string{"a", "b"}, Quantity: domain.NewQuantity(100, 0), Status: domain.OrderStatusEmulated}
	c.AddOrder(a, "", "", true)
	c.AddOrder(b, "", "", true)

	co.OnOrderUpdated(a, true, false)

	got, ok := armer.quantities["b"]
	if !ok {
		t.Fatalf("sibling quantity was not updated")
	}
	if !got.Equal(domain.NewQuantity(50, 0)) {
		t.Fatalf("sibling quantity = %v, want 50", got)
	}
}

func TestOUOIgnoresExecSpawnedOrder(t *testing.T) {
	t.Parallel()
	co, c, armer := newTestCoordinator()

	spawned := &domain.Order{
		ClientOrderID:   "spawn-1",
		StrategyID:      "s1",
		ContingencyType: domain.ContingencyOUO,
		LinkedOrderIDs:  []string{"spawn-1", "b"},
		ExecSpawnID:     "spawn-group",
		ParentOrderID:   "parent",
		Quantity:        domain.NewQuantity(10, 0),
	}
	b := &domain.Order{ClientOrderID: "b", StrategyID: "s1", ContingencyType: domain.ContingencyOUO, LinkedOrderIDs: []string{"spawn-1", "b"}, Quantity: domain.NewQuantity(100, 0), Status: domain.OrderStatusEmulated}
	c.AddOrder(spawned, "", "", true)
	c.AddOrder(b, "", "", true)

	co.OnOrderUpdated(spawned, true, false)

	if _, ok := armer.quantities["b"]; ok {
		t.Fatalf("exec-spawned child must never drive OUO propagation")
	}
}
