// Package contingency enforces the cross-order semantics of linked order
// groups: One-Triggers-Other, One-Cancels-Others, and One-Updates-Others.
// It is driven entirely by inbound order-lifecycle events for orders known
// to the cache; it never holds its own copy of the contingency graph,
// looking relationships up through the cache instead (see the design note
// on not duplicating a graph the cache already owns).
package contingency

import (
	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/cache"
	"github.com/pi5trading/order-emulator/internal/domain"
)

// Armer is the subset of the emulator's submission path the coordinator
// needs: whether a child order is already in flight, and how to arm one
// that isn't (either emulated, or forwarded straight to risk/exec-algo).
type Armer interface {
	IsArmed(clientOrderID string) bool
	ArmChild(so *domain.SubmitOrder) error
	CancelLocally(order *domain.Order, reason string)
	UpdateQuantity(order *domain.Order, newQuantity domain.Quantity)
	UpdateLeaves(order *domain.Order, newLeaves domain.Quantity)
}

// Coordinator reacts to lifecycle events and applies OTO/OCO/OUO.
type Coordinator struct {
	cache  cache.Cache
	armer  Armer
	logger zerolog.Logger
}

func New(c cache.Cache, armer Armer, logger zerolog.Logger) *Coordinator {
	return &Coordinator{cache: c, armer: armer, logger: logger}
}

// OnOrderFilled drives OTO arming and OCO/OUO cancellation for a filled
// order, skipping any linked order whose emulation has already been
// released or that is no longer in the cache.
func (co *Coordinator) OnOrderFilled(order *domain.Order, filledQty domain.Quantity, execSpawnID string) {
	switch order.ContingencyType {
	case domain.ContingencyOTO:
		co.armChildren(order, execSpawnID, filledQty)
	case domain.ContingencyOCO, domain.ContingencyOUO:
		co.cancelSiblings(order, "oco/ouo: group leg filled")
	}
}

// armChildren implements OTO: when the primary fills, each linked child
// becomes active exactly once.
func (co *Coordinator) armChildren(primary *domain.Order, execSpawnID string, filledQty domain.Quantity) {
	if primary.Status == domain.OrderStatusPendingCancel || primary.Status.IsClosed() && primary.Status != domain.OrderStatusFilled {
		return
	}

	for _, childCID := range primary.LinkedOrderIDs {
		child, ok := co.cache.Order(childCID)
		if !ok {
			co.logger.Debug().Str("client_order_id", childCID).Msg("contingency: oto child not found in cache, skipping")
			continue
		}
		if child.EmulationTrigger == domain.TriggerNone && child.Status.IsClosed() {
			// Already released/canceled; nothing to arm.
			continue
		}
		if co.armer.IsArmed(childCID) {
			continue
		}

		positionID, _ := co.cache.PositionID(primary.ClientOrderID)
		clientID, _ := co.cache.ClientID(primary.ClientOrderID)
		if childPos, ok := co.cache.PositionID(childCID); ok && childPos != "" {
			positionID = childPos
		}

		so := &domain.SubmitOrder{
			Order:      child,
			PositionID: positionID,
			ClientID:   clientID,
			StrategyID: child.StrategyID,
			TraderID:   primary.TraderID,
		}
		if err := co.armer.ArmChild(so); err != nil {
			co.logger.Error().Err(err).Str("client_order_id", childCID).Msg("contingency: failed to arm oto child")
			continue
		}

		if primary.ExecSpawnID != "" {
			spawned := co.cache.OrdersForExecSpawn(primary.ExecSpawnID)
			var totalFilled domain.Quantity
			for _, s := range spawned {
				totalFilled = totalFilled.Add(s.FilledQty)
			}
			if !totalFilled.Equal(child.Quantity) {
				co.armer.UpdateQuantity(child, totalFilled)
			}
		}
	}
}

// cancelSiblings implements OCO: cancel every other open order in the
// group locally.
func (co *Coordinator) cancelSiblings(order *domain.Order, reason string) {
	for _, sibCID := range order.LinkedOrderIDs {
		if sibCID == order.ClientOrderID {
			continue
		}
		sib, ok := co.cache.Order(sibCID)
		if !ok {
			continue
		}
		if sib.EmulationTrigger == domain.TriggerNone && sib.Status.IsClosed() {
			continue
		}
		if !sib.Status.IsOpen() {
			continue
		}
		co.armer.CancelLocally(sib, reason)
	}
}

// OnOrderCanceled, OnOrderRejected, OnOrderExpired drive OUO: a closed leg
// cancels every open sibling.
func (co *Coordinator) OnOrderCanceled(order *domain.Order) { co.onLegClosed(order) }
func (co *Coordinator) OnOrderRejected(order *domain.Order) { co.onLegClosed(order) }
func (co *Coordinator) OnOrderExpired(order *domain.Order)  { co.onLegClosed(order) }

func (co *Coordinator) onLegClosed(order *domain.Order) {
	if order.ContingencyType != domain.ContingencyOUO {
		return
	}
	co.cancelSiblings(order, "ouo: linked leg closed")
}

// OnOrderUpdated implements the non-terminal half of OUO: propagate a
// quantity or leaves_qty change to every open sibling. Orders spawned by
// an execution algorithm never themselves drive OUO updates, only their
// primary does.
func (co *Coordinator) OnOrderUpdated(order *domain.Order, quantityChanged, leavesChanged bool) {
	if order.ContingencyType != domain.ContingencyOUO {
		return
	}
	if order.ExecSpawnID != "" && order.ParentOrderID != "" {
		return
	}

	for _, sibCID := range order.LinkedOrderIDs {
		if sibCID == order.ClientOrderID {
			continue
		}
		sib, ok := co.cache.Order(sibCID)
		if !ok {
			continue
		}
		if !sib.Status.IsOpen() {
			continue
		}
		if quantityChanged {
			co.armer.UpdateQuantity(sib, order.Quantity)
		} else if leavesChanged {
			co.armer.UpdateLeaves(sib, order.LeavesQty())
		}
	}
}
