package bus

import "github.com/pi5trading/order-emulator/internal/domain"

// Endpoint names the fixed set of downstream addresses the emulator is
// specified to send to.
const (
	EndpointOrderEmulatorExecute = "OrderEmulator.execute"
	EndpointRiskEngineExecute    = "RiskEngine.execute"
	EndpointRiskEngineProcess    = "RiskEngine.process"
	EndpointExecEngineExecute    = "ExecEngine.execute"
	EndpointExecEngineProcess    = "ExecEngine.process"
)

// OrderEventTopic returns the per-strategy order-event topic.
func OrderEventTopic(strategyID string) string {
	return "events.order." + strategyID
}

// EndpointAudit is a fixed fan-out topic every order-lifecycle event is
// also published to, independent of its per-strategy topic, so a single
// audit subscriber sees the full stream without enumerating strategies.
const EndpointAudit = "audit.order_events"

// PositionEventTopic returns the per-strategy position-event topic.
func PositionEventTopic(strategyID string) string {
	return "events.position." + strategyID
}

// ExecAlgorithmEndpoint returns the execute endpoint for an execution
// algorithm, used to route a released/canceled order instead of ExecEngine
// when the order carries an exec_algorithm_id.
func ExecAlgorithmEndpoint(execAlgorithmID string) string {
	return execAlgorithmID + ".execute"
}

// Egress is the typed send surface the emulator uses; it never touches the
// raw Bus directly, matching the "Egress/Bus adapter" component's role of
// isolating routing decisions from transport.
type Egress struct {
	bus *Bus
}

func NewEgress(b *Bus) *Egress {
	return &Egress{bus: b}
}

// PublishOrderEvent fans an event out on its strategy's order-event topic.
func (e *Egress) PublishOrderEvent(strategyID string, evt domain.Event) {
	e.bus.Send(OrderEventTopic(strategyID), evt)
	e.bus.Send(EndpointAudit, evt)
}

// SendToRiskEngine forwards an untriggered SubmitOrder (NO_TRIGGER) to the
// risk engine's execute endpoint.
func (e *Egress) SendToRiskEngine(cmd *domain.TradingCommand) {
	e.bus.Send(EndpointRiskEngineExecute, cmd)
}

// SendRiskEvent forwards a risk-relevant lifecycle event.
func (e *Egress) SendRiskEvent(evt domain.Event) {
	e.bus.Send(EndpointRiskEngineProcess, evt)
}

// SendReleasedOrRouted sends a released SubmitOrder, or a CancelOrder for
// an order no longer held in a core, downstream: to its exec algorithm's
// endpoint if one is set, otherwise to the execution engine.
func (e *Egress) SendReleasedOrRouted(cmd *domain.TradingCommand, execAlgorithmID string) {
	if execAlgorithmID != "" {
		e.bus.Send(ExecAlgorithmEndpoint(execAlgorithmID), cmd)
		return
	}
	e.bus.Send(EndpointExecEngineExecute, cmd)
}

// SendExecEvent forwards an execution-relevant lifecycle event.
func (e *Egress) SendExecEvent(evt domain.Event) {
	e.bus.Send(EndpointExecEngineProcess, evt)
}
