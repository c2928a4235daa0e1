// Package peer provides the common per-node state and the three driver
// hooks every protocol peer implements: identity, round counter, inbox
// access, and broadcast/equivocate, shared across Bracha, Alg23, Alg24,
// and COOL.
package peer

import (
	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/substrate"
	"github.com/dedis-sim/brbsim/internal/trace"
)

// Protocol is the interface the simulation driver dispatches to. A
// concrete protocol peer (Bracha, Alg23, Alg24, COOL) embeds Base and
// implements these three hooks; the driver never knows which protocol it
// is running.
type Protocol interface {
	Init()
	PerformComputation()
	EndOfRound()
}

// Node is the interface the simulation driver and reporter use to treat
// any of the four concrete protocol peers uniformly: drive its rounds
// and read back its terminal outcome without knowing which protocol it
// runs.
type Node interface {
	Protocol
	ID() arch.NodeID
	AdvanceRound()
	Outcome() *Result
}

// Base holds the identity, round counter, and I/O primitives common to
// every protocol peer. Concrete peers embed Base and add their own
// accumulators, sent-flags, and terminal outputs on top.
type Base struct {
	id     arch.NodeID
	bus    *substrate.Bus
	round  arch.Round
	tracer trace.Tracer
}

// NewBase constructs the shared peer state. round starts at 0; the
// driver advances it by calling AdvanceRound once per completed round.
func NewBase(id arch.NodeID, bus *substrate.Bus, tracer trace.Tracer) Base {
	if tracer == nil {
		tracer = trace.NopTracer{}
	}
	return Base{id: id, bus: bus, tracer: tracer}
}

// ID returns this peer's stable node identifier.
func (b *Base) ID() arch.NodeID { return b.id }

// Round returns the current logical round number.
func (b *Base) Round() arch.Round { return b.round }

// AdvanceRound is called by the driver once per round, after every peer's
// EndOfRound has run and the substrate has rotated its queues.
func (b *Base) AdvanceRound() { b.round++ }

// Tracer exposes the debug tracer so concrete peers can emit trace
// events without holding their own logger reference.
func (b *Base) Tracer() trace.Tracer { return b.tracer }

// InboundEmpty reports whether this node's current-round inbox is drained.
func (b *Base) InboundEmpty() bool { return b.bus.InboundEmpty(b.id) }

// PopInbound pops the next FIFO message from this node's current inbox.
func (b *Base) PopInbound() (arch.Message, bool) {
	msg, ok := b.bus.PopInbound(b.id)
	if ok {
		b.tracer.Recv(b.id, msg)
	}
	return msg, ok
}

// Broadcast delivers msg to every node's next inbox, including this one,
// and traces the send.
func (b *Base) Broadcast(msg arch.Message) {
	b.bus.Broadcast(msg)
	b.tracer.Send(b.id, msg)
}

// Equivocate delivers m0 to every node in g0 and m1 to every node in g1.
// Only a Byzantine sender on round 0 should call this.
func (b *Base) Equivocate(m0, m1 arch.Message, g0, g1 []arch.NodeID) {
	b.bus.Equivocate(m0, m1, g0, g1)
	b.tracer.Send(b.id, m0)
	b.tracer.Send(b.id, m1)
}
