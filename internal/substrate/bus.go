// Package substrate implements the round-synchronous broadcast channel
// that the simulation driver runs every node's message traffic through.
// It is the "message substrate" of the harness: infallible, in-memory,
// and oblivious to what a protocol peer's messages mean.
package substrate

import "github.com/dedis-sim/brbsim/internal/arch"

// Bus holds, for every node, a current inbox (readable during the active
// round) and a next inbox (write-only via Broadcast/Equivocate). Rotate
// swaps them at the round boundary: one round's writes become the next
// round's reads.
type Bus struct {
	n       int
	current [][]arch.Message
	next    [][]arch.Message
}

// New creates a Bus sized for n nodes, all inboxes empty.
func New(n int) *Bus {
	return &Bus{
		n:       n,
		current: make([][]arch.Message, n),
		next:    make([][]arch.Message, n),
	}
}

// Broadcast appends msg to the next inbox of every node, including the
// sender. Fan-out is always n regardless of the message's Source field.
func (b *Bus) Broadcast(msg arch.Message) {
	for i := 0; i < b.n; i++ {
		b.next[i] = append(b.next[i], msg)
	}
}

// Equivocate appends m0 to the next inbox of every node in g0 and m1 to
// the next inbox of every node in g1. Nodes in neither set receive
// nothing. Only a Byzantine sender uses this, and only to split its
// round-0 proposal across the honest audience.
func (b *Bus) Equivocate(m0, m1 arch.Message, g0, g1 []arch.NodeID) {
	for _, id := range g0 {
		b.next[id] = append(b.next[id], m0)
	}
	for _, id := range g1 {
		b.next[id] = append(b.next[id], m1)
	}
}

// PopInbound removes and returns the oldest message in node id's current
// inbox, FIFO, and true. Returns the zero Message and false if empty.
func (b *Bus) PopInbound(id arch.NodeID) (arch.Message, bool) {
	q := b.current[id]
	if len(q) == 0 {
		return arch.Message{}, false
	}
	msg := q[0]
	b.current[id] = q[1:]
	return msg, true
}

// InboundEmpty reports whether node id's current inbox has been fully
// drained for this round.
func (b *Bus) InboundEmpty(id arch.NodeID) bool {
	return len(b.current[id]) == 0
}

// Rotate discards whatever remains of the current inboxes and promotes
// next to current, readying the bus for the following round.
func (b *Bus) Rotate() {
	b.current = b.next
	b.next = make([][]arch.Message, b.n)
}
