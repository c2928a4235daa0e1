package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dedis-sim/brbsim/internal/arch"
)

func TestBroadcastFansOutToEveryNodeIncludingSelf(t *testing.T) {
	b := New(4)
	b.Broadcast(arch.Message{Type: "send", Source: 0, Value: 1})
	b.Rotate()

	for id := arch.NodeID(0); id < 4; id++ {
		require.Falsef(t, b.InboundEmpty(id), "node %d should have received the broadcast", id)
		msg, ok := b.PopInbound(id)
		require.True(t, ok)
		require.Equal(t, 1, msg.Value)
		require.True(t, b.InboundEmpty(id))
	}
}

func TestBroadcastPreservesSenderOrderAtEachReceiver(t *testing.T) {
	b := New(2)
	b.Broadcast(arch.Message{Type: "a", Source: 0, Value: 1})
	b.Broadcast(arch.Message{Type: "b", Source: 0, Value: 2})
	b.Rotate()

	m1, _ := b.PopInbound(1)
	m2, _ := b.PopInbound(1)
	require.Equal(t, arch.MsgType("a"), m1.Type)
	require.Equal(t, arch.MsgType("b"), m2.Type)
}

func TestEquivocateSplitsGroupsDisjointly(t *testing.T) {
	b := New(4)
	m0 := arch.Message{Type: "propose", Source: 0, Value: 0}
	m1 := arch.Message{Type: "propose", Source: 0, Value: 1}
	g0 := []arch.NodeID{1, 2}
	g1 := []arch.NodeID{3}
	b.Equivocate(m0, m1, g0, g1)
	b.Rotate()

	for _, id := range g0 {
		msg, ok := b.PopInbound(id)
		require.True(t, ok)
		require.Equal(t, 0, msg.Value)
	}
	for _, id := range g1 {
		msg, ok := b.PopInbound(id)
		require.True(t, ok)
		require.Equal(t, 1, msg.Value)
	}
	// Node 0 (the sender, in neither group) gets nothing.
	require.True(t, b.InboundEmpty(0))
}

func TestRotateDiscardsUndrainedCurrentInbox(t *testing.T) {
	b := New(1)
	b.Broadcast(arch.Message{Type: "x", Source: 0, Value: 0})
	b.Rotate()
	require.False(t, b.InboundEmpty(0))

	// Rotate again without draining: the stale message must not survive.
	b.Rotate()
	require.True(t, b.InboundEmpty(0))
}
