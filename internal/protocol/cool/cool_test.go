package cool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/substrate"
	"github.com/dedis-sim/brbsim/internal/trace"
)

func run(cfg *config.Config, maxRounds int) []*Peer {
	bus := substrate.New(cfg.N)
	peers := make([]*Peer, cfg.N)
	for i := 0; i < cfg.N; i++ {
		peers[i] = New(arch.NodeID(i), cfg, bus, trace.NopTracer{})
	}
	for _, pr := range peers {
		pr.Init()
	}
	bus.Rotate()
	for round := 0; round < maxRounds; round++ {
		for _, pr := range peers {
			pr.PerformComputation()
		}
		for _, pr := range peers {
			pr.EndOfRound()
		}
		bus.Rotate()
		for _, pr := range peers {
			pr.AdvanceRound()
		}
	}
	return peers
}

func allHonest(n int) []int { return make([]int, n) }

func allNodes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestHonestSenderAllNodesDecodeValue(t *testing.T) {
	n := 10
	cfg := &config.Config{
		Protocol: config.ProtocolCOOL, N: n, F: 3, Sender: 0, Value: 0,
		ByzantineNodes: allHonest(n),
		Group0:         allNodes(n),
		Combination:    config.Combination{"same", "same", "same", "same", "same", "same"},
	}
	peers := run(cfg, 10)
	for _, pr := range peers {
		require.True(t, pr.Result.Delivered, "node %d should have decoded", pr.ID())
		require.Equal(t, 0, pr.Result.FinalValue)
	}
}

func TestByzantineSenderEquivocationHonestNodesAgree(t *testing.T) {
	n := 10
	byz := allHonest(n)
	byz[0] = 1
	cfg := &config.Config{
		Protocol: config.ProtocolCOOL, N: n, F: 3, Sender: 0,
		ByzantineNodes: byz,
		Group0:         []int{1, 2, 3, 4, 5},
		Group1:         []int{6, 7, 8, 9},
		Combination:    config.Combination{"opposite", "same", "same", "same", "same", "same"},
	}
	peers := run(cfg, 12)
	var delivered *int
	for _, pr := range peers {
		if cfg.IsByzantine(int(pr.ID())) || !pr.Result.Delivered {
			continue
		}
		if delivered == nil {
			v := pr.Result.FinalValue
			delivered = &v
		} else {
			require.Equal(t, *delivered, pr.Result.FinalValue, "agreement violated")
		}
	}
}

func TestByzantineNodeNeverDecodesItsOwnResult(t *testing.T) {
	n := 10
	byz := allHonest(n)
	byz[9] = 1
	cfg := &config.Config{
		Protocol: config.ProtocolCOOL, N: n, F: 3, Sender: 0, Value: 1,
		ByzantineNodes: byz,
		Group0:         allNodes(n),
		Combination:    config.Combination{"silent", "silent", "silent", "silent", "silent", "silent"},
	}
	peers := run(cfg, 10)
	require.False(t, peers[9].Result.Delivered, "a byzantine node's own decode check is always skipped")
}
