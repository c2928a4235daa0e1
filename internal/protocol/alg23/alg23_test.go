package alg23

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

func honest(n int, byz ...int) []int {
	out := make([]int, n)
	for _, b := range byz {
		out[b] = 1
	}
	return out
}

func TestHonestSenderAllNodesDeliverWithFinishingStepTwo(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolAlg23, N: 7, F: 1, Sender: 0, Value: 0,
		ByzantineNodes: honest(7),
		Combination:    config.Combination{"same"},
	}
	peers := run(cfg, 4)
	for _, pr := range peers {
		require.True(t, pr.Result.Delivered, "node %d should have delivered", pr.ID())
		require.Equal(t, 0, pr.Result.FinalValue)
		require.Equal(t, 2, pr.Result.FinishingStep)
	}
}

func TestByzantineSenderOpposingAcksStillAgree(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolAlg23, N: 7, F: 1, Sender: 0,
		ByzantineNodes: honest(7, 0),
		Group0:         []int{1, 2, 3},
		Group1:         []int{4, 5, 6},
		Combination:    config.Combination{"opposite"},
	}
	peers := run(cfg, 5)
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
