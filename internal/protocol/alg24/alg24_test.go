package alg24

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

func TestHonestSenderFastPathDeliversWithFinishingStepTwo(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolAlg24, N: 7, F: 1, Sender: 0, Value: 1,
		ByzantineNodes: honest(7),
		Combination:    config.Combination{"same", "same", "same"},
	}
	peers := run(cfg, 4)
	for _, pr := range peers {
		require.True(t, pr.Result.Delivered, "node %d should have delivered", pr.ID())
		require.Equal(t, 1, pr.Result.FinalValue)
		require.Equal(t, 2, pr.Result.FinishingStep)
	}
}

func TestAgreementHoldsUnderByzantineSenderEquivocation(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolAlg24, N: 7, F: 1, Sender: 0,
		ByzantineNodes: honest(7, 0),
		Group0:         []int{1, 2, 3},
		Group1:         []int{4, 5, 6},
		Combination:    config.Combination{"opposite", "same", "same"},
	}
	peers := run(cfg, 6)
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

func TestDeliveryIsMonotoneOnceRecorded(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolAlg24, N: 7, F: 1, Sender: 0, Value: 0,
		ByzantineNodes: honest(7),
		Combination:    config.Combination{"same", "same", "same"},
	}
	peers := run(cfg, 2)
	for _, pr := range peers {
		require.True(t, pr.Result.Delivered)
	}
	round, step, value := peers[1].Result.FinishedRound, peers[1].Result.FinishingStep, peers[1].Result.FinalValue

	// Further rounds must not perturb an already-delivered node's result:
	// PerformComputation short-circuits once Result.Delivered is true.
	for i := 0; i < 3; i++ {
		peers[1].PerformComputation()
		peers[1].EndOfRound()
		peers[1].AdvanceRound()
	}
	require.Equal(t, round, peers[1].Result.FinishedRound)
	require.Equal(t, step, peers[1].Result.FinishingStep)
	require.Equal(t, value, peers[1].Result.FinalValue)
}
