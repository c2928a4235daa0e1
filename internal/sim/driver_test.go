package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/trace"
)

func TestRunBrachaHonestSenderAllDeliverSameValue(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolBracha, N: 4, F: 1, Sender: 0, Value: 1,
		ByzantineNodes: []int{0, 0, 0, 0},
		Combination:    config.Combination{"same", "same"},
		MaxRounds:      5,
	}
	results, err := Run(cfg, trace.NopTracer{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		require.True(t, r.Delivered, "node %d should have delivered", i)
		require.Equal(t, 1, r.FinalValue)
	}
}

func TestRunStopsEarlyOnAllHonestDelivered(t *testing.T) {
	cfg := &config.Config{
		Protocol: config.ProtocolAlg23, N: 7, F: 1, Sender: 0, Value: 0,
		ByzantineNodes: make([]int, 7),
		Combination:    config.Combination{"same"},
		MaxRounds:      50,
	}
	results, err := Run(cfg, trace.NopTracer{})
	require.NoError(t, err)
	for _, r := range results {
		require.True(t, r.Delivered)
		require.Less(t, int(r.FinishedRound), 10, "should terminate well before the round cap")
	}
}

func TestRunRejectsUnknownProtocol(t *testing.T) {
	cfg := &config.Config{
		Protocol: "not-a-protocol", N: 3, F: 0, Sender: 0,
		ByzantineNodes: []int{0, 0, 0},
	}
	_, err := Run(cfg, trace.NopTracer{})
	require.Error(t, err)
}
