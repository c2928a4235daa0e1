package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/peer"
)

func delivered(v int, round int) *peer.Result {
	r := peer.NewResult()
	r.Deliver(v, arch.Round(round), 2)
	return &r
}

func TestBuildAllHonestDeliveredAndAgree(t *testing.T) {
	cfg := &config.Config{Protocol: config.ProtocolBracha, N: 3, F: 1, ByzantineNodes: []int{0, 0, 0}}
	results := []*peer.Result{delivered(1, 2), delivered(1, 2), delivered(1, 2)}

	run := Build(cfg, results)
	require.True(t, run.AllHonestDelivered)
	require.Equal(t, 1, run.AgreementValue)
	require.Len(t, run.Nodes, 3)
	require.NotEmpty(t, run.RunID)
}

func TestBuildDisagreementYieldsNegativeAgreement(t *testing.T) {
	cfg := &config.Config{Protocol: config.ProtocolBracha, N: 2, F: 0, ByzantineNodes: []int{0, 0}}
	results := []*peer.Result{delivered(0, 1), delivered(1, 1)}

	run := Build(cfg, results)
	require.Equal(t, -1, run.AgreementValue)
}

func TestBuildExcludesByzantineFromAgreementAndCompletion(t *testing.T) {
	cfg := &config.Config{Protocol: config.ProtocolBracha, N: 2, F: 1, ByzantineNodes: []int{1, 0}}
	notDelivered := peer.NewResult()
	results := []*peer.Result{&notDelivered, delivered(0, 1)}

	run := Build(cfg, results)
	require.True(t, run.AllHonestDelivered, "the one honest node delivered; the byzantine node's non-delivery must not count")
	require.Equal(t, 0, run.AgreementValue)
}

func TestWriteJSONAndCSVRoundTripShape(t *testing.T) {
	cfg := &config.Config{Protocol: config.ProtocolBracha, N: 1, F: 0, ByzantineNodes: []int{0}}
	run := Build(cfg, []*peer.Result{delivered(1, 3)})

	var jsonBuf, csvBuf bytes.Buffer
	require.NoError(t, run.WriteJSON(&jsonBuf))
	require.NoError(t, run.WriteCSV(&csvBuf))

	require.Contains(t, jsonBuf.String(), `"agreement_value": 1`)
	require.Contains(t, csvBuf.String(), "node_id,byzantine,delivered")
}
