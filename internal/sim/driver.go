// Package sim is the simulation driver: it constructs the node set for a
// protocol, drives rounds across the substrate, and stops once every
// honest node has delivered or the round cap is reached.
package sim

import (
	"fmt"

	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/peer"
	"github.com/dedis-sim/brbsim/internal/protocol/alg23"
	"github.com/dedis-sim/brbsim/internal/protocol/alg24"
	"github.com/dedis-sim/brbsim/internal/protocol/bracha"
	"github.com/dedis-sim/brbsim/internal/protocol/cool"
	"github.com/dedis-sim/brbsim/internal/substrate"
	"github.com/dedis-sim/brbsim/internal/trace"
)

// Run drives cfg's protocol to completion (or the round cap) and returns
// the per-node terminal outcomes, indexed by node id.
func Run(cfg *config.Config, tracer trace.Tracer) ([]*peer.Result, error) {
	if tracer == nil {
		tracer = trace.NopTracer{}
	}

	bus := substrate.New(cfg.N)
	nodes, err := buildNodes(cfg, bus, tracer)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		n.Init()
	}
	// Round 0's proposal/dispersal lands in the bus's next inbox during
	// Init; rotate once before the round loop so PerformComputation can
	// see it on round 0.
	bus.Rotate()

	maxRounds := cfg.MaxRounds
	if maxRounds == 0 {
		maxRounds = 50
	}

	for round := 0; round < maxRounds; round++ {
		for _, n := range nodes {
			n.PerformComputation()
		}
		for _, n := range nodes {
			n.EndOfRound()
		}
		bus.Rotate()
		advanceRounds(nodes)

		if allHonestDelivered(cfg, nodes) {
			break
		}
	}

	results := make([]*peer.Result, cfg.N)
	for _, n := range nodes {
		results[n.ID()] = n.Outcome()
	}
	return results, nil
}

// buildNodes constructs one protocol peer per node id, dispatching on
// cfg.Protocol. Unknown protocols are a programmer error caught at
// config.Validate time, but Run defends again here since it can be
// called directly with a hand-built Config.
func buildNodes(cfg *config.Config, bus *substrate.Bus, tracer trace.Tracer) ([]peer.Node, error) {
	nodes := make([]peer.Node, cfg.N)
	for i := 0; i < cfg.N; i++ {
		id := arch.NodeID(i)
		switch cfg.Protocol {
		case config.ProtocolBracha:
			nodes[i] = bracha.New(id, cfg, bus, tracer)
		case config.ProtocolAlg23:
			nodes[i] = alg23.New(id, cfg, bus, tracer)
		case config.ProtocolAlg24:
			nodes[i] = alg24.New(id, cfg, bus, tracer)
		case config.ProtocolCOOL:
			nodes[i] = cool.New(id, cfg, bus, tracer)
		default:
			return nil, fmt.Errorf("sim: unknown protocol %q", cfg.Protocol)
		}
	}
	return nodes, nil
}

func advanceRounds(nodes []peer.Node) {
	for _, n := range nodes {
		n.AdvanceRound()
	}
}

// allHonestDelivered reports whether every honest node in cfg has
// delivered, the driver's early-termination condition alongside the
// round cap.
func allHonestDelivered(cfg *config.Config, nodes []peer.Node) bool {
	for _, id := range cfg.HonestNodes() {
		if !nodes[id].Outcome().Delivered {
			return false
		}
	}
	return true
}
