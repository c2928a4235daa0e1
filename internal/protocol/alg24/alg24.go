// Package alg24 implements the four-message-kind "Alg24" refinement of
// Alg23: a fast two-round commit path gated on acks alone, and a slower
// vote1/vote2 path with f+1 amplification.
package alg24

import (
	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/peer"
	"github.com/dedis-sim/brbsim/internal/substrate"
	"github.com/dedis-sim/brbsim/internal/trace"
)

const (
	MsgPropose arch.MsgType = "propose"
	MsgAck     arch.MsgType = "ack"
	MsgVote1   arch.MsgType = "vote1"
	MsgVote2   arch.MsgType = "vote2"
)

// Peer is one node running Alg24.
type Peer struct {
	peer.Base

	cfg         *config.Config
	isByzantine bool

	ackDeliveryThreshold   int
	ackVote1Threshold      int
	vote1Vote2Threshold    int
	vote2Vote2Threshold    int
	vote2DeliveryThreshold int

	isFirstPropose bool
	ackSent        bool
	vote1Sent      bool
	vote2Sent      bool

	ackMsgs   peer.VoteMap
	vote1Msgs peer.VoteMap
	vote2Msgs peer.VoteMap

	Result peer.Result
}

// New constructs an Alg24 peer for node id under cfg.
func New(id arch.NodeID, cfg *config.Config, bus *substrate.Bus, tracer trace.Tracer) *Peer {
	return &Peer{
		Base:           peer.NewBase(id, bus, tracer),
		cfg:            cfg,
		isByzantine:    cfg.IsByzantine(int(id)),
		isFirstPropose: true,
		ackMsgs:        make(peer.VoteMap),
		vote1Msgs:      make(peer.VoteMap),
		vote2Msgs:      make(peer.VoteMap),
		Result:         peer.NewResult(),
	}
}

// Init derives this run's quorum thresholds and, for the designated
// sender, emits the round-0 proposal (equivocated if Byzantine).
func (p *Peer) Init() {
	n, f := p.cfg.N, p.cfg.F
	p.ackDeliveryThreshold = n - f - 1
	p.ackVote1Threshold = n - 2*f
	p.vote1Vote2Threshold = n - f - 1
	p.vote2Vote2Threshold = f + 1
	p.vote2DeliveryThreshold = n - f - 1

	if int(p.ID()) != p.cfg.Sender || p.Round() != 0 {
		return
	}
	if p.isByzantine {
		g0 := toNodeIDs(p.cfg.Group0)
		g1 := toNodeIDs(p.cfg.Group1)
		m0 := arch.Message{Type: MsgPropose, Source: p.ID(), Value: 0}
		m1 := arch.Message{Type: MsgPropose, Source: p.ID(), Value: 1}
		p.Equivocate(m0, m1, g0, g1)
	} else {
		p.Broadcast(arch.Message{Type: MsgPropose, Source: p.ID(), Value: p.cfg.Value})
		p.Result.TotalMsgsSent += p.cfg.N
	}
}

// PerformComputation drains this round's inbox and runs the
// propose/ack/vote1/vote2 state machine. The fast path (ackDeliveryThreshold
// acks) flips Delivered as soon as it fires, on every node including a
// Byzantine one, but only records an honest node's final value/round/step;
// the slow path (vote2DeliveryThreshold vote2s) only delivers at all on an
// honest node. See DESIGN.md for why that asymmetry between the two paths
// is kept rather than unified.
func (p *Peer) PerformComputation() {
	if p.Result.Delivered {
		return
	}

	for !p.InboundEmpty() {
		m, ok := p.PopInbound()
		if !ok {
			break
		}

		switch m.Type {
		case MsgPropose:
			if p.isFirstPropose {
				p.emit(MsgAck, m.Value, 0, &p.ackSent)
				p.isFirstPropose = false
			}

		case MsgAck:
			p.ackMsgs.Record(m.Source, m.Value)
			count := p.ackMsgs.Count(m.Value)

			if count >= p.ackDeliveryThreshold && !p.Result.Delivered {
				p.fastPathCommit(m.Value)
			} else if count >= p.ackVote1Threshold && !p.vote1Sent {
				p.emit(MsgVote1, m.Value, 1, &p.vote1Sent)
			}

		case MsgVote1:
			p.vote1Msgs.Record(m.Source, m.Value)
			if p.vote1Msgs.Count(m.Value) >= p.vote1Vote2Threshold && !p.vote2Sent {
				p.emit(MsgVote2, m.Value, 2, &p.vote2Sent)
			}

		case MsgVote2:
			p.vote2Msgs.Record(m.Source, m.Value)
			count := p.vote2Msgs.Count(m.Value)

			if count >= p.vote2Vote2Threshold && !p.vote2Sent {
				p.emit(MsgVote2, m.Value, 2, &p.vote2Sent)
			}
			if count >= p.vote2DeliveryThreshold && !p.Result.Delivered && !p.isByzantine {
				p.Result.Deliver(m.Value, p.Round(), 4)
				p.Tracer().Delivered(p.ID(), m.Value, p.Round(), 4)
			}
		}
	}

	p.Tracer().State(p.ID(), "alg24", struct {
		AckSent, Vote1Sent, Vote2Sent bool
	}{p.ackSent, p.vote1Sent, p.vote2Sent})
}

// EndOfRound has nothing protocol-specific to do for Alg24.
func (p *Peer) EndOfRound() {
	p.Tracer().EndOfRound(p.Round())
}

// Outcome exposes this node's terminal result for the simulation driver
// and reporter, uniformly across protocols (internal/peer.Node).
func (p *Peer) Outcome() *peer.Result { return &p.Result }

// fastPathCommit is the two-round commit path: it broadcasts vote1 and
// vote2 for v and marks this node delivered, on every node including a
// Byzantine one. It leaves final value/round/step at their sentinel -1
// for a Byzantine node; the slow path never delivers a Byzantine node
// at all, so this is the only place that split shows up.
func (p *Peer) fastPathCommit(v int) {
	p.emit(MsgVote1, v, 1, &p.vote1Sent)
	p.emit(MsgVote2, v, 2, &p.vote2Sent)
	if p.isByzantine {
		p.Result.Delivered = true
		return
	}
	p.Result.Deliver(v, p.Round(), 2)
	p.Tracer().Delivered(p.ID(), v, p.Round(), 2)
}

// emit sends a possibly combination-transformed message of type t for
// value v, sets *sentFlag regardless of whether a Byzantine "silent"
// strategy suppressed the actual broadcast, and counts only honest
// fan-out against TotalMsgsSent.
func (p *Peer) emit(t arch.MsgType, v int, combIdx int, sentFlag *bool) {
	*sentFlag = true
	if p.isByzantine {
		strategy := p.cfg.Combination.At(combIdx)
		if strategy == string(peer.Silent) {
			return
		}
		p.Broadcast(arch.Message{Type: t, Source: p.ID(), Value: peer.Byz(strategy, v)})
		return
	}
	p.Broadcast(arch.Message{Type: t, Source: p.ID(), Value: v})
	p.Result.TotalMsgsSent += p.cfg.N
}

func toNodeIDs(ids []int) []arch.NodeID {
	out := make([]arch.NodeID, len(ids))
	for i, id := range ids {
		out[i] = arch.NodeID(id)
	}
	return out
}
