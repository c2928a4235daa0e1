// Package alg23 implements the "Alg23" ack-based binary broadcast
// protocol: one threshold (n-2f) to re-ack a value once enough matching
// acks are seen, and a second threshold (n-f-1) to deliver; the two are
// equal when f=1.
package alg23

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
)

// Peer is one node running Alg23.
type Peer struct {
	peer.Base

	cfg         *config.Config
	isByzantine bool

	ackAckThreshold      int
	ackDeliveryThreshold int

	isFirstPropose bool
	sentAck        map[int]bool // values this node has broadcast (or would have) an ack for
	ackMsgs        peer.VoteMap

	Result peer.Result
}

// New constructs an Alg23 peer for node id under cfg.
func New(id arch.NodeID, cfg *config.Config, bus *substrate.Bus, tracer trace.Tracer) *Peer {
	return &Peer{
		Base:           peer.NewBase(id, bus, tracer),
		cfg:            cfg,
		isByzantine:    cfg.IsByzantine(int(id)),
		isFirstPropose: true,
		sentAck:        make(map[int]bool),
		ackMsgs:        make(peer.VoteMap),
		Result:         peer.NewResult(),
	}
}

// Init derives this run's quorum thresholds and, for the designated
// sender, emits the round-0 proposal (equivocated if Byzantine).
func (p *Peer) Init() {
	n, f := p.cfg.N, p.cfg.F
	p.ackAckThreshold = n - 2*f
	p.ackDeliveryThreshold = n - f - 1

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

// PerformComputation drains this round's inbox and runs the propose/ack
// state machine: the first propose seen triggers an ack, enough matching
// acks trigger a re-ack, and ackDeliveryThreshold matching acks deliver.
func (p *Peer) PerformComputation() {
	if p.Result.Delivered {
		return
	}

	for !p.InboundEmpty() {
		m, ok := p.PopInbound()
		if !ok {
			break
		}

		if m.Type == MsgPropose && p.isFirstPropose {
			p.ackFor(m.Value)
			p.isFirstPropose = false
		}

		if m.Type != MsgAck {
			continue
		}
		p.ackMsgs.Record(m.Source, m.Value)

		if count := p.ackMsgs.Count(m.Value); count >= p.ackAckThreshold && !p.sentAck[m.Value] {
			p.ackFor(m.Value)
		}

		if count := p.ackMsgs.Count(m.Value); count >= p.ackDeliveryThreshold && !p.Result.Delivered && !p.isByzantine {
			step := 3
			if len(p.sentAck) == 1 {
				step = 2
			}
			p.Result.Deliver(m.Value, p.Round(), step)
			p.Tracer().Delivered(p.ID(), m.Value, p.Round(), step)
		}
	}

	p.Tracer().State(p.ID(), "alg23", struct {
		SentAck map[int]bool
		AckMsgs peer.VoteMap
	}{p.sentAck, p.ackMsgs})
}

// EndOfRound has nothing protocol-specific to do for Alg23.
func (p *Peer) EndOfRound() {
	p.Tracer().EndOfRound(p.Round())
}

// Outcome exposes this node's terminal result for the simulation driver
// and reporter, uniformly across protocols (internal/peer.Node).
func (p *Peer) Outcome() *peer.Result { return &p.Result }

// ackFor broadcasts an ack for the triggering value v (transformed by
// this node's combination strategy if Byzantine, suppressed entirely if
// "silent"), and records v — not the transmitted value — into sentAck so
// the node's own bookkeeping never depends on what it actually lied
// about: a Byzantine node still advances its is_first_propose/sent_ack
// state consistently so it does not re-emit for the same value.
func (p *Peer) ackFor(v int) {
	p.sentAck[v] = true
	if p.isByzantine {
		strategy := p.cfg.Combination.At(0)
		if strategy == string(peer.Silent) {
			return
		}
		p.Broadcast(arch.Message{Type: MsgAck, Source: p.ID(), Value: peer.Byz(strategy, v)})
		return
	}
	p.Broadcast(arch.Message{Type: MsgAck, Source: p.ID(), Value: v})
	p.Result.TotalMsgsSent += p.cfg.N
}

func toNodeIDs(ids []int) []arch.NodeID {
	out := make([]arch.NodeID, len(ids))
	for i, id := range ids {
		out[i] = arch.NodeID(id)
	}
	return out
}
