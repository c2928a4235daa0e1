// Package bracha implements Bracha's classical double-echo Byzantine
// Reliable Broadcast: send, echo, ready, deliver.
package bracha

import (
	"math"

	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/peer"
	"github.com/dedis-sim/brbsim/internal/substrate"
	"github.com/dedis-sim/brbsim/internal/trace"
)

const (
	MsgSend  arch.MsgType = "send"
	MsgEcho  arch.MsgType = "echo"
	MsgReady arch.MsgType = "ready"
)

// Peer is one node running Bracha's protocol.
type Peer struct {
	peer.Base

	cfg         *config.Config
	isByzantine bool

	echoThreshold     int
	readyThreshold    int
	deliveryThreshold int

	sentEcho  bool
	sentReady bool

	echoMsgs  peer.VoteMap
	readyMsgs peer.VoteMap

	Result peer.Result
}

// New constructs a Bracha peer for node id under cfg, wired to bus and
// tracer.
func New(id arch.NodeID, cfg *config.Config, bus *substrate.Bus, tracer trace.Tracer) *Peer {
	return &Peer{
		Base:        peer.NewBase(id, bus, tracer),
		cfg:         cfg,
		isByzantine: cfg.IsByzantine(int(id)),
		echoMsgs:    make(peer.VoteMap),
		readyMsgs:   make(peer.VoteMap),
		Result:      peer.NewResult(),
	}
}

// Init computes this run's quorum thresholds and, if this node is the
// designated sender and Byzantine, equivocates its round-0 "send"
// proposal across the two honest groups.
func (p *Peer) Init() {
	n, f := p.cfg.N, p.cfg.F
	p.echoThreshold = int(math.Ceil(float64(n+f+1) / 2.0))
	p.readyThreshold = f + 1
	p.deliveryThreshold = 2*f + 1

	if int(p.ID()) != p.cfg.Sender || p.Round() != 0 {
		return
	}
	if p.isByzantine {
		g0 := toNodeIDs(p.cfg.Group0)
		g1 := toNodeIDs(p.cfg.Group1)
		m0 := arch.Message{Type: MsgSend, Source: p.ID(), Value: 0}
		m1 := arch.Message{Type: MsgSend, Source: p.ID(), Value: 1}
		p.Equivocate(m0, m1, g0, g1)
	} else {
		p.Broadcast(arch.Message{Type: MsgSend, Source: p.ID(), Value: p.cfg.Value})
		p.Result.TotalMsgsSent += p.cfg.N
	}
}

// PerformComputation drains this round's inbox and runs the echo/ready/
// deliver state machine: a send triggers an echo, enough matching echoes
// or readies trigger a ready, and enough matching readies deliver.
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
		case MsgEcho:
			p.echoMsgs.Record(m.Source, m.Value)
		case MsgReady:
			p.readyMsgs.Record(m.Source, m.Value)
		}

		if !p.sentEcho && m.Type == MsgSend {
			p.emit(MsgEcho, m.Value, 0)
			p.sentEcho = true
		}

		if !p.sentReady {
			if v, ok := p.echoMsgs.AnyAtLeast(p.echoThreshold); ok {
				p.emit(MsgReady, v, 1)
				p.sentReady = true
			} else if v, ok := p.readyMsgs.AnyAtLeast(p.readyThreshold); ok {
				p.emit(MsgReady, v, 1)
				p.sentReady = true
			}
		}

		if !p.Result.Delivered && !p.isByzantine {
			if v, ok := p.readyMsgs.AnyAtLeast(p.deliveryThreshold); ok {
				p.Result.Deliver(v, p.Round(), 3)
				p.Tracer().Delivered(p.ID(), v, p.Round(), 3)
			}
		}
	}

	p.Tracer().State(p.ID(), "bracha", struct {
		SentEcho, SentReady bool
		Echo, Ready         peer.VoteMap
	}{p.sentEcho, p.sentReady, p.echoMsgs, p.readyMsgs})
}

// EndOfRound has nothing protocol-specific to do for Bracha; the driver
// always calls it for symmetry with the other protocols.
func (p *Peer) EndOfRound() {
	p.Tracer().EndOfRound(p.Round())
}

// Outcome exposes this node's terminal result for the simulation driver
// and reporter, uniformly across protocols (internal/peer.Node).
func (p *Peer) Outcome() *peer.Result { return &p.Result }

// emit sends a combination[0]/combination[1]-transformed echo or ready
// message if this node is Byzantine, or the honest value otherwise,
// counting only honest fan-out against TotalMsgsSent.
func (p *Peer) emit(t arch.MsgType, value int, combIdx int) {
	if p.isByzantine {
		strategy := p.cfg.Combination.At(combIdx)
		if strategy == string(peer.Silent) {
			return
		}
		p.Broadcast(arch.Message{Type: t, Source: p.ID(), Value: peer.Byz(strategy, value)})
		return
	}
	p.Broadcast(arch.Message{Type: t, Source: p.ID(), Value: value})
	p.Result.TotalMsgsSent += p.cfg.N
}

func toNodeIDs(ids []int) []arch.NodeID {
	out := make([]arch.NodeID, len(ids))
	for i, id := range ids {
		out[i] = arch.NodeID(id)
	}
	return out
}
