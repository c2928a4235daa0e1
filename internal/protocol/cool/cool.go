// Package cool implements the COOL dispersal-plus-data-dissemination
// protocol: a two-phase Byzantine broadcast that first disperses a
// Reed-Solomon-style codeword share to every node and then reconstructs
// the sender's value from a threshold of matching points.
package cool

import (
	"github.com/dedis-sim/brbsim/internal/arch"
	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/peer"
	"github.com/dedis-sim/brbsim/internal/substrate"
	"github.com/dedis-sim/brbsim/internal/trace"
)

const (
	MsgFx        arch.MsgType = "f(x)"
	MsgExchange  arch.MsgType = "exchange"
	MsgOk1       arch.MsgType = "ok1"
	MsgOk2       arch.MsgType = "ok2"
	MsgDone      arch.MsgType = "done"
	MsgYourPoint arch.MsgType = "yourpoint"
	MsgMyPoint   arch.MsgType = "mypoint"
)

// Peer is one node running COOL.
type Peer struct {
	peer.Base

	cfg         *config.Config
	isByzantine bool

	ok1Threshold                  int
	ok2Threshold                  int
	ok2DoneThreshold              int
	doneDoneThreshold             int
	dispersalTerminationThreshold int
	myPointThreshold              int
	decodeThreshold               int

	fx int

	sentOk1              bool
	sentOk2              bool
	sentDone             bool
	sentMyPoint          bool
	dispersalTermination bool

	A1       peer.NodeSet
	A2       peer.NodeSet
	Ok2Msgs  peer.NodeSet
	DoneMsgs peer.NodeSet
	M        peer.VoteMap // yourpoint: source -> value
	S        peer.VoteMap // mypoint: source -> value

	Result peer.Result
}

// New constructs a COOL peer for node id under cfg. The initial fx share
// is 0 for nodes in group_0 and 1 otherwise, and is overwritten the
// moment an f(x) message actually arrives from the sender.
func New(id arch.NodeID, cfg *config.Config, bus *substrate.Bus, tracer trace.Tracer) *Peer {
	fx := 1
	for _, g0 := range cfg.Group0 {
		if g0 == int(id) {
			fx = 0
			break
		}
	}
	return &Peer{
		Base:        peer.NewBase(id, bus, tracer),
		cfg:         cfg,
		isByzantine: cfg.IsByzantine(int(id)),
		fx:          fx,
		A1:          make(peer.NodeSet),
		A2:          make(peer.NodeSet),
		Ok2Msgs:     make(peer.NodeSet),
		DoneMsgs:    make(peer.NodeSet),
		M:           make(peer.VoteMap),
		S:           make(peer.VoteMap),
		Result:      peer.NewResult(),
	}
}

// Init derives this run's quorum thresholds and, for the designated
// sender, emits the round-0 codeword shares (equivocated if Byzantine).
func (p *Peer) Init() {
	n, f := p.cfg.N, p.cfg.F
	p.ok1Threshold = n - f
	p.ok2Threshold = n - f
	p.ok2DoneThreshold = 2*f + 1
	p.doneDoneThreshold = f + 1
	p.dispersalTerminationThreshold = 2*f + 1
	p.myPointThreshold = f + 1
	p.decodeThreshold = f + 1 + f/3

	if int(p.ID()) != p.cfg.Sender || p.Round() != 0 {
		return
	}
	if p.isByzantine {
		g0 := toNodeIDs(p.cfg.Group0)
		g1 := toNodeIDs(p.cfg.Group1)
		m0 := arch.Message{Type: MsgFx, Source: p.ID(), Value: 0}
		m1 := arch.Message{Type: MsgFx, Source: p.ID(), Value: 1}
		p.Equivocate(m0, m1, g0, g1)
		return
	}
	// An honest sender disperses one codeword share value to the whole
	// network (there is no split to equivocate), the same way the other
	// three protocols broadcast their honest round-0 proposal.
	p.Broadcast(arch.Message{Type: MsgFx, Source: p.ID(), Value: p.cfg.Value})
	p.Result.TotalMsgsSent += p.cfg.N
}

// PerformComputation drains this round's inbox, re-evaluates every
// dispersal and data-dissemination trigger after each message, and
// decodes a final value once enough matching points accumulate.
func (p *Peer) PerformComputation() {
	for !p.InboundEmpty() {
		m, ok := p.PopInbound()
		if !ok {
			break
		}

		switch m.Type {
		case MsgFx:
			p.fx = m.Value
			p.emitValue(MsgExchange, p.fx, 0)

		case MsgExchange:
			if m.Value == p.fx {
				p.A1.Add(m.Source)
			}

		case MsgOk1:
			if p.A1.Has(m.Source) {
				p.A2.Add(m.Source)
			}

		case MsgOk2:
			p.Ok2Msgs.Add(m.Source)

		case MsgDone:
			p.DoneMsgs.Add(m.Source)

		case MsgYourPoint:
			p.M.Record(m.Source, m.Value)

		case MsgMyPoint:
			p.S.Record(m.Source, m.Value)
		}

		p.checkOk1()
		p.checkOk2()
		p.checkDone()
		p.checkDispersalTermination()
		p.checkMyPoint()
		p.checkDecode()
	}

	p.Tracer().State(p.ID(), "cool", struct {
		Fx                    int
		A1, A2                int
		Ok2Msgs, DoneMsgs     int
		SentOk1, SentOk2      bool
		SentDone, SentMyPoint bool
	}{p.fx, p.A1.Len(), p.A2.Len(), p.Ok2Msgs.Len(), p.DoneMsgs.Len(),
		p.sentOk1, p.sentOk2, p.sentDone, p.sentMyPoint})
}

// EndOfRound has nothing protocol-specific to do for COOL.
func (p *Peer) EndOfRound() {
	p.Tracer().EndOfRound(p.Round())
}

// Outcome exposes this node's terminal result for the simulation driver
// and reporter, uniformly across protocols (internal/peer.Node).
func (p *Peer) Outcome() *peer.Result { return &p.Result }

func (p *Peer) checkOk1() {
	if p.sentOk1 || p.A1.Len() < p.ok1Threshold {
		return
	}
	p.sentOk1 = true
	p.emitFlag(MsgOk1, 1)
}

func (p *Peer) checkOk2() {
	if p.sentOk2 || p.A2.Len() < p.ok2Threshold {
		return
	}
	p.sentOk2 = true
	p.emitFlag(MsgOk2, 2)
}

func (p *Peer) checkDone() {
	if p.sentDone {
		return
	}
	if p.Ok2Msgs.Len() < p.ok2DoneThreshold && p.DoneMsgs.Len() < p.doneDoneThreshold {
		return
	}
	p.sentDone = true
	p.emitFlag(MsgDone, 3)
}

// checkDispersalTermination fires once done_msgs crosses the threshold.
// A node that never sent ok2 is withholding a share of the codeword it
// never matched, so it emits nothing here.
func (p *Peer) checkDispersalTermination() {
	if p.dispersalTermination || p.DoneMsgs.Len() < p.dispersalTerminationThreshold {
		return
	}
	p.dispersalTermination = true
	if !p.sentOk2 {
		return
	}
	p.emitValue(MsgYourPoint, p.fx, 4)
}

func (p *Peer) checkMyPoint() {
	if p.sentMyPoint {
		return
	}
	v, ok := p.M.AnyAtLeast(p.myPointThreshold)
	if !ok {
		return
	}
	p.sentMyPoint = true
	p.emitValue(MsgMyPoint, v, 5)
}

// checkDecode is the protocol's single delivery point. COOL has no
// numbered step sequence the way Alg23/Alg24/Bracha do, so finishing
// step 1 here just marks "reconstructed from mypoint shares".
func (p *Peer) checkDecode() {
	if p.Result.Delivered || p.isByzantine {
		return
	}
	v, ok := p.S.AnyAtLeast(p.decodeThreshold)
	if !ok {
		return
	}
	p.Result.Deliver(v, p.Round(), 1)
	p.Tracer().Delivered(p.ID(), v, p.Round(), 1)
}

// emitValue broadcasts a value-carrying message (exchange, yourpoint,
// mypoint), transforming the value via this node's Byzantine strategy at
// combIdx when applicable, and suppressing the broadcast entirely for
// "silent".
func (p *Peer) emitValue(t arch.MsgType, v int, combIdx int) {
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

// emitFlag broadcasts a no-value membership message (ok1, ok2, done),
// which a Byzantine node suppresses for "silent" at combIdx but otherwise
// sends unmodified, since these carry no value field for byz to
// transform.
func (p *Peer) emitFlag(t arch.MsgType, combIdx int) {
	if p.isByzantine {
		if p.cfg.Combination.At(combIdx) == string(peer.Silent) {
			return
		}
		p.Broadcast(arch.Message{Type: t, Source: p.ID()})
		return
	}
	p.Broadcast(arch.Message{Type: t, Source: p.ID()})
	p.Result.TotalMsgsSent += p.cfg.N
}

func toNodeIDs(ids []int) []arch.NodeID {
	out := make([]arch.NodeID, len(ids))
	for i, id := range ids {
		out[i] = arch.NodeID(id)
	}
	return out
}
