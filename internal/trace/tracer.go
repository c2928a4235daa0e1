// Package trace moves the simulation's debug surface behind an interface:
// a pluggable Tracer so no protocol peer holds onto a logger or any
// string/ANSI-escape state directly.
package trace

import (
	"fmt"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/dedis-sim/brbsim/internal/arch"
)

// Tracer receives the events a debug run cares about: inbound/outbound
// messages, delivery, and free-form per-round state dumps. Formatting is
// not contractual.
type Tracer interface {
	Recv(node arch.NodeID, msg arch.Message)
	Send(node arch.NodeID, msg arch.Message)
	Delivered(node arch.NodeID, value int, round arch.Round, step int)
	State(node arch.NodeID, label string, v interface{})
	EndOfRound(round arch.Round)
}

// NopTracer discards every event. It is the default when a config does
// not request debug_prints.
type NopTracer struct{}

func (NopTracer) Recv(arch.NodeID, arch.Message)              {}
func (NopTracer) Send(arch.NodeID, arch.Message)              {}
func (NopTracer) Delivered(arch.NodeID, int, arch.Round, int) {}
func (NopTracer) State(arch.NodeID, string, interface{})      {}
func (NopTracer) EndOfRound(arch.Round)                       {}

// ColorTracer pairs a zap.Logger for structured round/driver events with
// fatih/color for the inbound/outbound per-message lines, so debug output
// stays readable even with many nodes interleaved on one terminal.
type ColorTracer struct {
	log *zap.Logger

	in   *color.Color
	out  *color.Color
	done *color.Color
}

// NewColorTracer builds a ColorTracer backed by a development zap.Logger
// (human-readable console output) and a blue/green/red palette for
// inbound, outbound, and delivery lines respectively.
func NewColorTracer() *ColorTracer {
	log, err := zap.NewDevelopment()
	if err != nil {
		// zap.NewDevelopment only fails if the encoder config itself is
		// invalid, which it never is for the canonical development config.
		panic(err)
	}
	return &ColorTracer{
		log:  log,
		in:   color.New(color.FgBlue),
		out:  color.New(color.FgGreen),
		done: color.New(color.FgRed),
	}
}

func (t *ColorTracer) Recv(node arch.NodeID, msg arch.Message) {
	t.in.Printf("node_%d <-- (%s, s:%d, v:%d)\n", node, msg.Type, msg.Source, msg.Value)
}

func (t *ColorTracer) Send(node arch.NodeID, msg arch.Message) {
	t.out.Printf("node_%d --> (%s, s:%d, v:%d)\n", node, msg.Type, msg.Source, msg.Value)
}

func (t *ColorTracer) Delivered(node arch.NodeID, value int, round arch.Round, step int) {
	t.done.Printf("node_%d DELIVERED value %d in round %d (step %d)\n", node, value, round, step)
	t.log.Info("delivered",
		zap.Int("node", int(node)),
		zap.Int("value", value),
		zap.Int("round", int(round)),
		zap.Int("step", step),
	)
}

func (t *ColorTracer) State(node arch.NodeID, label string, v interface{}) {
	t.log.Debug(fmt.Sprintf("node_%d %s", node, label), zap.Any("state", v))
}

func (t *ColorTracer) EndOfRound(round arch.Round) {
	t.log.Debug("end of round", zap.Int("round", int(round)))
}
