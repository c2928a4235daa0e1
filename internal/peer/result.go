package peer

import "github.com/dedis-sim/brbsim/internal/arch"

// Result is the terminal, per-node output every protocol peer produces.
// FinalValue, FinishedRound, and FinishingStep are -1 ("not reached")
// until Delivered flips true, at which point they freeze.
type Result struct {
	Delivered     bool
	FinalValue    int
	FinishedRound arch.Round
	FinishingStep int
	TotalMsgsSent int
}

// NewResult returns the "not reached yet" sentinel result.
func NewResult() Result {
	return Result{FinalValue: -1, FinishedRound: -1, FinishingStep: -1}
}

// Deliver freezes the terminal outputs the first time it is called; later
// calls are no-ops, enforcing that delivery is monotone: false to true
// exactly once, never reversed.
func (r *Result) Deliver(value int, round arch.Round, step int) {
	if r.Delivered {
		return
	}
	r.Delivered = true
	r.FinalValue = value
	r.FinishedRound = round
	r.FinishingStep = step
}
