package peer

import "github.com/dedis-sim/brbsim/internal/arch"

// VoteMap is a "last write from a source wins per message type"
// accumulator: a map keyed by source, not a multiset, so a Byzantine
// node that equivocates on the same (type, round) casts at most one
// counted vote.
type VoteMap map[arch.NodeID]int

// Record overwrites any prior vote from source with value.
func (m VoteMap) Record(source arch.NodeID, value int) {
	m[source] = value
}

// Count returns how many distinct sources currently have value recorded.
// This is the quorum-counting primitive every protocol's threshold checks
// reduce to; it is monotone in m (adding a source can only raise a count,
// never lower one).
func (m VoteMap) Count(value int) int {
	n := 0
	for _, v := range m {
		if v == value {
			n++
		}
	}
	return n
}

// AnyAtLeast returns the first value (scanning 0 then 1, so results are
// deterministic when both happen to qualify) whose vote count meets or
// exceeds threshold, and true. Returns 0, false if no value qualifies.
func (m VoteMap) AnyAtLeast(threshold int) (int, bool) {
	for _, v := range []int{0, 1} {
		if m.Count(v) >= threshold {
			return v, true
		}
	}
	return 0, false
}

// NodeSet is a simple membership set over node ids, used for COOL's A1/A2/
// ok2/done source-membership accumulators, which track "who sent this"
// rather than "who sent which value".
type NodeSet map[arch.NodeID]struct{}

func (s NodeSet) Add(id arch.NodeID)      { s[id] = struct{}{} }
func (s NodeSet) Has(id arch.NodeID) bool { _, ok := s[id]; return ok }
func (s NodeSet) Len() int                { return len(s) }
