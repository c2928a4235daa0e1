// Package config loads and validates the per-run simulation document:
// node count, fault bound, the designated sender, the Byzantine/honest
// partition, the equivocation groups, and the adversarial strategy
// vector for whichever protocol is selected.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	multierror "github.com/hashicorp/go-multierror"
)

// Protocol names the BRB algorithm a run exercises.
type Protocol string

const (
	ProtocolBracha Protocol = "bracha"
	ProtocolAlg23  Protocol = "alg23"
	ProtocolAlg24  Protocol = "alg24"
	ProtocolCOOL   Protocol = "cool"
)

// combinationLength is the required Combination length per protocol:
// a single string for Alg23, or a fixed-length string vector (Alg24:
// length 3; Bracha: length 2; COOL: length 6).
var combinationLength = map[Protocol]int{
	ProtocolAlg23:  1,
	ProtocolBracha: 2,
	ProtocolAlg24:  3,
	ProtocolCOOL:   6,
}

var validStrategies = map[string]bool{
	"same": true, "opposite": true, "silent": true,
}

// Config is the decoded, not-yet-validated per-run document.
type Config struct {
	Protocol       Protocol    `json:"protocol"`
	N              int         `json:"n"`
	F              int         `json:"f"`
	Sender         int         `json:"sender"`
	ByzantineNodes []int       `json:"byzantine_nodes"`
	Group0         []int       `json:"group_0"`
	Group1         []int       `json:"group_1"`
	Combination    Combination `json:"combination"`
	Percentage     float64     `json:"percentage"`
	DebugPrints    bool        `json:"debug_prints"`
	MaxRounds      int         `json:"max_rounds"`
	Seed           int64       `json:"seed"`

	// Value is the proposal the designated sender broadcasts when it is
	// honest. It is ignored when the sender is Byzantine, since a
	// Byzantine sender equivocates between the literal values 0 and 1
	// regardless of Value.
	Value int `json:"value"`
}

// Load reads and decodes a Config from r, then validates it. A malformed
// or structurally inconsistent document is a programmer error and is
// returned as a single aggregated error rather than surfaced as a
// partial/half-decoded Config.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks every structural invariant the harness relies on,
// collecting all violations with go-multierror instead of stopping at the
// first one, so a malformed hand-written scenario file can be fixed in
// one pass.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.N <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("n must be positive, got %d", c.N))
	}
	if c.F < 0 {
		errs = multierror.Append(errs, fmt.Errorf("f must be non-negative, got %d", c.F))
	}
	if len(c.ByzantineNodes) != c.N {
		errs = multierror.Append(errs, fmt.Errorf(
			"byzantine_nodes must have length n=%d, got %d", c.N, len(c.ByzantineNodes)))
	}
	if c.Sender < 0 || c.Sender >= c.N {
		errs = multierror.Append(errs, fmt.Errorf(
			"sender %d out of range [0,%d)", c.Sender, c.N))
	}

	if seen := overlap(c.Group0, c.Group1); len(seen) > 0 {
		errs = multierror.Append(errs, fmt.Errorf(
			"group_0 and group_1 must be disjoint, shared: %v", seen))
	}
	if c.N > 0 && c.Sender >= 0 && c.Sender < c.N {
		honest := c.honestExcludingSender()
		if miss := missing(honest, c.Group0, c.Group1); len(miss) > 0 {
			errs = multierror.Append(errs, fmt.Errorf(
				"group_0 union group_1 must cover every honest non-sender node, missing: %v", miss))
		}
	}

	wantLen, known := combinationLength[c.Protocol]
	if !known {
		errs = multierror.Append(errs, fmt.Errorf("unknown protocol %q", c.Protocol))
	} else if len(c.Combination) != wantLen {
		errs = multierror.Append(errs, fmt.Errorf(
			"protocol %s requires a combination of length %d, got %d",
			c.Protocol, wantLen, len(c.Combination)))
	}
	for _, s := range c.Combination {
		if !validStrategies[s] {
			errs = multierror.Append(errs, fmt.Errorf("unknown combination strategy %q", s))
		}
	}

	if c.MaxRounds < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_rounds must be non-negative, got %d", c.MaxRounds))
	}

	return errs.ErrorOrNil()
}

// HonestNodes returns every node id whose ByzantineNodes entry is zero,
// in ascending order. Agreement and Validity are naturally phrased over
// this set, even though no wire field names it directly.
func (c *Config) HonestNodes() []int {
	var honest []int
	for i, v := range c.ByzantineNodes {
		if v == 0 {
			honest = append(honest, i)
		}
	}
	return honest
}

// IsByzantine reports whether node id is marked Byzantine in this config.
func (c *Config) IsByzantine(id int) bool {
	return id >= 0 && id < len(c.ByzantineNodes) && c.ByzantineNodes[id] != 0
}

func (c *Config) honestExcludingSender() []int {
	var out []int
	for _, id := range c.HonestNodes() {
		if id != c.Sender {
			out = append(out, id)
		}
	}
	return out
}

func overlap(a, b []int) []int {
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	var shared []int
	for _, v := range b {
		if set[v] {
			shared = append(shared, v)
		}
	}
	return shared
}

// missing returns the elements of want that appear in neither g0 nor g1.
func missing(want, g0, g1 []int) []int {
	in := make(map[int]bool, len(g0)+len(g1))
	for _, v := range g0 {
		in[v] = true
	}
	for _, v := range g1 {
		in[v] = true
	}
	var miss []int
	for _, v := range want {
		if !in[v] {
			miss = append(miss, v)
		}
	}
	return miss
}
