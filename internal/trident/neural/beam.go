package neural

import (
	"sort"

	"github.com/tridentlang/trident/internal/trident/ir"
)

// BeamWidth, MaxSteps, and VocabSize are the search parameters (§4.4):
// a 32-wide beam over a 256-step horizon, with a 64-entry mnemonic
// vocabulary size. The decoder does not consult VocabSize and fuses no
// adjacent ops; its proposals come from proposalsFor alone.
const (
	BeamWidth = 32
	MaxSteps  = 256
	VocabSize = 64
)

// Candidate is one beam-search hypothesis: a proposed op sequence for a
// function body, with the running score the policy assigned it.
type Candidate struct {
	Ops   []ir.Op
	Score float64
}

// scorer assigns a step score to extending a partial candidate with the
// given op, conditioned on the graph node's feature vector. This is a
// deterministic hand-written heuristic (shorter sequences and cheaper
// leaf ops score higher) standing in for a trained scoring model —
// §4.4 scopes training such a model out, but the decoder/validation
// harness around it is real.
type scorer func(partial []ir.Op, candidate ir.Op, node Node) float64

func defaultScorer(partial []ir.Op, candidate ir.Op, node Node) float64 {
	score := 1.0
	if len(partial) > 0 && candidate.Kind == partial[len(partial)-1].Kind {
		score -= 0.1 // mild penalty for repeating the same opcode twice in a row
	}
	score -= node.Features[0] * 0.05
	return score
}

// Decode runs beam search over a TirGraph's op sequence, returning up to
// BeamWidth candidate op sequences ranked by cumulative score.
func Decode(g *TirGraph) []Candidate {
	score := defaultScorer
	beams := []Candidate{{Ops: nil, Score: 0}}

	opNodes := opNodesOf(g)
	steps := len(opNodes)
	if steps > MaxSteps {
		steps = MaxSteps
	}

	for step := 0; step < steps; step++ {
		node := opNodes[step]
		var next []Candidate
		for _, b := range beams {
			for _, proposal := range proposalsFor(node.Op) {
				s := b.Score + score(b.Ops, proposal, node)
				ops := append(append([]ir.Op(nil), b.Ops...), proposal)
				next = append(next, Candidate{Ops: ops, Score: s})
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i].Score > next[j].Score })
		if len(next) > BeamWidth {
			next = next[:BeamWidth]
		}
		beams = next
	}

	// Any remaining op-graph tail past MaxSteps is appended verbatim to
	// every surviving beam: the decoder is free to propose alternatives
	// for a prefix, but it never silently truncates a program.
	if steps < len(opNodes) {
		tail := make([]ir.Op, 0, len(opNodes)-steps)
		for _, n := range opNodes[steps:] {
			tail = append(tail, n.Op)
		}
		for i := range beams {
			beams[i].Ops = append(beams[i].Ops, tail...)
		}
	}

	return beams
}

func opNodesOf(g *TirGraph) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == NodeOp {
			out = append(out, n)
		}
	}
	return out
}

// proposalsFor returns the candidate replacements the decoder is
// willing to consider for one op: always the original op itself (so the
// classical lowering is always a reachable beam), plus, for `swap 1`
// only, one identical alternative of the same cost.
func proposalsFor(op ir.Op) []ir.Op {
	proposals := []ir.Op{op}
	switch op.Kind {
	case ir.OpDup:
		// dup d; pop 1 (reading a value only to immediately discard it)
		// has no fusable alternative recognized here; dup alone is kept.
	case ir.OpSwap:
		if op.N == 1 {
			proposals = append(proposals, ir.Op{Kind: ir.OpSwap, N: 1}) // no-op alternative, same cost
		}
	}
	return proposals
}
