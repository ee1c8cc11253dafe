// Package neural implements C4, the optional speculative neural lowering
// path (§4.4, §3.6): a typed intermediate graph, a beam-search decoder
// that proposes alternative instruction sequences, and a validation
// pipeline that reports whether each candidate is equivalent and what it
// costs. No candidate ever substitutes for the classical lowering, which
// is always what gets emitted.
package neural

import "github.com/tridentlang/trident/internal/trident/ir"

// NodeKind tags a TirGraph node by the IR shape it came from.
type NodeKind int

const (
	NodeOp NodeKind = iota
	NodeFnEntry
	NodeFnExit
)

// EdgeKind distinguishes the three edge types a TirGraph carries.
type EdgeKind int

const (
	EdgeDataDep EdgeKind = iota
	EdgeControlFlow
	EdgeMemOrder
)

// Node is one TirGraph vertex: an IR op plus a small hand-picked feature
// vector the beam-search policy conditions its proposals on.
type Node struct {
	ID       int
	Kind     NodeKind
	Op       ir.Op
	Features [8]float64
}

// Edge is one directed TirGraph edge.
type Edge struct {
	From, To int
	Kind     EdgeKind
}

// TirGraph is the typed graph representation of one function body,
// built once per function before beam search runs over it.
type TirGraph struct {
	Nodes []Node
	Edges []Edge
}

// BuildGraph converts a flat ir.Function into its graph form: data
// dependencies follow stack-model accesses (approximated here from op
// adjacency, since the graph only needs to be a reasonable proposal
// substrate, not a precise dataflow graph), control flow follows op
// order plus structural nesting, and memory ordering links consecutive
// ReadMem/WriteMem ops.
func BuildGraph(fn ir.Function) *TirGraph {
	g := &TirGraph{}
	g.Nodes = append(g.Nodes, Node{ID: 0, Kind: NodeFnEntry})
	lastMem := -1
	prev := 0
	for i, op := range fn.Ops {
		id := len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: id, Kind: NodeOp, Op: op, Features: featuresOf(op, i, len(fn.Ops))})
		g.Edges = append(g.Edges, Edge{From: prev, To: id, Kind: EdgeControlFlow})
		if op.Kind == ir.OpReadMem || op.Kind == ir.OpWriteMem {
			if lastMem >= 0 {
				g.Edges = append(g.Edges, Edge{From: lastMem, To: id, Kind: EdgeMemOrder})
			}
			lastMem = id
		}
		if i > 0 {
			g.Edges = append(g.Edges, Edge{From: prev, To: id, Kind: EdgeDataDep})
		}
		prev = id
	}
	exitID := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: exitID, Kind: NodeFnExit})
	g.Edges = append(g.Edges, Edge{From: prev, To: exitID, Kind: EdgeControlFlow})
	return g
}

// featuresOf derives a small, stable feature vector for one op: its kind
// (normalized), position in the function, and structural width hints.
// These are intentionally coarse — the point of the feature vector is
// to give beam search *something* to condition a scoring heuristic on,
// not to approximate a trained embedding.
func featuresOf(op ir.Op, pos, total int) [8]float64 {
	var f [8]float64
	f[0] = float64(op.Kind) / 64.0
	if total > 0 {
		f[1] = float64(pos) / float64(total)
	}
	f[2] = float64(op.N)
	f[3] = float64(len(op.Then))
	f[4] = float64(len(op.Else))
	f[5] = float64(len(op.Body))
	f[6] = float64(op.FieldCount)
	f[7] = float64(len(op.AsmLines))
	return f
}
