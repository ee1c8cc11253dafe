// Package cost implements C2, the static multi-table cost model (§4.2):
// it walks an ir.Program and produces a per-table row-count estimate
// without ever executing the program, mirroring how a Triton-style STARK
// prover's six proof tables each accumulate one row per cycle/operation.
package cost

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/tridentlang/trident/internal/trident/ir"
)

// TableNames is the fixed set of proof tables every CostModel accounts
// against, in the order a Triton prover's channel writes them.
var TableNames = []string{"processor", "hash", "u32", "op_stack", "ram", "jump_stack"}

// TableShortNames maps each table to the single-letter tag used in
// compact diagnostic output.
var TableShortNames = map[string]string{
	"processor":  "p",
	"hash":       "h",
	"u32":        "u",
	"op_stack":   "o",
	"ram":        "r",
	"jump_stack": "j",
}

// Vector is a row-count estimate, one entry per table. It is a plain map
// so unrecognized table names round-trip through JSON untouched (a
// forward-compatibility requirement: a newer trident building a cost
// report a compiled-against-this-package tool didn't know about a table
// for must not lose that column).
type Vector map[string]uint64

// Add returns the componentwise sum of v and other.
func (v Vector) Add(other Vector) Vector {
	out := Vector{}
	for _, name := range TableNames {
		out[name] = v[name] + other[name]
	}
	return out
}

// Scale returns v with every component multiplied by n.
func (v Vector) Scale(n uint64) Vector {
	out := Vector{}
	for _, name := range TableNames {
		out[name] = v[name] * n
	}
	return out
}

// Max returns the componentwise maximum of v and other.
func (v Vector) Max(other Vector) Vector {
	out := Vector{}
	for _, name := range TableNames {
		out[name] = lo.Max([]uint64{v[name], other[name]})
	}
	return out
}

// MaxHeight returns the largest single table height in v.
func (v Vector) MaxHeight() uint64 {
	heights := make([]uint64, 0, len(v))
	for _, name := range TableNames {
		heights = append(heights, v[name])
	}
	if len(heights) == 0 {
		return 0
	}
	return lo.Max(heights)
}

// PaddedHeight returns the smallest power of two at least as large as
// the biggest table (every proof table is padded to a power-of-two
// trace length before the low-degree extension).
func PaddedHeight(v Vector) uint64 {
	h := v.MaxHeight()
	if h == 0 {
		return 1
	}
	p := uint64(1)
	for p < h {
		p <<= 1
	}
	return p
}

// CostModel is the pluggable per-target cost schedule (§4.2): a given
// backend assigns row costs to each IR shape. TritonCostModel is the
// only built-in implementation; a custom target may supply its own via
// the same interface (§9, "per-target cost schedules").
type CostModel interface {
	TableNames() []string
	TableShortNames() map[string]string
	BuiltinCost(name string) Vector
	BinopCost(k ir.Kind) Vector
	CallOverhead() Vector
	StackOpCost(k ir.Kind) Vector
	IfOverhead() Vector
	LoopOverhead() Vector
	HashRowsPerPermutation() uint64
}

// Severity ranks a diagnostic hint.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

// Hint is one static-cost diagnostic (H0001, H0002, H0004, or a
// padding-boundary note).
type Hint struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report is the cost-analysis result for one compiled program (§6.5's
// cost JSON document).
type Report struct {
	FunctionCosts map[string]Vector `json:"function_costs"`
	Total         Vector            `json:"total"`
	PaddedHeight  uint64            `json:"padded_height"`
	Hints         []Hint            `json:"hints,omitempty"`
}

// MarshalJSON/UnmarshalJSON are the default encoding/json behavior;
// Report is declared here only so its doc comment sits next to the
// type, documenting the wire struct inline rather than through a
// bespoke codec.
var _ = json.Marshal

// loopBound records one accounted OpLoop's resolved scale factor and
// (when known) the literal `end` it was compared against, for H0004.
type loopBound struct {
	n          uint64
	literalEnd uint64
}

// Accountant walks an ir.Program and produces a Report against one
// CostModel.
type Accountant struct {
	Model      CostModel
	loopBounds []loopBound // bounded loops seen during the current Account call
}

// NewAccountant builds an Accountant for the given cost model.
func NewAccountant(model CostModel) *Accountant {
	return &Accountant{Model: model}
}

// Account computes the full program report.
func (a *Accountant) Account(prog *ir.Program) Report {
	a.loopBounds = nil
	fnCosts := map[string]Vector{}
	total := Vector{}
	for _, fn := range prog.Functions {
		v := a.accountOps(fn.Ops)
		fnCosts[fn.Label] = v
		total = total.Add(v)
	}
	padded := PaddedHeight(total)
	return Report{
		FunctionCosts: fnCosts,
		Total:         total,
		PaddedHeight:  padded,
		Hints:         a.hints(total, padded),
	}
}

func (a *Accountant) accountOps(ops []ir.Op) Vector {
	total := Vector{}
	for _, op := range ops {
		total = total.Add(a.accountOp(op))
	}
	return total
}

func (a *Accountant) accountOp(op ir.Op) Vector {
	switch op.Kind {
	case ir.OpCall:
		return a.Model.CallOverhead()
	case ir.OpIfElse:
		thenV := a.accountOps(op.Then)
		elseV := a.accountOps(op.Else)
		return a.Model.IfOverhead().Add(thenV.Max(elseV))
	case ir.OpIfOnly:
		return a.Model.IfOverhead().Add(a.accountOps(op.Then))
	case ir.OpLoop:
		// (body + loop_overhead).scale(N), §4.2.2: op.N is the resolved
		// trip count codegen computed from `bounded B` or a literal `end`.
		n := uint64(op.N)
		if n == 0 {
			n = 1
		}
		v := a.Model.LoopOverhead().Add(a.accountOps(op.Body)).Scale(n)
		if op.Value > 0 {
			a.loopBounds = append(a.loopBounds, loopBound{n: n, literalEnd: op.Value})
		}
		return v
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpNeg, ir.OpInvert, ir.OpEq, ir.OpLt,
		ir.OpAnd, ir.OpXor, ir.OpDivMod, ir.OpXxAdd, ir.OpXxMul, ir.OpXInvert, ir.OpXbMul:
		return a.Model.BinopCost(op.Kind)
	case ir.OpPush, ir.OpPop, ir.OpDup, ir.OpSwap, ir.OpReadMem, ir.OpWriteMem:
		return a.Model.StackOpCost(op.Kind)
	case ir.OpHash:
		return a.Model.BuiltinCost("hash")
	case ir.OpMerkleStep:
		return a.Model.BuiltinCost("merkle_step")
	case ir.OpSpongeInit, ir.OpSpongeAbsorb, ir.OpSpongeAbsorbMem, ir.OpSpongeSqueeze:
		return a.Model.BuiltinCost("sponge")
	case ir.OpReadIo, ir.OpWriteIo:
		return a.Model.BuiltinCost("io")
	case ir.OpPushPerm, ir.OpPopPerm, ir.OpAssertPerm:
		return a.Model.BuiltinCost("perm")
	case ir.OpAssert, ir.OpAssertVector:
		return a.Model.BuiltinCost("assert")
	case ir.OpOpen, ir.OpSeal:
		return a.Model.BuiltinCost("event")
	default:
		return Vector{}
	}
}

// hints produces the static diagnostic set (§4.2.4's H-series codes).
func (a *Accountant) hints(total Vector, padded uint64) []Hint {
	var hints []Hint

	primary := total["processor"]
	if name, height := tallestNonPrimaryTable(total); primary > 0 && height > 2*primary {
		hints = append(hints, Hint{
			Code:     "H0001",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s table height exceeds 2x the processor table height; consider batching calls that grow it", name),
		})
	}

	maxH := total.MaxHeight()
	if padded >= 16 && maxH*4 < padded*3 {
		hints = append(hints, Hint{
			Code:     "H0002",
			Severity: SeverityWarning,
			Message:  "max table height is below 75% of padded height; this program has headroom before the next proving-time doubling",
		})
	}

	for _, lb := range a.loopBounds {
		if lb.literalEnd == 0 || lb.n < 4*lb.literalEnd || lb.n <= 8 {
			continue
		}
		hints = append(hints, Hint{
			Code:     "H0004",
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("loop bounded %d is %dx its literal end %d; tighten to the next power of two >= end", lb.n, lb.n/lb.literalEnd, lb.literalEnd),
		})
	}

	if padded > 0 {
		waste := padded - maxH
		if waste*8 <= padded {
			hints = append(hints, Hint{
				Code:     "boundary",
				Severity: SeverityInfo,
				Message:  "max table height is within 12.5% of padded height; a few more rows would double prover cost",
			})
		}
	}

	return hints
}

// tallestNonPrimaryTable returns the name and height of the tallest table
// other than "processor" (§4.2.4's H0001 dominance predicate).
func tallestNonPrimaryTable(total Vector) (name string, height uint64) {
	for _, n := range TableNames {
		if n == "processor" {
			continue
		}
		if total[n] > height {
			name, height = n, total[n]
		}
	}
	return name, height
}
