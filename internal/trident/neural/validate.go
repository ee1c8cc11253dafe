package neural

import (
	"math/rand"
	"sync"

	fieldpkg "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/tridentlang/trident/internal/trident/cost"
	"github.com/tridentlang/trident/internal/trident/ir"
)

// ValidationSeeds is the number of independent random input seeds each
// candidate is re-executed against (§4.4): three runs that must all
// agree with the classical baseline before a candidate is trusted.
const ValidationSeeds = 3

// Verdict is the outcome of validating one candidate against the
// classical baseline.
type Verdict struct {
	Equivalent bool
	Cheaper    bool
	Cost       cost.Vector
}

// ValidateCandidate re-executes both the classical baseline and the
// candidate op sequence against ValidationSeeds independently seeded
// random input stacks, declaring equivalence only if every run agrees,
// then compares estimated cost.
func ValidateCandidate(baseline, candidate []ir.Op, model cost.CostModel) Verdict {
	equivalent := true
	var wg sync.WaitGroup
	results := make([]bool, ValidationSeeds)
	for i := 0; i < ValidationSeeds; i++ {
		wg.Add(1)
		go func(seed int64, idx int) {
			defer wg.Done()
			results[idx] = runsAgree(baseline, candidate, seed)
		}(int64(i+1), i)
	}
	wg.Wait()
	for _, ok := range results {
		if !ok {
			equivalent = false
		}
	}

	accountant := cost.NewAccountant(model)
	baseCost := accountant.Account(&ir.Program{Functions: []ir.Function{{Label: "baseline", Ops: baseline}}})
	candCost := accountant.Account(&ir.Program{Functions: []ir.Function{{Label: "candidate", Ops: candidate}}})

	return Verdict{
		Equivalent: equivalent,
		Cheaper:    candCost.Total.MaxHeight() < baseCost.Total.MaxHeight(),
		Cost:       candCost.Total,
	}
}

// runsAgree interprets both op sequences against the same randomly
// seeded input stack and reports whether they leave the same resulting
// stack: the two stacks must have the same length and agree cell by cell.
func runsAgree(baseline, candidate []ir.Op, seed int64) bool {
	rng := rand.New(rand.NewSource(seed))
	seedStack := randomStack(rng, 16)

	baseResult, baseErr := interpretFlat(baseline, append([]fieldpkg.Element(nil), seedStack...))
	candResult, candErr := interpretFlat(candidate, append([]fieldpkg.Element(nil), seedStack...))

	if baseErr != nil || candErr != nil {
		// An op sequence this validator cannot interpret (a structural op
		// sandwiched into the window) is treated as disagreement: better
		// to reject a candidate than to wrongly accept one never checked.
		return false
	}
	if len(baseResult) != len(candResult) {
		return false
	}
	for i := range baseResult {
		if !baseResult[i].Equal(candResult[i]) {
			return false
		}
	}
	return true
}

func randomStack(rng *rand.Rand, n int) []fieldpkg.Element {
	out := make([]fieldpkg.Element, n)
	for i := range out {
		out[i] = fieldpkg.New(rng.Uint64())
	}
	return out
}

// interpretFlat executes a straight-line (non-structural) op sequence
// against a concrete stack. Structural ops (calls, branches, loops) can
// reach it, since proposalsFor keeps every original op as a candidate;
// they return an error here.
func interpretFlat(ops []ir.Op, stack []fieldpkg.Element) ([]fieldpkg.Element, error) {
	pop := func() fieldpkg.Element {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	push := func(v fieldpkg.Element) { stack = append(stack, v) }

	for _, op := range ops {
		switch op.Kind {
		case ir.OpPush:
			push(fieldpkg.New(op.Value))
		case ir.OpPop:
			for i := 0; i < op.N; i++ {
				pop()
			}
		case ir.OpDup:
			push(stack[len(stack)-1-op.N])
		case ir.OpSwap:
			i := len(stack) - 1
			j := len(stack) - 1 - op.N
			stack[i], stack[j] = stack[j], stack[i]
		case ir.OpAdd:
			b, a := pop(), pop()
			push(a.Add(b))
		case ir.OpSub:
			b, a := pop(), pop()
			push(a.Sub(b))
		case ir.OpMul:
			b, a := pop(), pop()
			push(a.Mul(b))
		case ir.OpNeg:
			push(pop().Neg())
		case ir.OpEq:
			b, a := pop(), pop()
			if a.Equal(b) {
				push(fieldpkg.One)
			} else {
				push(fieldpkg.Zero)
			}
		case ir.OpNop:
			// no-op
		default:
			return nil, errUnsupportedOp(op)
		}
	}
	return stack, nil
}

type unsupportedOpError struct{ op ir.Op }

func (e unsupportedOpError) Error() string { return "neural: cannot interpret op " + e.op.Kind.String() }

func errUnsupportedOp(op ir.Op) error { return unsupportedOpError{op: op} }
