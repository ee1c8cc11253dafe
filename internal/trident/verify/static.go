package verify

import "github.com/tridentlang/trident/internal/trident/symexec"

// StaticViolation is a constraint the simplifier alone proved can never
// hold, independent of any free-variable assignment (e.g. an
// unconditional `assert(0 == 1)`).
type StaticViolation struct {
	Constraint symexec.Constraint
	Reason     string
}

// violatedConstraintsStatic implements the static-analysis strategy
// (§4.3.2): it simplifies every constraint and flags the ones that
// collapse to a provably-false literal without needing any
// free-variable instantiation.
func violatedConstraintsStatic(cs *symexec.ConstraintSystem) []StaticViolation {
	var out []StaticViolation
	for _, c := range cs.Constraints {
		if v, bad := staticallyFalse(c, &symexec.Const{V: 1}); bad {
			out = append(out, v)
		}
	}
	return out
}

// staticallyFalse recurses through Conditional wrappers, tracking the
// accumulated guard so a violation nested under a provably-false guard
// (a dead branch) is correctly treated as unreachable, not violated.
func staticallyFalse(c symexec.Constraint, guard symexec.SymValue) (StaticViolation, bool) {
	guard = symexec.Simplify(guard)
	if gc, ok := guard.(*symexec.Const); ok && gc.V == 0 {
		return StaticViolation{}, false // dead branch, never executes
	}

	switch x := c.(type) {
	case *symexec.Conditional:
		return staticallyFalse(x.Inner, &symexec.Mul{Lhs: guard, Rhs: x.Guard})

	case *symexec.AssertTrue:
		cond := symexec.Simplify(x.Cond)
		if cc, ok := cond.(*symexec.Const); ok && cc.V == 0 {
			return StaticViolation{Constraint: c, Reason: "assert(0) is unconditionally false"}, true
		}
		return StaticViolation{}, false

	case *symexec.Equal:
		lhs := symexec.Simplify(x.Lhs)
		rhs := symexec.Simplify(x.Rhs)
		lc, lok := lhs.(*symexec.Const)
		rc, rok := rhs.(*symexec.Const)
		if lok && rok && lc.V != rc.V {
			return StaticViolation{Constraint: c, Reason: "both sides reduce to distinct constants"}, true
		}
		return StaticViolation{}, false

	default:
		return StaticViolation{}, false
	}
}
