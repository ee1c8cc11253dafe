package verify

import "github.com/tridentlang/trident/internal/trident/symexec"

// isTautology reports whether a constraint holds no matter what its free
// variables are bound to, so dynamic strategies can skip testing it
// (§4.3.2's tautology detection: "provably-true constraints are removed
// from the dynamic testing workload before it runs").
func isTautology(c symexec.Constraint) bool {
	switch x := c.(type) {
	case *symexec.AssertTrue:
		cond := symexec.Simplify(x.Cond)
		if cc, ok := cond.(*symexec.Const); ok {
			return cc.V != 0
		}
		return false

	case *symexec.Equal:
		lhs := symexec.Simplify(x.Lhs)
		rhs := symexec.Simplify(x.Rhs)
		if lhs.String() == rhs.String() {
			return true
		}
		lc, lok := lhs.(*symexec.Const)
		rc, rok := rhs.(*symexec.Const)
		return lok && rok && lc.V == rc.V

	case *symexec.Conditional:
		guard := symexec.Simplify(x.Guard)
		if gc, ok := guard.(*symexec.Const); ok && gc.V == 0 {
			return true // a guard that can never fire makes the whole thing vacuous
		}
		return isTautology(x.Inner)

	default:
		return false
	}
}

// filterNonTautologies drops every constraint isTautology accepts,
// returning only the ones dynamic testing still needs to attempt.
func filterNonTautologies(cs *symexec.ConstraintSystem) []symexec.Constraint {
	var out []symexec.Constraint
	for _, c := range cs.Constraints {
		if !isTautology(c) {
			out = append(out, c)
		}
	}
	return out
}
