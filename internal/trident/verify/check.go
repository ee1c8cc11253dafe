package verify

import "github.com/tridentlang/trident/internal/trident/symexec"

// holdsConcrete evaluates a constraint under one concrete assignment,
// used by both the Schwartz-Zippel and bounded-model-checking strategies
// (§4.3.2).
func holdsConcrete(c symexec.Constraint, a assignment) (bool, error) {
	switch x := c.(type) {
	case *symexec.Conditional:
		g, err := evalConcrete(x.Guard, a)
		if err != nil {
			return false, err
		}
		if g.IsZero() {
			return true, nil // guard didn't fire on this path; vacuously satisfied
		}
		return holdsConcrete(x.Inner, a)

	case *symexec.AssertTrue:
		v, err := evalConcrete(x.Cond, a)
		if err != nil {
			return false, err
		}
		return !v.IsZero(), nil

	case *symexec.Equal:
		l, err := evalConcrete(x.Lhs, a)
		if err != nil {
			return false, err
		}
		r, err := evalConcrete(x.Rhs, a)
		if err != nil {
			return false, err
		}
		return l.Equal(r), nil

	case *symexec.RangeU32:
		v, err := evalConcrete(x.X, a)
		if err != nil {
			return false, err
		}
		return v.Value() <= 0xFFFFFFFF, nil

	case *symexec.DigestEqual:
		if len(x.Lhs) != len(x.Rhs) {
			return false, nil
		}
		for i := range x.Lhs {
			l, err := evalConcrete(x.Lhs[i], a)
			if err != nil {
				return false, err
			}
			r, err := evalConcrete(x.Rhs[i], a)
			if err != nil {
				return false, err
			}
			if !l.Equal(r) {
				return false, nil
			}
		}
		return true, nil

	default:
		return true, nil
	}
}
