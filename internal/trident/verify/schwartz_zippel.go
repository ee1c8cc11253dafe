package verify

import (
	"fmt"
	"math/rand"

	fieldpkg "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/tridentlang/trident/internal/trident/symexec"
)

// SchwartzZippelRounds is the fixed trial count (§4.3.2): enough rounds
// that a nonzero polynomial of the degree these constraints reach has a
// vanishingly small chance of evaluating to zero at every single trial
// unless it really is the zero polynomial.
const SchwartzZippelRounds = 100

// InterestingValuePinRounds is how many of the leading rounds use fixed
// "interesting" field values (0, 1, -1, p/2, 2) instead of uniform
// randomness, since boundary constants are disproportionately likely to
// expose off-by-one and overflow bugs that pure random sampling would
// need many more trials to find by chance.
const InterestingValuePinRounds = 5

// RandomViolation is a constraint that failed to hold for at least one
// sampled assignment.
type RandomViolation struct {
	Constraint symexec.Constraint
	Round      int
	Assignment map[string]uint64
}

func interestingValues() []fieldpkg.Element {
	return []fieldpkg.Element{
		fieldpkg.Zero,
		fieldpkg.One,
		fieldpkg.New(2),
		fieldpkg.Zero.Sub(fieldpkg.One),     // p - 1
		fieldpkg.New(fieldpkg.P / 2),
	}
}

// runSchwartzZippel samples SchwartzZippelRounds assignments (the first
// InterestingValuePinRounds pinned to boundary values, the rest uniform
// random) and evaluates every non-tautological constraint against each.
func runSchwartzZippel(cs *symexec.ConstraintSystem, rng *rand.Rand) []RandomViolation {
	constraints := filterNonTautologies(cs)
	if len(constraints) == 0 {
		return nil
	}
	freeVars := sortedFreeVars(allFreeVarNames(cs))

	var violations []RandomViolation
	for round := 0; round < SchwartzZippelRounds; round++ {
		a := assignment{}
		for _, name := range freeVars {
			if round < InterestingValuePinRounds {
				vals := interestingValues()
				a[name] = vals[round%len(vals)]
			} else {
				a[name] = fieldpkg.New(rng.Uint64())
			}
		}
		for _, c := range constraints {
			ok, err := holdsConcrete(c, a)
			if err != nil || ok {
				continue
			}
			violations = append(violations, RandomViolation{
				Constraint: c,
				Round:      round,
				Assignment: snapshot(a),
			})
		}
	}
	return violations
}

// allFreeVarNames collects both declared free variables and any
// divine/pub_input slots referenced anywhere in the constraint system,
// since both need a concrete binding to evaluate a constraint.
func allFreeVarNames(cs *symexec.ConstraintSystem) []string {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range cs.FreeVars {
		add(n)
	}
	for _, c := range cs.Constraints {
		collectVarsFromConstraint(c, add)
	}
	return names
}

func collectVarsFromConstraint(c symexec.Constraint, add func(string)) {
	switch x := c.(type) {
	case *symexec.Conditional:
		collectVarsFromValue(x.Guard, add)
		collectVarsFromConstraint(x.Inner, add)
	case *symexec.AssertTrue:
		collectVarsFromValue(x.Cond, add)
	case *symexec.Equal:
		collectVarsFromValue(x.Lhs, add)
		collectVarsFromValue(x.Rhs, add)
	case *symexec.RangeU32:
		collectVarsFromValue(x.X, add)
	case *symexec.DigestEqual:
		for _, v := range x.Lhs {
			collectVarsFromValue(v, add)
		}
		for _, v := range x.Rhs {
			collectVarsFromValue(v, add)
		}
	}
}

func collectVarsFromValue(v symexec.SymValue, add func(string)) {
	switch x := v.(type) {
	case *symexec.Var:
		add(x.Name)
	case *symexec.Divine:
		add(fmt.Sprintf("divine$%d", x.Slot))
	case *symexec.PubInput:
		add(fmt.Sprintf("pub_input$%d", x.Slot))
	case *symexec.Add:
		collectVarsFromValue(x.Lhs, add)
		collectVarsFromValue(x.Rhs, add)
	case *symexec.Sub:
		collectVarsFromValue(x.Lhs, add)
		collectVarsFromValue(x.Rhs, add)
	case *symexec.Mul:
		collectVarsFromValue(x.Lhs, add)
		collectVarsFromValue(x.Rhs, add)
	case *symexec.Neg:
		collectVarsFromValue(x.X, add)
	case *symexec.Inv:
		collectVarsFromValue(x.X, add)
	case *symexec.Eq:
		collectVarsFromValue(x.Lhs, add)
		collectVarsFromValue(x.Rhs, add)
	case *symexec.Lt:
		collectVarsFromValue(x.Lhs, add)
		collectVarsFromValue(x.Rhs, add)
	case *symexec.Ite:
		collectVarsFromValue(x.Cond, add)
		collectVarsFromValue(x.Then, add)
		collectVarsFromValue(x.Else, add)
	case *symexec.Hash:
		for _, arg := range x.Args {
			collectVarsFromValue(arg, add)
		}
	case *symexec.FieldOf:
		collectVarsFromValue(x.Base, add)
	}
}

func snapshot(a assignment) map[string]uint64 {
	out := make(map[string]uint64, len(a))
	for k, v := range a {
		out[k] = v.Value()
	}
	return out
}
