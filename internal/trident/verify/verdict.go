package verify

import (
	"math/rand"

	"github.com/tridentlang/trident/internal/trident/symexec"
)

// Severity ranks verification outcomes. A higher severity was found by
// a cheaper, more certain strategy, so when strategies disagree the
// highest-ranked finding wins (§4.3.2's "combined severity-ranked
// verdict").
type Severity int

const (
	Safe Severity = iota
	BmcFound
	RandomFound
	StaticFound
)

func (s Severity) String() string {
	switch s {
	case StaticFound:
		return "static_violation"
	case RandomFound:
		return "random_violation"
	case BmcFound:
		return "bmc_violation"
	default:
		return "safe"
	}
}

// Verdict is the outcome of running every verification strategy against
// one constraint system.
type Verdict struct {
	Severity         Severity
	StaticViolations []StaticViolation
	RandomViolations []RandomViolation
	BmcViolations    []BmcViolation
}

// Verify runs static analysis, Schwartz-Zippel sampling, and (when the
// free-variable count allows it) bounded model checking against cs, and
// folds the results into one ranked Verdict.
//
// Static analysis always runs first since it is free; a static
// violation already proves the constraint system unsatisfiable, so the
// dynamic strategies still run (callers may want every counterexample
// for diagnostics) but cannot raise the verdict's severity further.
func Verify(cs *symexec.ConstraintSystem, rng *rand.Rand) *Verdict {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	v := &Verdict{
		StaticViolations: violatedConstraintsStatic(cs),
		RandomViolations: runSchwartzZippel(cs, rng),
		BmcViolations:    runBmc(cs),
	}

	switch {
	case len(v.StaticViolations) > 0:
		v.Severity = StaticFound
	case len(v.RandomViolations) > 0:
		v.Severity = RandomFound
	case len(v.BmcViolations) > 0:
		v.Severity = BmcFound
	default:
		v.Severity = Safe
	}
	return v
}
