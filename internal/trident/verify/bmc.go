package verify

import (
	fieldpkg "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/tridentlang/trident/internal/trident/symexec"
)

// MaxBmcFreeVars bounds how many free variables bounded model checking
// will exhaustively enumerate over; beyond this the combination space
// is ceded to the Schwartz-Zippel sampler instead (§4.3.2).
const MaxBmcFreeVars = 8

// MaxBmcCombinations caps the total number of assignments tried, so a
// constraint system near the MaxBmcFreeVars boundary with a large
// per-variable domain still terminates promptly.
const MaxBmcCombinations = 10000

// BmcViolation is a constraint that bounded model checking found a
// concrete counterexample for, within its search budget.
type BmcViolation struct {
	Constraint symexec.Constraint
	Assignment map[string]uint64
}

// bmcDomain is the small representative value set BMC enumerates each
// free variable over: the field's algebraic corners, where constraint
// bugs concentrate.
func bmcDomain() []fieldpkg.Element {
	return []fieldpkg.Element{fieldpkg.Zero, fieldpkg.One, fieldpkg.New(2), fieldpkg.Zero.Sub(fieldpkg.One)}
}

// runBmc exhaustively tries every combination of bmcDomain() values
// across a constraint system's free variables, up to MaxBmcCombinations,
// when the variable count is small enough (<= MaxBmcFreeVars).
func runBmc(cs *symexec.ConstraintSystem) []BmcViolation {
	constraints := filterNonTautologies(cs)
	if len(constraints) == 0 {
		return nil
	}
	freeVars := sortedFreeVars(allFreeVarNames(cs))
	if len(freeVars) == 0 || len(freeVars) > MaxBmcFreeVars {
		return nil
	}

	domain := bmcDomain()
	total := 1
	for range freeVars {
		total *= len(domain)
		if total > MaxBmcCombinations {
			break
		}
	}

	var violations []BmcViolation
	tried := 0
	indices := make([]int, len(freeVars))
	for {
		if tried >= MaxBmcCombinations {
			break
		}
		a := assignment{}
		for i, name := range freeVars {
			a[name] = domain[indices[i]]
		}
		for _, c := range constraints {
			ok, err := holdsConcrete(c, a)
			if err != nil || ok {
				continue
			}
			violations = append(violations, BmcViolation{Constraint: c, Assignment: snapshot(a)})
		}
		tried++

		// odometer increment
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(domain) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return violations
}
