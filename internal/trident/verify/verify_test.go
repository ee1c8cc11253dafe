package verify

import (
	"math/rand"
	"testing"

	"github.com/tridentlang/trident/internal/trident/symexec"
)

func TestVerifyCatchesStaticallyFalseAssert(t *testing.T) {
	cs := &symexec.ConstraintSystem{Constraints: []symexec.Constraint{
		&symexec.AssertTrue{Cond: &symexec.Const{V: 0}},
	}}
	v := Verify(cs, rand.New(rand.NewSource(1)))
	if v.Severity != StaticFound {
		t.Fatalf("Severity = %v, want StaticFound", v.Severity)
	}
}

func TestVerifyPassesTautology(t *testing.T) {
	x := &symexec.Var{Name: "x"}
	cs := &symexec.ConstraintSystem{
		FreeVars:    []string{"x"},
		Constraints: []symexec.Constraint{&symexec.Equal{Lhs: x, Rhs: x}},
	}
	v := Verify(cs, rand.New(rand.NewSource(1)))
	if v.Severity != Safe {
		t.Fatalf("Severity = %v, want Safe", v.Severity)
	}
}

func TestVerifyFindsRandomCounterexampleForBuggyConstraint(t *testing.T) {
	// x + 1 == x is false for every field element; static analysis can't
	// see that (it only folds constants), so it must be caught
	// dynamically.
	x := &symexec.Var{Name: "x"}
	cs := &symexec.ConstraintSystem{
		FreeVars: []string{"x"},
		Constraints: []symexec.Constraint{
			&symexec.Equal{Lhs: &symexec.Add{Lhs: x, Rhs: &symexec.Const{V: 1}}, Rhs: x},
		},
	}
	v := Verify(cs, rand.New(rand.NewSource(7)))
	if v.Severity == Safe {
		t.Fatalf("expected a violation to be found, got Safe")
	}
}

func TestVerifyRespectsConditionalGuard(t *testing.T) {
	// A false inner assertion guarded by a statically-false guard must
	// never fire.
	cs := &symexec.ConstraintSystem{Constraints: []symexec.Constraint{
		&symexec.Conditional{Guard: &symexec.Const{V: 0}, Inner: &symexec.AssertTrue{Cond: &symexec.Const{V: 0}}},
	}}
	v := Verify(cs, rand.New(rand.NewSource(1)))
	if v.Severity != Safe {
		t.Fatalf("Severity = %v, want Safe (dead branch must not count)", v.Severity)
	}
}
