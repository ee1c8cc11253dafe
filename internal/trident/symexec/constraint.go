package symexec

import "fmt"

// Constraint is one fact a ConstraintSystem asserts must hold on every
// execution path that reaches it.
type Constraint interface {
	constraintNode()
	String() string
}

// Equal asserts Lhs == Rhs unconditionally.
type Equal struct{ Lhs, Rhs SymValue }

func (*Equal) constraintNode() {}
func (e *Equal) String() string { return fmt.Sprintf("%s == %s", e.Lhs, e.Rhs) }

// AssertTrue asserts Cond is nonzero (the lowering of a source-level
// `assert(...)` call, or an implicit invariant the executor derived).
type AssertTrue struct{ Cond SymValue }

func (*AssertTrue) constraintNode()  {}
func (a *AssertTrue) String() string { return fmt.Sprintf("assert(%s)", a.Cond) }

// Conditional asserts Inner only along paths where Guard holds; it is
// how branch-specific constraints are carried without forking the whole
// constraint system (§4.3.1's "path-conditioned constraints").
type Conditional struct {
	Guard SymValue
	Inner Constraint
}

func (*Conditional) constraintNode() {}
func (c *Conditional) String() string {
	return fmt.Sprintf("(%s) => %s", c.Guard, c.Inner)
}

// RangeU32 asserts X fits in 32 bits, the symbolic counterpart of
// Triton's U32 table range checks.
type RangeU32 struct{ X SymValue }

func (*RangeU32) constraintNode()  {}
func (r *RangeU32) String() string { return fmt.Sprintf("range_u32(%s)", r.X) }

// DigestEqual asserts two digest-width vectors are componentwise equal
// (an assert_vector call).
type DigestEqual struct{ Lhs, Rhs []SymValue }

func (*DigestEqual) constraintNode() {}
func (d *DigestEqual) String() string {
	return fmt.Sprintf("digest_eq(%v, %v)", d.Lhs, d.Rhs)
}

// ConstraintSystem is the accumulated output of symbolically executing
// one function.
type ConstraintSystem struct {
	Constraints []Constraint
	// FreeVars names every Var introduced during execution, in order of
	// first appearance — inputs to a verification strategy that needs to
	// enumerate or sample them (§4.3.2).
	FreeVars []string
}

// Add appends one constraint.
func (cs *ConstraintSystem) Add(c Constraint) {
	cs.Constraints = append(cs.Constraints, c)
}

// AddFreeVar records name as free if it is not already tracked.
func (cs *ConstraintSystem) AddFreeVar(name string) {
	for _, v := range cs.FreeVars {
		if v == name {
			return
		}
	}
	cs.FreeVars = append(cs.FreeVars, name)
}
