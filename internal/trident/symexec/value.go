// Package symexec implements C3's symbolic executor (§4.3.1): it walks a
// function body over symbolic (unknown) inputs and produces a
// ConstraintSystem of field-polynomial constraints a verification
// strategy (package verify) can then check for satisfiability.
package symexec

import (
	"fmt"
	"math/bits"
)

// SymValue is a symbolic field-element expression.
type SymValue interface {
	symNode()
	String() string
}

// Const is a known field element.
type Const struct{ V uint64 }

func (*Const) symNode()          {}
func (c *Const) String() string  { return fmt.Sprintf("%d", c.V) }

// Var is a free symbolic variable (a function parameter, a loop
// induction variable past the unroll cap, or a havoc'd call result).
type Var struct{ Name string }

func (*Var) symNode()         {}
func (v *Var) String() string { return v.Name }

// Divine is an untrusted nondeterministic input word (the VM's
// `divine` channel; `read_io` yields a PubInput instead).
type Divine struct{ Slot int }

func (*Divine) symNode()         {}
func (d *Divine) String() string { return fmt.Sprintf("divine[%d]", d.Slot) }

// PubInput is a public input word.
type PubInput struct{ Slot int }

func (*PubInput) symNode()         {}
func (p *PubInput) String() string { return fmt.Sprintf("pub_input[%d]", p.Slot) }

// Add, Mul, Sub, Neg, Inv mirror field arithmetic.
type Add struct{ Lhs, Rhs SymValue }
type Mul struct{ Lhs, Rhs SymValue }
type Sub struct{ Lhs, Rhs SymValue }
type Neg struct{ X SymValue }
type Inv struct{ X SymValue }

func (*Add) symNode() {}
func (*Mul) symNode() {}
func (*Sub) symNode() {}
func (*Neg) symNode() {}
func (*Inv) symNode() {}

func (a *Add) String() string { return fmt.Sprintf("(%s + %s)", a.Lhs, a.Rhs) }
func (m *Mul) String() string { return fmt.Sprintf("(%s * %s)", m.Lhs, m.Rhs) }
func (s *Sub) String() string { return fmt.Sprintf("(%s - %s)", s.Lhs, s.Rhs) }
func (n *Neg) String() string { return fmt.Sprintf("(-%s)", n.X) }
func (i *Inv) String() string { return fmt.Sprintf("inv(%s)", i.X) }

// Eq and Lt are boolean-valued (0 or 1) comparisons.
type Eq struct{ Lhs, Rhs SymValue }
type Lt struct{ Lhs, Rhs SymValue }

func (*Eq) symNode() {}
func (*Lt) symNode() {}

func (e *Eq) String() string { return fmt.Sprintf("(%s == %s)", e.Lhs, e.Rhs) }
func (l *Lt) String() string { return fmt.Sprintf("(%s < %s)", l.Lhs, l.Rhs) }

// Hash is an opaque, collision-resistant function of its arguments: the
// executor never expands it, only tracks equality/inequality of its
// inputs (§4.3.1, "hashing is modeled as an uninterpreted function").
type Hash struct{ Args []SymValue }

func (*Hash) symNode()         {}
func (h *Hash) String() string { return fmt.Sprintf("hash(%v)", h.Args) }

// FieldOf is a struct-field projection of a symbolic struct value.
type FieldOf struct {
	Base  SymValue
	Field string
}

func (*FieldOf) symNode()         {}
func (f *FieldOf) String() string { return fmt.Sprintf("%s.%s", f.Base, f.Field) }

// Ite is a symbolic if-then-else (branches that cannot be statically
// resolved are represented this way rather than forked, to keep the
// constraint count linear in source size for straight-line code).
type Ite struct{ Cond, Then, Else SymValue }

func (*Ite) symNode()         {}
func (i *Ite) String() string { return fmt.Sprintf("ite(%s, %s, %s)", i.Cond, i.Then, i.Else) }

// Simplify applies constant folding and trivial algebraic identities
// bottom-up. It never changes a value's meaning, only its
// representation, so constraint systems built from simplified values
// remain equivalent to ones built from the originals.
func Simplify(v SymValue) SymValue {
	const p = 0xFFFFFFFF00000001 // Goldilocks modulus: constants fold mod p
	switch x := v.(type) {
	case *Add:
		l, r := Simplify(x.Lhs), Simplify(x.Rhs)
		if lc, ok := l.(*Const); ok {
			if rc, ok := r.(*Const); ok {
				s, carry := bits.Add64(lc.V%p, rc.V%p, 0)
				return &Const{V: bits.Rem64(carry, s, p)}
			}
			if lc.V == 0 {
				return r
			}
		}
		if rc, ok := r.(*Const); ok && rc.V == 0 {
			return l
		}
		return &Add{Lhs: l, Rhs: r}

	case *Sub:
		l, r := Simplify(x.Lhs), Simplify(x.Rhs)
		if lc, ok := l.(*Const); ok {
			if rc, ok := r.(*Const); ok {
				a, b := lc.V%p, rc.V%p
				if a >= b {
					return &Const{V: a - b}
				}
				return &Const{V: a + (p - b)}
			}
		}
		if rc, ok := r.(*Const); ok && rc.V == 0 {
			return l
		}
		return &Sub{Lhs: l, Rhs: r}

	case *Mul:
		l, r := Simplify(x.Lhs), Simplify(x.Rhs)
		if lc, ok := l.(*Const); ok {
			if rc, ok := r.(*Const); ok {
				hi, lo := bits.Mul64(lc.V, rc.V)
				return &Const{V: bits.Rem64(hi, lo, p)}
			}
			if lc.V == 0 {
				return &Const{V: 0}
			}
			if lc.V == 1 {
				return r
			}
		}
		if rc, ok := r.(*Const); ok {
			if rc.V == 0 {
				return &Const{V: 0}
			}
			if rc.V == 1 {
				return l
			}
		}
		return &Mul{Lhs: l, Rhs: r}

	case *Neg:
		inner := Simplify(x.X)
		if c, ok := inner.(*Const); ok {
			return &Const{V: (p - c.V%p) % p}
		}
		if n, ok := inner.(*Neg); ok {
			return n.X // double negation
		}
		return &Neg{X: inner}

	case *Inv:
		inner := Simplify(x.X)
		return &Inv{X: inner}

	case *Eq:
		l, r := Simplify(x.Lhs), Simplify(x.Rhs)
		if lc, ok := l.(*Const); ok {
			if rc, ok := r.(*Const); ok {
				if lc.V == rc.V {
					return &Const{V: 1}
				}
				return &Const{V: 0}
			}
		}
		return &Eq{Lhs: l, Rhs: r}

	case *Lt:
		l, r := Simplify(x.Lhs), Simplify(x.Rhs)
		if lc, ok := l.(*Const); ok {
			if rc, ok := r.(*Const); ok {
				if lc.V < rc.V {
					return &Const{V: 1}
				}
				return &Const{V: 0}
			}
		}
		return &Lt{Lhs: l, Rhs: r}

	case *Ite:
		cond := Simplify(x.Cond)
		then := Simplify(x.Then)
		els := Simplify(x.Else)
		if c, ok := cond.(*Const); ok {
			if c.V != 0 {
				return then
			}
			return els
		}
		return &Ite{Cond: cond, Then: then, Else: els}

	case *Hash:
		args := make([]SymValue, len(x.Args))
		for i, a := range x.Args {
			args[i] = Simplify(a)
		}
		return &Hash{Args: args}

	case *FieldOf:
		return &FieldOf{Base: Simplify(x.Base), Field: x.Field}

	default:
		return v
	}
}
