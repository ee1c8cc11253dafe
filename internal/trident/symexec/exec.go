package symexec

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/ast"
)

// DefaultMaxCallDepth and DefaultMaxLoopUnroll bound the executor's work
// on recursive calls and long-running loops (§4.3.1): beyond the cap, a
// call result or loop-carried variable is replaced by a fresh free
// variable rather than explored further, trading completeness for
// termination.
const (
	DefaultMaxCallDepth  = 8
	DefaultMaxLoopUnroll = 4
)

// Executor symbolically executes one function body against a library of
// sibling functions (for inlining calls up to the depth cap).
type Executor struct {
	Fns            map[string]*ast.FnDef
	MaxCallDepth   int
	MaxLoopUnroll  int

	divineSlot   int
	pubInputSlot int
	varSeq       int
}

// NewExecutor builds an Executor with the default caps.
func NewExecutor(fns map[string]*ast.FnDef) *Executor {
	return &Executor{Fns: fns, MaxCallDepth: DefaultMaxCallDepth, MaxLoopUnroll: DefaultMaxLoopUnroll}
}

type env map[string]SymValue

func (e env) clone() env {
	out := make(env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func (x *Executor) freshVar(prefix string) *Var {
	x.varSeq++
	return &Var{Name: fmt.Sprintf("%s$%d", prefix, x.varSeq)}
}

// Execute symbolically runs fn.Body with its parameters bound to fresh
// free variables and returns the accumulated constraint system.
func (x *Executor) Execute(fn *ast.FnDef) (*ConstraintSystem, error) {
	cs := &ConstraintSystem{}
	e := env{}
	for _, p := range fn.Params {
		v := &Var{Name: p.Name}
		e[p.Name] = v
		cs.AddFreeVar(p.Name)
	}
	if fn.Body == nil {
		return cs, nil
	}
	_, err := x.execBlock(e, cs, &Const{V: 1}, fn.Body, 0)
	return cs, err
}

// execBlock runs a block's statements then evaluates its tail
// expression (if any), returning the tail's symbolic value.
func (x *Executor) execBlock(e env, cs *ConstraintSystem, guard SymValue, b *ast.Block, depth int) (SymValue, error) {
	for _, s := range b.Stmts {
		if err := x.execStmt(e, cs, guard, s, depth); err != nil {
			return nil, err
		}
	}
	if b.Tail != nil {
		return x.eval(e, cs, guard, b.Tail, depth)
	}
	return nil, nil
}

func (x *Executor) execStmt(e env, cs *ConstraintSystem, guard SymValue, s ast.Stmt, depth int) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		v, err := x.eval(e, cs, guard, st.Value, depth)
		if err != nil {
			return err
		}
		if st.Pattern.Name != "" {
			e[st.Pattern.Name] = v
		}
		return nil

	case *ast.AssignStmt:
		name, ok := st.Target.(*ast.NameExpr)
		if !ok {
			return fmt.Errorf("symexec: unsupported assignment target %T", st.Target)
		}
		v, err := x.eval(e, cs, guard, st.Value, depth)
		if err != nil {
			return err
		}
		e[name.Name] = v
		return nil

	case *ast.ExprStmt:
		_, err := x.eval(e, cs, guard, st.Value, depth)
		return err

	case *ast.ReturnStmt:
		if st.Value == nil {
			return nil
		}
		_, err := x.eval(e, cs, guard, st.Value, depth)
		return err

	case *ast.IfStmt:
		cond, err := x.eval(e, cs, guard, st.Cond, depth)
		if err != nil {
			return err
		}
		cond = Simplify(cond)

		thenEnv := e.clone()
		thenGuard := Simplify(&Mul{Lhs: guard, Rhs: cond})
		if err := x.execStmtsInBlock(thenEnv, cs, thenGuard, st.Then, depth); err != nil {
			return err
		}

		elseEnv := e.clone()
		if st.Else != nil {
			notCond := &Eq{Lhs: cond, Rhs: &Const{V: 0}}
			elseGuard := Simplify(&Mul{Lhs: guard, Rhs: notCond})
			if err := x.execStmtsInBlock(elseEnv, cs, elseGuard, st.Else, depth); err != nil {
				return err
			}
		}

		mergeBranches(e, thenEnv, elseEnv, cond)
		return nil

	case *ast.ForStmt:
		return x.execFor(e, cs, guard, st, depth)

	case *ast.MatchStmt:
		return x.execMatch(e, cs, guard, st, depth)

	case *ast.EmitStmt, *ast.SealStmt, *ast.AsmStmt:
		// Opaque w.r.t. the field-polynomial constraint system: these
		// statements have no symbolic value (§4.3.1 scopes emit/seal/asm
		// out of constraint generation; they are checked structurally by
		// the verifier, not symbolically).
		return nil

	default:
		return fmt.Errorf("symexec: unsupported statement %T", s)
	}
}

func (x *Executor) execStmtsInBlock(e env, cs *ConstraintSystem, guard SymValue, b *ast.Block, depth int) error {
	_, err := x.execBlock(e, cs, guard, b, depth)
	return err
}

// mergeBranches writes, for every variable either branch rebound, a
// phi-style Ite into the joined environment, so control flow taken
// earlier still influences later reads without forking the environment
// itself.
func mergeBranches(joined, thenEnv, elseEnv env, cond SymValue) {
	seen := map[string]bool{}
	for name, tv := range thenEnv {
		seen[name] = true
		ev, ok := elseEnv[name]
		if !ok {
			ev = joined[name]
		}
		if ev != nil && tv.String() == ev.String() {
			joined[name] = tv
			continue
		}
		joined[name] = Simplify(&Ite{Cond: cond, Then: tv, Else: ev})
	}
	for name, ev := range elseEnv {
		if seen[name] {
			continue
		}
		tv := joined[name]
		joined[name] = Simplify(&Ite{Cond: cond, Then: tv, Else: ev})
	}
}

func (x *Executor) execFor(e env, cs *ConstraintSystem, guard SymValue, st *ast.ForStmt, depth int) error {
	startV, err := x.eval(e, cs, guard, st.Start, depth)
	if err != nil {
		return err
	}
	endV, err := x.eval(e, cs, guard, st.End, depth)
	if err != nil {
		return err
	}

	startC, startIsConst := Simplify(startV).(*Const)
	endC, endIsConst := Simplify(endV).(*Const)

	unroll := x.MaxLoopUnroll
	if startIsConst && endIsConst && int(endC.V-startC.V) <= unroll {
		unroll = int(endC.V - startC.V)
	}

	for i := 0; i < unroll; i++ {
		iterEnv := e
		var iv SymValue
		if startIsConst {
			iv = &Const{V: startC.V + uint64(i)}
		} else {
			iv = x.freshVar(st.Var)
			cs.AddFreeVar(iv.(*Var).Name)
		}
		iterEnv[st.Var] = iv
		if err := x.execStmtsInBlock(iterEnv, cs, guard, st.Body, depth); err != nil {
			return err
		}
	}

	// Loop bound exceeds the unroll cap: havoc every variable the body
	// assigns to a fresh free variable, soundly over-approximating the
	// remaining (unexplored) iterations rather than silently under
	// counting them.
	if !(startIsConst && endIsConst) || int(endC.V-startC.V) > x.MaxLoopUnroll {
		for _, name := range assignedNames(st.Body) {
			fv := x.freshVar(name + "$loop")
			cs.AddFreeVar(fv.Name)
			e[name] = fv
		}
	}
	return nil
}

// assignedNames returns every variable a block's top-level let/assign
// statements bind, used to havoc loop-carried state past the unroll cap.
func assignedNames(b *ast.Block) []string {
	var names []string
	for _, s := range b.Stmts {
		switch st := s.(type) {
		case *ast.LetStmt:
			if st.Pattern.Name != "" {
				names = append(names, st.Pattern.Name)
			}
			names = append(names, st.Pattern.Tuple...)
		case *ast.AssignStmt:
			if n, ok := st.Target.(*ast.NameExpr); ok {
				names = append(names, n.Name)
			}
		}
	}
	return names
}

func (x *Executor) execMatch(e env, cs *ConstraintSystem, guard SymValue, st *ast.MatchStmt, depth int) error {
	scrut, err := x.eval(e, cs, guard, st.Scrutinee, depth)
	if err != nil {
		return err
	}
	merged := e
	for _, arm := range st.Arms {
		armEnv := e.clone()
		armGuard := guard
		if arm.Literal != nil {
			lit, err := x.eval(e, cs, guard, arm.Literal, depth)
			if err != nil {
				return err
			}
			armGuard = Simplify(&Mul{Lhs: guard, Rhs: &Eq{Lhs: scrut, Rhs: lit}})
		}
		if err := x.execStmtsInBlock(armEnv, cs, armGuard, arm.Body, depth); err != nil {
			return err
		}
		mergeBranches(merged, armEnv, merged, armGuard)
	}
	return nil
}

func (x *Executor) eval(e env, cs *ConstraintSystem, guard SymValue, expr ast.Expr, depth int) (SymValue, error) {
	switch ex := expr.(type) {
	case *ast.LiteralExpr:
		return &Const{V: ex.Value}, nil

	case *ast.BoolExpr:
		if ex.Value {
			return &Const{V: 1}, nil
		}
		return &Const{V: 0}, nil

	case *ast.NameExpr:
		v, ok := e[ex.Name]
		if !ok {
			return nil, fmt.Errorf("symexec: undefined variable %q", ex.Name)
		}
		return v, nil

	case *ast.UnaryExpr:
		v, err := x.eval(e, cs, guard, ex.Value, depth)
		if err != nil {
			return nil, err
		}
		switch ex.Op {
		case ast.OpNeg:
			return Simplify(&Neg{X: v}), nil
		case ast.OpInvert:
			return Simplify(&Inv{X: v}), nil
		}
		return nil, fmt.Errorf("symexec: unsupported unary operator %q", ex.Op)

	case *ast.BinaryExpr:
		return x.evalBinary(e, cs, guard, ex, depth)

	case *ast.CallExpr:
		return x.evalCall(e, cs, guard, ex, depth)

	case *ast.FieldAccessExpr:
		base, err := x.eval(e, cs, guard, ex.Base, depth)
		if err != nil {
			return nil, err
		}
		return Simplify(&FieldOf{Base: base, Field: ex.Field}), nil

	case *ast.IfExpr:
		cond, err := x.eval(e, cs, guard, ex.Cond, depth)
		if err != nil {
			return nil, err
		}
		cond = Simplify(cond)
		thenEnv := e.clone()
		thenGuard := Simplify(&Mul{Lhs: guard, Rhs: cond})
		thenV, err := x.execBlock(thenEnv, cs, thenGuard, ex.Then, depth)
		if err != nil {
			return nil, err
		}
		elseEnv := e.clone()
		notCond := &Eq{Lhs: cond, Rhs: &Const{V: 0}}
		elseGuard := Simplify(&Mul{Lhs: guard, Rhs: notCond})
		elseV, err := x.execBlock(elseEnv, cs, elseGuard, ex.Else, depth)
		if err != nil {
			return nil, err
		}
		return Simplify(&Ite{Cond: cond, Then: thenV, Else: elseV}), nil

	case *ast.BlockExpr:
		return x.execBlock(e, cs, guard, ex.Block, depth)

	case *ast.TupleInitExpr, *ast.StructInitExpr, *ast.ArrayInitExpr:
		// Aggregate constructors are modeled opaquely: downstream code
		// only ever reaches their contents through FieldOf/index
		// projections, which are themselves uninterpreted here.
		return x.freshVar("aggregate"), nil

	default:
		return nil, fmt.Errorf("symexec: unsupported expression %T", expr)
	}
}

func (x *Executor) evalBinary(e env, cs *ConstraintSystem, guard SymValue, ex *ast.BinaryExpr, depth int) (SymValue, error) {
	lhs, err := x.eval(e, cs, guard, ex.Lhs, depth)
	if err != nil {
		return nil, err
	}
	rhs, err := x.eval(e, cs, guard, ex.Rhs, depth)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case ast.OpAdd:
		return Simplify(&Add{Lhs: lhs, Rhs: rhs}), nil
	case ast.OpSub:
		return Simplify(&Sub{Lhs: lhs, Rhs: rhs}), nil
	case ast.OpMul, ast.OpXxMul, ast.OpXbMul:
		return Simplify(&Mul{Lhs: lhs, Rhs: rhs}), nil
	case ast.OpEq:
		return Simplify(&Eq{Lhs: lhs, Rhs: rhs}), nil
	case ast.OpNeq:
		return Simplify(&Eq{Lhs: &Eq{Lhs: lhs, Rhs: rhs}, Rhs: &Const{V: 0}}), nil
	case ast.OpLt:
		return Simplify(&Lt{Lhs: lhs, Rhs: rhs}), nil
	case ast.OpDivMod:
		cs.Add(&RangeU32{X: lhs})
		cs.Add(&RangeU32{X: rhs})
		return Simplify(&Mul{Lhs: lhs, Rhs: &Inv{X: rhs}}), nil
	case ast.OpAnd, ast.OpXor:
		return x.freshVar(string(ex.Op)), nil // bitwise ops are not field-linear; left uninterpreted
	}
	return nil, fmt.Errorf("symexec: unsupported binary operator %q", ex.Op)
}

func (x *Executor) evalCall(e env, cs *ConstraintSystem, guard SymValue, ex *ast.CallExpr, depth int) (SymValue, error) {
	switch ex.Callee {
	case "hash", "merkle_step", "sponge_squeeze":
		var args []SymValue
		for _, a := range ex.Args {
			v, err := x.eval(e, cs, guard, a, depth)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return &Hash{Args: args}, nil

	case "assert":
		v, err := x.eval(e, cs, guard, ex.Args[0], depth)
		if err != nil {
			return nil, err
		}
		cs.Add(&Conditional{Guard: guard, Inner: &AssertTrue{Cond: v}})
		return &Const{V: 0}, nil

	case "assert_vector":
		if len(ex.Args) != 2 {
			return nil, fmt.Errorf("symexec: assert_vector takes exactly two arguments")
		}
		lhs, err := x.evalVector(e, cs, guard, ex.Args[0], depth)
		if err != nil {
			return nil, err
		}
		rhs, err := x.evalVector(e, cs, guard, ex.Args[1], depth)
		if err != nil {
			return nil, err
		}
		cs.Add(&Conditional{Guard: guard, Inner: &DigestEqual{Lhs: lhs, Rhs: rhs}})
		return &Const{V: 0}, nil

	case "divine":
		slot := x.divineSlot
		x.divineSlot++
		cs.AddFreeVar(fmt.Sprintf("divine$%d", slot))
		return &Divine{Slot: slot}, nil

	case "read_io":
		slot := x.pubInputSlot
		x.pubInputSlot++
		cs.AddFreeVar(fmt.Sprintf("pub_input$%d", slot))
		return &PubInput{Slot: slot}, nil
	}

	callee, ok := x.Fns[ex.Callee]
	if !ok || depth+1 >= x.MaxCallDepth {
		// Unknown callee, or the depth cap was hit: treat the call as an
		// opaque, side-effect-free function of its arguments.
		return x.freshVar("call_" + ex.Callee), nil
	}

	callEnv := env{}
	for i, p := range callee.Params {
		if i >= len(ex.Args) {
			break
		}
		v, err := x.eval(e, cs, guard, ex.Args[i], depth)
		if err != nil {
			return nil, err
		}
		callEnv[p.Name] = v
	}
	if callee.Body == nil {
		return x.freshVar("call_" + ex.Callee), nil
	}
	return x.execBlock(callEnv, cs, guard, callee.Body, depth+1)
}

func (x *Executor) evalVector(e env, cs *ConstraintSystem, guard SymValue, expr ast.Expr, depth int) ([]SymValue, error) {
	arr, ok := expr.(*ast.ArrayInitExpr)
	if !ok {
		v, err := x.eval(e, cs, guard, expr, depth)
		if err != nil {
			return nil, err
		}
		return []SymValue{v}, nil
	}
	var out []SymValue
	for _, el := range arr.Elements {
		v, err := x.eval(e, cs, guard, el, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
