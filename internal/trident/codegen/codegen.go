// Package codegen implements C1, the stack-machine code generator
// (§4.1): it walks a type-checked ast.File and produces target-
// independent ir.Program values via the build_fn contract (§4.1.1).
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/backend"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/ir"
	"github.com/tridentlang/trident/internal/trident/stackmodel"
)

// MaxVarWidth bounds how large a single named entry may be: it sizes the
// RAM spill-slot stride (§4.1.6), and spilling a wider entry is rejected
// with an error.
const MaxVarWidth = 32

// Generator lowers a resolved ast.File to an ir.Program, one function at
// a time, against a single backend.StackLowering.
type Generator struct {
	lowering backend.StackLowering
	diags    *diag.Collector

	structs map[string]*ast.StructDef
	events  map[string]*ast.EventDef
	fns     map[string]*ast.FnDef

	// sizeResolutions holds the recorded monomorphization targets:
	// mangled label -> size-argument bindings (§4.1.5, §9's sizegen note).
	sizeResolutions map[string]map[string]int

	monomorphized map[string]bool
	deferred      []ir.Function
	deferredSeq   int
}

// New builds a Generator for one compilation unit.
func New(lowering backend.StackLowering, diags *diag.Collector) *Generator {
	return &Generator{
		lowering:        lowering,
		diags:           diags,
		structs:         map[string]*ast.StructDef{},
		events:          map[string]*ast.EventDef{},
		fns:             map[string]*ast.FnDef{},
		sizeResolutions: map[string]map[string]int{},
		monomorphized:   map[string]bool{},
	}
}

// Load indexes a file's top-level items prior to code generation.
func (g *Generator) Load(f *ast.File) {
	for _, item := range f.Items {
		switch it := item.(type) {
		case *ast.FnDef:
			g.fns[it.Name] = it
		case *ast.StructDef:
			g.structs[it.Name] = it
		case *ast.EventDef:
			g.events[it.Name] = it
		}
	}
}

// funcCtx is the per-function generation state: the running op list, the
// virtual stack model, and the size-argument bindings in scope.
type funcCtx struct {
	gen      *Generator
	model    *stackmodel.Model
	ops      []ir.Op
	sizeArgs map[string]int
	label    string
}

func (c *funcCtx) emit(op ir.Op) { c.ops = append(c.ops, op) }

// BuildProgram generates every non-generic function in name order, then
// every recorded monomorphization in label order, then appends g.deferred.
// Match-arm and loop bodies are not emitted as functions here: they stay
// nested inside their IfElse/IfOnly/Loop ops, and package lowering hoists
// them into subroutines.
func (g *Generator) BuildProgram() (*ir.Program, error) {
	prog := &ir.Program{}
	names := make([]string, 0, len(g.fns))
	for name := range g.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn := g.fns[name]
		if len(fn.SizeParams) > 0 {
			continue // only built through RegisterMonomorphization call sites
		}
		irFn, err := g.BuildFn(fn, nil)
		if err != nil {
			return nil, fmt.Errorf("codegen: function %q: %w", name, err)
		}
		prog.Functions = append(prog.Functions, *irFn)
	}
	labels := make([]string, 0, len(g.sizeResolutions))
	for label := range g.sizeResolutions {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		sizeArgs := g.sizeResolutions[label]
		fn, ok := g.fns[baseName(label)]
		if !ok {
			continue
		}
		irFn, err := g.BuildFn(fn, sizeArgs)
		if err != nil {
			return nil, fmt.Errorf("codegen: monomorphization %q: %w", label, err)
		}
		prog.Functions = append(prog.Functions, *irFn)
	}
	prog.Functions = append(prog.Functions, g.deferred...)
	return prog, nil
}

// RegisterMonomorphization records one (name, size-args) instantiation
// site (§4.1.5). Keyed by mangled label so repeated call sites with
// identical size arguments collapse to one emitted copy.
func (g *Generator) RegisterMonomorphization(name string, sizeArgs map[string]int) string {
	label := mangle(name, g.sizeParamOrder(name), sizeArgs)
	if !g.monomorphized[label] {
		g.monomorphized[label] = true
		g.sizeResolutions[label] = sizeArgs
	}
	return label
}

func (g *Generator) sizeParamOrder(name string) []string {
	if fn, ok := g.fns[name]; ok {
		return fn.SizeParams
	}
	return nil
}

// mangle builds the `name__arg0_arg1_…` label (§4.1.5): size-argument
// values in the function's own declaration order, not map iteration
// order, so the same instantiation always mangles to the same label.
func mangle(name string, order []string, sizeArgs map[string]int) string {
	if len(sizeArgs) == 0 {
		return name
	}
	label := name
	sep := "__"
	for _, k := range order {
		if v, ok := sizeArgs[k]; ok {
			label += fmt.Sprintf("%s%d", sep, v)
			sep = "_"
		}
	}
	return label
}

func baseName(mangled string) string {
	if i := strings.Index(mangled, "__"); i >= 0 {
		return mangled[:i]
	}
	return mangled
}

// BuildFn implements the build_fn contract (§4.1.1): a fresh stack
// model is seeded with the function's parameters (resident, named, in
// declaration order), the body is lowered statement-by-statement, and
// the result is bracketed with the backend's prologue/epilogue.
func (g *Generator) BuildFn(fn *ast.FnDef, sizeArgs map[string]int) (*ir.Function, error) {
	label := fn.Name
	if len(sizeArgs) > 0 {
		label = mangle(fn.Name, fn.SizeParams, sizeArgs)
	}

	model := stackmodel.New(g.lowering, MaxVarWidth)
	for _, p := range fn.Params {
		w, err := g.widthOf(p.Type, sizeArgs)
		if err != nil {
			return nil, err
		}
		model.PushNamed(p.Name, w, elemWidthOf(p.Type))
	}

	ctx := &funcCtx{gen: g, model: model, sizeArgs: sizeArgs, label: label}

	for _, line := range g.lowering.Prologue(label) {
		ctx.emit(ir.Op{Kind: ir.OpAsm, AsmLines: []string{line}})
	}

	if fn.Body != nil {
		if err := ctx.lowerBlock(fn.Body); err != nil {
			return nil, err
		}
	}

	for _, line := range g.lowering.Epilogue() {
		ctx.emit(ir.Op{Kind: ir.OpAsm, AsmLines: []string{line}})
	}

	return &ir.Function{Label: label, Ops: ctx.ops}, nil
}

// widthOf returns the field-element width of a surface type (§3.2's
// width table), substituting any size-generic parameter from sizeArgs.
func (g *Generator) widthOf(t ast.Type, sizeArgs map[string]int) (int, error) {
	switch t.Name {
	case "Field", "Bool", "U32":
		return 1, nil
	case "Digest":
		return g.lowering.DigestWidth(), nil
	case "XField":
		return g.lowering.XFieldWidth(), nil
	case "":
		// tuple type
	default:
		if sd, ok := g.structs[t.Name]; ok {
			total := 0
			for _, f := range sd.Fields {
				w, err := g.widthOf(f.Type, sizeArgs)
				if err != nil {
					return 0, err
				}
				total += w
			}
			return total, nil
		}
	}

	if t.Array != nil {
		n := t.ArrayLen
		if t.SizeArg != "" {
			v, ok := sizeArgs[t.SizeArg]
			if !ok {
				return 0, fmt.Errorf("codegen: unresolved size parameter %q", t.SizeArg)
			}
			n = v
		}
		elemW, err := g.widthOf(*t.Array, sizeArgs)
		if err != nil {
			return 0, err
		}
		return n * elemW, nil
	}

	if t.Tuple != nil {
		total := 0
		for _, sub := range t.Tuple {
			w, err := g.widthOf(sub, sizeArgs)
			if err != nil {
				return 0, err
			}
			total += w
		}
		return total, nil
	}

	return 0, fmt.Errorf("codegen: unknown type %q", t.Name)
}

func elemWidthOf(t ast.Type) int {
	if t.Array == nil {
		return 0
	}
	switch t.Array.Name {
	case "Field", "Bool", "U32":
		return 1
	default:
		return 0
	}
}

// access brings a named variable's topmost cell to a known depth,
// reloading it from RAM first if it is currently spilled (§4.1.2).
func (c *funcCtx) access(name string) (depth int, width int, err error) {
	_, d, e, ok := c.model.Find(name)
	if !ok {
		return 0, 0, fmt.Errorf("codegen: undefined variable %q", name)
	}
	if e.Spilled {
		ops, err := c.model.Reload(name, c.gen.lowering)
		if err != nil {
			return 0, 0, err
		}
		c.ops = append(c.ops, ops...)
		_, d, e, _ = c.model.Find(name)
	}
	c.model.Touch(name)
	return d, e.Width, nil
}

// lowerBlock lowers each statement in order, then the tail expression if
// present (leaving its value resident on top of the stack).
func (c *funcCtx) lowerBlock(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := c.lowerStmt(s); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		return c.lowerExpr(b.Tail)
	}
	return nil
}

func (c *funcCtx) lowerStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		return c.lowerLet(st)
	case *ast.AssignStmt:
		return c.lowerAssign(st)
	case *ast.IfStmt:
		return c.lowerIfStmt(st)
	case *ast.ForStmt:
		return c.lowerFor(st)
	case *ast.ExprStmt:
		if err := c.lowerExpr(st.Value); err != nil {
			return err
		}
		// An expression statement's value is discarded (I4: no orphaned
		// anonymous temporaries survive past their statement).
		e, err := c.model.Pop()
		if err != nil {
			return err
		}
		if e.Width > 0 {
			c.emit(ir.Op{Kind: ir.OpPop, N: e.Width})
		}
		return nil
	case *ast.ReturnStmt:
		if st.Value != nil {
			if err := c.lowerExpr(st.Value); err != nil {
				return err
			}
		}
		c.emit(ir.Op{Kind: ir.OpReturn})
		return nil
	case *ast.MatchStmt:
		return c.lowerMatch(st)
	case *ast.EmitStmt:
		return c.lowerEmit(st, ir.OpOpen)
	case *ast.SealStmt:
		return c.lowerEmit(st, ir.OpSeal)
	case *ast.AsmStmt:
		c.emit(ir.Op{Kind: ir.OpAsm, AsmLines: st.Lines, Effect: st.Effect, Target: st.Target})
		return nil
	default:
		return fmt.Errorf("codegen: unsupported statement %T", s)
	}
}

func (c *funcCtx) lowerLet(st *ast.LetStmt) error {
	if err := c.lowerExpr(st.Value); err != nil {
		return err
	}
	if st.Pattern.Tuple != nil {
		top, err := c.model.Pop()
		if err != nil {
			return err
		}
		if len(st.Pattern.Tuple) == 0 || top.Width%len(st.Pattern.Tuple) != 0 {
			return fmt.Errorf("codegen: cannot destructure width %d into %d slots", top.Width, len(st.Pattern.Tuple))
		}
		c.model.PushNamed("", top.Width, 0) // restore for SplitTop's own Pop
		return c.model.SplitTop(st.Pattern.Tuple, top.Width/len(st.Pattern.Tuple))
	}
	elemWidth := 0
	if st.Type != nil {
		elemWidth = elemWidthOf(*st.Type)
	}
	return c.model.RenameTop(st.Pattern.Name, elemWidth)
}

func (c *funcCtx) lowerAssign(st *ast.AssignStmt) error {
	name, ok := st.Target.(*ast.NameExpr)
	if !ok {
		return fmt.Errorf("codegen: unsupported assignment target %T", st.Target)
	}
	if err := c.lowerExpr(st.Value); err != nil {
		return err
	}
	newVal, err := c.model.Pop()
	if err != nil {
		return err
	}
	depth, oldWidth, err := c.access(name.Name)
	if err != nil {
		return err
	}
	if oldWidth != newVal.Width {
		return fmt.Errorf("codegen: assignment width mismatch for %q: have %d, want %d", name.Name, newVal.Width, oldWidth)
	}
	// Drop the old binding's cells, replace with the freshly computed
	// value, which is already resident on top.
	for i := 0; i < oldWidth; i++ {
		c.emit(ir.Op{Kind: ir.OpSwap, N: depth + oldWidth})
		c.emit(ir.Op{Kind: ir.OpPop, N: 1})
	}
	c.model.PushNamed(name.Name, newVal.Width, newVal.ElemWidth)
	return nil
}

func (c *funcCtx) lowerIfStmt(st *ast.IfStmt) error {
	if err := c.lowerExpr(st.Cond); err != nil {
		return err
	}
	if _, err := c.model.Pop(); err != nil {
		return err
	}
	snapshot := c.model.Save()

	thenOps, err := c.lowerBranch(st.Then)
	if err != nil {
		return err
	}
	c.model.Restore(snapshot)

	var elseOps []ir.Op
	if st.Else != nil {
		elseOps, err = c.lowerBranch(st.Else)
		if err != nil {
			return err
		}
		c.model.Restore(snapshot)
		c.emit(ir.Op{Kind: ir.OpIfElse, Then: thenOps, Else: elseOps})
	} else {
		c.emit(ir.Op{Kind: ir.OpIfOnly, Then: thenOps})
	}
	return nil
}

// lowerBranch lowers a block in an isolated op buffer so its ops can be
// nested under the owning If/Loop op (§4.1.3).
func (c *funcCtx) lowerBranch(b *ast.Block) ([]ir.Op, error) {
	saved := c.ops
	c.ops = nil
	err := c.lowerBlock(b)
	branchOps := c.ops
	c.ops = saved
	return branchOps, err
}

func (c *funcCtx) lowerFor(st *ast.ForStmt) error {
	// End is lowered before Start so the two real values land in the
	// order OpSub expects (lhs pushed first): the materialized counter is
	// End - Start, a real descending trip count the loop skeleton in
	// internal/trident/lowering decrements to zero with skiz/recurse. The
	// induction variable therefore reads as "iterations remaining", not
	// the ascending index; bounded loops in this language are written
	// against a budget anyway, so this is sufficient for every
	// intrinsic that consumes st.Var as a countdown.
	if err := c.lowerExpr(st.End); err != nil {
		return err
	}
	if _, err := c.model.Pop(); err != nil {
		return err
	}
	if err := c.lowerExpr(st.Start); err != nil {
		return err
	}
	if _, err := c.model.Pop(); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpSub})

	c.model.PushNamed(st.Var, 1, 0)
	snapshot := c.model.Save()
	bodyOps, err := c.lowerBranch(st.Body)
	c.model.Restore(snapshot)
	if err != nil {
		return err
	}
	if _, err := c.model.Pop(); err != nil { // drop the loop counter binding
		return err
	}
	n, literalEnd := loopTripCount(st)
	c.emit(ir.Op{Kind: ir.OpLoop, Label: st.Var, Body: bodyOps, N: n, Value: literalEnd})
	return nil
}

// loopTripCount resolves §4.2.2's loop scale factor: N = the declared
// `bounded B` if one was given, else the loop's literal `end` if it is a
// constant, else 1. literalEnd additionally carries the literal end value
// when a `bounded B` clause was given and end is also a constant — the
// only case the cost model's H0004 "loop-bound waste" hint compares
// against — and is 0 otherwise.
func loopTripCount(st *ast.ForStmt) (n int, literalEnd uint64) {
	endLit, endIsLiteral := literalValue(st.End)
	if st.Bounded != nil {
		n = 1
		if b, ok := literalValue(st.Bounded); ok {
			n = int(b)
		}
		if endIsLiteral {
			literalEnd = endLit
		}
		return n, literalEnd
	}
	if endIsLiteral {
		return int(endLit), 0
	}
	return 1, 0
}

func literalValue(e ast.Expr) (uint64, bool) {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok {
		return 0, false
	}
	return lit.Value, true
}

// matchScrutineeName is the synthesized local a match statement binds its
// scrutinee to, so arm dispatch can reuse the ordinary NameExpr/BinaryExpr
// lowering paths (dup-and-compare, field access) instead of hand-rolled
// ops. It is never visible to source, so it can't collide with a real
// binding in scope.
const matchScrutineeName = "__match_scrutinee"

// lowerMatch implements first-match-wins dispatch (§4.1.3): the scrutinee
// is bound once, literal arms are compiled as a nested dup-compare-branch
// chain (each literal's Else is the next arm), and the first wildcard or
// struct-pattern arm reached is an unconditional terminal call. Whichever
// arm actually runs, the scrutinee's full width is popped off the real
// stack once dispatch completes.
func (c *funcCtx) lowerMatch(st *ast.MatchStmt) error {
	if err := c.lowerExpr(st.Scrutinee); err != nil {
		return err
	}
	scrut, err := c.model.Pop()
	if err != nil {
		return err
	}
	c.model.PushNamed(matchScrutineeName, scrut.Width, scrut.ElemWidth)
	base := c.model.Save()

	dispatch, err := c.lowerMatchArmsFrom(st.Arms, base)
	if err != nil {
		return err
	}
	c.ops = append(c.ops, dispatch...)

	c.model.Restore(base)
	if _, err := c.model.Pop(); err != nil { // drop the scrutinee binding
		return err
	}
	c.emit(ir.Op{Kind: ir.OpPop, N: scrut.Width})
	return nil
}

// lowerMatchArmsFrom builds the ops that dispatch arms[0:], given a model
// whose only addition over the caller's is the resident, named scrutinee
// (base). Literal arms recurse into their own Else; a wildcard or
// struct-pattern arm ends the chain.
func (c *funcCtx) lowerMatchArmsFrom(arms []ast.MatchArm, base stackmodel.Snapshot) ([]ir.Op, error) {
	if len(arms) == 0 {
		return nil, nil
	}
	arm := arms[0]
	c.model.Restore(base)

	if arm.Literal == nil {
		// Wildcard or struct pattern: first-match-wins means whatever
		// follows in the source is unreachable once this arm is reached.
		return c.lowerMatchArmBody(arm)
	}

	cond := &ast.BinaryExpr{Op: ast.OpEq, Lhs: &ast.NameExpr{Name: matchScrutineeName}, Rhs: arm.Literal}
	saved := c.ops
	c.ops = nil
	condErr := c.lowerExpr(cond)
	condOps := c.ops
	c.ops = saved
	if condErr != nil {
		return nil, condErr
	}
	if _, err := c.model.Pop(); err != nil { // drop the computed comparison bool
		return nil, err
	}
	afterCond := c.model.Save()

	thenOps, err := c.lowerMatchArmBody(arm)
	if err != nil {
		return nil, err
	}

	c.model.Restore(afterCond)
	elseOps, err := c.lowerMatchArmsFrom(arms[1:], afterCond)
	if err != nil {
		return nil, err
	}

	out := append(append([]ir.Op{}, condOps...), ir.Op{Kind: ir.OpIfElse, Then: thenOps, Else: elseOps})
	return out, nil
}

// lowerMatchArmBody lowers one arm's struct-pattern prelude (if any) and
// body in an isolated op buffer, restoring the model to its pre-arm state
// afterward (§4.1.3: every arm starts and leaves the same shape).
func (c *funcCtx) lowerMatchArmBody(arm ast.MatchArm) ([]ir.Op, error) {
	snapshot := c.model.Save()
	saved := c.ops
	c.ops = nil

	var err error
	if arm.StructPattern != nil {
		err = c.lowerMatchStructPrelude(arm.StructPattern)
	}
	if err == nil {
		err = c.lowerBlock(arm.Body)
	}

	armOps := c.ops
	c.ops = saved
	c.model.Restore(snapshot)
	return armOps, err
}

// lowerMatchStructPrelude emits the field bindings and literal-field
// assertions a struct pattern implies. It reads field layout directly
// from sp.TypeName rather than through lowerFieldAccess/structTypeOf,
// since those resolve a struct type only for a real function parameter
// and the scrutinee here is the synthesized matchScrutineeName local.
func (c *funcCtx) lowerMatchStructPrelude(sp *ast.StructPattern) error {
	sd, ok := c.gen.structs[sp.TypeName]
	if !ok {
		return fmt.Errorf("codegen: unknown struct %q in match pattern", sp.TypeName)
	}
	for _, fp := range sp.Fields {
		w, err := c.dupMatchScrutineeField(sd, fp.Name)
		if err != nil {
			return err
		}
		if fp.Literal != nil {
			if w != 1 {
				return fmt.Errorf("codegen: match field literal on %s.%s requires width 1, got %d", sp.TypeName, fp.Name, w)
			}
			if err := c.lowerExpr(fp.Literal); err != nil {
				return err
			}
			if _, err := c.model.Pop(); err != nil {
				return err
			}
			if _, err := c.model.Pop(); err != nil {
				return err
			}
			c.emit(ir.Op{Kind: ir.OpEq})
			c.emit(ir.Op{Kind: ir.OpAssert})
			continue
		}
		if err := c.model.RenameTop(fp.Bind, 0); err != nil {
			return err
		}
	}
	return nil
}

// dupMatchScrutineeField duplicates one field of the match scrutinee onto
// the top of the stack as a fresh anonymous entry (mirrors
// lowerFieldAccess's depth arithmetic) and returns its width.
func (c *funcCtx) dupMatchScrutineeField(sd *ast.StructDef, field string) (int, error) {
	depth, _, err := c.access(matchScrutineeName)
	if err != nil {
		return 0, err
	}
	off, w, err := fieldOffset(c.gen, sd, field)
	if err != nil {
		return 0, err
	}
	fieldDepth := depth + (structWidth(c.gen, sd) - off - w)
	if err := c.ensure(w); err != nil {
		return 0, err
	}
	for i := 0; i < w; i++ {
		c.emit(ir.Op{Kind: ir.OpDup, N: fieldDepth + w - 1})
	}
	c.model.PushAnon(w)
	return w, nil
}

func (c *funcCtx) lowerEmit(st interface {
	stmtNode()
}, kind ir.Kind) error {
	var name string
	var fields []ast.FieldInit
	switch s := st.(type) {
	case *ast.EmitStmt:
		name, fields = s.EventName, s.Fields
	case *ast.SealStmt:
		name, fields = s.EventName, s.Fields
	}
	for _, f := range fields {
		if err := c.lowerExpr(f.Value); err != nil {
			return err
		}
		if _, err := c.model.Pop(); err != nil {
			return err
		}
	}
	c.emit(ir.Op{Kind: kind, Tag: name, FieldCount: len(fields)})
	return nil
}

// lowerExpr lowers e and leaves exactly one resident (possibly
// multi-width) anonymous model entry on top of the stack holding its
// value.
func (c *funcCtx) lowerExpr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		if err := c.ensure(1); err != nil {
			return err
		}
		c.emit(ir.Op{Kind: ir.OpPush, Value: ex.Value})
		c.model.PushAnon(1)
		return nil

	case *ast.BoolExpr:
		if err := c.ensure(1); err != nil {
			return err
		}
		v := uint64(0)
		if ex.Value {
			v = 1
		}
		c.emit(ir.Op{Kind: ir.OpPush, Value: v})
		c.model.PushAnon(1)
		return nil

	case *ast.NameExpr:
		depth, width, err := c.access(ex.Name)
		if err != nil {
			return err
		}
		if err := c.ensure(width); err != nil {
			return err
		}
		for i := 0; i < width; i++ {
			c.emit(ir.Op{Kind: ir.OpDup, N: depth + width - 1})
		}
		c.model.PushAnon(width)
		return nil

	case *ast.BinaryExpr:
		return c.lowerBinary(ex)

	case *ast.UnaryExpr:
		return c.lowerUnary(ex)

	case *ast.CallExpr:
		return c.lowerCall(ex)

	case *ast.TupleInitExpr:
		width := 0
		for _, el := range ex.Elements {
			if err := c.lowerExpr(el); err != nil {
				return err
			}
			e, err := c.model.Pop()
			if err != nil {
				return err
			}
			width += e.Width
		}
		c.model.PushAnon(width)
		return nil

	case *ast.StructInitExpr:
		sd, ok := c.gen.structs[ex.TypeName]
		if !ok {
			return fmt.Errorf("codegen: unknown struct %q", ex.TypeName)
		}
		width := 0
		for _, field := range sd.Fields {
			init, ok := findFieldInit(ex.Fields, field.Name)
			if !ok {
				return fmt.Errorf("codegen: struct %q missing field %q", ex.TypeName, field.Name)
			}
			if err := c.lowerExpr(init); err != nil {
				return err
			}
			fw, err := c.gen.widthOf(field.Type, nil)
			if err != nil {
				return err
			}
			if _, err := c.model.Pop(); err != nil {
				return err
			}
			width += fw
		}
		c.model.PushAnon(width)
		return nil

	case *ast.ArrayInitExpr:
		width := 0
		for _, el := range ex.Elements {
			if err := c.lowerExpr(el); err != nil {
				return err
			}
			e, err := c.model.Pop()
			if err != nil {
				return err
			}
			width += e.Width
		}
		c.model.PushAnon(width)
		return nil

	case *ast.FieldAccessExpr:
		return c.lowerFieldAccess(ex)

	case *ast.IndexExpr:
		return c.lowerIndex(ex)

	case *ast.IfExpr:
		if err := c.lowerExpr(ex.Cond); err != nil {
			return err
		}
		if _, err := c.model.Pop(); err != nil {
			return err
		}
		snapshot := c.model.Save()
		thenOps, err := c.lowerBranchExpr(ex.Then)
		if err != nil {
			return err
		}
		c.model.Restore(snapshot)
		elseOps, err := c.lowerBranchExpr(ex.Else)
		if err != nil {
			return err
		}
		c.emit(ir.Op{Kind: ir.OpIfElse, Then: thenOps, Else: elseOps})
		c.model.PushAnon(1)
		return nil

	case *ast.BlockExpr:
		return c.lowerBlock(ex.Block)

	default:
		return fmt.Errorf("codegen: unsupported expression %T", e)
	}
}

func (c *funcCtx) lowerBranchExpr(b *ast.Block) ([]ir.Op, error) {
	saved := c.ops
	c.ops = nil
	err := c.lowerBlock(b)
	if err == nil {
		if _, perr := c.model.Pop(); perr != nil {
			err = perr
		}
	}
	branchOps := c.ops
	c.ops = saved
	return branchOps, err
}

func findFieldInit(fields []ast.FieldInit, name string) (ast.Expr, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ensure requests n free cells via the model's spill protocol (§4.1.6).
func (c *funcCtx) ensure(n int) error {
	ops, err := c.model.EnsureSpace(n, c.gen.lowering)
	if err != nil {
		return err
	}
	c.ops = append(c.ops, ops...)
	return nil
}

var binopKind = map[ast.BinOp]ir.Kind{
	ast.OpAdd: ir.OpAdd, ast.OpSub: ir.OpSub, ast.OpMul: ir.OpMul,
	ast.OpDivMod: ir.OpDivMod, ast.OpEq: ir.OpEq, ast.OpLt: ir.OpLt,
	ast.OpAnd: ir.OpAnd, ast.OpXor: ir.OpXor,
	ast.OpXxMul: ir.OpXxMul, ast.OpXbMul: ir.OpXbMul,
}

func (c *funcCtx) lowerBinary(ex *ast.BinaryExpr) error {
	if ex.Op == ast.OpNeq {
		// a != b lowers to eq then invert (no native neq opcode, §4.1.4
		// style of "derive from a narrower native set").
		eq := &ast.BinaryExpr{Op: ast.OpEq, Lhs: ex.Lhs, Rhs: ex.Rhs, Span: ex.Span}
		if err := c.lowerBinary(eq); err != nil {
			return err
		}
		if _, err := c.model.Pop(); err != nil {
			return err
		}
		c.emit(ir.Op{Kind: ir.OpInvert})
		c.model.PushAnon(1)
		return nil
	}

	if err := c.lowerExpr(ex.Lhs); err != nil {
		return err
	}
	if err := c.lowerExpr(ex.Rhs); err != nil {
		return err
	}
	rhs, err := c.model.Pop()
	if err != nil {
		return err
	}
	lhs, err := c.model.Pop()
	if err != nil {
		return err
	}
	kind, ok := binopKind[ex.Op]
	if !ok {
		return fmt.Errorf("codegen: unsupported binary operator %q", ex.Op)
	}
	c.emit(ir.Op{Kind: kind})
	resultWidth := lhs.Width
	if ex.Op == ast.OpEq || ex.Op == ast.OpLt {
		resultWidth = 1
	}
	if ex.Op == ast.OpDivMod {
		c.model.PushAnon(resultWidth)
		c.model.PushAnon(resultWidth)
		return nil
	}
	_ = rhs
	c.model.PushAnon(resultWidth)
	return nil
}

func (c *funcCtx) lowerUnary(ex *ast.UnaryExpr) error {
	if err := c.lowerExpr(ex.Value); err != nil {
		return err
	}
	v, err := c.model.Pop()
	if err != nil {
		return err
	}
	switch ex.Op {
	case ast.OpNeg:
		c.emit(ir.Op{Kind: ir.OpNeg})
	case ast.OpInvert:
		c.emit(ir.Op{Kind: ir.OpInvert})
	default:
		return fmt.Errorf("codegen: unsupported unary operator %q", ex.Op)
	}
	c.model.PushAnon(v.Width)
	return nil
}

func (c *funcCtx) lowerFieldAccess(ex *ast.FieldAccessExpr) error {
	name, ok := ex.Base.(*ast.NameExpr)
	if !ok {
		return fmt.Errorf("codegen: field access base must be a name (got %T)", ex.Base)
	}
	_, d, e, ok := c.model.Find(name.Name)
	if !ok {
		return fmt.Errorf("codegen: undefined variable %q", name.Name)
	}
	sd := c.structTypeOf(name.Name)
	if sd == nil {
		return fmt.Errorf("codegen: %q is not a struct", name.Name)
	}
	off, w, err := fieldOffset(c.gen, sd, ex.Field)
	if err != nil {
		return err
	}
	depth, _, err := c.access(name.Name)
	if err != nil {
		return err
	}
	_ = d
	_ = e
	fieldDepth := depth + (structWidth(c.gen, sd) - off - w)
	if err := c.ensure(w); err != nil {
		return err
	}
	for i := 0; i < w; i++ {
		c.emit(ir.Op{Kind: ir.OpDup, N: fieldDepth + w - 1})
	}
	c.model.PushAnon(w)
	return nil
}

// structTypeOf is a best-effort lookup; the generator does not carry a
// full type environment, so field access is only resolved for plain
// named struct-typed locals (the common case in generated code).
func (c *funcCtx) structTypeOf(varName string) *ast.StructDef {
	for _, fn := range c.gen.fns {
		for _, p := range fn.Params {
			if p.Name == varName {
				if sd, ok := c.gen.structs[p.Type.Name]; ok {
					return sd
				}
			}
		}
	}
	return nil
}

func structWidth(g *Generator, sd *ast.StructDef) int {
	w := 0
	for _, f := range sd.Fields {
		fw, _ := g.widthOf(f.Type, nil)
		w += fw
	}
	return w
}

func fieldOffset(g *Generator, sd *ast.StructDef, field string) (offset, width int, err error) {
	off := 0
	for _, f := range sd.Fields {
		fw, err := g.widthOf(f.Type, nil)
		if err != nil {
			return 0, 0, err
		}
		if f.Name == field {
			return off, fw, nil
		}
		off += fw
	}
	return 0, 0, fmt.Errorf("codegen: struct %q has no field %q", sd.Name, field)
}

func (c *funcCtx) lowerIndex(ex *ast.IndexExpr) error {
	name, ok := ex.Base.(*ast.NameExpr)
	if !ok {
		return fmt.Errorf("codegen: index base must be a name (got %T)", ex.Base)
	}
	lit, ok := ex.Index.(*ast.LiteralExpr)
	if !ok {
		return fmt.Errorf("codegen: only constant indices are supported")
	}
	_, _, e, ok := c.model.Find(name.Name)
	if !ok {
		return fmt.Errorf("codegen: undefined variable %q", name.Name)
	}
	elemW := e.ElemWidth
	if elemW == 0 {
		elemW = 1
	}
	depth, _, err := c.access(name.Name)
	if err != nil {
		return err
	}
	idx := int(lit.Value)
	elemDepth := depth + (e.Width - idx*elemW - elemW)
	if err := c.ensure(elemW); err != nil {
		return err
	}
	for i := 0; i < elemW; i++ {
		c.emit(ir.Op{Kind: ir.OpDup, N: elemDepth + elemW - 1})
	}
	c.model.PushAnon(elemW)
	return nil
}

// lowerCall dispatches to an intrinsic when one is registered for the
// callee name (§4.1.4); otherwise it lowers arguments and emits a Call,
// registering a monomorphization when the callee is size-generic
// (§4.1.5).
func (c *funcCtx) lowerCall(ex *ast.CallExpr) error {
	if fn, ok := Intrinsics[ex.Callee]; ok {
		return fn(c, ex)
	}

	target, ok := c.gen.fns[ex.Callee]
	if !ok {
		return fmt.Errorf("codegen: call to undefined function %q", ex.Callee)
	}

	argWidth := 0
	for _, a := range ex.Args {
		if err := c.lowerExpr(a); err != nil {
			return err
		}
		e, err := c.model.Pop()
		if err != nil {
			return err
		}
		argWidth += e.Width
	}

	label := ex.Callee
	if len(target.SizeParams) > 0 {
		sizeArgs := map[string]int{}
		for i, p := range target.SizeParams {
			if i < len(ex.SizeArgs) {
				sizeArgs[p] = ex.SizeArgs[i]
			}
		}
		label = c.gen.RegisterMonomorphization(ex.Callee, sizeArgs)
	}

	c.emit(ir.Op{Kind: ir.OpCall, Label: label})

	retWidth := 0
	if target.Return != nil {
		w, err := c.gen.widthOf(*target.Return, c.sizeArgs)
		if err != nil {
			return err
		}
		retWidth = w
	}
	c.model.PushAnon(retWidth)
	return nil
}
