// Package sizegen implements the minimal concrete side of Trident's
// size-generic parameters (§4.1.5, §9): resolving call sites that omit
// explicit size arguments against a pre-computed `call_resolutions`
// list, and computing a surface type's field-element width once its
// size parameters are bound. The harder problem — inferring those
// resolutions from unannotated call sites — is out of scope (§9: "treat
// as given"); this package only consumes the resolved list and answers
// width queries against it, the way internal/trident/codegen's own
// widthOf does for a single function at a time.
package sizegen

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/ast"
)

// Resolver walks a file in source order and fills in the SizeArgs of
// every call site that omits them at a size-generic callee, consuming
// values from a flat call_resolutions list one size parameter at a time
// (§4.1.5: "the generator consumes them from a pre-computed
// call_resolutions list in source order").
type Resolver struct {
	fns         map[string]*ast.FnDef
	resolutions []int
	pos         int
}

// New builds a Resolver against fns (indexed by name) and the flat
// resolutions list produced upstream of this package.
func New(fns map[string]*ast.FnDef, resolutions []int) *Resolver {
	return &Resolver{fns: fns, resolutions: resolutions}
}

// Remaining reports how many resolution values have not yet been
// consumed; a non-zero value after ResolveFile indicates the list had
// more entries than the file had omitted-size-argument call sites.
func (r *Resolver) Remaining() int {
	return len(r.resolutions) - r.pos
}

// ResolveFile mutates every applicable CallExpr's SizeArgs in place, in
// the order call sites appear in the file (top-level items in source
// order, each item's body walked depth-first).
func (r *Resolver) ResolveFile(f *ast.File) error {
	for _, item := range f.Items {
		fn, ok := item.(*ast.FnDef)
		if !ok || fn.Body == nil {
			continue
		}
		if err := r.resolveBlock(fn.Body); err != nil {
			return fmt.Errorf("sizegen: function %q: %w", fn.Name, err)
		}
	}
	return nil
}

func (r *Resolver) resolveBlock(b *ast.Block) error {
	if b == nil {
		return nil
	}
	for _, s := range b.Stmts {
		if err := r.resolveStmt(s); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		return r.resolveExpr(b.Tail)
	}
	return nil
}

func (r *Resolver) resolveStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		return r.resolveExpr(st.Value)
	case *ast.AssignStmt:
		if err := r.resolveExpr(st.Target); err != nil {
			return err
		}
		return r.resolveExpr(st.Value)
	case *ast.IfStmt:
		if err := r.resolveExpr(st.Cond); err != nil {
			return err
		}
		if err := r.resolveBlock(st.Then); err != nil {
			return err
		}
		return r.resolveBlock(st.Else)
	case *ast.ForStmt:
		if err := r.resolveExpr(st.Start); err != nil {
			return err
		}
		if err := r.resolveExpr(st.End); err != nil {
			return err
		}
		if st.Bounded != nil {
			if err := r.resolveExpr(st.Bounded); err != nil {
				return err
			}
		}
		return r.resolveBlock(st.Body)
	case *ast.ExprStmt:
		return r.resolveExpr(st.Value)
	case *ast.ReturnStmt:
		if st.Value == nil {
			return nil
		}
		return r.resolveExpr(st.Value)
	case *ast.MatchStmt:
		if err := r.resolveExpr(st.Scrutinee); err != nil {
			return err
		}
		for _, arm := range st.Arms {
			if err := r.resolveBlock(arm.Body); err != nil {
				return err
			}
		}
		return nil
	case *ast.EmitStmt:
		return r.resolveFieldInits(st.Fields)
	case *ast.SealStmt:
		return r.resolveFieldInits(st.Fields)
	case *ast.AsmStmt:
		return nil
	default:
		return nil
	}
}

func (r *Resolver) resolveFieldInits(fields []ast.FieldInit) error {
	for _, f := range fields {
		if err := r.resolveExpr(f.Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveExpr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.BinaryExpr:
		if err := r.resolveExpr(ex.Lhs); err != nil {
			return err
		}
		return r.resolveExpr(ex.Rhs)
	case *ast.UnaryExpr:
		return r.resolveExpr(ex.Value)
	case *ast.CallExpr:
		for _, a := range ex.Args {
			if err := r.resolveExpr(a); err != nil {
				return err
			}
		}
		return r.resolveCall(ex)
	case *ast.StructInitExpr:
		return r.resolveFieldInits(ex.Fields)
	case *ast.TupleInitExpr:
		for _, el := range ex.Elements {
			if err := r.resolveExpr(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.ArrayInitExpr:
		for _, el := range ex.Elements {
			if err := r.resolveExpr(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.FieldAccessExpr:
		return r.resolveExpr(ex.Base)
	case *ast.IndexExpr:
		if err := r.resolveExpr(ex.Base); err != nil {
			return err
		}
		return r.resolveExpr(ex.Index)
	case *ast.IfExpr:
		if err := r.resolveExpr(ex.Cond); err != nil {
			return err
		}
		if err := r.resolveBlock(ex.Then); err != nil {
			return err
		}
		return r.resolveBlock(ex.Else)
	case *ast.BlockExpr:
		return r.resolveBlock(ex.Block)
	default:
		return nil
	}
}

// resolveCall fills ex.SizeArgs from the resolutions list when the
// callee is size-generic and the call site left them implicit.
func (r *Resolver) resolveCall(ex *ast.CallExpr) error {
	if len(ex.SizeArgs) > 0 {
		return nil
	}
	target, ok := r.fns[ex.Callee]
	if !ok || len(target.SizeParams) == 0 {
		return nil
	}
	need := len(target.SizeParams)
	if r.pos+need > len(r.resolutions) {
		return fmt.Errorf("sizegen: call_resolutions exhausted resolving %q (need %d more)", ex.Callee, need)
	}
	ex.SizeArgs = append([]int(nil), r.resolutions[r.pos:r.pos+need]...)
	r.pos += need
	return nil
}

// Width mirrors codegen's own width table (§3.2) for a resolved surface
// type, given the struct environment and a concrete size-argument
// binding. digestWidth/xfieldWidth come from the target descriptor
// rather than a backend.StackLowering so this package stays decoupled
// from internal/trident/backend.
func Width(structs map[string]*ast.StructDef, digestWidth, xfieldWidth int, t ast.Type, sizeArgs map[string]int) (int, error) {
	switch t.Name {
	case "Field", "Bool", "U32":
		return 1, nil
	case "Digest":
		return digestWidth, nil
	case "XField":
		return xfieldWidth, nil
	}

	if sd, ok := structs[t.Name]; ok {
		total := 0
		for _, f := range sd.Fields {
			w, err := Width(structs, digestWidth, xfieldWidth, f.Type, sizeArgs)
			if err != nil {
				return 0, err
			}
			total += w
		}
		return total, nil
	}

	if t.Array != nil {
		n := t.ArrayLen
		if t.SizeArg != "" {
			v, ok := sizeArgs[t.SizeArg]
			if !ok {
				return 0, fmt.Errorf("sizegen: unresolved size parameter %q", t.SizeArg)
			}
			n = v
		}
		elemW, err := Width(structs, digestWidth, xfieldWidth, *t.Array, sizeArgs)
		if err != nil {
			return 0, err
		}
		return n * elemW, nil
	}

	if t.Tuple != nil {
		total := 0
		for _, sub := range t.Tuple {
			w, err := Width(structs, digestWidth, xfieldWidth, sub, sizeArgs)
			if err != nil {
				return 0, err
			}
			total += w
		}
		return total, nil
	}

	if t.Name == "" {
		return 0, nil
	}
	return 0, fmt.Errorf("sizegen: unknown type %q", t.Name)
}
