package sizegen

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
)

func TestResolverFillsOmittedSizeArgsInSourceOrder(t *testing.T) {
	generic := &ast.FnDef{
		Name:       "zeros",
		SizeParams: []string{"N"},
		Params:     []ast.Param{},
		Body:       &ast.Block{},
	}
	callA := &ast.CallExpr{Callee: "zeros"}
	callB := &ast.CallExpr{Callee: "zeros"}
	fn := &ast.FnDef{
		Name: "main",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.LetStmt{Pattern: ast.Pattern{Name: "a"}, Value: callA},
				&ast.LetStmt{Pattern: ast.Pattern{Name: "b"}, Value: callB},
			},
		},
	}
	file := &ast.File{Items: []ast.Item{generic, fn}}

	r := New(map[string]*ast.FnDef{"zeros": generic, "main": fn}, []int{4, 8})
	if err := r.ResolveFile(file); err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if len(callA.SizeArgs) != 1 || callA.SizeArgs[0] != 4 {
		t.Fatalf("callA.SizeArgs = %v, want [4]", callA.SizeArgs)
	}
	if len(callB.SizeArgs) != 1 || callB.SizeArgs[0] != 8 {
		t.Fatalf("callB.SizeArgs = %v, want [8]", callB.SizeArgs)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestResolverLeavesExplicitSizeArgsUntouched(t *testing.T) {
	generic := &ast.FnDef{Name: "zeros", SizeParams: []string{"N"}, Body: &ast.Block{}}
	call := &ast.CallExpr{Callee: "zeros", SizeArgs: []int{16}}
	fn := &ast.FnDef{Name: "main", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Value: call}}}}
	file := &ast.File{Items: []ast.Item{generic, fn}}

	r := New(map[string]*ast.FnDef{"zeros": generic, "main": fn}, []int{99})
	if err := r.ResolveFile(file); err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if len(call.SizeArgs) != 1 || call.SizeArgs[0] != 16 {
		t.Fatalf("explicit SizeArgs mutated: %v", call.SizeArgs)
	}
	if r.Remaining() != 1 {
		t.Fatalf("Remaining() = %d, want 1 (untouched)", r.Remaining())
	}
}

func TestResolverErrorsWhenResolutionsExhausted(t *testing.T) {
	generic := &ast.FnDef{Name: "zeros", SizeParams: []string{"N"}, Body: &ast.Block{}}
	call := &ast.CallExpr{Callee: "zeros"}
	fn := &ast.FnDef{Name: "main", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Value: call}}}}
	file := &ast.File{Items: []ast.Item{generic, fn}}

	r := New(map[string]*ast.FnDef{"zeros": generic, "main": fn}, nil)
	if err := r.ResolveFile(file); err == nil {
		t.Fatal("expected an error when call_resolutions is exhausted")
	}
}

func TestResolverWalksNestedIfAndForBodies(t *testing.T) {
	generic := &ast.FnDef{Name: "zeros", SizeParams: []string{"N"}, Body: &ast.Block{}}
	call := &ast.CallExpr{Callee: "zeros"}
	fn := &ast.FnDef{
		Name: "main",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.ForStmt{
					Var:   "i",
					Start: &ast.LiteralExpr{Value: 0},
					End:   &ast.LiteralExpr{Value: 3},
					Body: &ast.Block{Stmts: []ast.Stmt{
						&ast.IfStmt{
							Cond: &ast.NameExpr{Name: "i"},
							Then: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Value: call}}},
						},
					}},
				},
			},
		},
	}
	file := &ast.File{Items: []ast.Item{generic, fn}}

	r := New(map[string]*ast.FnDef{"zeros": generic, "main": fn}, []int{2})
	if err := r.ResolveFile(file); err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if len(call.SizeArgs) != 1 || call.SizeArgs[0] != 2 {
		t.Fatalf("nested call not resolved: %v", call.SizeArgs)
	}
}

func TestWidthComputesPrimitivesStructsArraysAndTuples(t *testing.T) {
	structs := map[string]*ast.StructDef{
		"Pair": {Name: "Pair", Fields: []ast.Param{
			{Name: "a", Type: ast.Type{Name: "Field"}},
			{Name: "b", Type: ast.Type{Name: "Digest"}},
		}},
	}

	w, err := Width(structs, 5, 3, ast.Type{Name: "Field"}, nil)
	if err != nil || w != 1 {
		t.Fatalf("Width(Field) = %d, %v; want 1, nil", w, err)
	}

	w, err = Width(structs, 5, 3, ast.Type{Name: "Digest"}, nil)
	if err != nil || w != 5 {
		t.Fatalf("Width(Digest) = %d, %v; want 5, nil", w, err)
	}

	w, err = Width(structs, 5, 3, ast.Type{Name: "Pair"}, nil)
	if err != nil || w != 6 { // 1 (Field) + 5 (Digest)
		t.Fatalf("Width(Pair) = %d, %v; want 6, nil", w, err)
	}

	arr := ast.Type{Array: &ast.Type{Name: "Field"}, SizeArg: "N"}
	w, err = Width(structs, 5, 3, arr, map[string]int{"N": 4})
	if err != nil || w != 4 {
		t.Fatalf("Width([Field; N]) = %d, %v; want 4, nil", w, err)
	}

	if _, err := Width(structs, 5, 3, arr, map[string]int{}); err == nil {
		t.Fatal("expected an error resolving an unbound size parameter")
	}

	tup := ast.Type{Tuple: []ast.Type{{Name: "Field"}, {Name: "XField"}}}
	w, err = Width(structs, 5, 3, tup, nil)
	if err != nil || w != 4 { // 1 (Field) + 3 (XField)
		t.Fatalf("Width((Field, XField)) = %d, %v; want 4, nil", w, err)
	}
}
