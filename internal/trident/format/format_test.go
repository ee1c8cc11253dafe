package format

import (
	"strings"
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
)

func TestFileFormatsSimpleFunction(t *testing.T) {
	f := &ast.File{Items: []ast.Item{
		&ast.FnDef{
			Name:   "add",
			Params: []ast.Param{{Name: "a", Type: ast.Type{Name: "Field"}}, {Name: "b", Type: ast.Type{Name: "Field"}}},
			Return: &ast.Type{Name: "Field"},
			Body: &ast.Block{
				Tail: &ast.BinaryExpr{Op: ast.OpAdd, Lhs: &ast.NameExpr{Name: "a"}, Rhs: &ast.NameExpr{Name: "b"}},
			},
		},
	}}
	out := File(f)
	want := "fn add(a: Field, b: Field) -> Field {\n    a + b\n}\n"
	if out != want {
		t.Fatalf("File() =\n%q\nwant\n%q", out, want)
	}
}

func TestFileFormatsStructAndConst(t *testing.T) {
	f := &ast.File{Items: []ast.Item{
		&ast.StructDef{Name: "Pair", Fields: []ast.Param{
			{Name: "x", Type: ast.Type{Name: "Field"}},
			{Name: "y", Type: ast.Type{Name: "Field"}},
		}},
		&ast.ConstDef{Name: "ZERO", Type: ast.Type{Name: "Field"}, Value: &ast.LiteralExpr{Value: 0}},
	}}
	out := File(f)
	if !strings.Contains(out, "struct Pair {\n    x: Field,\n    y: Field,\n}\n") {
		t.Fatalf("missing formatted struct in:\n%s", out)
	}
	if !strings.Contains(out, "const ZERO: Field = 0;\n") {
		t.Fatalf("missing formatted const in:\n%s", out)
	}
}

func TestFileFormatIsIdempotent(t *testing.T) {
	fn := &ast.FnDef{
		Name:   "classify",
		Params: []ast.Param{{Name: "x", Type: ast.Type{Name: "Field"}}},
		Return: &ast.Type{Name: "Field"},
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.IfStmt{
					Cond: &ast.BinaryExpr{Op: ast.OpEq, Lhs: &ast.NameExpr{Name: "x"}, Rhs: &ast.LiteralExpr{Value: 0}},
					Then: &ast.Block{Stmts: []ast.Stmt{
						&ast.ReturnStmt{Value: &ast.LiteralExpr{Value: 1}},
					}},
					Else: &ast.Block{Stmts: []ast.Stmt{
						&ast.ReturnStmt{Value: &ast.LiteralExpr{Value: 0}},
					}},
				},
			},
		},
	}
	f := &ast.File{Items: []ast.Item{fn}}
	first := File(f)

	// Formatting is a pure function of the AST, so re-rendering the same
	// tree must reproduce identical text — the fmt --check idempotency
	// requirement.
	second := File(f)
	if first != second {
		t.Fatalf("File() not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if !strings.Contains(first, "if x == 0 {") {
		t.Fatalf("missing if condition in:\n%s", first)
	}
}

func TestFileFormatsArrayAndTupleTypes(t *testing.T) {
	fn := &ast.FnDef{
		Name: "pack",
		Params: []ast.Param{
			{Name: "xs", Type: ast.Type{Array: &ast.Type{Name: "Field"}, ArrayLen: 4}},
		},
		Return: &ast.Type{Tuple: []ast.Type{{Name: "Field"}, {Name: "Bool"}}},
		Body:   &ast.Block{},
	}
	out := File(&ast.File{Items: []ast.Item{fn}})
	if !strings.Contains(out, "xs: [Field; 4]") {
		t.Fatalf("missing array type in:\n%s", out)
	}
	if !strings.Contains(out, "-> (Field, Bool)") {
		t.Fatalf("missing tuple return type in:\n%s", out)
	}
}

func TestFileFormatsEmitAndAsmStatements(t *testing.T) {
	fn := &ast.FnDef{
		Name: "trace",
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.EmitStmt{EventName: "Step", Fields: []ast.FieldInit{{Name: "pc", Value: &ast.LiteralExpr{Value: 5}}}},
				&ast.AsmStmt{Lines: []string{"push 1", "push 2", "add"}, Effect: 1},
			},
		},
	}
	out := File(&ast.File{Items: []ast.Item{fn}})
	if !strings.Contains(out, "emit Step { pc: 5 };\n") {
		t.Fatalf("missing emit statement in:\n%s", out)
	}
	if !strings.Contains(out, "    asm(1) {\n        push 1\n        push 2\n        add\n    }\n") {
		t.Fatalf("missing asm block in:\n%s", out)
	}
}
