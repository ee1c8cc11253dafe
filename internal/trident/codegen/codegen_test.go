package codegen

import (
	"strings"
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/backend"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/ir"
	"github.com/tridentlang/trident/internal/trident/lowering"
)

func genericFile() *ast.File {
	return &ast.File{
		Name: "generics.tri",
		Items: []ast.Item{
			&ast.FnDef{
				Name:       "push_n",
				SizeParams: []string{"N", "M"},
				Body:       &ast.Block{},
			},
		},
	}
}

func TestMangleIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	g := New(backend.NewTritonLowering(), &diag.Collector{})
	g.Load(genericFile())

	sizeArgs := map[string]int{"N": 4, "M": 8}
	var labels []string
	for i := 0; i < 20; i++ {
		labels = append(labels, g.RegisterMonomorphization("push_n", sizeArgs))
	}
	for i, l := range labels {
		if l != labels[0] {
			t.Fatalf("label at call %d = %q, want %q (mangling must not depend on map iteration order)", i, l, labels[0])
		}
	}
}

func TestMangleOrdersBySizeParamDeclarationOrder(t *testing.T) {
	got := mangle("push_n", []string{"N", "M"}, map[string]int{"M": 8, "N": 4})
	want := "push_n__4_8"
	if got != want {
		t.Fatalf("mangle = %q, want %q", got, want)
	}
}

func TestMangleWithNoSizeArgsReturnsBareName(t *testing.T) {
	if got := mangle("plain", nil, nil); got != "plain" {
		t.Fatalf("mangle = %q, want %q", got, "plain")
	}
}

func TestBaseNameStripsMangledSuffix(t *testing.T) {
	if got := baseName("push_n__4__8"); got != "push_n" {
		t.Fatalf("baseName = %q, want push_n", got)
	}
	if got := baseName("plain"); got != "plain" {
		t.Fatalf("baseName = %q, want plain", got)
	}
}

// matchArm builds a MatchArm whose body is a single tagged asm marker, so
// the arm that actually dispatches can be told apart in the rendered
// assembly without the body touching the stack model.
func matchArm(literal ast.Expr, wildcard bool, tag string) ast.MatchArm {
	return ast.MatchArm{
		Literal:  literal,
		Wildcard: wildcard,
		Body: &ast.Block{
			Stmts: []ast.Stmt{&ast.AsmStmt{Lines: []string{"# " + tag}}},
		},
	}
}

func matchFile() *ast.File {
	return &ast.File{
		Name: "match.tri",
		Items: []ast.Item{
			&ast.FnDef{
				Name: "main",
				Body: &ast.Block{
					Stmts: []ast.Stmt{
						&ast.LetStmt{
							Pattern: ast.Pattern{Name: "x"},
							Value:   &ast.LiteralExpr{Value: 2},
						},
						&ast.MatchStmt{
							Scrutinee: &ast.NameExpr{Name: "x"},
							Arms: []ast.MatchArm{
								matchArm(&ast.LiteralExpr{Value: 1}, false, "arm-one"),
								matchArm(&ast.LiteralExpr{Value: 2}, false, "arm-two"),
								matchArm(nil, true, "arm-wildcard"),
							},
						},
					},
				},
			},
		},
	}
}

// countKind counts occurrences of k anywhere in ops, recursing into
// Then/Else/Body so the nested first-match-wins chain is fully walked.
func countKind(ops []ir.Op, k ir.Kind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == k {
			n++
		}
		n += countKind(op.Then, k)
		n += countKind(op.Else, k)
		n += countKind(op.Body, k)
	}
	return n
}

func TestLowerMatchDispatchesPerArmAndBalancesTheStack(t *testing.T) {
	g := New(backend.NewTritonLowering(), &diag.Collector{})
	g.Load(matchFile())

	prog, err := g.BuildProgram()
	if err != nil {
		t.Fatalf("BuildProgram: %v", err)
	}

	var main *ir.Function
	for i := range prog.Functions {
		if prog.Functions[i].Label == "main" {
			main = &prog.Functions[i]
		}
	}
	if main == nil {
		t.Fatal("no main function emitted")
	}

	// Two literal arms means two dup-and-compare chains (Eq) guarding two
	// nested IfElse levels; the wildcard arm needs neither.
	if n := countKind(main.Ops, ir.OpEq); n != 2 {
		t.Fatalf("OpEq count = %d, want 2 (one per literal arm)", n)
	}
	if n := countKind(main.Ops, ir.OpIfElse); n != 2 {
		t.Fatalf("OpIfElse count = %d, want 2 (one per literal arm)", n)
	}

	// BuildFn appends epilogue asm after the body, so walk back to the
	// last OpPop the match statement itself emitted (dropping the
	// scrutinee) rather than assuming it's the function's final op.
	var lastPop *ir.Op
	for i := len(main.Ops) - 1; i >= 0; i-- {
		if main.Ops[i].Kind == ir.OpPop {
			lastPop = &main.Ops[i]
			break
		}
	}
	if lastPop == nil || lastPop.N != 1 {
		t.Fatalf("last OpPop = %+v, want OpPop{N:1} popping the scrutinee off the real stack", lastPop)
	}

	emitter := lowering.New(backend.NewTritonLowering())
	asm, err := emitter.EmitProgram(prog, "main")
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	joined := strings.Join(asm, "\n")
	for _, tag := range []string{"# arm-one", "# arm-two", "# arm-wildcard"} {
		if !strings.Contains(joined, tag) {
			t.Fatalf("assembly missing hoisted arm body %q:\n%s", tag, joined)
		}
	}
	if n := strings.Count(joined, "skiz"); n < 2 {
		t.Fatalf("expected at least 2 guarded calls (skiz) for the two literal arms, got %d in:\n%s", n, joined)
	}
}
