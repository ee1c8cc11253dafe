package parser

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	var bag diag.Bag
	f := Parse("t.tri", []byte(src), &bag)
	return f, &bag
}

func TestParseFnWithBodyAndTailExpr(t *testing.T) {
	f, bag := parse(t, `
fn add(a: Field, b: Field) -> Field {
    a + b
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	if len(f.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(f.Items))
	}
	fn, ok := f.Items[0].(*ast.FnDef)
	if !ok {
		t.Fatalf("item 0 is %T, want *ast.FnDef", f.Items[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 || fn.Return == nil || fn.Return.Name != "Field" {
		t.Fatalf("fn shape wrong: %+v", fn)
	}
	if fn.Body == nil || fn.Body.Tail == nil {
		t.Fatalf("expected a tail expression in the body")
	}
	bin, ok := fn.Body.Tail.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("tail = %+v, want a + binary expr", fn.Body.Tail)
	}
}

func TestParseLetIfForMatch(t *testing.T) {
	f, bag := parse(t, `
fn run(n: Field) {
    let mut total: Field = 0;
    for i in 0..n bounded 16 {
        if i == 0 {
            total = total + 1;
        } else {
            total = total + i;
        }
    }
    match total {
        0 => { return; }
        _ => { return; }
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	fn := f.Items[0].(*ast.FnDef)
	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("got %d statements, want 3: %+v", len(fn.Body.Stmts), fn.Body.Stmts)
	}
	if _, ok := fn.Body.Stmts[0].(*ast.LetStmt); !ok {
		t.Fatalf("stmt 0 = %T, want *ast.LetStmt", fn.Body.Stmts[0])
	}
	forStmt, ok := fn.Body.Stmts[1].(*ast.ForStmt)
	if !ok || forStmt.Bounded == nil {
		t.Fatalf("stmt 1 = %+v, want a bounded ForStmt", fn.Body.Stmts[1])
	}
	ifStmt, ok := forStmt.Body.Stmts[0].(*ast.IfStmt)
	if !ok || ifStmt.Else == nil {
		t.Fatalf("expected an if/else inside the loop body, got %+v", forStmt.Body.Stmts[0])
	}
	matchStmt, ok := fn.Body.Stmts[2].(*ast.MatchStmt)
	if !ok || len(matchStmt.Arms) != 2 || !matchStmt.Arms[1].Wildcard {
		t.Fatalf("match shape wrong: %+v", fn.Body.Stmts[2])
	}
}

func TestParseStructConstAndEvent(t *testing.T) {
	f, bag := parse(t, `
struct Point {
    x: Field,
    y: Field,
}

const ORIGIN: Point = Point { x: 0, y: 0 };

event Moved {
    dx: Field,
    dy: Field,
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	if len(f.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(f.Items))
	}
	s := f.Items[0].(*ast.StructDef)
	if s.Name != "Point" || len(s.Fields) != 2 {
		t.Fatalf("struct shape wrong: %+v", s)
	}
	c := f.Items[1].(*ast.ConstDef)
	init, ok := c.Value.(*ast.StructInitExpr)
	if !ok || init.TypeName != "Point" || len(init.Fields) != 2 {
		t.Fatalf("const value shape wrong: %+v", c.Value)
	}
	ev := f.Items[2].(*ast.EventDef)
	if ev.Name != "Moved" || len(ev.Fields) != 2 {
		t.Fatalf("event shape wrong: %+v", ev)
	}
}

func TestParseEmitSealAndAsm(t *testing.T) {
	f, bag := parse(t, `
fn notify(dx: Field, dy: Field) {
    emit Moved { dx: dx, dy: dy };
    seal Moved { dx: dx, dy: dy };
    asm(2) [triton] {
        dup
        add
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	fn := f.Items[0].(*ast.FnDef)
	if _, ok := fn.Body.Stmts[0].(*ast.EmitStmt); !ok {
		t.Fatalf("stmt 0 = %T, want *ast.EmitStmt", fn.Body.Stmts[0])
	}
	if _, ok := fn.Body.Stmts[1].(*ast.SealStmt); !ok {
		t.Fatalf("stmt 1 = %T, want *ast.SealStmt", fn.Body.Stmts[1])
	}
	asm, ok := fn.Body.Stmts[2].(*ast.AsmStmt)
	if !ok || asm.Effect != 2 || asm.Target != "triton" {
		t.Fatalf("asm shape wrong: %+v", fn.Body.Stmts[2])
	}
}

func TestParseCallWithExplicitSizeArgs(t *testing.T) {
	f, bag := parse(t, `
fn wrap(a: Field) -> Field {
    hash_n::<5>(a)
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	fn := f.Items[0].(*ast.FnDef)
	call, ok := fn.Body.Tail.(*ast.CallExpr)
	if !ok || call.Callee != "hash_n" || len(call.SizeArgs) != 1 || call.SizeArgs[0] != 5 {
		t.Fatalf("call shape wrong: %+v", fn.Body.Tail)
	}
}

func TestParseRecoversFromMalformedStatementAndReportsBoth(t *testing.T) {
	f, bag := parse(t, `
fn broken() {
    let x = ;
    let y = 1;
}
fn second() {}
`)
	if !bag.HasErrors() {
		t.Fatalf("expected at least one error diagnostic")
	}
	if len(f.Items) != 2 {
		t.Fatalf("parser should recover and still find both fns, got %d items", len(f.Items))
	}
}

func TestParseArrayAndIndexAndFieldAccess(t *testing.T) {
	f, bag := parse(t, `
fn first(xs: [Field; 4]) -> Field {
    let arr = [1, 2, 3, 4];
    arr[0]
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	fn := f.Items[0].(*ast.FnDef)
	if fn.Params[0].Type.Array == nil || fn.Params[0].Type.ArrayLen != 4 {
		t.Fatalf("param type wrong: %+v", fn.Params[0].Type)
	}
	idx, ok := fn.Body.Tail.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("tail = %T, want *ast.IndexExpr", fn.Body.Tail)
	}
	if _, ok := idx.Base.(*ast.NameExpr); !ok {
		t.Fatalf("index base = %T, want *ast.NameExpr", idx.Base)
	}
}

func TestParseExtensionFieldOperators(t *testing.T) {
	f, bag := parse(t, `
fn combine(a: XField, b: XField) -> XField {
    a xx* b
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.All())
	}
	fn := f.Items[0].(*ast.FnDef)
	bin, ok := fn.Body.Tail.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpXxMul {
		t.Fatalf("tail = %+v, want xx* binary expr", fn.Body.Tail)
	}
}
