package symexec

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
)

func TestSimplifyConstantFolding(t *testing.T) {
	v := Simplify(&Add{Lhs: &Const{V: 2}, Rhs: &Const{V: 3}})
	c, ok := v.(*Const)
	if !ok || c.V != 5 {
		t.Fatalf("Simplify(2+3) = %v, want Const{5}", v)
	}
}

func TestSimplifyIdentities(t *testing.T) {
	x := &Var{Name: "x"}
	if got := Simplify(&Add{Lhs: x, Rhs: &Const{V: 0}}); got.String() != "x" {
		t.Errorf("x+0 simplified to %s, want x", got)
	}
	if got := Simplify(&Mul{Lhs: x, Rhs: &Const{V: 1}}); got.String() != "x" {
		t.Errorf("x*1 simplified to %s, want x", got)
	}
	if got := Simplify(&Mul{Lhs: x, Rhs: &Const{V: 0}}); got.String() != "0" {
		t.Errorf("x*0 simplified to %s, want 0", got)
	}
}

func TestExecuteStraightLineFunctionProducesAssertConstraint(t *testing.T) {
	fn := &ast.FnDef{
		Name:   "f",
		Params: []ast.Param{{Name: "a", Type: ast.Type{Name: "Field"}}},
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.ExprStmt{Value: &ast.CallExpr{
					Callee: "assert",
					Args: []ast.Expr{&ast.BinaryExpr{
						Op:  ast.OpEq,
						Lhs: &ast.NameExpr{Name: "a"},
						Rhs: &ast.LiteralExpr{Value: 7},
					}},
				}},
			},
		},
	}
	ex := NewExecutor(map[string]*ast.FnDef{"f": fn})
	cs, err := ex.Execute(fn)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(cs.Constraints) != 1 {
		t.Fatalf("len(Constraints) = %d, want 1", len(cs.Constraints))
	}
	if _, ok := cs.Constraints[0].(*Conditional); !ok {
		t.Fatalf("constraint type = %T, want *Conditional", cs.Constraints[0])
	}
}

func TestIfStmtMergesBranchesWithIte(t *testing.T) {
	fn := &ast.FnDef{
		Name:   "f",
		Params: []ast.Param{{Name: "a", Type: ast.Type{Name: "Field"}}},
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.LetStmt{Pattern: ast.Pattern{Name: "y"}, Value: &ast.LiteralExpr{Value: 0}},
				&ast.IfStmt{
					Cond: &ast.BinaryExpr{Op: ast.OpEq, Lhs: &ast.NameExpr{Name: "a"}, Rhs: &ast.LiteralExpr{Value: 1}},
					Then: &ast.Block{Stmts: []ast.Stmt{
						&ast.AssignStmt{Target: &ast.NameExpr{Name: "y"}, Value: &ast.LiteralExpr{Value: 9}},
					}},
					Else: &ast.Block{Stmts: []ast.Stmt{
						&ast.AssignStmt{Target: &ast.NameExpr{Name: "y"}, Value: &ast.LiteralExpr{Value: 8}},
					}},
				},
			},
		},
	}
	ex := NewExecutor(map[string]*ast.FnDef{"f": fn})
	if _, err := ex.Execute(fn); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}
