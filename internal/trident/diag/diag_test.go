package diag

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
)

func TestBagHasErrorsOnlyAfterErrorSeverityAdded(t *testing.T) {
	var b Bag
	if b.HasErrors() {
		t.Fatalf("empty bag reports HasErrors")
	}
	b.Warnf(ast.Span{}, "just a warning")
	if b.HasErrors() {
		t.Fatalf("a bag with only warnings reports HasErrors")
	}
	b.Errorf(ast.Span{}, "a real problem: %d", 42)
	if !b.HasErrors() {
		t.Fatalf("a bag with an error does not report HasErrors")
	}
	if len(b.All()) != 2 {
		t.Fatalf("All() returned %d diagnostics, want 2", len(b.All()))
	}
}
