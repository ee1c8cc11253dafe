package neural

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/cost"
	"github.com/tridentlang/trident/internal/trident/ir"
)

func TestOptimizeNeverMutatesInput(t *testing.T) {
	fn := ir.Function{Label: "f", Ops: []ir.Op{
		{Kind: ir.OpPush, Value: 1},
		{Kind: ir.OpPush, Value: 2},
		{Kind: ir.OpAdd},
	}}
	before := append([]ir.Op(nil), fn.Ops...)

	_ = Optimize(fn, cost.NewTritonCostModel())

	if len(fn.Ops) != len(before) {
		t.Fatalf("Optimize mutated the function's op slice length")
	}
	for i := range before {
		if fn.Ops[i] != before[i] {
			t.Fatalf("Optimize mutated op %d", i)
		}
	}
}

func TestOptimizeAlwaysFindsTheClassicalBaselineEquivalent(t *testing.T) {
	fn := ir.Function{Label: "f", Ops: []ir.Op{
		{Kind: ir.OpPush, Value: 5},
		{Kind: ir.OpPush, Value: 7},
		{Kind: ir.OpAdd},
	}}
	report := Optimize(fn, cost.NewTritonCostModel())
	if len(report.Candidates) == 0 {
		t.Fatalf("expected at least one candidate (the classical baseline itself)")
	}
	foundEquivalent := false
	for _, c := range report.Candidates {
		if c.Equivalent {
			foundEquivalent = true
		}
	}
	if !foundEquivalent {
		t.Fatalf("expected at least the unmodified baseline to validate as equivalent")
	}
}
