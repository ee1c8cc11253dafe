package cost

import (
	"strings"
	"testing"

	"github.com/tridentlang/trident/internal/trident/ir"
)

func TestPaddedHeightRoundsUpToPowerOfTwo(t *testing.T) {
	cases := []struct {
		height uint64
		want   uint64
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {17, 32}, {1024, 1024}, {1025, 2048},
	}
	for _, c := range cases {
		v := Vector{"processor": c.height}
		if got := PaddedHeight(v); got != c.want {
			t.Errorf("PaddedHeight(%d) = %d, want %d", c.height, got, c.want)
		}
	}
}

func TestAccountSimpleProgram(t *testing.T) {
	prog := &ir.Program{Functions: []ir.Function{
		{Label: "main", Ops: []ir.Op{
			{Kind: ir.OpPush, Value: 1},
			{Kind: ir.OpPush, Value: 2},
			{Kind: ir.OpAdd},
			{Kind: ir.OpHash},
		}},
	}}
	a := NewAccountant(NewTritonCostModel())
	report := a.Account(prog)

	if report.Total["processor"] != 4 {
		t.Errorf("processor rows = %d, want 4", report.Total["processor"])
	}
	if report.Total["hash"] != 8 {
		t.Errorf("hash rows = %d, want 8", report.Total["hash"])
	}
	if report.PaddedHeight != 8 {
		t.Errorf("padded height = %d, want 8 (hash table dominates at 8)", report.PaddedHeight)
	}
}

func TestIfOverheadChargesTheHeavierBranch(t *testing.T) {
	prog := &ir.Program{Functions: []ir.Function{
		{Label: "f", Ops: []ir.Op{
			{Kind: ir.OpIfElse,
				Then: []ir.Op{{Kind: ir.OpHash}},
				Else: []ir.Op{{Kind: ir.OpAdd}},
			},
		}},
	}}
	a := NewAccountant(NewTritonCostModel())
	report := a.Account(prog)
	if report.Total["hash"] != 8 {
		t.Errorf("expected the hashing branch's cost to dominate, got hash=%d", report.Total["hash"])
	}
}

func TestOpLoopCostScalesByResolvedTripCount(t *testing.T) {
	prog := &ir.Program{Functions: []ir.Function{
		{Label: "main", Ops: []ir.Op{
			{Kind: ir.OpLoop, Label: "i", N: 10, Body: []ir.Op{{Kind: ir.OpPush, Value: 1}}},
		}},
	}}
	report := NewAccountant(NewTritonCostModel()).Account(prog)
	// body (push: processor 1, op_stack 1) + loop_overhead (processor 1,
	// jump_stack 1), scaled by N=10: processor = 20.
	if report.Total["processor"] != 20 {
		t.Errorf("processor rows = %d, want 20 (scaled by trip count)", report.Total["processor"])
	}
}

func TestHintH0004FiresForLoopBoundWaste(t *testing.T) {
	// program waste: for i in 0..10 bounded 128 { pub_write(x) } — bounded
	// 128 against a literal end of 10 is a 12x overshoot.
	prog := &ir.Program{Functions: []ir.Function{
		{Label: "main", Ops: []ir.Op{
			{Kind: ir.OpLoop, Label: "i", N: 128, Value: 10, Body: []ir.Op{{Kind: ir.OpWriteIo}}},
		}},
	}}
	report := NewAccountant(NewTritonCostModel()).Account(prog)

	var hint *Hint
	for i := range report.Hints {
		if report.Hints[i].Code == "H0004" {
			hint = &report.Hints[i]
		}
	}
	if hint == nil {
		t.Fatalf("expected H0004 hint, got %+v", report.Hints)
	}
	if !strings.Contains(hint.Message, "12x") {
		t.Errorf("H0004 message = %q, want it to report a 12x ratio", hint.Message)
	}
}

func TestHintH0004DoesNotFireForUnboundedLoop(t *testing.T) {
	// program loop: for i in 0..10 { pub_write(x) } — no bounded clause,
	// so codegen never sets op.Value and H0004 must stay silent.
	prog := &ir.Program{Functions: []ir.Function{
		{Label: "main", Ops: []ir.Op{
			{Kind: ir.OpLoop, Label: "i", N: 10, Body: []ir.Op{{Kind: ir.OpWriteIo}}},
		}},
	}}
	report := NewAccountant(NewTritonCostModel()).Account(prog)
	for _, h := range report.Hints {
		if h.Code == "H0004" {
			t.Fatalf("H0004 fired for an unbounded loop: %+v", h)
		}
	}
}

func TestHintH0001FiresWhenHashDominates(t *testing.T) {
	var ops []ir.Op
	for i := 0; i < 10; i++ {
		ops = append(ops, ir.Op{Kind: ir.OpHash})
	}
	prog := &ir.Program{Functions: []ir.Function{{Label: "f", Ops: ops}}}
	report := NewAccountant(NewTritonCostModel()).Account(prog)

	found := false
	for _, h := range report.Hints {
		if h.Code == "H0001" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected H0001 hint, got %+v", report.Hints)
	}
}
