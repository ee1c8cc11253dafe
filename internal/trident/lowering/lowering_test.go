package lowering

import (
	"strings"
	"testing"

	"github.com/tridentlang/trident/internal/trident/backend"
	"github.com/tridentlang/trident/internal/trident/ir"
)

func TestEmitProgramIncludesPreambleAndFunctionBody(t *testing.T) {
	e := New(backend.NewTritonLowering())
	prog := &ir.Program{Functions: []ir.Function{
		{Label: "main", Ops: []ir.Op{
			{Kind: ir.OpAsm, AsmLines: []string{"main:"}},
			{Kind: ir.OpPush, Value: 1},
			{Kind: ir.OpAsm, AsmLines: []string{"return"}},
		}},
	}}
	lines, err := e.EmitProgram(prog, "main")
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "call main") || !strings.Contains(joined, "halt") {
		t.Fatalf("missing preamble in output:\n%s", joined)
	}
	if !strings.Contains(joined, "push 1") {
		t.Fatalf("missing function body in output:\n%s", joined)
	}
}

func TestEmitIfElseHoistsBothArmsAndGuardsEachCall(t *testing.T) {
	e := New(backend.NewTritonLowering())
	op := ir.Op{
		Kind: ir.OpIfElse,
		Then: []ir.Op{{Kind: ir.OpPush, Value: 7}},
		Else: []ir.Op{{Kind: ir.OpPush, Value: 9}},
	}
	lines, err := e.emitOp(op)
	if err != nil {
		t.Fatalf("emitOp: %v", err)
	}
	joined := strings.Join(lines, "\n")
	if strings.Count(joined, "skiz") != 2 {
		t.Fatalf("expected two skiz guards, got:\n%s", joined)
	}
	if len(e.extras) != 2 {
		t.Fatalf("expected two hoisted subroutines, got %d", len(e.extras))
	}
	var sawThen, sawElse bool
	for _, sub := range e.extras {
		joined := strings.Join(sub.lines, "\n")
		if strings.Contains(joined, "push 7") {
			sawThen = true
		}
		if strings.Contains(joined, "push 9") {
			sawElse = true
		}
		if !strings.Contains(joined, "return") {
			t.Fatalf("hoisted subroutine %q missing return: %+v", sub.label, sub.lines)
		}
	}
	if !sawThen || !sawElse {
		t.Fatalf("expected both arms hoisted, then=%v else=%v", sawThen, sawElse)
	}
}

func TestEmitLoopProducesCountedRecursion(t *testing.T) {
	e := New(backend.NewTritonLowering())
	op := ir.Op{Kind: ir.OpLoop, Label: "i", Body: []ir.Op{{Kind: ir.OpPush, Value: 1}}}
	lines, err := e.emitOp(op)
	if err != nil {
		t.Fatalf("emitOp: %v", err)
	}
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "call loop_i") {
		t.Fatalf("expected a single call into the hoisted loop body, got %+v", lines)
	}
	if len(e.extras) != 1 {
		t.Fatalf("expected one hoisted loop subroutine, got %d", len(e.extras))
	}
	body := strings.Join(e.extras[0].lines, "\n")
	if !strings.Contains(body, "recurse") || !strings.Contains(body, "return") {
		t.Fatalf("loop subroutine missing recurse/return: %s", body)
	}
}

func TestEmitIfOnlyDropsConditionWhenSkipped(t *testing.T) {
	e := New(backend.NewTritonLowering())
	op := ir.Op{Kind: ir.OpIfOnly, Then: []ir.Op{{Kind: ir.OpPush, Value: 3}}}
	lines, err := e.emitOp(op)
	if err != nil {
		t.Fatalf("emitOp: %v", err)
	}
	if lines[len(lines)-1] != "pop 1" {
		t.Fatalf("expected the guard to end with a pop 1 fallback, got %+v", lines)
	}
}
