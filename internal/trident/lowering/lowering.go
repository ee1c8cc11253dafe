// Package lowering turns a finished ir.Program into flat target assembly
// text by walking its structural ops (if/else, loop, call) and asking a
// backend.StackLowering for the text of everything else. It is the only
// place a StackLowering's mnemonic strings survive past code generation
// (see internal/trident/backend's package doc).
//
// Structural ops are rendered the way Triton's own instruction set
// demands: it has no unconditional jump, only skiz/call/return/recurse,
// so if/else and loop bodies are hoisted into synthesized subroutines
// and reached through conditional calls guarded by skiz.
package lowering

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/backend"
	"github.com/tridentlang/trident/internal/trident/ir"
)

// Emitter renders an ir.Program to assembly text against one backend.
type Emitter struct {
	Backend backend.StackLowering

	seq    int
	extras []subroutine
}

type subroutine struct {
	label string
	lines []string
}

// New builds an Emitter targeting b.
func New(b backend.StackLowering) *Emitter {
	return &Emitter{Backend: b}
}

// EmitProgram renders the whole program: the target's preamble, then
// every function body in order, then every synthesized if/else/loop
// subroutine hoisted while rendering them.
func (e *Emitter) EmitProgram(prog *ir.Program, entry string) ([]string, error) {
	var out []string
	out = append(out, e.Backend.Preamble(entry)...)
	for _, fn := range prog.Functions {
		lines, err := e.emitOps(fn.Ops)
		if err != nil {
			return nil, fmt.Errorf("lowering: function %q: %w", fn.Label, err)
		}
		out = append(out, lines...)
	}
	for _, sub := range e.extras {
		out = append(out, sub.label+":")
		out = append(out, sub.lines...)
	}
	return out, nil
}

func (e *Emitter) emitOps(ops []ir.Op) ([]string, error) {
	var out []string
	for _, op := range ops {
		lines, err := e.emitOp(op)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

func (e *Emitter) emitOp(op ir.Op) ([]string, error) {
	switch op.Kind {
	case ir.OpAsm:
		return op.AsmLines, nil

	case ir.OpIfElse:
		return e.emitIfElse(op)

	case ir.OpIfOnly:
		return e.emitIfOnly(op)

	case ir.OpLoop:
		return e.emitLoop(op)

	default:
		return e.Backend.Mnemonic(op)
	}
}

// hoist renders body, wraps it in a "return"-terminated subroutine under
// a fresh label, and returns the label to call into it.
func (e *Emitter) hoist(prefix string, body []ir.Op) (string, error) {
	lines, err := e.emitOps(body)
	if err != nil {
		return "", err
	}
	e.seq++
	label := fmt.Sprintf("%s$%d", prefix, e.seq)
	lines = append(lines, e.Backend.Epilogue()...)
	e.extras = append(e.extras, subroutine{label: e.Backend.Label(label), lines: lines})
	return e.Backend.Label(label), nil
}

// emitIfElse compiles a two-armed branch with the top of the real stack
// already holding the (already-evaluated) condition. Since skiz only
// ever skips a single following instruction, both arms are hoisted into
// subroutines and reached through two guarded calls: the condition is
// duplicated to gate the "then" call, then compared against zero to
// gate the "else" call, so exactly one of the two ever runs.
func (e *Emitter) emitIfElse(op ir.Op) ([]string, error) {
	thenLabel, err := e.hoist("if_then", op.Then)
	if err != nil {
		return nil, err
	}
	elseLabel, err := e.hoist("if_else", op.Else)
	if err != nil {
		return nil, err
	}
	return []string{
		"dup 0",
		"skiz",
		fmt.Sprintf("call %s", thenLabel),
		"push 0",
		"eq",
		"skiz",
		fmt.Sprintf("call %s", elseLabel),
	}, nil
}

// emitIfOnly compiles a one-armed branch: the then-arm runs only when
// the condition is non-zero, otherwise the condition value alone is
// dropped so the net stack effect still matches I4.
func (e *Emitter) emitIfOnly(op ir.Op) ([]string, error) {
	thenLabel, err := e.hoist("if_then", op.Then)
	if err != nil {
		return nil, err
	}
	return []string{
		"dup 0",
		"skiz",
		fmt.Sprintf("call %s", thenLabel),
		"pop 1",
	}, nil
}

// emitLoop compiles a bounded counting loop: the real stack already
// holds a descending trip count (internal/trident/codegen's lowerFor
// seeds it as End - Start). The body subroutine checks the counter,
// returns once it hits zero, otherwise runs the body, decrements, and
// recurses — the counted-recursion idiom Triton's recurse instruction
// exists to support.
func (e *Emitter) emitLoop(op ir.Op) ([]string, error) {
	bodyLines, err := e.emitOps(op.Body)
	if err != nil {
		return nil, err
	}
	e.seq++
	label := e.Backend.Label(fmt.Sprintf("loop_%s$%d", op.Label, e.seq))
	lines := []string{
		"dup 0",
		"push 0",
		"eq",
		"skiz",
		"return",
	}
	lines = append(lines, bodyLines...)
	lines = append(lines, "push -1", "add", "recurse")
	e.extras = append(e.extras, subroutine{label: label, lines: lines})
	return []string{fmt.Sprintf("call %s", label)}, nil
}
