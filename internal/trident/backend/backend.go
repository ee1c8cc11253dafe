// Package backend implements the StackBackend/StackLowering abstraction
// described in §9 ("Polymorphic backends"): the stack-machine code
// generator depends only on this capability set, never on a
// backend-specific mnemonic string. internal/trident/codegen parses the
// spill/reload formatter's own output straight back into structural IR
// (see SpillFormatter) so no backend string leaks past code generation;
// internal/trident/lowering (the assembly emitter) is the only place
// StackLowering strings survive into compiler output.
package backend

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/ir"
)

// SpillFormatter produces the mnemonic text a backend uses to spill and
// reload a single stack cell (§4.1.6). The code generator immediately
// re-parses this text into structural ir.Op values; it never threads the
// strings themselves through the rest of the pipeline.
type SpillFormatter interface {
	FmtPush(addr uint64) string
	FmtSwap(depth int) string
	FmtPop1() string
	FmtWriteMem1() string
	FmtReadMem1() string
}

// StackLowering renders a fully-built ir.Function into target-specific
// assembly text. Implementations own label formatting, the program
// preamble, function prologue/epilogue, and if/else/loop skeletons; the
// code generator never constructs any of these strings itself.
type StackLowering interface {
	SpillFormatter

	Name() string
	// StackDepth is the target's operand-stack register count (§3.3, I1).
	StackDepth() int
	// SpillBase is the RAM base address spill slots are allocated from.
	SpillBase() uint64
	// DigestWidth / XFieldWidth mirror §3.2's width table for this target.
	DigestWidth() int
	XFieldWidth() int

	// Preamble returns the program-wide preamble emitted once, before any
	// function body (e.g. a jump to the entry point).
	Preamble(entry string) []string
	// Prologue/Epilogue bracket one function body.
	Prologue(label string) []string
	Epilogue() []string

	// Mnemonic renders a single non-structural IR op (arithmetic,
	// hashing, I/O, ...) to one or more lines of assembly text.
	Mnemonic(op ir.Op) ([]string, error)

	// Label formats a call/loop/monomorphization target name.
	Label(name string) string
}

// errUnsupported is returned by Mnemonic for op kinds a given backend
// does not implement.
func errUnsupported(backend string, k ir.Kind) error {
	return fmt.Errorf("backend %q: unsupported IR op %s", backend, k)
}
