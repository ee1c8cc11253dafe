// Package ir defines Trident's target-independent intermediate
// representation: the flat op sequence the stack-machine code generator
// (§4.1) produces, and that the cost analyzer (§4.2), symbolic executor
// (§4.3), and lowering/backends all consume.
package ir

// Op is one target-independent IR operation.
type Op struct {
	Kind Kind

	// Operands; meaning depends on Kind (documented per constant below).
	N      int    // pop/dup/swap/push-count/size argument; for OpLoop, the resolved trip count
	Value  uint64 // push immediate
	Label  string // call/loop/fn labels
	Target string // asm{} target tag

	// Structural children, for ops that contain nested IR sequences.
	Then []Op
	Else []Op
	Body []Op

	// Asm{} payload.
	AsmLines []string
	Effect   int

	// Event ops (Open/Seal).
	Tag         string
	FieldCount  int
}

// Kind enumerates IR operation kinds.
type Kind int

const (
	// Stack manipulation.
	OpPush Kind = iota // push Value, width 1
	OpPop              // pop N elements
	OpDup              // duplicate element at depth N
	OpSwap             // swap top with element at depth N

	// Structural / control flow.
	OpFnStart // begin function Label
	OpFnEnd   // end function
	OpCall    // call Label
	OpReturn  // return from function
	OpIfElse  // Then / Else branches
	OpIfOnly  // Then branch only
	OpLoop    // Body, looping N times (counter convention: see codegen)

	// Memory.
	OpReadMem  // read N words from RAM at address on top of stack
	OpWriteMem // write N words to RAM at address on top of stack

	// Field arithmetic.
	OpAdd
	OpSub
	OpMul
	OpNeg
	OpInvert
	OpEq
	OpLt
	OpAnd
	OpXor
	OpDivMod
	OpXxAdd
	OpXxMul
	OpXInvert
	OpXbMul

	// Hashing / Merkle / sponge.
	OpHash
	OpAssertVector
	OpSpongeInit
	OpSpongeAbsorb
	OpSpongeAbsorbMem
	OpSpongeSqueeze
	OpMerkleStep

	// I/O.
	OpReadIo
	OpWriteIo

	// Permutation checks.
	OpPushPerm
	OpPopPerm
	OpAssertPerm

	// Assertions.
	OpAssert

	// Events.
	OpOpen // Open{tag, field_count}
	OpSeal // Seal{tag, field_count}

	// Raw inline assembly.
	OpAsm

	// Diagnostics/no-op.
	OpNop
)

var kindNames = map[Kind]string{
	OpPush: "push", OpPop: "pop", OpDup: "dup", OpSwap: "swap",
	OpFnStart: "fn_start", OpFnEnd: "fn_end", OpCall: "call", OpReturn: "return",
	OpIfElse: "if_else", OpIfOnly: "if_only", OpLoop: "loop",
	OpReadMem: "read_mem", OpWriteMem: "write_mem",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpNeg: "neg", OpInvert: "invert",
	OpEq: "eq", OpLt: "lt", OpAnd: "and", OpXor: "xor", OpDivMod: "div_mod",
	OpXxAdd: "xx_add", OpXxMul: "xx_mul", OpXInvert: "x_invert", OpXbMul: "xb_mul",
	OpHash: "hash", OpAssertVector: "assert_vector", OpSpongeInit: "sponge_init",
	OpSpongeAbsorb: "sponge_absorb", OpSpongeAbsorbMem: "sponge_absorb_mem",
	OpSpongeSqueeze: "sponge_squeeze", OpMerkleStep: "merkle_step",
	OpReadIo: "read_io", OpWriteIo: "write_io",
	OpPushPerm: "push_perm", OpPopPerm: "pop_perm", OpAssertPerm: "assert_perm",
	OpAssert: "assert", OpOpen: "open", OpSeal: "seal", OpAsm: "asm", OpNop: "nop",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Program is the fully emitted IR for a compilation unit: the
// non-generic functions in name order, followed by the monomorphized
// copies of generic functions in label order (§4.1). Match-arm and loop
// bodies are not separate functions; they stay nested in their
// IfElse/IfOnly/Loop ops.
type Program struct {
	Functions []Function
}

// Function is one emitted function body (either user-defined or
// monomorphized).
type Function struct {
	Label string
	Ops   []Op
}
