package backend

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/ir"
)

// TritonLowering is the primary target (§1): a 16-deep operand-stack
// machine over the Goldilocks field. Mnemonics are taken verbatim from
// Triton VM's instruction table.
type TritonLowering struct {
	stackDepth  int
	spillBase   uint64
	digestWidth int
	xfieldWidth int
}

// NewTritonLowering builds the default "triton" target configuration
// (§6.3's built-in target).
func NewTritonLowering() *TritonLowering {
	return &TritonLowering{
		stackDepth:  16,
		spillBase:   1 << 32,
		digestWidth: 5,
		xfieldWidth: 3,
	}
}

func (t *TritonLowering) Name() string        { return "triton" }
func (t *TritonLowering) StackDepth() int      { return t.stackDepth }
func (t *TritonLowering) SpillBase() uint64    { return t.spillBase }
func (t *TritonLowering) DigestWidth() int     { return t.digestWidth }
func (t *TritonLowering) XFieldWidth() int     { return t.xfieldWidth }

func (t *TritonLowering) FmtPush(addr uint64) string { return fmt.Sprintf("push %d", addr) }
func (t *TritonLowering) FmtSwap(depth int) string   { return fmt.Sprintf("swap %d", depth) }
func (t *TritonLowering) FmtPop1() string            { return "pop 1" }
func (t *TritonLowering) FmtWriteMem1() string       { return "write_mem 1" }
func (t *TritonLowering) FmtReadMem1() string        { return "read_mem 1" }

func (t *TritonLowering) Label(name string) string { return name }

func (t *TritonLowering) Preamble(entry string) []string {
	return []string{
		fmt.Sprintf("call %s", t.Label(entry)),
		"halt",
	}
}

func (t *TritonLowering) Prologue(label string) []string {
	return []string{fmt.Sprintf("%s:", t.Label(label))}
}

func (t *TritonLowering) Epilogue() []string {
	return []string{"return"}
}

// Mnemonic renders the non-structural IR ops to triton assembly text.
func (t *TritonLowering) Mnemonic(op ir.Op) ([]string, error) {
	switch op.Kind {
	case ir.OpPush:
		return []string{fmt.Sprintf("push %d", op.Value)}, nil
	case ir.OpPop:
		return []string{fmt.Sprintf("pop %d", op.N)}, nil
	case ir.OpDup:
		return []string{fmt.Sprintf("dup %d", op.N)}, nil
	case ir.OpSwap:
		return []string{fmt.Sprintf("swap %d", op.N)}, nil
	case ir.OpCall:
		return []string{fmt.Sprintf("call %s", t.Label(op.Label))}, nil
	case ir.OpReturn:
		return []string{"return"}, nil
	case ir.OpReadMem:
		return []string{fmt.Sprintf("read_mem %d", op.N)}, nil
	case ir.OpWriteMem:
		return []string{fmt.Sprintf("write_mem %d", op.N)}, nil
	case ir.OpAdd:
		return []string{"add"}, nil
	case ir.OpSub:
		return []string{"push -1", "mul", "add"}, nil
	case ir.OpMul:
		return []string{"mul"}, nil
	case ir.OpNeg:
		return []string{"push -1", "mul"}, nil
	case ir.OpInvert:
		return []string{"invert"}, nil
	case ir.OpEq:
		return []string{"eq"}, nil
	case ir.OpLt:
		return []string{"lt"}, nil
	case ir.OpAnd:
		return []string{"and"}, nil
	case ir.OpXor:
		return []string{"xor"}, nil
	case ir.OpDivMod:
		return []string{"div_mod"}, nil
	case ir.OpXxAdd:
		return []string{"xx_add"}, nil
	case ir.OpXxMul:
		return []string{"xx_mul"}, nil
	case ir.OpXInvert:
		return []string{"x_invert"}, nil
	case ir.OpXbMul:
		return []string{"xb_mul"}, nil
	case ir.OpHash:
		return []string{"hash"}, nil
	case ir.OpAssertVector:
		return []string{"assert_vector"}, nil
	case ir.OpSpongeInit:
		return []string{"sponge_init"}, nil
	case ir.OpSpongeAbsorb:
		return []string{"sponge_absorb"}, nil
	case ir.OpSpongeAbsorbMem:
		return []string{"sponge_absorb_mem"}, nil
	case ir.OpSpongeSqueeze:
		return []string{"sponge_squeeze"}, nil
	case ir.OpMerkleStep:
		return []string{"merkle_step"}, nil
	case ir.OpReadIo:
		return []string{fmt.Sprintf("read_io %d", op.N)}, nil
	case ir.OpWriteIo:
		return []string{fmt.Sprintf("write_io %d", op.N)}, nil
	case ir.OpPushPerm:
		return []string{"push_perm"}, nil
	case ir.OpPopPerm:
		return []string{"pop_perm"}, nil
	case ir.OpAssertPerm:
		return []string{"assert_perm"}, nil
	case ir.OpAssert:
		return []string{"assert"}, nil
	case ir.OpNop:
		return []string{"nop"}, nil
	default:
		return nil, errUnsupported(t.Name(), op.Kind)
	}
}
