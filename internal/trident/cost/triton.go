package cost

import "github.com/tridentlang/trident/internal/trident/ir"

// TritonCostModel assigns row costs for the built-in "triton" target.
// Each constant is one row per proof-table contribution an instruction
// makes in Triton's table layout: most instructions cost one
// processor-table row and nothing else, while hashing, U32 range checks,
// RAM access, and call/return additionally drive their own tables.
type TritonCostModel struct{}

// NewTritonCostModel builds the built-in cost schedule.
func NewTritonCostModel() *TritonCostModel { return &TritonCostModel{} }

func (m *TritonCostModel) TableNames() []string             { return TableNames }
func (m *TritonCostModel) TableShortNames() map[string]string { return TableShortNames }

func (m *TritonCostModel) BuiltinCost(name string) Vector {
	switch name {
	case "hash":
		return Vector{"processor": 1, "hash": m.HashRowsPerPermutation()}
	case "merkle_step":
		return Vector{"processor": 1, "hash": m.HashRowsPerPermutation()}
	case "sponge":
		return Vector{"processor": 1, "hash": m.HashRowsPerPermutation()}
	case "io":
		return Vector{"processor": 1}
	case "perm":
		return Vector{"processor": 1}
	case "assert":
		return Vector{"processor": 1}
	case "event":
		return Vector{"processor": 1, "hash": m.HashRowsPerPermutation()}
	default:
		return Vector{"processor": 1}
	}
}

func (m *TritonCostModel) BinopCost(k ir.Kind) Vector {
	switch k {
	case ir.OpDivMod, ir.OpLt:
		// Division and unsigned comparisons are backed by Triton's U32
		// table (range-check lookups against its Lt/Div instructions).
		return Vector{"processor": 1, "u32": 33}
	case ir.OpXxMul, ir.OpXxAdd, ir.OpXInvert, ir.OpXbMul:
		// Extension-field ops cost three underlying field multiplications
		// worth of processor-table rows but stay off the U32 table.
		return Vector{"processor": 3}
	default:
		return Vector{"processor": 1}
	}
}

func (m *TritonCostModel) CallOverhead() Vector {
	return Vector{"processor": 1, "jump_stack": 1}
}

func (m *TritonCostModel) StackOpCost(k ir.Kind) Vector {
	switch k {
	case ir.OpReadMem, ir.OpWriteMem:
		return Vector{"processor": 1, "ram": 1, "op_stack": 1}
	default:
		return Vector{"processor": 1, "op_stack": 1}
	}
}

func (m *TritonCostModel) IfOverhead() Vector   { return Vector{"processor": 1} }
func (m *TritonCostModel) LoopOverhead() Vector { return Vector{"processor": 1, "jump_stack": 1} }

// HashRowsPerPermutation is the fixed row cost of one Poseidon
// permutation in the hash table: one sponge absorption step plus the
// round-constant application rows a Triton-style hash table charges
// per permutation call.
func (m *TritonCostModel) HashRowsPerPermutation() uint64 { return 8 }
