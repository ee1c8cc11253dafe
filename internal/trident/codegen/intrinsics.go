package codegen

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/ir"
)

// intrinsicFn lowers one #[intrinsic(NAME)] call site directly to IR,
// bypassing the generic user-function Call path (§4.1.4).
type intrinsicFn func(c *funcCtx, call *ast.CallExpr) error

// Intrinsics is the dispatch table from surface call name to lowering.
// Each entry corresponds to one of Triton's own proof-table-backed
// instructions.
var Intrinsics = map[string]intrinsicFn{
	"hash":             intrinHash,
	"assert_vector":    intrinAssertVector,
	"sponge_init":      intrinSpongeInit,
	"sponge_absorb":    intrinSpongeAbsorb,
	"sponge_absorb_mem": intrinSpongeAbsorbMem,
	"sponge_squeeze":   intrinSpongeSqueeze,
	"merkle_step":      intrinMerkleStep,
	"read_io":          intrinReadIo,
	"write_io":         intrinWriteIo,
	"push_perm":        intrinPushPerm,
	"pop_perm":         intrinPopPerm,
	"assert_perm":      intrinAssertPerm,
	"assert":           intrinAssert,
	"divine":           intrinDivine,
}

// popArgs lowers each call argument, in order, returning the total width
// consumed and the widths of each argument's resident entry.
func popArgs(c *funcCtx, args []ast.Expr) (total int, widths []int, err error) {
	for _, a := range args {
		if err := c.lowerExpr(a); err != nil {
			return 0, nil, err
		}
		e, err := c.model.Pop()
		if err != nil {
			return 0, nil, err
		}
		widths = append(widths, e.Width)
		total += e.Width
	}
	return total, widths, nil
}

func intrinHash(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpHash})
	c.model.PushAnon(c.gen.lowering.DigestWidth())
	return nil
}

func intrinAssertVector(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpAssertVector})
	c.model.PushAnon(0)
	return nil
}

func intrinSpongeInit(c *funcCtx, call *ast.CallExpr) error {
	if len(call.Args) != 0 {
		return fmt.Errorf("codegen: sponge_init takes no arguments")
	}
	c.emit(ir.Op{Kind: ir.OpSpongeInit})
	c.model.PushAnon(0)
	return nil
}

func intrinSpongeAbsorb(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpSpongeAbsorb})
	c.model.PushAnon(0)
	return nil
}

func intrinSpongeAbsorbMem(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpSpongeAbsorbMem})
	c.model.PushAnon(0)
	return nil
}

func intrinSpongeSqueeze(c *funcCtx, call *ast.CallExpr) error {
	if len(call.Args) != 0 {
		return fmt.Errorf("codegen: sponge_squeeze takes no arguments")
	}
	c.emit(ir.Op{Kind: ir.OpSpongeSqueeze})
	c.model.PushAnon(c.gen.lowering.DigestWidth())
	return nil
}

func intrinMerkleStep(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpMerkleStep})
	c.model.PushAnon(c.gen.lowering.DigestWidth())
	return nil
}

func intrinReadIo(c *funcCtx, call *ast.CallExpr) error {
	if len(call.Args) != 1 {
		return fmt.Errorf("codegen: read_io takes exactly one (constant) argument")
	}
	lit, ok := call.Args[0].(*ast.LiteralExpr)
	if !ok {
		return fmt.Errorf("codegen: read_io's argument must be a literal word count")
	}
	n := int(lit.Value)
	c.emit(ir.Op{Kind: ir.OpReadIo, N: n})
	c.model.PushAnon(n)
	return nil
}

func intrinWriteIo(c *funcCtx, call *ast.CallExpr) error {
	total, _, err := popArgs(c, call.Args)
	if err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpWriteIo, N: total})
	c.model.PushAnon(0)
	return nil
}

func intrinPushPerm(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpPushPerm})
	c.model.PushAnon(0)
	return nil
}

func intrinPopPerm(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpPopPerm})
	c.model.PushAnon(0)
	return nil
}

func intrinAssertPerm(c *funcCtx, call *ast.CallExpr) error {
	if len(call.Args) != 0 {
		return fmt.Errorf("codegen: assert_perm takes no arguments")
	}
	c.emit(ir.Op{Kind: ir.OpAssertPerm})
	c.model.PushAnon(0)
	return nil
}

func intrinAssert(c *funcCtx, call *ast.CallExpr) error {
	if _, _, err := popArgs(c, call.Args); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpAssert})
	c.model.PushAnon(0)
	return nil
}

func intrinDivine(c *funcCtx, call *ast.CallExpr) error {
	if len(call.Args) != 1 {
		return fmt.Errorf("codegen: divine takes exactly one (constant) argument")
	}
	lit, ok := call.Args[0].(*ast.LiteralExpr)
	if !ok {
		return fmt.Errorf("codegen: divine's argument must be a literal word count")
	}
	n := int(lit.Value)
	if err := c.ensure(n); err != nil {
		return err
	}
	c.emit(ir.Op{Kind: ir.OpReadIo, N: n})
	c.model.PushAnon(n)
	return nil
}
