package trident

import (
	"fmt"
	"math/rand"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/backend"
	"github.com/tridentlang/trident/internal/trident/codegen"
	"github.com/tridentlang/trident/internal/trident/cost"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/lowering"
	"github.com/tridentlang/trident/internal/trident/neural"
	"github.com/tridentlang/trident/internal/trident/parser"
	"github.com/tridentlang/trident/internal/trident/sizegen"
	"github.com/tridentlang/trident/internal/trident/symexec"
	"github.com/tridentlang/trident/internal/trident/verify"
)

// entryPoint is the function every compiled program is assembled to
// call first (§6.3's example traces all name it "main").
const entryPoint = "main"

// newBackend resolves a target name to its backend.StackLowering. Only
// "triton" (the default) is registered; callers naming anything else
// get ErrUnsupportedTarget.
func newBackend(target string) (backend.StackLowering, error) {
	switch target {
	case "", "triton":
		return backend.NewTritonLowering(), nil
	default:
		return nil, &CompileError{Code: ErrUnsupportedTarget, Message: fmt.Sprintf("no backend registered for target %q", target)}
	}
}

// Compile lexes, parses, resolves size-generic call sites, generates
// target assembly, and (per opts) accounts static cost and runs
// verification for one Trident source file.
func Compile(filename string, src []byte, opts Options) (*Result, error) {
	bag := &diag.Bag{}
	file := parser.Parse(filename, src, bag)
	if bag.HasErrors() {
		return &Result{Diagnostics: diagStrings(bag)}, &CompileError{
			Code:        ErrParse,
			Message:     fmt.Sprintf("%d parse error(s) in %s", errorCount(bag), filename),
			Diagnostics: diagStrings(bag),
		}
	}

	fns := indexFns(file)
	if len(opts.CallResolutions) > 0 || hasGenericCalls(file, fns) {
		r := sizegen.New(fns, opts.CallResolutions)
		if err := r.ResolveFile(file); err != nil {
			return &Result{Diagnostics: diagStrings(bag)}, &CompileError{
				Code:    ErrSizeResolution,
				Message: "resolving size-generic call sites",
				Cause:   err,
			}
		}
	}

	lo, err := newBackend(opts.Target)
	if err != nil {
		return nil, err
	}

	collector := &diag.Collector{}
	gen := codegen.New(lo, collector)
	gen.Load(file)
	prog, err := gen.BuildProgram()
	if err != nil {
		return &Result{Diagnostics: diagStrings(bag)}, &CompileError{
			Code:    ErrCodegen,
			Message: "generating code",
			Cause:   err,
		}
	}

	emitter := lowering.New(lo)
	asm, err := emitter.EmitProgram(prog, entryPoint)
	if err != nil {
		return &Result{Diagnostics: diagStrings(bag)}, &CompileError{
			Code:    ErrLowering,
			Message: "emitting assembly",
			Cause:   err,
		}
	}

	result := &Result{
		File:        fileInfo(filename, file),
		Assembly:    asm,
		Diagnostics: diagStrings(bag),
	}

	if opts.ComputeCosts {
		accountant := cost.NewAccountant(cost.NewTritonCostModel())
		report := accountant.Account(prog)
		result.Cost = &report
	}

	if opts.RunVerify {
		result.Verdicts = runVerify(fns)
	}

	if opts.Speculative {
		model := cost.NewTritonCostModel()
		reports := make(map[string]*NeuralReport, len(prog.Functions))
		for _, irFn := range prog.Functions {
			report := neural.Optimize(irFn, model)
			reports[irFn.Label] = &report
		}
		result.NeuralReports = reports
	}

	return result, nil
}

func indexFns(f *ast.File) map[string]*ast.FnDef {
	fns := map[string]*ast.FnDef{}
	for _, item := range f.Items {
		if fn, ok := item.(*ast.FnDef); ok {
			fns[fn.Name] = fn
		}
	}
	return fns
}

// hasGenericCalls reports whether the file defines any size-generic
// function; it does not inspect call sites. When it does, a (possibly
// empty) CallResolutions list still runs through the resolver so a call
// that omits size arguments gets an actionable error rather than being
// silently treated as non-generic.
func hasGenericCalls(f *ast.File, fns map[string]*ast.FnDef) bool {
	for _, fn := range fns {
		if len(fn.SizeParams) > 0 {
			return true
		}
	}
	_ = f
	return false
}

func runVerify(fns map[string]*ast.FnDef) map[string]*Verdict {
	out := map[string]*Verdict{}
	rng := rand.New(rand.NewSource(1))
	for name, fn := range fns {
		ex := symexec.NewExecutor(fns)
		cs, err := ex.Execute(fn)
		if err != nil {
			continue
		}
		out[name] = verify.Verify(cs, rng)
	}
	return out
}

func fileInfo(name string, f *ast.File) *FileInfo {
	info := &FileInfo{Name: name}
	for _, item := range f.Items {
		switch item.(type) {
		case *ast.FnDef:
			info.FunctionCount++
		case *ast.StructDef:
			info.StructCount++
		}
	}
	return info
}

func diagStrings(bag *diag.Bag) []string {
	all := bag.All()
	out := make([]string, len(all))
	for i := range all {
		out[i] = all[i].Error()
	}
	return out
}

func errorCount(bag *diag.Bag) int {
	n := 0
	for _, d := range bag.All() {
		if d.Severity == diag.Error {
			n++
		}
	}
	return n
}
