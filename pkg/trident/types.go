package trident

import (
	"github.com/tridentlang/trident/internal/trident/cost"
	"github.com/tridentlang/trident/internal/trident/neural"
	"github.com/tridentlang/trident/internal/trident/verify"
)

// NeuralReport is the public alias for one function's speculative
// lowering report (C4). Observational only — see neural.OptimizerReport.
type NeuralReport = neural.OptimizerReport

// CostVector is the public alias for a per-table cost vector, exposing
// the internal type by name rather than redeclaring it.
type CostVector = cost.Vector

// CostReport is the public alias for the static cost analysis result.
type CostReport = cost.Report

// Verdict is the public alias for one function's verification outcome.
type Verdict = verify.Verdict

// Options configures a Compile call.
type Options struct {
	// Target selects the backend.StackLowering; only "triton" is
	// registered today.
	Target string

	// ComputeCosts runs the static cost accountant over the generated
	// program and populates Result.Cost.
	ComputeCosts bool

	// RunVerify symbolically executes every function and runs static +
	// random + BMC verification, populating Result.Verdicts.
	RunVerify bool

	// CallResolutions is the pre-computed, source-order list consumed
	// by size-generic call sites that omit explicit size arguments
	// (§4.1.5's call_resolutions list; see internal/trident/sizegen).
	CallResolutions []int

	// Speculative runs the C4 neural lowering path over every generated
	// function and populates Result.NeuralReports. It never changes the
	// emitted assembly (§4.4's "never substitutes" design policy).
	Speculative bool
}

// Result is everything Compile produces for one source file.
type Result struct {
	File          *FileInfo
	Assembly      []string
	Cost          *CostReport
	Verdicts      map[string]*Verdict
	NeuralReports map[string]*NeuralReport
	Diagnostics   []string
}

// FileInfo carries basic metadata about the compiled file, filled in by
// Compile after a successful parse.
type FileInfo struct {
	Name          string
	FunctionCount int
	StructCount   int
}
