package neural

import (
	"github.com/tridentlang/trident/internal/trident/cost"
	"github.com/tridentlang/trident/internal/trident/ir"
)

// CandidateReport describes one beam-search candidate's outcome.
type CandidateReport struct {
	Rank       int
	Score      float64
	Equivalent bool
	Cheaper    bool
	Cost       cost.Vector
}

// OptimizerReport is the full output of speculatively optimizing one
// function. It is observational only (§4.4, §9 "never substitutes"):
// nothing in the compiler consumes Selected to change the emitted
// program; it exists purely to surface what the speculative path would
// have chosen, for a human or a future opt-in flag to act on.
type OptimizerReport struct {
	Function   string
	Candidates []CandidateReport
	Selected   int // index into Candidates of the best equivalent+cheaper one, or -1
}

// Optimize runs the full speculative pipeline for one function: build
// its graph, decode beam-search candidates, validate each one against
// the classical baseline, and report the outcome without ever altering
// fn itself.
func Optimize(fn ir.Function, model cost.CostModel) OptimizerReport {
	g := BuildGraph(fn)
	candidates := Decode(g)

	report := OptimizerReport{Function: fn.Label, Selected: -1}
	bestHeight := uint64(0)
	for i, cand := range candidates {
		v := ValidateCandidate(fn.Ops, cand.Ops, model)
		report.Candidates = append(report.Candidates, CandidateReport{
			Rank:       i,
			Score:      cand.Score,
			Equivalent: v.Equivalent,
			Cheaper:    v.Cheaper,
			Cost:       v.Cost,
		})
		if v.Equivalent && v.Cheaper {
			h := v.Cost.MaxHeight()
			if report.Selected == -1 || h < bestHeight {
				report.Selected = i
				bestHeight = h
			}
		}
	}
	return report
}
