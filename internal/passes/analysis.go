package passes

import "abcssa/internal/ir"

// AnalysisManager caches the on-demand analyses (Dominance, LoopForest)
// for one function across a single pass-manager run, invalidating them
// when a pass declares it invalidates the corresponding AnalysisID. A
// fresh AnalysisManager is created per function per PassManager.Run call.
type AnalysisManager struct {
	fn    *ir.Function
	dom   *Dominance
	loops *LoopForest
}

func NewAnalysisManager(fn *ir.Function) *AnalysisManager {
	return &AnalysisManager{fn: fn}
}

// Dominance returns the function's dominance relation, computing it on
// first use (spec §4.8: GVN "requires a dominance relation (computed on
// demand)").
func (am *AnalysisManager) Dominance() *Dominance {
	if am.dom == nil {
		am.dom = computeDominance(am.fn)
	}
	return am.dom
}

// Loops returns the function's natural-loop forest, computed on first use
// from the (possibly cached) dominance relation.
func (am *AnalysisManager) Loops() *LoopForest {
	if am.loops == nil {
		am.loops = computeLoopForest(am.fn, am.Dominance())
	}
	return am.loops
}

// Invalidate drops the cached result for each named analysis, forcing
// recomputation on next use. Called by the manager after a pass reports
// modified=true, for every AnalysisID in that pass's Invalidates() list.
func (am *AnalysisManager) Invalidate(ids []AnalysisID) {
	for _, id := range ids {
		switch id {
		case AnalysisDominance:
			am.dom = nil
			am.loops = nil // loops are derived from dominance
		case AnalysisLoops:
			am.loops = nil
		}
	}
}
