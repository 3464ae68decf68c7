package passes

import "abcssa/internal/ir"

// SimplifyCFG performs two CFG cleanups to a fixed point:
//
//  1. Unreachable-block removal: any block not reachable from the
//     entry by a forward walk of successors is dropped, after detaching
//     it as a predecessor (and PHI incoming) of whatever it still
//     branches to.
//  2. Sole-predecessor merging: a block with exactly one predecessor,
//     which in turn has that block as its only successor, is folded
//     into the predecessor — its (necessarily single-incoming) PHIs
//     resolve to their one value, its instructions are absorbed, and its
//     successors' predecessor/PHI edges are repointed to the merged
//     block.
//
// Grounded on the teacher's CommonSubexpressionElimination/DCE
// replace-then-erase idiom and Function.RemoveBlock's pre-existing doc
// comment, which already anticipated this pass's responsibility for
// rewiring edges before a block is dropped. The two cleanups have no
// teacher analog (kanso never restructures its CFG) and are built
// directly from spec §4.8's reachability/merge postconditions.
type SimplifyCFG struct{}

func (SimplifyCFG) Name() string { return "SimplifyCFG" }
func (SimplifyCFG) Description() string {
	return "removes unreachable blocks and merges sole-predecessor blocks into their predecessor"
}
func (SimplifyCFG) Requires() []AnalysisID { return nil }
func (SimplifyCFG) Invalidates() []AnalysisID {
	return []AnalysisID{AnalysisDominance, AnalysisLoops}
}

func (SimplifyCFG) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	for {
		changed := removeUnreachableBlocks(fn)
		changed = mergeSoleSuccessors(fn) || changed
		if !changed {
			break
		}
		modified = true
	}
	return Success(modified, "")
}

func reachableBlocks(fn *ir.Function) map[*ir.BasicBlock]bool {
	entry := fn.Entry()
	reach := map[*ir.BasicBlock]bool{}
	if entry == nil {
		return reach
	}
	stack := []*ir.BasicBlock{entry}
	reach[entry] = true
	for len(stack) > 0 {
		bb := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range bb.Successors() {
			if !reach[succ] {
				reach[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	return reach
}

func removeUnreachableBlocks(fn *ir.Function) bool {
	reach := reachableBlocks(fn)
	var dead []*ir.BasicBlock
	for _, bb := range fn.Blocks {
		if !reach[bb] {
			dead = append(dead, bb)
		}
	}
	for _, bb := range dead {
		for _, succ := range bb.Successors() {
			succ.RemovePred(bb)
			for _, phi := range succ.Phis() {
				phi.RemoveIncoming(bb)
			}
		}
		fn.RemoveBlock(bb)
	}
	return len(dead) > 0
}

func mergeSoleSuccessors(fn *ir.Function) bool {
	changed := false
	for {
		merged := false
		for _, bb := range append([]*ir.BasicBlock(nil), fn.Blocks...) {
			if bb == fn.Entry() {
				continue
			}
			preds := bb.Predecessors()
			if len(preds) != 1 {
				continue
			}
			pred := preds[0]
			if pred == bb {
				continue
			}
			succs := pred.Successors()
			if len(succs) != 1 || succs[0] != bb {
				continue
			}
			mergeBlocks(fn, pred, bb)
			merged, changed = true, true
			break // fn.Blocks mutated; restart the scan
		}
		if !merged {
			break
		}
	}
	return changed
}

// mergeBlocks folds succ into pred: resolves succ's single-incoming
// PHIs, drops pred's branch to succ, appends succ's instructions onto
// pred, and repoints succ's own successors' predecessor/PHI edges to
// pred before removing succ from the function.
func mergeBlocks(fn *ir.Function, pred, succ *ir.BasicBlock) {
	for _, phi := range append([]*ir.Instr(nil), succ.Phis()...) {
		v := phi.IncomingFor(pred)
		phi.ReplaceAllUsesWith(v)
		phi.EraseFromBlock()
	}

	pred.Terminator().EraseFromBlock()
	pred.AbsorbInstructions(succ)

	for _, grandSucc := range succ.Successors() {
		grandSucc.RemovePred(succ)
		grandSucc.AddPred(pred)
		for _, phi := range grandSucc.Phis() {
			if v := phi.IncomingFor(succ); v != nil {
				phi.RemoveIncoming(succ)
				phi.AddIncoming(v, pred)
			}
		}
	}

	fn.RemoveBlock(succ)
}
