package passes

import "abcssa/internal/ir"

// BranchFolding replaces a conditional terminator (br_cond, or a fused
// compare-and-branch br_lt/le/gt/ge/eq/ne) whose outcome is statically
// known — either both arms already target the same block, or the
// condition/compare operands are constants — with an unconditional
// branch to the surviving target, detaching the dropped edge's
// predecessor and PHI-incoming entries.
//
// No direct teacher analog (kanso's CFG has no conditional branches to
// fold); built in the teacher's replace-then-erase idiom directly from
// spec §4.8's branch-folding postcondition.
type BranchFolding struct{}

func (BranchFolding) Name() string { return "BranchFolding" }
func (BranchFolding) Description() string {
	return "folds conditional branches with a statically known outcome to an unconditional branch"
}
func (BranchFolding) Requires() []AnalysisID { return nil }
func (BranchFolding) Invalidates() []AnalysisID {
	return []AnalysisID{AnalysisDominance, AnalysisLoops}
}

func (BranchFolding) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	for _, bb := range fn.Blocks {
		term := bb.Terminator()
		if term == nil {
			continue
		}
		kept, ok := foldableTarget(term)
		if !ok {
			continue
		}
		rewriteToUnconditionalBranch(fn, bb, term, kept)
		modified = true
	}
	return Success(modified, "")
}

var fusedCompareOp = map[ir.Opcode]ir.Opcode{
	ir.OpBrLt: ir.OpLt, ir.OpBrLe: ir.OpLe, ir.OpBrGt: ir.OpGt, ir.OpBrGe: ir.OpGe,
	ir.OpBrEq: ir.OpEq, ir.OpBrNe: ir.OpNe,
}

// foldableTarget reports the single surviving target for a terminator
// whose outcome is statically known, or false if it depends on a
// runtime value.
func foldableTarget(term *ir.Instr) (*ir.BasicBlock, bool) {
	switch term.Opcode() {
	case ir.OpBrCond:
		if term.Targets[0] == term.Targets[1] {
			return term.Targets[0], true
		}
		c, ok := term.Operand(0).(*ir.Constant)
		if !ok {
			return nil, false
		}
		b, ok := boolOf(c)
		if !ok {
			return nil, false
		}
		if b {
			return term.Targets[0], true
		}
		return term.Targets[1], true
	case ir.OpBrLt, ir.OpBrLe, ir.OpBrGt, ir.OpBrGe, ir.OpBrEq, ir.OpBrNe:
		if term.Targets[0] == term.Targets[1] {
			return term.Targets[0], true
		}
		l, lok := term.Operand(0).(*ir.Constant)
		r, rok := term.Operand(1).(*ir.Constant)
		if !lok || !rok {
			return nil, false
		}
		result, ok := evalFusedCompare(term.Opcode(), l, r)
		if !ok {
			return nil, false
		}
		if result {
			return term.Targets[0], true
		}
		return term.Targets[1], true
	default:
		return nil, false
	}
}

func evalFusedCompare(op ir.Opcode, l, r *ir.Constant) (bool, bool) {
	cmp, ok := fusedCompareOp[op]
	if !ok {
		return false, false
	}
	c, ok := foldBinary(cmp, l, r, ir.Bool())
	if !ok {
		return false, false
	}
	return boolOf(c)
}

// rewriteToUnconditionalBranch replaces bb's terminator with an
// unconditional branch to kept, first detaching the dropped target's
// predecessor edge and any PHI incoming pairs bb contributed to it.
func rewriteToUnconditionalBranch(fn *ir.Function, bb *ir.BasicBlock, term *ir.Instr, kept *ir.BasicBlock) {
	for _, t := range term.Targets {
		if t == kept {
			continue
		}
		t.RemovePred(bb)
		for _, phi := range t.Phis() {
			phi.RemoveIncoming(bb)
		}
	}
	term.EraseFromBlock()

	b := ir.NewBuilder()
	b.SetFunction(fn)
	b.SetBlock(bb)
	b.BuildBr(kept)
}
