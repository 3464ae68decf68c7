package passes

import "abcssa/internal/ir"

// RedundantCopyElimination resolves `copy` chains to their underlying
// root value: a copy of a constant is replaced by that constant; a chain
// `a = copy b; b = copy c; ...` resolves to the first non-copy root; a
// self-referential `a = copy a` is erased outright once unused. Grounded
// on the teacher's CommonSubexpressionElimination.replaceValue (replace
// every use, then drop the instruction), generalized from a single
// redundant-call pattern to an arbitrary-length copy chain.
//
// ir.Builder.BuildCopy exists purely to give an accumulator-lowered vreg
// store a distinct SSA name (§4.4); this pass is the portfolio's intended
// mechanism for removing those synthetic names once lowering is done.
type RedundantCopyElimination struct{}

func (RedundantCopyElimination) Name() string { return "RedundantCopyElimination" }
func (RedundantCopyElimination) Description() string {
	return "resolves copy chains to their underlying root value and erases the copies"
}
func (RedundantCopyElimination) Requires() []AnalysisID    { return nil }
func (RedundantCopyElimination) Invalidates() []AnalysisID { return nil }

func (RedundantCopyElimination) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	for {
		copies := collectCopies(fn)
		if len(copies) == 0 {
			break
		}
		changed := false
		for _, c := range copies {
			if c.Block() == nil {
				continue // already erased earlier this sweep
			}
			root := resolveCopyRoot(c)
			if root == ir.Value(c) {
				if len(c.Users()) == 0 {
					c.EraseFromBlock()
					changed, modified = true, true
				}
				continue
			}
			c.ReplaceAllUsesWith(root)
			c.EraseFromBlock()
			changed, modified = true, true
		}
		if !changed {
			break
		}
	}
	return Success(modified, "")
}

func collectCopies(fn *ir.Function) []*ir.Instr {
	var out []*ir.Instr
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if inst.Opcode() == ir.OpCopy {
				out = append(out, inst)
			}
		}
	}
	return out
}

// resolveCopyRoot follows a chain of copy instructions to its underlying
// non-copy root value, returning c itself if the chain is purely
// self-referential (a = copy a).
func resolveCopyRoot(c *ir.Instr) ir.Value {
	seen := map[*ir.Instr]bool{c: true}
	cur := c.Operand(0)
	for {
		inst, ok := cur.(*ir.Instr)
		if !ok || inst.Opcode() != ir.OpCopy {
			return cur
		}
		if seen[inst] {
			return ir.Value(c)
		}
		seen[inst] = true
		cur = inst.Operand(0)
	}
}
