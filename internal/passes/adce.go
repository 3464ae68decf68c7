package passes

import "abcssa/internal/ir"

// AggressiveDeadCodeElimination removes every instruction with no users
// that is pure, never throws and has no side effects, and repeats until
// no further instruction qualifies (removing one dead instruction can
// make its own operands' defining instructions dead in turn). Grounded
// on the teacher's DeadCodeElimination.eliminateDeadInstructions
// (mark-used-then-sweep), generalized from a single sweep to the
// iterate-to-convergence form the "Aggressive" variant needs, and from a
// hand-rolled switch over concrete instruction types to ir.Instr.IsDead,
// the flat tagged union's per-opcode property lookup.
type AggressiveDeadCodeElimination struct{}

func (AggressiveDeadCodeElimination) Name() string { return "AggressiveDeadCodeElimination" }
func (AggressiveDeadCodeElimination) Description() string {
	return "removes every pure, side-effect-free, non-throwing instruction with no users, transitively"
}
func (AggressiveDeadCodeElimination) Requires() []AnalysisID    { return nil }
func (AggressiveDeadCodeElimination) Invalidates() []AnalysisID { return nil }

func (AggressiveDeadCodeElimination) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	for {
		progressed := false
		for _, bb := range fn.Blocks {
			// Snapshot before mutating, per the resource model's
			// collect-then-mutate iteration rule.
			for _, inst := range append([]*ir.Instr(nil), bb.Instrs...) {
				if inst.IsDead() {
					inst.EraseFromBlock()
					modified = true
					progressed = true
				}
			}
		}
		if !progressed {
			break
		}
	}
	return Success(modified, "")
}
