package passes

import "abcssa/internal/ir"

// DeadCodeElimination is the conservative sibling of
// AggressiveDeadCodeElimination: a single sweep removing only
// instructions with zero users whose opcode is pure, never throws and has
// no side effects (ir.Instr.IsDead), without the transitive re-check. Kept separate per spec §4.8 because the two have
// different termination/thoroughness guarantees a caller might want to
// pick between (e.g. a cheap single pass between other rewrites, saving
// the transitive sweep for a dedicated ADCE stage).
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string { return "DeadCodeElimination" }
func (DeadCodeElimination) Description() string {
	return "single sweep removing pure instructions with zero users"
}
func (DeadCodeElimination) Requires() []AnalysisID    { return nil }
func (DeadCodeElimination) Invalidates() []AnalysisID { return nil }

func (DeadCodeElimination) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	for _, bb := range fn.Blocks {
		for _, inst := range append([]*ir.Instr(nil), bb.Instrs...) {
			if inst.IsDead() {
				inst.EraseFromBlock()
				modified = true
			}
		}
	}
	return Success(modified, "")
}
