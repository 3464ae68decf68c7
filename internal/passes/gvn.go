package passes

import "abcssa/internal/ir"

// GlobalValueNumbering walks a function in dominance-respecting reverse
// postorder, and for each pure instruction checks whether an earlier,
// dominating instruction is already structurally equivalent to it
// (ir.StructurallyEqual, which compares opcode, result type, operand
// identity — commutative-aware — and, for PHIs, incoming set equality).
// If so, the later instruction is replaced by the earlier one rather
// than re-evaluated: replacing with the *dominating* member, not merely
// an earlier-visited one, keeps the replacement's def available at every
// use of the replaced instruction. A PHI in an if/else join is only ever
// congruent to another PHI with the exact same incoming set, so a
// diamond's two distinct PHIs are never collapsed into each other.
//
// Instructions that create a fresh identity on every invocation
// (alloca, create_empty_object, create_empty_array) are excluded from
// congruence classes even though the property table marks them pure:
// two allocations with identical operands are still two distinct
// objects, and merging them would make every later mutation of one
// visible through the other.
//
// Dominance is computed on demand (AnalysisDominance), per spec §4.8. No
// teacher analog (kanso has no redundancy-elimination pass operating
// across blocks); built in the teacher's collect-then-mutate idiom
// directly from spec's congruence-class description.
type GlobalValueNumbering struct{}

func (GlobalValueNumbering) Name() string { return "GlobalValueNumbering" }
func (GlobalValueNumbering) Description() string {
	return "replaces a pure instruction with an earlier, dominating instruction proven structurally equivalent"
}
func (GlobalValueNumbering) Requires() []AnalysisID    { return []AnalysisID{AnalysisDominance} }
func (GlobalValueNumbering) Invalidates() []AnalysisID { return nil }

func (GlobalValueNumbering) RunFunction(fn *ir.Function, am *AnalysisManager) (Outcome, error) {
	dom := am.Dominance()
	modified := false
	var classes []*ir.Instr

	for _, bb := range dom.ReversePostorder() {
		for _, inst := range append([]*ir.Instr(nil), bb.Instrs...) {
			if inst.Block() == nil || !inst.IsPure() || inst.CreatesIdentity() {
				continue
			}
			if rep, ok := findCongruentDominator(classes, inst, dom); ok {
				inst.ReplaceAllUsesWith(rep)
				inst.EraseFromBlock()
				modified = true
				continue
			}
			classes = append(classes, inst)
		}
	}
	return Success(modified, "")
}

func findCongruentDominator(classes []*ir.Instr, inst *ir.Instr, dom *Dominance) (*ir.Instr, bool) {
	for _, rep := range classes {
		if rep.Block() == nil || rep == inst {
			continue
		}
		if !ir.StructurallyEqual(rep, inst) {
			continue
		}
		if !dom.Dominates(rep.Block(), inst.Block()) {
			continue
		}
		return rep, true
	}
	return nil, false
}
