package passes

import "abcssa/internal/ir"

// CompoundAssignment recognizes `t = op(v, c)` where v is already a
// named, source-like value (per VariableReconstruction) and annotates t
// for the pretty printer as a compound update of v (`v op= c`), aliasing
// t's own display name to v's when t is still only identified by its
// default numeric id.
//
// The source's version of this pattern additionally requires a
// following `copy_to_vreg` store and restricts the rewrite to cases with
// no intervening use of the temporary, because collapsing into a single
// combined store instruction there must not disturb an intermediate
// read. This IR has no separate vreg-store instruction to begin with —
// in SSA form t already *is* the new value of v, there is nothing to
// collapse — so that restriction has no SSA counterpart; this pass only
// ever attaches a display annotation and copies a name, never erases or
// merges an instruction, so it is unconditionally semantics-preserving.
//
// No teacher analog (kanso has no compound-assignment syntax to
// recognize); built from spec §4.8's pattern description in the
// teacher's metadata-annotation idiom (Module.Metadata), generalized to
// instruction granularity via Instr.SetMeta.
type CompoundAssignment struct{}

func (CompoundAssignment) Name() string { return "CompoundAssignment" }
func (CompoundAssignment) Description() string {
	return "annotates t = op(v, c) as a compound update of the named value v for the pretty printer"
}
func (CompoundAssignment) Requires() []AnalysisID    { return nil }
func (CompoundAssignment) Invalidates() []AnalysisID { return nil }

var compoundOpSymbol = map[ir.Opcode]string{
	ir.OpAdd: "+=", ir.OpSub: "-=", ir.OpMul: "*=", ir.OpDiv: "/=", ir.OpMod: "%=",
	ir.OpAnd: "&=", ir.OpOr: "|=", ir.OpXor: "^=",
	ir.OpShl: "<<=", ir.OpShr: ">>=", ir.OpAShr: ">>>=",
}

func (CompoundAssignment) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			sym, ok := compoundOpSymbol[inst.Opcode()]
			if !ok {
				continue
			}
			base, ok := namedOperand(inst.Operand(0))
			if !ok {
				continue
			}
			if inst.Meta("compound_base") == base && inst.Meta("compound_op") == sym && !isDefaultNamed(inst) {
				continue
			}
			inst.SetMeta("compound_base", base)
			inst.SetMeta("compound_op", sym)
			if isDefaultNamed(inst) {
				inst.SetName(base)
			}
			modified = true
		}
	}
	return Success(modified, "")
}
