package passes

import "abcssa/internal/ir"

// TypePropagation performs two refinements described in spec §4.8:
//
//   - drops a to_number/to_numeric cast whose operand is already
//     numeric (int or float), replacing it with the operand directly;
//   - narrows an any-typed PHI or pure operation to the common concrete
//     type of its operands when every operand agrees on one, so a
//     refinement discovered at a value's definition (e.g. by
//     ConstantFolding or a cast) flows forward to its users.
//
// Both rewrites are conservative: a mismatch, a missing type, or any
// remaining any-typed operand leaves the instruction untouched rather
// than guessing.
//
// No teacher analog (kanso's types are resolved once at construction and
// never subsequently refined); built directly from spec's stated rule in
// the teacher's collect-then-mutate idiom.
type TypePropagation struct{}

func (TypePropagation) Name() string { return "TypePropagation" }
func (TypePropagation) Description() string {
	return "propagates concrete operand types through casts and pure operations, and drops redundant numeric casts"
}
func (TypePropagation) Requires() []AnalysisID    { return nil }
func (TypePropagation) Invalidates() []AnalysisID { return nil }

func (TypePropagation) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false

	for _, bb := range fn.Blocks {
		for _, inst := range append([]*ir.Instr(nil), bb.Instrs...) {
			if inst.Block() == nil {
				continue
			}
			if simplifyRedundantCast(inst) {
				modified = true
			}
		}
	}

	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if refineAnyType(inst) {
				modified = true
			}
		}
	}

	return Success(modified, "")
}

func simplifyRedundantCast(inst *ir.Instr) bool {
	if inst.Opcode() != ir.OpToNumber && inst.Opcode() != ir.OpToNumeric {
		return false
	}
	operand := inst.Operand(0)
	if !operand.Type().IsNumeric() {
		return false
	}
	inst.ReplaceAllUsesWith(operand)
	inst.EraseFromBlock()
	return true
}

func refineAnyType(inst *ir.Instr) bool {
	if inst.Type() == nil || inst.Type().Kind != ir.KAny {
		return false
	}
	if !inst.IsPure() || inst.OperandCount() == 0 {
		return false
	}
	var common *ir.Type
	for i := 0; i < inst.OperandCount(); i++ {
		t := inst.Operand(i).Type()
		if t == nil || t.Kind == ir.KAny {
			return false
		}
		if common == nil {
			common = t
		} else if !common.Equals(t) {
			return false
		}
	}
	if common == nil {
		return false
	}
	inst.SetType(common)
	return true
}
