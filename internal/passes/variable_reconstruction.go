package passes

import (
	"fmt"
	"strings"

	"abcssa/internal/ir"
)

// VariableReconstruction assigns stable, source-like names to SSA values
// that still carry only their default numeric id, drawing each name from
// one of three signals: a copy's operand (so a chain that once stood for
// one source variable surfaces that variable's name once the chain is
// collapsed), a constant string key on a get_property (so `get_property
// o, "count"` suggests the name "count"), and an argument reached
// through a trivial wrapper. A PHI takes the name of whichever
// already-named incoming value's defining block comes first in CFG
// reverse postorder — the tie-break policy spec's Open Question on this
// pass settles on, given the source leaves no deterministic rule. This
// pass never rewrites operands or erases instructions: it only calls
// Instr.SetName, so it cannot change program semantics.
//
// No teacher analog (kanso's variables already carry their source names
// throughout, since it lowers directly from named AST locals); built
// from spec §4.8's naming-signal list in the teacher's collect-then-
// mutate idiom.
type VariableReconstruction struct{}

func (VariableReconstruction) Name() string { return "VariableReconstruction" }
func (VariableReconstruction) Description() string {
	return "assigns source-like names to still-anonymous SSA values from copy, property-access and argument signals"
}
func (VariableReconstruction) Requires() []AnalysisID    { return []AnalysisID{AnalysisDominance} }
func (VariableReconstruction) Invalidates() []AnalysisID { return nil }

func (VariableReconstruction) RunFunction(fn *ir.Function, am *AnalysisManager) (Outcome, error) {
	dom := am.Dominance()
	rpo := dom.ReversePostorder()
	rpoPos := make(map[*ir.BasicBlock]int, len(rpo))
	for i, b := range rpo {
		rpoPos[b] = i
	}

	modified := false
	for _, bb := range rpo {
		for _, inst := range bb.Instrs {
			if !isDefaultNamed(inst) {
				continue
			}
			name, ok := suggestName(inst, rpoPos)
			if !ok || name == "" {
				continue
			}
			inst.SetName(name)
			modified = true
		}
	}
	return Success(modified, "")
}

func isDefaultNamed(inst *ir.Instr) bool {
	return inst.Name() == fmt.Sprintf("%d", inst.ID())
}

func suggestName(inst *ir.Instr, rpoPos map[*ir.BasicBlock]int) (string, bool) {
	switch inst.Opcode() {
	case ir.OpCopy:
		return namedOperand(inst.Operand(0))
	case ir.OpGetProperty:
		if key, ok := inst.Operand(1).(*ir.Constant); ok && key.Kind == ir.ConstString {
			return sanitizeIdent(key.StrVal), true
		}
	case ir.OpPhi:
		return earliestIncomingName(inst, rpoPos)
	}
	return "", false
}

func namedOperand(v ir.Value) (string, bool) {
	switch x := v.(type) {
	case *ir.Argument:
		return x.Name(), true
	case *ir.GlobalValue:
		return x.Name(), true
	case *ir.Instr:
		if !isDefaultNamed(x) {
			return x.Name(), true
		}
	}
	return "", false
}

// earliestIncomingName picks the name of whichever incoming value is
// itself named and whose defining block sorts earliest in reverse
// postorder; an argument or global (defined outside any block) always
// sorts before every in-function block.
func earliestIncomingName(phi *ir.Instr, rpoPos map[*ir.BasicBlock]int) (string, bool) {
	best := -1
	bestName := ""
	found := false
	for i := 0; i < phi.OperandCount(); i++ {
		name, ok := namedOperand(phi.Operand(i))
		if !ok {
			continue
		}
		pos := -1
		if inst, isInst := phi.Operand(i).(*ir.Instr); isInst {
			pos = rpoPos[inst.Block()]
		}
		if !found || pos < best {
			found, best, bestName = true, pos, name
		}
	}
	return bestName, found
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
