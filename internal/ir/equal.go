package ir

// StructurallyEqual is the separate helper the data model (§4.2) calls
// out from identity comparison, used by GlobalValueNumbering to build
// congruence classes: same opcode, same result type, and equivalent
// operands (order-insensitive for commutative opcodes, ordered
// otherwise). Only meaningful for pure instructions; callers are
// expected to filter on IsPure themselves.
func StructurallyEqual(a, b *Instr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.op != b.op || !a.typ.Equals(b.typ) {
		return false
	}
	if len(a.operands) != len(b.operands) {
		return false
	}
	if a.op == OpPhi {
		return phiOperandsEqual(a, b)
	}
	if IsCommutative(a.op) && len(a.operands) == 2 {
		return (a.operands[0] == b.operands[0] && a.operands[1] == b.operands[1]) ||
			(a.operands[0] == b.operands[1] && a.operands[1] == b.operands[0])
	}
	for i := range a.operands {
		if a.operands[i] != b.operands[i] {
			return false
		}
	}
	if a.op == OpCallRuntime && a.RuntimeName != b.RuntimeName {
		return false
	}
	return true
}

// phiOperandsEqual compares two PHIs as sets of (predecessor, value)
// pairs, ignoring incoming order.
func phiOperandsEqual(a, b *Instr) bool {
	if len(a.Incoming) != len(b.Incoming) {
		return false
	}
	for i, pred := range a.Incoming {
		if a.IncomingFor(pred) != b.IncomingFor(pred) {
			_ = i
			return false
		}
	}
	for _, pred := range b.Incoming {
		found := false
		for _, p2 := range a.Incoming {
			if p2 == pred {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
