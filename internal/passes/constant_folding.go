package passes

import "abcssa/internal/ir"

// ConstantFolding replaces a pure instruction whose operands are all
// constants of a numerically-compatible type with the evaluated
// constant, matching the source numeric model: IEEE-754 semantics for
// floats (NaN propagates through Go's float64 arithmetic the same way),
// two's-complement wraparound for i32/i64, and straightforward boolean
// logic for bool-typed operands. Division and modulo by zero are left
// unfolded so the instruction's throw semantics survive into later
// passes. Grounded on the teacher's ConstantFolding
// (identifyConstants/foldInstruction two-pass split, computeBinaryOp
// switch over an operator identifier) generalized from the teacher's
// single uint64/bool domain to the IR's i32/i64/f32/f64/bool types and
// from binary-only folding to also covering pure unary instructions.
type ConstantFolding struct{}

func (ConstantFolding) Name() string { return "ConstantFolding" }
func (ConstantFolding) Description() string {
	return "evaluates pure instructions whose operands are all constants"
}
func (ConstantFolding) Requires() []AnalysisID    { return nil }
func (ConstantFolding) Invalidates() []AnalysisID { return nil }

func (ConstantFolding) RunFunction(fn *ir.Function, _ *AnalysisManager) (Outcome, error) {
	modified := false
	mod := fn.Mod
	for _, bb := range fn.Blocks {
		for _, inst := range append([]*ir.Instr(nil), bb.Instrs...) {
			if inst.Block() == nil {
				continue
			}
			folded, ok := foldInstruction(inst)
			if !ok {
				continue
			}
			if mod != nil {
				folded = mod.InternConstant(folded)
			}
			inst.ReplaceAllUsesWith(folded)
			inst.EraseFromBlock()
			modified = true
		}
	}
	return Success(modified, "")
}

func foldInstruction(inst *ir.Instr) (*ir.Constant, bool) {
	switch inst.OperandCount() {
	case 1:
		c, ok := inst.Operand(0).(*ir.Constant)
		if !ok {
			return nil, false
		}
		return foldUnary(inst.Opcode(), c, inst.Type())
	case 2:
		l, lok := inst.Operand(0).(*ir.Constant)
		r, rok := inst.Operand(1).(*ir.Constant)
		if !lok || !rok {
			return nil, false
		}
		return foldBinary(inst.Opcode(), l, r, inst.Type())
	default:
		return nil, false
	}
}

func foldUnary(op ir.Opcode, c *ir.Constant, resultType *ir.Type) (*ir.Constant, bool) {
	switch op {
	case ir.OpNeg:
		switch c.Kind {
		case ir.ConstInt:
			return ir.NewIntConst(-c.IntVal, resultType), true
		case ir.ConstFloat:
			return ir.NewFloatConst(-c.FltVal, resultType), true
		}
	case ir.OpBitNot:
		if c.Kind == ir.ConstInt {
			return ir.NewIntConst(^c.IntVal, resultType), true
		}
	case ir.OpNot:
		if b, ok := boolOf(c); ok {
			return boolConst(!b), true
		}
	case ir.OpIsTrue:
		if b, ok := boolOf(c); ok {
			return boolConst(b), true
		}
	case ir.OpIsFalse:
		if b, ok := boolOf(c); ok {
			return boolConst(!b), true
		}
	case ir.OpInc:
		if c.Kind == ir.ConstInt {
			return ir.NewIntConst(c.IntVal+1, resultType), true
		}
	case ir.OpDec:
		if c.Kind == ir.ConstInt {
			return ir.NewIntConst(c.IntVal-1, resultType), true
		}
	}
	return nil, false
}

func foldBinary(op ir.Opcode, l, r *ir.Constant, resultType *ir.Type) (*ir.Constant, bool) {
	if l.Kind == ir.ConstInt && r.Kind == ir.ConstInt {
		if v, ok := foldIntBinary(op, l.IntVal, r.IntVal, resultType); ok {
			return v, true
		}
	}
	if (l.Kind == ir.ConstFloat || l.Kind == ir.ConstInt) && (r.Kind == ir.ConstFloat || r.Kind == ir.ConstInt) &&
		(resultType.IsFloating() || l.Kind == ir.ConstFloat || r.Kind == ir.ConstFloat) {
		if v, ok := foldFloatBinary(op, floatOf(l), floatOf(r), resultType); ok {
			return v, true
		}
	}
	if lb, lok := boolOf(l); lok {
		if rb, rok := boolOf(r); rok {
			if v, ok := foldBoolBinary(op, lb, rb); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func floatOf(c *ir.Constant) float64 {
	if c.Kind == ir.ConstFloat {
		return c.FltVal
	}
	return float64(c.IntVal)
}

func boolOf(c *ir.Constant) (bool, bool) {
	switch c.Kind {
	case ir.ConstTrue:
		return true, true
	case ir.ConstFalse:
		return false, true
	default:
		return false, false
	}
}

func boolConst(b bool) *ir.Constant {
	if b {
		return ir.NewTrueConst()
	}
	return ir.NewFalseConst()
}

// wrapInt truncates v to the width implied by t (i32 wraps to 32 bits;
// everything else, including "any", is left at native 64-bit width).
func wrapInt(v int64, t *ir.Type) int64 {
	if t != nil && t.Kind == ir.KI32 {
		return int64(int32(v))
	}
	return v
}

func foldIntBinary(op ir.Opcode, l, r int64, resultType *ir.Type) (*ir.Constant, bool) {
	switch op {
	case ir.OpAdd:
		return ir.NewIntConst(wrapInt(l+r, resultType), resultType), true
	case ir.OpSub:
		return ir.NewIntConst(wrapInt(l-r, resultType), resultType), true
	case ir.OpMul:
		return ir.NewIntConst(wrapInt(l*r, resultType), resultType), true
	case ir.OpDiv:
		if r == 0 {
			return nil, false // preserves throw semantics
		}
		return ir.NewIntConst(wrapInt(l/r, resultType), resultType), true
	case ir.OpMod:
		if r == 0 {
			return nil, false
		}
		return ir.NewIntConst(wrapInt(l%r, resultType), resultType), true
	case ir.OpShl:
		return ir.NewIntConst(wrapInt(l<<uint64(r&63), resultType), resultType), true
	case ir.OpShr:
		return ir.NewIntConst(wrapInt(int64(uint64(l)>>uint64(r&63)), resultType), resultType), true
	case ir.OpAShr:
		return ir.NewIntConst(wrapInt(l>>uint64(r&63), resultType), resultType), true
	case ir.OpAnd:
		return ir.NewIntConst(l&r, resultType), true
	case ir.OpOr:
		return ir.NewIntConst(l|r, resultType), true
	case ir.OpXor:
		return ir.NewIntConst(l^r, resultType), true
	case ir.OpEq:
		return boolConst(l == r), true
	case ir.OpNe:
		return boolConst(l != r), true
	case ir.OpLt:
		return boolConst(l < r), true
	case ir.OpLe:
		return boolConst(l <= r), true
	case ir.OpGt:
		return boolConst(l > r), true
	case ir.OpGe:
		return boolConst(l >= r), true
	case ir.OpStrictEq:
		return boolConst(l == r), true
	case ir.OpStrictNe:
		return boolConst(l != r), true
	default:
		return nil, false
	}
}

func foldFloatBinary(op ir.Opcode, l, r float64, resultType *ir.Type) (*ir.Constant, bool) {
	switch op {
	case ir.OpAdd:
		return ir.NewFloatConst(l+r, resultType), true
	case ir.OpSub:
		return ir.NewFloatConst(l-r, resultType), true
	case ir.OpMul:
		return ir.NewFloatConst(l*r, resultType), true
	case ir.OpDiv:
		if r == 0 {
			return nil, false
		}
		return ir.NewFloatConst(l/r, resultType), true
	case ir.OpEq:
		return boolConst(l == r), true
	case ir.OpNe:
		return boolConst(l != r), true
	case ir.OpLt:
		return boolConst(l < r), true
	case ir.OpLe:
		return boolConst(l <= r), true
	case ir.OpGt:
		return boolConst(l > r), true
	case ir.OpGe:
		return boolConst(l >= r), true
	default:
		return nil, false
	}
}

func foldBoolBinary(op ir.Opcode, l, r bool) (*ir.Constant, bool) {
	switch op {
	case ir.OpAnd:
		return boolConst(l && r), true
	case ir.OpOr:
		return boolConst(l || r), true
	case ir.OpXor:
		return boolConst(l != r), true
	case ir.OpEq, ir.OpStrictEq:
		return boolConst(l == r), true
	case ir.OpNe, ir.OpStrictNe:
		return boolConst(l != r), true
	default:
		return nil, false
	}
}
