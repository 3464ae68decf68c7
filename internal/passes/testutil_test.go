package passes

import "abcssa/internal/ir"

// newTestFunction builds an empty module+function with an entry block
// and a Builder positioned at it, mirroring internal/ir's own
// builder_test.go fixture style.
func newTestFunction(name string, ret *ir.Type) (*ir.Module, *ir.Function, *ir.Builder) {
	m := ir.NewModule("test")
	f := m.CreateFunction(name, ret)
	b := ir.NewBuilder()
	b.SetFunction(f)
	entry := f.CreateBlock("entry")
	b.SetBlock(entry)
	return m, f, b
}

func intC(m *ir.Module, v int64, t *ir.Type) *ir.Constant {
	return m.InternConstant(ir.NewIntConst(v, t))
}

func floatC(m *ir.Module, v float64, t *ir.Type) *ir.Constant {
	return m.InternConstant(ir.NewFloatConst(v, t))
}

func boolC(m *ir.Module, v bool) *ir.Constant {
	if v {
		return m.InternConstant(ir.NewTrueConst())
	}
	return m.InternConstant(ir.NewFalseConst())
}

// soleConstOperand returns inst's only operand as a *ir.Constant,
// failing the calling test if the shape doesn't match.
func soleConstOperand(inst *ir.Instr) (*ir.Constant, bool) {
	if inst.OperandCount() != 1 {
		return nil, false
	}
	c, ok := inst.Operand(0).(*ir.Constant)
	return c, ok
}
