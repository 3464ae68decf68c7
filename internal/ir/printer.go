package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Printer renders a Module as the textual IR format from §6: stable
// enough for golden tests, and round-trippable through Parse (see
// parser.go) per the build->textualize->parse->textualize identity
// property. Grounded on the teacher's printer.go section layout
// (module header, constants/globals sections, per-function bodies, a
// trailing CFG summary), adapted from Kanso's contract/storage-slot
// vocabulary to this IR's opcode vocabulary.
type Printer struct {
	buf strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

// Print renders the whole module.
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.buf.String()
}

func (p *Printer) line(format string, args ...interface{}) {
	fmt.Fprintf(&p.buf, format+"\n", args...)
}

func (p *Printer) printModule(m *Module) {
	p.line("module %s", m.Name)
	p.line("")

	if len(m.StringPool) > 0 {
		ids := make([]int, 0, len(m.StringPool))
		for id := range m.StringPool {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			p.line("@str.%d = private constant %s", id, quoteString(m.StringPool[id]))
		}
		p.line("")
	}

	if len(m.Globals) > 0 {
		names := make([]string, 0, len(m.Globals))
		for n := range m.Globals {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			g := m.Globals[n]
			kind := "external"
			if g.Defined {
				kind = "global"
			}
			p.line("@%s = %s %s", g.Nm, kind, g.Typ)
		}
		p.line("")
	}

	for _, name := range m.FuncOrder {
		p.printFunction(m.Functions[name])
		p.line("")
	}

	p.printCFGSummary(m)
}

func (p *Printer) printFunction(f *Function) {
	params := make([]string, len(f.Params))
	for i, a := range f.Params {
		params[i] = fmt.Sprintf("%%%s: %s", a.Name(), a.Typ)
	}
	p.line("function %s(%s) -> %s {", f.Nm, strings.Join(params, ", "), f.RetType)
	for _, b := range f.Blocks {
		p.printBlock(b)
	}
	p.line("}")
}

func (p *Printer) printBlock(b *BasicBlock) {
	p.line("%s:", b.Label)
	for _, inst := range b.Instrs {
		p.line("  %s", p.instrString(inst))
	}
}

func valueRef(v Value) string {
	if v == nil {
		return "<nil>"
	}
	switch x := v.(type) {
	case *Constant:
		return x.Name()
	case *GlobalValue:
		return "@" + x.Nm
	case *BasicBlock:
		return x.Label
	default:
		return "%" + v.Name()
	}
}

func operandList(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = valueRef(v)
	}
	return strings.Join(parts, ", ")
}

func resultPrefix(i *Instr) string {
	if i.typ.IsVoid() {
		return ""
	}
	return fmt.Sprintf("%%%s = ", i.Name())
}

// instrString renders a single instruction per the grammar:
// `[%<name> =] <opcode> [<result-type>] <operands…>`.
func (p *Printer) instrString(i *Instr) string {
	switch i.op {
	case OpRet:
		if len(i.operands) == 0 {
			return "ret"
		}
		return fmt.Sprintf("ret %s %s", i.operands[0].Type(), valueRef(i.operands[0]))
	case OpBr:
		return fmt.Sprintf("br %s", i.Targets[0].Label)
	case OpBrCond:
		return fmt.Sprintf("br_cond %s, %s, %s", valueRef(i.operands[0]), i.Targets[0].Label, i.Targets[1].Label)
	case OpBrLt, OpBrLe, OpBrGt, OpBrGe, OpBrEq, OpBrNe:
		return fmt.Sprintf("%s %s, %s, %s, %s", i.op, valueRef(i.operands[0]), valueRef(i.operands[1]),
			i.Targets[0].Label, i.Targets[1].Label)
	case OpThrow:
		return fmt.Sprintf("throw %s", valueRef(i.operands[0]))
	case OpUnreachable:
		return "unreachable"

	case OpPhi:
		parts := make([]string, len(i.Incoming))
		for idx, pred := range i.Incoming {
			parts[idx] = fmt.Sprintf("[%s, %s]", valueRef(i.operands[idx]), pred.Label)
		}
		return fmt.Sprintf("%sphi %s %s", resultPrefix(i), i.typ, strings.Join(parts, ", "))

	case OpCall:
		return fmt.Sprintf("%scall %s %s(%s)", resultPrefix(i), i.typ, valueRef(i.operands[0]), operandList(i.operands[1:]))
	case OpCallThis:
		return fmt.Sprintf("%scall_this %s %s, %s(%s)", resultPrefix(i), i.typ, valueRef(i.operands[0]), valueRef(i.operands[1]), operandList(i.operands[2:]))
	case OpNew:
		return fmt.Sprintf("%snew %s %s(%s)", resultPrefix(i), i.typ, valueRef(i.operands[0]), operandList(i.operands[1:]))
	case OpCallRuntime:
		return fmt.Sprintf("%scall_runtime %s @%s(%s)", resultPrefix(i), i.typ, i.RuntimeName, operandList(i.operands))

	case OpAlloca:
		return fmt.Sprintf("%salloca %s", resultPrefix(i), i.ElemType)
	case OpLoad:
		return fmt.Sprintf("%sload %s %s", resultPrefix(i), i.operands[0].Type(), valueRef(i.operands[0]))
	case OpStore:
		return fmt.Sprintf("store %s %s, %s %s", i.operands[0].Type(), valueRef(i.operands[0]), i.operands[1].Type(), valueRef(i.operands[1]))

	case OpCreateEmptyObject:
		return fmt.Sprintf("%screate_empty_object", resultPrefix(i))
	case OpCreateEmptyArray:
		return fmt.Sprintf("%screate_empty_array %s", resultPrefix(i), valueRef(i.operands[0]))
	case OpGetProperty:
		return fmt.Sprintf("%sget_property %s %s, %s", resultPrefix(i), i.typ, valueRef(i.operands[0]), valueRef(i.operands[1]))
	case OpSetProperty:
		return fmt.Sprintf("set_property %s, %s, %s", valueRef(i.operands[0]), valueRef(i.operands[1]), valueRef(i.operands[2]))
	case OpGetElement:
		return fmt.Sprintf("%sget_element %s %s, %s", resultPrefix(i), i.typ, valueRef(i.operands[0]), valueRef(i.operands[1]))
	case OpSetElement:
		return fmt.Sprintf("set_element %s, %s, %s", valueRef(i.operands[0]), valueRef(i.operands[1]), valueRef(i.operands[2]))

	case OpSelect:
		return fmt.Sprintf("%sselect %s %s, %s, %s", resultPrefix(i), i.typ, valueRef(i.operands[0]), valueRef(i.operands[1]), valueRef(i.operands[2]))
	case OpCopy:
		return fmt.Sprintf("%scopy %s %s", resultPrefix(i), i.typ, valueRef(i.operands[0]))

	case OpTrunc, OpZExt, OpSExt, OpFPToI, OpUIToFP, OpSIToFP, OpBitcast:
		return fmt.Sprintf("%s%s %s to %s", resultPrefix(i), i.op, valueRef(i.operands[0]), i.typ)

	case OpNop:
		return "nop"

	default:
		// Binary, unary, compare: uniform "<opcode> <resultType> <operands>".
		return fmt.Sprintf("%s%s %s %s", resultPrefix(i), i.op, i.typ, operandList(i.operands))
	}
}

func (p *Printer) printCFGSummary(m *Module) {
	p.line("CONTROL FLOW GRAPH:")
	for _, name := range m.FuncOrder {
		f := m.Functions[name]
		p.line("Function: %s", f.Nm)
		entry := "<none>"
		if e := f.Entry(); e != nil {
			entry = e.Label
		}
		p.line("  Entry: %s", entry)
		labels := make([]string, len(f.Blocks))
		for i, b := range f.Blocks {
			labels[i] = b.Label
		}
		p.line("  Blocks: %s", strings.Join(labels, ", "))
		for _, b := range f.Blocks {
			succs := make([]string, 0, len(b.Successors()))
			for _, s := range b.Successors() {
				succs = append(succs, s.Label)
			}
			p.line("    %s -> [%s]", b.Label, strings.Join(succs, ", "))
		}
	}
}

// quoteString escapes a literal for the @str.<id> grammar; kept as a
// named helper (rather than inlined at the one call site) because the
// parser's unescape routine mirrors it exactly.
func quoteString(s string) string { return strconv.Quote(s) }
