package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the textual IR format produced by Print back into a
// *Module. Construction happens in two passes per function: first every
// block and every instruction's result name is registered (so forward
// references across a loop back-edge resolve), then every operand,
// branch target, and PHI incoming pair is filled in. This mirrors the
// forward-label handling the teacher's own recursive-descent passes use
// for Kanso's (rarer) forward declarations, adapted here to SSA's much
// more common back-edge case. The printer's trailing "CONTROL FLOW GRAPH:"
// summary, and anything after it, is cut off before parsing.
func Parse(src string) (*Module, error) {
	if idx := strings.Index(src, "CONTROL FLOW GRAPH:"); idx >= 0 {
		src = src[:idx]
	}
	file, err := irParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse IR: %w", err)
	}
	return buildModule(file)
}

func buildModule(file *fileNode) (*Module, error) {
	m := NewModule(file.ModuleName)

	for _, e := range file.StrPool {
		idStr := strings.TrimPrefix(e.ID, "@str.")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("bad string pool id %q: %w", e.ID, err)
		}
		val, err := strconv.Unquote(e.Value)
		if err != nil {
			return nil, fmt.Errorf("bad string pool literal %q: %w", e.Value, err)
		}
		m.StringPool[id] = val
	}

	for _, g := range file.Globals {
		name := strings.TrimPrefix(g.Name, "@")
		m.DefineGlobal(name, toType(g.Type), g.Kind == "global")
	}

	for _, fn := range file.Functions {
		if err := buildFunction(m, fn); err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}

	return m, nil
}

type pendingInstr struct {
	node  *instrNode
	instr *Instr
	block *BasicBlock
}

func buildFunction(m *Module, fn *functionNode) error {
	f := m.CreateFunction(fn.Name, toType(fn.RetType))

	symtab := map[string]Value{}
	for _, p := range fn.Params {
		arg := f.AddParam(strings.TrimPrefix(p.Name, "%"), toType(p.Type))
		symtab[arg.Name()] = arg
	}

	blocksByLabel := map[string]*BasicBlock{}
	for _, bn := range fn.Blocks {
		blocksByLabel[bn.Label] = f.CreateBlock(bn.Label)
	}

	var pendings []pendingInstr
	for _, bn := range fn.Blocks {
		b := blocksByLabel[bn.Label]
		for _, in := range bn.Instrs {
			instr, err := stubInstr(in.Body)
			if err != nil {
				return err
			}
			if in.Result != nil {
				name := strings.TrimPrefix(*in.Result, "%")
				instr.name = name
				symtab[name] = instr
			}
			b.append(instr)
			pendings = append(pendings, pendingInstr{in, instr, b})
		}
	}

	for _, p := range pendings {
		if err := resolveInstr(p, m, symtab, blocksByLabel); err != nil {
			return err
		}
	}

	return nil
}

// stubInstr determines an instruction's opcode, result type, and any
// opcode-specific non-operand fields (ElemType, RuntimeName) that don't
// depend on forward-reference resolution. Operands, branch targets and
// PHI incoming pairs are left empty for resolveInstr to fill in.
func stubInstr(body *instrBody) (*Instr, error) {
	switch {
	case body.Ret != nil:
		return &Instr{op: OpRet, typ: Void()}, nil
	case body.Br != nil:
		return &Instr{op: OpBr, typ: Void()}, nil
	case body.BrCond != nil:
		return &Instr{op: OpBrCond, typ: Void()}, nil
	case body.BrCmp != nil:
		op, ok := brCmpOpcode(body.BrCmpOp)
		if !ok {
			return nil, fmt.Errorf("unknown compare-branch opcode %q", body.BrCmpOp)
		}
		return &Instr{op: op, typ: Void()}, nil
	case body.Throw != nil:
		return &Instr{op: OpThrow, typ: Void()}, nil
	case body.Unreachable:
		return &Instr{op: OpUnreachable, typ: Void()}, nil
	case body.Phi != nil:
		return &Instr{op: OpPhi, typ: toType(body.Phi.Type)}, nil
	case body.Call != nil:
		return &Instr{op: OpCall, typ: toType(body.Call.Type)}, nil
	case body.CallThis != nil:
		return &Instr{op: OpCallThis, typ: toType(body.CallThis.Type)}, nil
	case body.New != nil:
		return &Instr{op: OpNew, typ: toType(body.New.Type)}, nil
	case body.CallRuntime != nil:
		return &Instr{
			op:          OpCallRuntime,
			typ:         toType(body.CallRuntime.Type),
			RuntimeName: strings.TrimPrefix(body.CallRuntime.Name, "@"),
		}, nil
	case body.Alloca != nil:
		elem := toType(body.Alloca)
		return &Instr{op: OpAlloca, typ: PointerTo(elem), ElemType: elem}, nil
	case body.Load != nil:
		return &Instr{op: OpLoad, typ: toType(body.Load.Type)}, nil
	case body.Store != nil:
		return &Instr{op: OpStore, typ: Void()}, nil
	case body.CreateEmptyObject:
		return &Instr{op: OpCreateEmptyObject, typ: Object()}, nil
	case body.CreateEmptyArray != nil:
		return &Instr{op: OpCreateEmptyArray, typ: ArrayOf(Any())}, nil
	case body.GetProperty != nil:
		return &Instr{op: OpGetProperty, typ: toType(body.GetProperty.Type)}, nil
	case body.SetProperty != nil:
		return &Instr{op: OpSetProperty, typ: Void()}, nil
	case body.GetElement != nil:
		return &Instr{op: OpGetElement, typ: toType(body.GetElement.Type)}, nil
	case body.SetElement != nil:
		return &Instr{op: OpSetElement, typ: Void()}, nil
	case body.Select != nil:
		return &Instr{op: OpSelect, typ: toType(body.Select.Type)}, nil
	case body.Copy != nil:
		return &Instr{op: OpCopy, typ: toType(body.Copy.Type)}, nil
	case body.Cast != nil:
		op, ok := castOpcode(body.CastOp)
		if !ok {
			return nil, fmt.Errorf("unknown cast opcode %q", body.CastOp)
		}
		return &Instr{op: op, typ: toType(body.Cast.To)}, nil
	case body.Nop:
		return &Instr{op: OpNop, typ: Void()}, nil
	case body.Generic != nil:
		op, ok := opcodeFromName(body.Generic.Op)
		if !ok {
			return nil, fmt.Errorf("unknown opcode %q", body.Generic.Op)
		}
		return &Instr{op: op, typ: toType(body.Generic.Type)}, nil
	}
	return nil, fmt.Errorf("empty instruction body")
}

func resolveInstr(p pendingInstr, m *Module, symtab map[string]Value, blocks map[string]*BasicBlock) error {
	body := p.node.Body
	i := p.instr
	block := p.block

	resolve := func(ref *valueRefNode) (Value, error) { return resolveValue(ref, m, symtab) }
	target := func(label string) (*BasicBlock, error) {
		b, ok := blocks[label]
		if !ok {
			return nil, fmt.Errorf("undefined block %q", label)
		}
		return b, nil
	}
	addBranch := func(targets ...string) error {
		for _, lbl := range targets {
			b, err := target(lbl)
			if err != nil {
				return err
			}
			i.Targets = append(i.Targets, b)
			b.addPred(block)
		}
		return nil
	}

	switch {
	case body.Ret != nil:
		if body.Ret.Val != nil {
			v, err := resolve(body.Ret.Val)
			if err != nil {
				return err
			}
			i.addOperand(v)
		}
	case body.Br != nil:
		return addBranch(body.Br.Target)
	case body.BrCond != nil:
		v, err := resolve(body.BrCond.Cond)
		if err != nil {
			return err
		}
		i.addOperand(v)
		return addBranch(body.BrCond.TargetA, body.BrCond.TargetB)
	case body.BrCmp != nil:
		lhs, err := resolve(body.BrCmp.Lhs)
		if err != nil {
			return err
		}
		rhs, err := resolve(body.BrCmp.Rhs)
		if err != nil {
			return err
		}
		i.addOperand(lhs)
		i.addOperand(rhs)
		return addBranch(body.BrCmp.TargetA, body.BrCmp.TargetB)
	case body.Throw != nil:
		v, err := resolve(body.Throw.Val)
		if err != nil {
			return err
		}
		i.addOperand(v)
	case body.Unreachable:
		// no operands
	case body.Phi != nil:
		for _, pair := range body.Phi.Pairs {
			v, err := resolve(pair.Value)
			if err != nil {
				return err
			}
			b, err := target(pair.Block)
			if err != nil {
				return err
			}
			i.AddIncoming(v, b)
		}
	case body.Call != nil:
		return resolveCallLike(i, body.Call.Callee, body.Call.Args, resolve)
	case body.CallThis != nil:
		recv, err := resolve(body.CallThis.Receiver)
		if err != nil {
			return err
		}
		i.addOperand(recv)
		return resolveCallLike(i, body.CallThis.Callee, body.CallThis.Args, resolve)
	case body.New != nil:
		return resolveCallLike(i, body.New.Callee, body.New.Args, resolve)
	case body.CallRuntime != nil:
		for _, a := range body.CallRuntime.Args {
			v, err := resolve(a)
			if err != nil {
				return err
			}
			i.addOperand(v)
		}
	case body.Alloca != nil:
		// no operands
	case body.Load != nil:
		v, err := resolve(body.Load.Val)
		if err != nil {
			return err
		}
		i.addOperand(v)
	case body.Store != nil:
		addr, err := resolve(body.Store.Addr)
		if err != nil {
			return err
		}
		val, err := resolve(body.Store.Val)
		if err != nil {
			return err
		}
		i.addOperand(addr)
		i.addOperand(val)
	case body.CreateEmptyObject:
		// no operands
	case body.CreateEmptyArray != nil:
		v, err := resolve(body.CreateEmptyArray)
		if err != nil {
			return err
		}
		i.addOperand(v)
	case body.GetProperty != nil:
		return resolveBinary(i, body.GetProperty.A, body.GetProperty.B, resolve)
	case body.SetProperty != nil:
		return resolveTernary(i, body.SetProperty.A, body.SetProperty.B, body.SetProperty.C, resolve)
	case body.GetElement != nil:
		return resolveBinary(i, body.GetElement.A, body.GetElement.B, resolve)
	case body.SetElement != nil:
		return resolveTernary(i, body.SetElement.A, body.SetElement.B, body.SetElement.C, resolve)
	case body.Select != nil:
		return resolveTernary(i, body.Select.Cond, body.Select.T, body.Select.F, resolve)
	case body.Copy != nil:
		v, err := resolve(body.Copy.Val)
		if err != nil {
			return err
		}
		i.addOperand(v)
	case body.Cast != nil:
		v, err := resolve(body.Cast.Val)
		if err != nil {
			return err
		}
		i.addOperand(v)
	case body.Nop:
		// no operands
	case body.Generic != nil:
		for _, o := range body.Generic.Operands {
			v, err := resolve(o)
			if err != nil {
				return err
			}
			i.addOperand(v)
		}
	}
	return nil
}

func resolveCallLike(i *Instr, callee *valueRefNode, args []*valueRefNode, resolve func(*valueRefNode) (Value, error)) error {
	c, err := resolve(callee)
	if err != nil {
		return err
	}
	i.addOperand(c)
	for _, a := range args {
		v, err := resolve(a)
		if err != nil {
			return err
		}
		i.addOperand(v)
	}
	return nil
}

func resolveBinary(i *Instr, a, b *valueRefNode, resolve func(*valueRefNode) (Value, error)) error {
	va, err := resolve(a)
	if err != nil {
		return err
	}
	vb, err := resolve(b)
	if err != nil {
		return err
	}
	i.addOperand(va)
	i.addOperand(vb)
	return nil
}

func resolveTernary(i *Instr, a, b, c *valueRefNode, resolve func(*valueRefNode) (Value, error)) error {
	va, err := resolve(a)
	if err != nil {
		return err
	}
	vb, err := resolve(b)
	if err != nil {
		return err
	}
	vc, err := resolve(c)
	if err != nil {
		return err
	}
	i.addOperand(va)
	i.addOperand(vb)
	i.addOperand(vc)
	return nil
}

// resolveValue maps a parsed operand reference to a Value: a %-prefixed
// name looked up in the function's symbol table, an @-prefixed name
// resolved (or speculatively declared) as a module global, or a literal
// turned into an interned Constant. Integer and float literals default
// to i32/f64 since the compact textual grammar does not repeat a type
// annotation per operand (see DESIGN.md's parser-limitations note).
func resolveValue(ref *valueRefNode, m *Module, symtab map[string]Value) (Value, error) {
	switch {
	case ref.Percent != nil:
		name := strings.TrimPrefix(*ref.Percent, "%")
		v, ok := symtab[name]
		if !ok {
			return nil, fmt.Errorf("undefined value %%%s", name)
		}
		return v, nil
	case ref.At != nil:
		name := strings.TrimPrefix(*ref.At, "@")
		if g, ok := m.Globals[name]; ok {
			return g, nil
		}
		return m.DefineGlobal(name, Any(), false), nil
	case ref.FloatLit != nil:
		f, err := strconv.ParseFloat(*ref.FloatLit, 64)
		if err != nil {
			return nil, err
		}
		return m.InternConstant(NewFloatConst(f, F64())), nil
	case ref.IntLit != nil:
		n, err := strconv.ParseInt(*ref.IntLit, 10, 64)
		if err != nil {
			return nil, err
		}
		return m.InternConstant(NewIntConst(n, I32())), nil
	case ref.StrLit != nil:
		s, err := strconv.Unquote(*ref.StrLit)
		if err != nil {
			return nil, err
		}
		return m.InternConstant(NewStringConst(s)), nil
	case ref.Ident != nil:
		switch *ref.Ident {
		case "true":
			return m.InternConstant(NewTrueConst()), nil
		case "false":
			return m.InternConstant(NewFalseConst()), nil
		case "null":
			return m.InternConstant(NewNullConst()), nil
		case "undefined":
			return m.InternConstant(NewUndefinedConst()), nil
		case "NaN":
			return m.InternConstant(NewNaNConst()), nil
		default:
			if v, ok := symtab[*ref.Ident]; ok {
				return v, nil
			}
			return nil, fmt.Errorf("unrecognized operand %q", *ref.Ident)
		}
	}
	return nil, fmt.Errorf("empty operand")
}

func toType(n *typeNode) *Type {
	if n == nil {
		return Void()
	}
	switch {
	case n.Array != nil:
		return ArrayOf(toType(n.Array.Elem))
	case n.Ptr != nil:
		return PointerTo(toType(n.Ptr.Elem))
	case n.Fn != nil:
		params := make([]*Type, len(n.Fn.Params))
		for i, p := range n.Fn.Params {
			params[i] = toType(p)
		}
		return FunctionType(toType(n.Fn.Ret), params)
	case n.St != nil:
		fields := make([]StructField, len(n.St.Fields))
		for i, f := range n.St.Fields {
			fields[i] = StructField{Name: f.Name, Type: toType(f.Type)}
		}
		return StructType(n.St.Name, fields)
	case n.Prim != nil:
		switch *n.Prim {
		case "void":
			return Void()
		case "i32":
			return I32()
		case "i64":
			return I64()
		case "f32":
			return F32()
		case "f64":
			return F64()
		case "bool":
			return Bool()
		case "any":
			return Any()
		case "object":
			return Object()
		case "string":
			return StringT()
		case "label":
			return LabelT()
		}
	}
	return Any()
}

func opcodeFromName(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if n == name {
			return op, true
		}
	}
	return OpInvalid, false
}

func brCmpOpcode(name string) (Opcode, bool) {
	switch name {
	case "br_lt":
		return OpBrLt, true
	case "br_le":
		return OpBrLe, true
	case "br_gt":
		return OpBrGt, true
	case "br_ge":
		return OpBrGe, true
	case "br_eq":
		return OpBrEq, true
	case "br_ne":
		return OpBrNe, true
	}
	return OpInvalid, false
}

func castOpcode(name string) (Opcode, bool) {
	switch name {
	case "trunc":
		return OpTrunc, true
	case "zext":
		return OpZExt, true
	case "sext":
		return OpSExt, true
	case "fptoi":
		return OpFPToI, true
	case "uitofp":
		return OpUIToFP, true
	case "sitofp":
		return OpSIToFP, true
	case "bitcast":
		return OpBitcast, true
	}
	return OpInvalid, false
}
