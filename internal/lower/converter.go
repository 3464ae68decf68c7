package lower

import (
	"fmt"
	"sort"

	cerrors "abcssa/internal/errors"
	"abcssa/internal/ir"
)

// Convert is the bytecode->IR converter (§4.6): it decodes rec.Raw,
// partitions it into blocks, builds the SSA for rec's body by walking
// each block with an AccumulatorState, and returns the finished
// function. On any failure the whole function is rejected — no partial
// IR is attached to mod.
func Convert(mod *ir.Module, rec MethodRecord, pool StringPool, resolver Resolver) (*ir.Function, []*cerrors.CompilerFault) {
	stream, faults := decodeStream(rec.Raw)
	if len(faults) > 0 {
		return nil, withFunction(faults, rec.Name)
	}
	if len(stream) == 0 {
		return nil, []*cerrors.CompilerFault{
			cerrors.NewLoweringError(cerrors.LoweringMalformedOperands, "method body has no instructions").
				WithFunction(rec.Name).Build(),
		}
	}

	starts, byOffset, branchFaults := blockBoundaries(stream)
	if len(branchFaults) > 0 {
		return nil, withFunction(branchFaults, rec.Name)
	}

	fn := ir.NewFunction(rec.Name, ir.Any())
	fn.NumVRegs = rec.NumVRegs
	fn.NumArgs = rec.NumArgs

	numImplicit := 3
	firstArgVReg := rec.NumVRegs - rec.NumArgs
	for i := 0; i < rec.NumArgs; i++ {
		name := fmt.Sprintf("arg%d", i)
		if i < numImplicit {
			name = implicitArgName(i)
		}
		fn.AddParam(name, ir.Any())
	}

	blocks := make([]*ir.BasicBlock, len(starts))
	for i, off := range starts {
		blocks[i] = fn.CreateBlock(fmt.Sprintf("bb%d", off))
	}
	blockOf := make(map[int]*ir.BasicBlock, len(starts))
	for i, off := range starts {
		blockOf[off] = blocks[i]
	}

	b := ir.NewBuilder()
	b.SetFunction(fn)

	varType := make(map[int]*ir.Type)
	for i := firstArgVReg; i < rec.NumVRegs; i++ {
		varType[i] = ir.Any()
	}
	state := NewAccumulatorState(fn, b, varType)

	for i := 0; i < rec.NumArgs; i++ {
		state.WriteVariable(blocks[0], firstArgVReg+i, fn.Params[i])
	}

	var convFaults []*cerrors.CompilerFault
	report := func(code cerrors.Code, blockLabel string, format string, args ...interface{}) {
		convFaults = append(convFaults, cerrors.NewLoweringError(code, fmt.Sprintf(format, args...)).
			WithFunction(rec.Name).WithBlock(blockLabel).Build())
	}

	for bi, bb := range blocks {
		b.SetBlock(bb)
		blockStart := starts[bi]
		blockEnd := len(stream)
		if bi+1 < len(starts) {
			blockEnd = byOffset[starts[bi+1]]
		}
		instrs := stream[byOffset[blockStart]:blockEnd]

		var nextBlock *ir.BasicBlock
		if bi+1 < len(blocks) {
			nextBlock = blocks[bi+1]
		}

		for idx, d := range instrs {
			isLast := idx == len(instrs)-1
			if isTerminatorOp(d.Op) != isLast {
				if isTerminatorOp(d.Op) && !isLast {
					report(cerrors.LoweringBranchToMidInstr, bb.Label,
						"terminator at offset %d is not the last instruction in its block", d.Offset)
				}
				continue
			}
			convertOne(b, state, mod, pool, resolver, d, blockOf, nextBlock, report, bb.Label)
		}

		if !bb.IsTerminated() {
			report(cerrors.LoweringMalformedOperands, bb.Label,
				"block %q falls off the end of the instruction stream without a terminator", bb.Label)
		}
	}

	if len(convFaults) > 0 {
		return nil, convFaults
	}

	sealFaults := state.SealAll()
	if len(sealFaults) > 0 {
		return nil, sealFaults
	}

	return fn, nil
}

func implicitArgName(i int) string {
	switch i {
	case 0:
		return "funcObj"
	case 1:
		return "newTarget"
	case 2:
		return "this"
	default:
		return fmt.Sprintf("implicit%d", i)
	}
}

func withFunction(faults []*cerrors.CompilerFault, name string) []*cerrors.CompilerFault {
	for _, f := range faults {
		if f.Location.Function == "" {
			f.Location.Function = name
		}
	}
	return faults
}

// blockBoundaries computes every offset that begins a block: offset 0,
// every branch target, and every fallthrough after a terminator. It
// reports LoweringBranchToMidInstr for any branch target that does not
// land exactly on a decoded instruction's offset.
func blockBoundaries(stream []decodedInstr) ([]int, map[int]int, []*cerrors.CompilerFault) {
	validOffsets := make(map[int]bool, len(stream))
	byOffset := make(map[int]int, len(stream))
	for i, d := range stream {
		validOffsets[d.Offset] = true
		byOffset[d.Offset] = i
	}

	boundarySet := map[int]bool{0: true}
	var faults []*cerrors.CompilerFault

	for i, d := range stream {
		for _, t := range branchTargets(d) {
			if !validOffsets[t] {
				faults = append(faults, cerrors.NewLoweringError(cerrors.LoweringBranchToMidInstr,
					fmt.Sprintf("branch at offset %d targets offset %d, which is not an instruction boundary", d.Offset, t)).Build())
				continue
			}
			boundarySet[t] = true
		}
		if isTerminatorOp(d.Op) && i+1 < len(stream) {
			boundarySet[stream[i+1].Offset] = true
		}
	}
	if len(faults) > 0 {
		return nil, nil, faults
	}

	starts := make([]int, 0, len(boundarySet))
	for off := range boundarySet {
		starts = append(starts, off)
	}
	sort.Ints(starts)
	return starts, byOffset, nil
}

// convertOne translates one decoded instruction into IR, threading
// accumulator/vreg state through state and appending to b's current
// block.
func convertOne(
	b *ir.Builder,
	state *AccumulatorState,
	mod *ir.Module,
	pool StringPool,
	resolver Resolver,
	d decodedInstr,
	blockOf map[int]*ir.BasicBlock,
	fallthroughBlock *ir.BasicBlock,
	report func(code cerrors.Code, blockLabel string, format string, args ...interface{}),
	blockLabel string,
) {
	here := b.CurrentBlock()
	acc := func() ir.Value { return state.ReadVariable(here, AccVar) }
	setAcc := func(v ir.Value) { state.WriteVariable(here, AccVar, v) }
	reg := func(r int) ir.Value { return state.ReadVariable(here, r) }
	setReg := func(r int, v ir.Value) { state.WriteVariable(here, r, v) }

	target := func(off int) *ir.BasicBlock {
		bb := blockOf[off]
		if bb == nil {
			report(cerrors.LoweringBranchToMidInstr, blockLabel, "branch target offset %d has no block", off)
		}
		return bb
	}
	need := func(bb *ir.BasicBlock) bool {
		if bb == nil {
			report(cerrors.LoweringMalformedOperands, blockLabel,
				"instruction at offset %d needs a fallthrough block but is the function's last block", d.Offset)
			return false
		}
		return true
	}

	lookupStr := func(id int) string {
		s, ok := pool.Lookup(id)
		if !ok {
			report(cerrors.LoweringMalformedOperands, blockLabel, "string pool has no entry %d", id)
		}
		return s
	}
	resolveGlobal := func(kind IdentKind, id int) ir.Value {
		name, ok := resolver.Resolve(kind, id)
		if !ok {
			report(cerrors.LoweringMalformedOperands, blockLabel, "resolver has no entry %d for kind %d", id, kind)
			name = fmt.Sprintf("<unresolved:%d>", id)
		}
		return mod.DefineGlobal(name, ir.FunctionType(ir.Any(), nil), false)
	}
	callArgs := func(regs []int) []ir.Value {
		out := make([]ir.Value, len(regs))
		for i, r := range regs {
			out[i] = reg(r)
		}
		return out
	}

	switch d.Op {
	case OpLdaI:
		setAcc(mod.InternConstant(ir.NewIntConst(d.IntImm, ir.I32())))
	case OpFLdaI:
		setAcc(mod.InternConstant(ir.NewFloatConst(d.FltImm, ir.F64())))
	case OpLda:
		setAcc(reg(d.Reg1))
	case OpSta:
		setReg(d.Reg1, b.BuildCopy(acc()))
	case OpMov:
		setReg(d.Reg1, b.BuildCopy(reg(d.Reg2)))
	case OpLdaStr:
		setAcc(mod.InternConstant(ir.NewStringConst(lookupStr(d.StrID))))
	case OpLdaGlobal:
		setAcc(resolveGlobal(IdentGlobal, d.StrID))
	case OpLdNull:
		setAcc(mod.InternConstant(ir.NewNullConst()))
	case OpLdUndef:
		setAcc(mod.InternConstant(ir.NewUndefinedConst()))
	case OpLdTrue:
		setAcc(mod.InternConstant(ir.NewTrueConst()))
	case OpLdFalse:
		setAcc(mod.InternConstant(ir.NewFalseConst()))
	case OpLdNaN:
		setAcc(mod.InternConstant(ir.NewNaNConst()))

	case OpAdd2:
		setAcc(b.BuildAdd(acc(), reg(d.Reg1)))
	case OpSub2:
		setAcc(b.BuildSub(acc(), reg(d.Reg1)))
	case OpMul2:
		setAcc(b.BuildMul(acc(), reg(d.Reg1)))
	case OpDiv2:
		setAcc(b.BuildDiv(acc(), reg(d.Reg1)))
	case OpMod2:
		setAcc(b.BuildMod(acc(), reg(d.Reg1)))
	case OpShl2:
		setAcc(b.BuildShl(acc(), reg(d.Reg1)))
	case OpShr2:
		setAcc(b.BuildShr(acc(), reg(d.Reg1)))
	case OpAShr2:
		setAcc(b.BuildAShr(acc(), reg(d.Reg1)))
	case OpAnd2:
		setAcc(b.BuildAnd(acc(), reg(d.Reg1)))
	case OpOr2:
		setAcc(b.BuildOr(acc(), reg(d.Reg1)))
	case OpXor2:
		setAcc(b.BuildXor(acc(), reg(d.Reg1)))
	case OpExp2:
		setAcc(b.BuildExp(acc(), reg(d.Reg1)))

	case OpNeg:
		setAcc(b.BuildNeg(acc()))
	case OpNot:
		setAcc(b.BuildNot(acc()))
	case OpBitNot:
		setAcc(b.BuildBitNot(acc()))
	case OpIncAcc:
		setAcc(b.BuildInc(acc()))
	case OpDecAcc:
		setAcc(b.BuildDec(acc()))
	case OpTypeof:
		setAcc(b.BuildTypeof(acc()))
	case OpToNumber:
		setAcc(b.BuildToNumber(acc()))
	case OpToNumeric:
		setAcc(b.BuildToNumeric(acc()))
	case OpIsTrue:
		setAcc(b.BuildIsTrue(acc()))
	case OpIsFalse:
		setAcc(b.BuildIsFalse(acc()))

	case OpEq:
		setAcc(b.BuildEq(acc(), reg(d.Reg1)))
	case OpNe:
		setAcc(b.BuildNe(acc(), reg(d.Reg1)))
	case OpLt:
		setAcc(b.BuildLt(acc(), reg(d.Reg1)))
	case OpLe:
		setAcc(b.BuildLe(acc(), reg(d.Reg1)))
	case OpGt:
		setAcc(b.BuildGt(acc(), reg(d.Reg1)))
	case OpGe:
		setAcc(b.BuildGe(acc(), reg(d.Reg1)))
	case OpStrictEq:
		setAcc(b.BuildStrictEq(acc(), reg(d.Reg1)))
	case OpStrictNe:
		setAcc(b.BuildStrictNe(acc(), reg(d.Reg1)))
	case OpIsIn:
		setAcc(b.BuildIsIn(acc(), reg(d.Reg1)))
	case OpInstanceOf:
		setAcc(b.BuildInstanceOf(acc(), reg(d.Reg1)))

	case OpCreateObject:
		setAcc(b.BuildCreateEmptyObject())
	case OpCreateArray:
		setAcc(b.BuildCreateEmptyArray(reg(d.Reg1)))
	case OpGetProperty:
		key := mod.InternConstant(ir.NewStringConst(lookupStr(d.StrID)))
		setAcc(b.BuildGetProperty(reg(d.Reg1), key))
	case OpSetProperty:
		key := mod.InternConstant(ir.NewStringConst(lookupStr(d.StrID)))
		b.BuildSetProperty(reg(d.Reg1), key, acc())
	case OpGetElement:
		setAcc(b.BuildGetElement(reg(d.Reg1), reg(d.Reg2)))
	case OpSetElement:
		b.BuildSetElement(reg(d.Reg1), reg(d.Reg2), acc())

	case OpCall:
		callee := resolveGlobal(IdentMethod, d.StrID)
		setAcc(b.BuildCall(callee, callArgs(d.Args), ir.Any()))
	case OpCallThis:
		callee := resolveGlobal(IdentMethod, d.StrID)
		setAcc(b.BuildCallThis(callee, reg(d.Reg1), callArgs(d.Args), ir.Any()))
	case OpNewObj:
		callee := resolveGlobal(IdentMethod, d.StrID)
		setAcc(b.BuildNew(callee, callArgs(d.Args)))
	case OpCallRuntime:
		name := lookupStr(d.StrID)
		setAcc(b.BuildCallRuntime(name, callArgs(d.Args), ir.Any()))

	case OpNop:
		b.BuildNop()

	case OpReturn:
		if _, err := b.BuildRet(acc()); err != nil {
			report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
		}
	case OpReturnUndefined:
		v := mod.InternConstant(ir.NewUndefinedConst())
		if _, err := b.BuildRet(v); err != nil {
			report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
		}
	case OpThrow:
		if _, err := b.BuildThrow(acc()); err != nil {
			report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
		}
	case OpUnreachable:
		if _, err := b.BuildUnreachable(); err != nil {
			report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
		}

	case OpJmp:
		t := target(d.Target)
		if t != nil {
			if _, err := b.BuildBr(t); err != nil {
				report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
			}
		}
	case OpJumpIfTrue:
		t := target(d.Target)
		if t != nil && need(fallthroughBlock) {
			if _, err := b.BuildBrCond(acc(), t, fallthroughBlock); err != nil {
				report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
			}
		}
	case OpJumpIfFalse:
		t := target(d.Target)
		if t != nil && need(fallthroughBlock) {
			if _, err := b.BuildBrCond(acc(), fallthroughBlock, t); err != nil {
				report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
			}
		}
	case OpJLt, OpJLe, OpJGt, OpJGe, OpJEq, OpJNe:
		t := target(d.Target)
		if t != nil && need(fallthroughBlock) {
			if _, err := b.BuildBrCmp(jcmpName(d.Op), acc(), reg(d.Reg1), t, fallthroughBlock); err != nil {
				report(cerrors.LoweringMalformedOperands, blockLabel, "%s", err)
			}
		}

	default:
		report(cerrors.LoweringUnknownOpcode, blockLabel, "unhandled opcode 0x%02x at offset %d", byte(d.Op), d.Offset)
	}
}

func jcmpName(op Op) string {
	switch op {
	case OpJLt:
		return "lt"
	case OpJLe:
		return "le"
	case OpJGt:
		return "gt"
	case OpJGe:
		return "ge"
	case OpJEq:
		return "eq"
	case OpJNe:
		return "ne"
	}
	return ""
}
