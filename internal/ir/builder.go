package ir

import "fmt"

// Builder is the stateful cursor-style constructor from the component
// design (§4.4): one method per opcode, appending at (or inserting
// before the terminator of) the current block, wiring CFG edges when a
// branch is created. Grounded on the teacher's builder.go cursor style,
// generalized from kanso's AST-driven construction to opcode-driven
// construction against the flat Instr type.
type Builder struct {
	fn    *Function
	block *BasicBlock
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) SetFunction(fn *Function) { b.fn = fn }
func (b *Builder) Function() *Function      { return b.fn }

func (b *Builder) SetBlock(bb *BasicBlock) { b.block = bb }
func (b *Builder) CurrentBlock() *BasicBlock { return b.block }

// ErrTerminatedBlock is returned when a terminator constructor is called
// against a block that is already terminated (§4.4 insertion rule 3).
type ErrTerminatedBlock struct{ Block string }

func (e *ErrTerminatedBlock) Error() string {
	return fmt.Sprintf("cannot insert a second terminator into block %q", e.Block)
}

func (b *Builder) newInstr(op Opcode, t *Type, operands ...Value) *Instr {
	inst := &Instr{id: b.fn.nextID(), op: op, typ: t}
	for _, o := range operands {
		inst.addOperand(o)
	}
	return inst
}

// insert applies the three insertion rules from §4.4: append if
// unterminated, insert-before-terminator if terminated and inst is not
// itself a terminator, fail if terminated and inst is also a terminator.
func (b *Builder) insert(inst *Instr) (*Instr, error) {
	if b.block.IsTerminated() {
		if inst.IsTerminator() {
			return nil, &ErrTerminatedBlock{Block: b.block.Label}
		}
		b.block.insertBeforeTerminator(inst)
		return inst, nil
	}
	b.block.append(inst)
	return inst, nil
}

// insertNonTerm is insert specialized for opcodes that are never
// terminators, so callers don't have to thread an error they know is
// always nil.
func (b *Builder) insertNonTerm(inst *Instr) *Instr {
	inst2, err := b.insert(inst)
	if err != nil {
		// unreachable: inst is never a terminator here
		panic(err)
	}
	return inst2
}

// --- Terminators ---

func (b *Builder) BuildRet(v Value) (*Instr, error) {
	t := Void()
	var ops []Value
	if v != nil {
		t = v.Type()
		ops = []Value{v}
	}
	inst := b.newInstr(OpRet, t, ops...)
	return b.insert(inst)
}

func (b *Builder) BuildBr(target *BasicBlock) (*Instr, error) {
	inst := b.newInstr(OpBr, Void())
	inst.Targets = []*BasicBlock{target}
	res, err := b.insert(inst)
	if err != nil {
		return nil, err
	}
	target.addPred(b.block)
	return res, nil
}

func (b *Builder) BuildBrCond(cond Value, t, f *BasicBlock) (*Instr, error) {
	inst := b.newInstr(OpBrCond, Void(), cond)
	inst.Targets = []*BasicBlock{t, f}
	res, err := b.insert(inst)
	if err != nil {
		return nil, err
	}
	t.addPred(b.block)
	f.addPred(b.block)
	return res, nil
}

// fusedCmpOps maps the six fused compare-and-branch opcodes.
var fusedCmpOps = map[string]Opcode{
	"lt": OpBrLt, "le": OpBrLe, "gt": OpBrGt, "ge": OpBrGe, "eq": OpBrEq, "ne": OpBrNe,
}

// BuildBrCmp constructs a fused compare-and-branch `br_{lt,le,gt,ge,eq,ne}(l, r, t, f)`.
func (b *Builder) BuildBrCmp(cmp string, l, r Value, t, f *BasicBlock) (*Instr, error) {
	op, ok := fusedCmpOps[cmp]
	if !ok {
		panic("unknown fused compare kind: " + cmp)
	}
	inst := b.newInstr(op, Void(), l, r)
	inst.Targets = []*BasicBlock{t, f}
	res, err := b.insert(inst)
	if err != nil {
		return nil, err
	}
	t.addPred(b.block)
	f.addPred(b.block)
	return res, nil
}

func (b *Builder) BuildThrow(v Value) (*Instr, error) {
	return b.insert(b.newInstr(OpThrow, Void(), v))
}

func (b *Builder) BuildUnreachable() (*Instr, error) {
	return b.insert(b.newInstr(OpUnreachable, Void()))
}

// --- Binary arithmetic ---

func (b *Builder) buildBinary(op Opcode, resultType *Type, l, r Value) *Instr {
	return b.insertNonTerm(b.newInstr(op, resultType, l, r))
}

func (b *Builder) BuildAdd(l, r Value) *Instr { return b.buildBinary(OpAdd, l.Type(), l, r) }
func (b *Builder) BuildSub(l, r Value) *Instr { return b.buildBinary(OpSub, l.Type(), l, r) }
func (b *Builder) BuildMul(l, r Value) *Instr { return b.buildBinary(OpMul, l.Type(), l, r) }
func (b *Builder) BuildDiv(l, r Value) *Instr { return b.buildBinary(OpDiv, l.Type(), l, r) }
func (b *Builder) BuildMod(l, r Value) *Instr { return b.buildBinary(OpMod, l.Type(), l, r) }
func (b *Builder) BuildShl(l, r Value) *Instr { return b.buildBinary(OpShl, l.Type(), l, r) }
func (b *Builder) BuildShr(l, r Value) *Instr { return b.buildBinary(OpShr, l.Type(), l, r) }
func (b *Builder) BuildAShr(l, r Value) *Instr { return b.buildBinary(OpAShr, l.Type(), l, r) }
func (b *Builder) BuildAnd(l, r Value) *Instr { return b.buildBinary(OpAnd, l.Type(), l, r) }
func (b *Builder) BuildOr(l, r Value) *Instr  { return b.buildBinary(OpOr, l.Type(), l, r) }
func (b *Builder) BuildXor(l, r Value) *Instr { return b.buildBinary(OpXor, l.Type(), l, r) }
func (b *Builder) BuildExp(l, r Value) *Instr { return b.buildBinary(OpExp, l.Type(), l, r) }

// --- Unary ---

func (b *Builder) buildUnary(op Opcode, resultType *Type, v Value) *Instr {
	return b.insertNonTerm(b.newInstr(op, resultType, v))
}

func (b *Builder) BuildNeg(v Value) *Instr       { return b.buildUnary(OpNeg, v.Type(), v) }
func (b *Builder) BuildNot(v Value) *Instr       { return b.buildUnary(OpNot, Bool(), v) }
func (b *Builder) BuildBitNot(v Value) *Instr    { return b.buildUnary(OpBitNot, v.Type(), v) }
func (b *Builder) BuildInc(v Value) *Instr       { return b.buildUnary(OpInc, v.Type(), v) }
func (b *Builder) BuildDec(v Value) *Instr       { return b.buildUnary(OpDec, v.Type(), v) }
func (b *Builder) BuildTypeof(v Value) *Instr    { return b.buildUnary(OpTypeof, StringT(), v) }
func (b *Builder) BuildToNumber(v Value) *Instr  { return b.buildUnary(OpToNumber, Any(), v) }
func (b *Builder) BuildToNumeric(v Value) *Instr { return b.buildUnary(OpToNumeric, Any(), v) }
func (b *Builder) BuildIsTrue(v Value) *Instr    { return b.buildUnary(OpIsTrue, Bool(), v) }
func (b *Builder) BuildIsFalse(v Value) *Instr   { return b.buildUnary(OpIsFalse, Bool(), v) }

// --- Compare ---

func (b *Builder) buildCompare(op Opcode, l, r Value) *Instr {
	return b.insertNonTerm(b.newInstr(op, Bool(), l, r))
}

func (b *Builder) BuildEq(l, r Value) *Instr         { return b.buildCompare(OpEq, l, r) }
func (b *Builder) BuildNe(l, r Value) *Instr         { return b.buildCompare(OpNe, l, r) }
func (b *Builder) BuildLt(l, r Value) *Instr         { return b.buildCompare(OpLt, l, r) }
func (b *Builder) BuildLe(l, r Value) *Instr         { return b.buildCompare(OpLe, l, r) }
func (b *Builder) BuildGt(l, r Value) *Instr         { return b.buildCompare(OpGt, l, r) }
func (b *Builder) BuildGe(l, r Value) *Instr         { return b.buildCompare(OpGe, l, r) }
func (b *Builder) BuildStrictEq(l, r Value) *Instr   { return b.buildCompare(OpStrictEq, l, r) }
func (b *Builder) BuildStrictNe(l, r Value) *Instr   { return b.buildCompare(OpStrictNe, l, r) }
func (b *Builder) BuildIsIn(l, r Value) *Instr       { return b.buildCompare(OpIsIn, l, r) }
func (b *Builder) BuildInstanceOf(l, r Value) *Instr { return b.buildCompare(OpInstanceOf, l, r) }

// --- Memory ---

func (b *Builder) BuildAlloca(elem *Type) *Instr {
	inst := b.newInstr(OpAlloca, PointerTo(elem))
	inst.ElemType = elem
	return b.insertNonTerm(inst)
}

func (b *Builder) BuildLoad(ptr Value) *Instr {
	elem := Any()
	if ptr.Type().IsPointer() {
		elem = ptr.Type().Elem
	}
	return b.insertNonTerm(b.newInstr(OpLoad, elem, ptr))
}

func (b *Builder) BuildStore(v, ptr Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpStore, Void(), v, ptr))
}

// --- Objects/arrays ---

func (b *Builder) BuildCreateEmptyObject() *Instr {
	return b.insertNonTerm(b.newInstr(OpCreateEmptyObject, Object()))
}

func (b *Builder) BuildCreateEmptyArray(cap Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpCreateEmptyArray, ArrayOf(Any()), cap))
}

func (b *Builder) BuildGetProperty(o, k Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpGetProperty, Any(), o, k))
}

func (b *Builder) BuildSetProperty(o, k, v Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpSetProperty, Void(), o, k, v))
}

func (b *Builder) BuildGetElement(a, i Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpGetElement, Any(), a, i))
}

func (b *Builder) BuildSetElement(a, i, v Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpSetElement, Void(), a, i, v))
}

// --- Calls ---

func (b *Builder) BuildCall(f Value, args []Value, resultType *Type) *Instr {
	inst := b.newInstr(OpCall, resultType, append([]Value{f}, args...)...)
	return b.insertNonTerm(inst)
}

func (b *Builder) BuildCallThis(f, this Value, args []Value, resultType *Type) *Instr {
	inst := b.newInstr(OpCallThis, resultType, append([]Value{f, this}, args...)...)
	return b.insertNonTerm(inst)
}

func (b *Builder) BuildNew(ctor Value, args []Value) *Instr {
	inst := b.newInstr(OpNew, Object(), append([]Value{ctor}, args...)...)
	return b.insertNonTerm(inst)
}

func (b *Builder) BuildCallRuntime(name string, args []Value, resultType *Type) *Instr {
	inst := b.newInstr(OpCallRuntime, resultType, args...)
	inst.RuntimeName = name
	return b.insertNonTerm(inst)
}

// --- SSA-only ---

// BuildPhi creates an empty PHI; incoming pairs are added with AddIncoming
// as the accumulator-lowering front-end resolves predecessors.
func (b *Builder) BuildPhi(t *Type) *Instr {
	return b.insertNonTerm(b.newInstr(OpPhi, t))
}

// BuildPhiAtHead creates an empty PHI and inserts it at the head of
// block (after any existing PHIs), independent of the builder's current
// block. The accumulator-lowering front-end (internal/lower) uses this
// instead of BuildPhi when a cross-block vreg read forces a PHI into a
// block that may already hold instructions appended ahead of it.
func (b *Builder) BuildPhiAtHead(block *BasicBlock, t *Type) *Instr {
	inst := &Instr{id: b.fn.nextID(), op: OpPhi, typ: t}
	block.PrependPhi(inst)
	return inst
}

func (b *Builder) BuildSelect(c, t, f Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpSelect, t.Type(), c, t, f))
}

// BuildCopy exists only to give explicit SSA names to vreg stores during
// accumulator lowering (§4.5); expected to be eliminated by
// RedundantCopyElimination.
func (b *Builder) BuildCopy(v Value) *Instr {
	return b.insertNonTerm(b.newInstr(OpCopy, v.Type(), v))
}

// --- Casts ---

func (b *Builder) buildCast(op Opcode, resultType *Type, v Value) *Instr {
	return b.insertNonTerm(b.newInstr(op, resultType, v))
}

func (b *Builder) BuildTrunc(v Value, to *Type) *Instr   { return b.buildCast(OpTrunc, to, v) }
func (b *Builder) BuildZExt(v Value, to *Type) *Instr    { return b.buildCast(OpZExt, to, v) }
func (b *Builder) BuildSExt(v Value, to *Type) *Instr    { return b.buildCast(OpSExt, to, v) }
func (b *Builder) BuildFPToI(v Value, to *Type) *Instr   { return b.buildCast(OpFPToI, to, v) }
func (b *Builder) BuildUIToFP(v Value, to *Type) *Instr  { return b.buildCast(OpUIToFP, to, v) }
func (b *Builder) BuildSIToFP(v Value, to *Type) *Instr  { return b.buildCast(OpSIToFP, to, v) }
func (b *Builder) BuildBitcast(v Value, to *Type) *Instr { return b.buildCast(OpBitcast, to, v) }

func (b *Builder) BuildNop() *Instr { return b.insertNonTerm(b.newInstr(OpNop, Void())) }

// --- Convenience operator layer (§4.4: "semantically identical to the explicit API") ---

func (b *Builder) Add(l, r Value) Value { return b.BuildAdd(l, r) }
func (b *Builder) Sub(l, r Value) Value { return b.BuildSub(l, r) }
func (b *Builder) Mul(l, r Value) Value { return b.BuildMul(l, r) }
func (b *Builder) Div(l, r Value) Value { return b.BuildDiv(l, r) }
func (b *Builder) Lt(l, r Value) Value  { return b.BuildLt(l, r) }
func (b *Builder) Le(l, r Value) Value  { return b.BuildLe(l, r) }
func (b *Builder) Gt(l, r Value) Value  { return b.BuildGt(l, r) }
func (b *Builder) Ge(l, r Value) Value  { return b.BuildGe(l, r) }
func (b *Builder) Eq(l, r Value) Value  { return b.BuildEq(l, r) }
func (b *Builder) Ne(l, r Value) Value  { return b.BuildNe(l, r) }
