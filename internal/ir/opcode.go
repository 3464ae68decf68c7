package ir

// Opcode is the flat tagged union of instruction kinds. Re-expressing the
// source's deep instruction class hierarchy as a single enum plus the
// opcodeProps table below is the flattening spec's design notes call for:
// "virtual" per-instruction behavior becomes a lookup on the tag.
type Opcode int

const (
	OpInvalid Opcode = iota

	// Terminators
	OpRet
	OpBr
	OpBrCond
	OpBrLt
	OpBrLe
	OpBrGt
	OpBrGe
	OpBrEq
	OpBrNe
	OpThrow
	OpUnreachable

	// Binary arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpAShr
	OpAnd
	OpOr
	OpXor
	OpExp

	// Unary
	OpNeg
	OpNot
	OpBitNot
	OpInc
	OpDec
	OpTypeof
	OpToNumber
	OpToNumeric
	OpIsTrue
	OpIsFalse

	// Compare
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpStrictEq
	OpStrictNe
	OpIsIn
	OpInstanceOf

	// Memory
	OpAlloca
	OpLoad
	OpStore

	// Objects/arrays
	OpCreateEmptyObject
	OpCreateEmptyArray
	OpGetProperty
	OpSetProperty
	OpGetElement
	OpSetElement

	// Calls
	OpCall
	OpCallThis
	OpNew
	OpCallRuntime

	// SSA-only
	OpPhi
	OpSelect
	OpCopy

	// Casts
	OpTrunc
	OpZExt
	OpSExt
	OpFPToI
	OpUIToFP
	OpSIToFP
	OpBitcast

	OpNop
)

var opcodeNames = map[Opcode]string{
	OpInvalid: "invalid",

	OpRet: "ret", OpBr: "br", OpBrCond: "br_cond",
	OpBrLt: "br_lt", OpBrLe: "br_le", OpBrGt: "br_gt", OpBrGe: "br_ge",
	OpBrEq: "br_eq", OpBrNe: "br_ne", OpThrow: "throw", OpUnreachable: "unreachable",

	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpShl: "shl", OpShr: "shr", OpAShr: "ashr", OpAnd: "and", OpOr: "or",
	OpXor: "xor", OpExp: "exp",

	OpNeg: "neg", OpNot: "not", OpBitNot: "bitnot", OpInc: "inc", OpDec: "dec",
	OpTypeof: "typeof", OpToNumber: "to_number", OpToNumeric: "to_numeric",
	OpIsTrue: "is_true", OpIsFalse: "is_false",

	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpStrictEq: "strict_eq", OpStrictNe: "strict_ne", OpIsIn: "isin", OpInstanceOf: "instanceof",

	OpAlloca: "alloca", OpLoad: "load", OpStore: "store",

	OpCreateEmptyObject: "create_empty_object", OpCreateEmptyArray: "create_empty_array",
	OpGetProperty: "get_property", OpSetProperty: "set_property",
	OpGetElement: "get_element", OpSetElement: "set_element",

	OpCall: "call", OpCallThis: "call_this", OpNew: "new", OpCallRuntime: "call_runtime",

	OpPhi: "phi", OpSelect: "select", OpCopy: "copy",

	OpTrunc: "trunc", OpZExt: "zext", OpSExt: "sext", OpFPToI: "fptoi",
	OpUIToFP: "uitofp", OpSIToFP: "sitofp", OpBitcast: "bitcast",

	OpNop: "nop",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "unknown_opcode"
}

type opcodeProperties struct {
	terminator      bool
	pure            bool
	mayThrow        bool
	mayHaveSideEffects bool
	commutative     bool
	identity        bool
}

// opcodeProps is the per-opcode property table spec's Design Notes (§9)
// call for in place of virtual methods on a class hierarchy. pure marks
// an opcode without side effects; whether it can throw is recorded
// separately in mayThrow, so several pure opcodes (div, mod, load, isin,
// instanceof, get_property, get_element) are also marked mayThrow.
var opcodeProps = map[Opcode]opcodeProperties{
	OpRet:          {terminator: true},
	OpBr:           {terminator: true},
	OpBrCond:       {terminator: true},
	OpBrLt:         {terminator: true},
	OpBrLe:         {terminator: true},
	OpBrGt:         {terminator: true},
	OpBrGe:         {terminator: true},
	OpBrEq:         {terminator: true},
	OpBrNe:         {terminator: true},
	OpThrow:        {terminator: true},
	OpUnreachable:  {terminator: true},

	OpAdd: {pure: true, commutative: true},
	OpSub: {pure: true},
	OpMul: {pure: true, commutative: true},
	OpDiv: {pure: true, mayThrow: true},
	OpMod: {pure: true, mayThrow: true},
	OpShl: {pure: true},
	OpShr: {pure: true},
	OpAShr: {pure: true},
	OpAnd: {pure: true, commutative: true},
	OpOr:  {pure: true, commutative: true},
	OpXor: {pure: true, commutative: true},
	OpExp: {pure: true},

	OpNeg: {pure: true}, OpNot: {pure: true}, OpBitNot: {pure: true},
	OpInc: {pure: true}, OpDec: {pure: true}, OpTypeof: {pure: true},
	OpToNumber: {pure: true}, OpToNumeric: {pure: true},
	OpIsTrue: {pure: true}, OpIsFalse: {pure: true},

	OpEq: {pure: true, commutative: true}, OpNe: {pure: true, commutative: true},
	OpLt: {pure: true}, OpLe: {pure: true}, OpGt: {pure: true}, OpGe: {pure: true},
	OpStrictEq: {pure: true, commutative: true}, OpStrictNe: {pure: true, commutative: true},
	OpIsIn:       {pure: true, mayThrow: true},
	OpInstanceOf: {pure: true, mayThrow: true},

	OpAlloca: {pure: true, identity: true},
	OpLoad:   {pure: true, mayThrow: true},
	OpStore:  {mayHaveSideEffects: true, mayThrow: true},

	OpCreateEmptyObject: {pure: true, identity: true},
	OpCreateEmptyArray:  {pure: true, identity: true},
	OpGetProperty:       {pure: true, mayThrow: true},
	OpGetElement:        {pure: true, mayThrow: true},
	OpSetProperty:       {mayHaveSideEffects: true, mayThrow: true},
	OpSetElement:        {mayHaveSideEffects: true, mayThrow: true},

	OpCall:        {mayHaveSideEffects: true, mayThrow: true},
	OpCallThis:    {mayHaveSideEffects: true, mayThrow: true},
	OpNew:         {mayHaveSideEffects: true, mayThrow: true},
	OpCallRuntime: {mayHaveSideEffects: true, mayThrow: true},

	OpPhi:    {pure: true},
	OpSelect: {pure: true},
	OpCopy:   {pure: true},

	OpTrunc: {pure: true}, OpZExt: {pure: true}, OpSExt: {pure: true},
	OpFPToI: {pure: true}, OpUIToFP: {pure: true}, OpSIToFP: {pure: true},
	OpBitcast: {pure: true},

	OpNop: {pure: true},
}

func propsOf(op Opcode) opcodeProperties {
	if p, ok := opcodeProps[op]; ok {
		return p
	}
	return opcodeProperties{}
}

// IsCommutative reports whether op's two operands may be reordered for
// value-numbering purposes (add/mul/and/or/xor/eq/ne/strict_eq/strict_ne).
func IsCommutative(op Opcode) bool { return propsOf(op).commutative }

// CreatesIdentity reports whether op allocates a fresh, non-interchangeable
// identity on every invocation (alloca, create_empty_object,
// create_empty_array): two executions are never substitutable for each
// other even when every flag the property table otherwise marks as "pure"
// would allow it, so callers that merge or hoist on structural/operand
// equality (GVN congruence classes, LICM invariant hoisting) must treat
// this separately from IsPure.
func CreatesIdentity(op Opcode) bool { return propsOf(op).identity }
