// Package lower is the accumulator-lowering front-end (§4.5) and the
// bytecode->IR converter (§4.6): it turns a decoded per-method bytecode
// record into SSA by walking a flat, fixed-width instruction encoding
// and driving internal/ir's Builder through on-the-fly SSA construction.
//
// The only upstream boundary (§6) is a per-method record, a module
// string pool, and an identifier resolver; "endianness and layout of the
// underlying file are the decoder's concern" — decodeStream below
// assumes rawInstructions is already in this package's own flat encoding
// (one opcode byte followed by fixed-width operands per opcode), the
// shape an actual .abc-format reader would translate into before handing
// a MethodRecord to this package. Each opcode's operand layout is listed
// on its Op constant below; DESIGN.md gives the rationale for scoping the
// encoding this way.
package lower

import (
	"encoding/binary"
	"fmt"
	"math"

	cerrors "abcssa/internal/errors"
)

// MethodRecord is the per-method shape consumed from the bytecode
// decoder (§6): method name, raw instruction bytes in this package's
// flat encoding, and the declared register-file shape.
type MethodRecord struct {
	Name     string
	Raw      []byte
	NumArgs  int // last NumArgs vregs: 3 implicit (func obj, new-target, this) + declared params
	NumVRegs int
}

// IdentKind tags which resolver table an id refers to.
type IdentKind int

const (
	IdentString IdentKind = iota
	IdentMethod
	IdentGlobal
)

// StringPool mirrors the decoder's module-level string pool: integer id
// to literal.
type StringPool map[int]string

func (p StringPool) Lookup(id int) (string, bool) {
	s, ok := p[id]
	return s, ok
}

// Resolver maps a string/method/global index to its original identifier.
type Resolver interface {
	Resolve(kind IdentKind, id int) (string, bool)
}

// Op is this package's flat bytecode opcode byte.
type Op byte

const (
	OpLdaI       Op = 0x01 // imm i32
	OpFLdaI      Op = 0x02 // imm f64
	OpLda        Op = 0x03 // reg
	OpSta        Op = 0x04 // reg
	OpMov        Op = 0x05 // dst, src
	OpLdaStr     Op = 0x06 // strId
	OpLdaGlobal  Op = 0x07 // globalId
	OpLdNull     Op = 0x08
	OpLdUndef    Op = 0x09
	OpLdTrue     Op = 0x0A
	OpLdFalse    Op = 0x0B
	OpLdNaN      Op = 0x0C

	OpAdd2  Op = 0x10 // reg
	OpSub2  Op = 0x11
	OpMul2  Op = 0x12
	OpDiv2  Op = 0x13
	OpMod2  Op = 0x14
	OpShl2  Op = 0x15
	OpShr2  Op = 0x16
	OpAShr2 Op = 0x17
	OpAnd2  Op = 0x18
	OpOr2   Op = 0x19
	OpXor2  Op = 0x1A
	OpExp2  Op = 0x1B

	OpNeg       Op = 0x20
	OpNot       Op = 0x21
	OpBitNot    Op = 0x22
	OpIncAcc    Op = 0x23
	OpDecAcc    Op = 0x24
	OpTypeof    Op = 0x25
	OpToNumber  Op = 0x26
	OpToNumeric Op = 0x27
	OpIsTrue    Op = 0x28
	OpIsFalse   Op = 0x29

	OpEq         Op = 0x30 // reg
	OpNe         Op = 0x31
	OpLt         Op = 0x32
	OpLe         Op = 0x33
	OpGt         Op = 0x34
	OpGe         Op = 0x35
	OpStrictEq   Op = 0x36
	OpStrictNe   Op = 0x37
	OpIsIn       Op = 0x38
	OpInstanceOf Op = 0x39

	OpJLt Op = 0x40 // reg, offset(i32)
	OpJLe Op = 0x41
	OpJGt Op = 0x42
	OpJGe Op = 0x43
	OpJEq Op = 0x44
	OpJNe Op = 0x45

	OpJmp              Op = 0x50 // offset(i32)
	OpJumpIfTrue       Op = 0x51 // offset(i32)
	OpJumpIfFalse      Op = 0x52 // offset(i32)
	OpReturn           Op = 0x53
	OpReturnUndefined  Op = 0x54
	OpThrow            Op = 0x55
	OpUnreachable      Op = 0x56

	OpCreateObject  Op = 0x70
	OpCreateArray   Op = 0x71 // reg (capacity)
	OpGetProperty   Op = 0x72 // reg(obj), strId(key)
	OpSetProperty   Op = 0x73 // reg(obj), strId(key)
	OpGetElement    Op = 0x74 // reg(arr), reg(idx)
	OpSetElement    Op = 0x75 // reg(arr), reg(idx)

	OpCall        Op = 0x80 // globalId(u16), argc(u8), regs...
	OpCallThis    Op = 0x81 // globalId(u16), thisReg(u16), argc(u8), regs...
	OpNewObj      Op = 0x82 // globalId(u16), argc(u8), regs...
	OpCallRuntime Op = 0x83 // nameId(u16), argc(u8), regs...

	OpNop Op = 0x90
)

// decodedInstr is one entry in the (offset, opcode, operands) stream §4.6
// step 1 asks for.
type decodedInstr struct {
	Offset int
	Len    int
	Op     Op
	Reg1   int
	Reg2   int
	IntImm int64
	FltImm float64
	StrID  int
	Target int // absolute byte offset, for branches
	Args   []int
}

func u16(b []byte) int { return int(binary.LittleEndian.Uint16(b)) }
func i32(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// decodeStream scans raw into an ordered instruction list. It stops at
// the first truncated operand or unrecognized opcode and returns that one
// fault; problems later in raw are not reported.
func decodeStream(raw []byte) ([]decodedInstr, []*cerrors.CompilerFault) {
	var out []decodedInstr
	var faults []*cerrors.CompilerFault
	off := 0

	need := func(n int) bool {
		if off+n > len(raw) {
			faults = append(faults, cerrors.NewLoweringError(cerrors.LoweringMalformedOperands,
				fmt.Sprintf("truncated operand at offset %d", off)).Build())
			return false
		}
		return true
	}

	for off < len(raw) {
		start := off
		op := Op(raw[off])
		off++

		var d decodedInstr
		d.Offset = start
		d.Op = op

		switch op {
		case OpLdaI:
			if !need(4) {
				return nil, faults
			}
			d.IntImm = int64(i32(raw[off:]))
			off += 4
		case OpFLdaI:
			if !need(8) {
				return nil, faults
			}
			d.FltImm = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			off += 8
		case OpLda, OpSta, OpIncAcc, OpDecAcc:
			if op == OpIncAcc || op == OpDecAcc {
				// no operand
			} else {
				if !need(2) {
					return nil, faults
				}
				d.Reg1 = u16(raw[off:])
				off += 2
			}
		case OpMov:
			if !need(4) {
				return nil, faults
			}
			d.Reg1 = u16(raw[off:])
			d.Reg2 = u16(raw[off+2:])
			off += 4
		case OpLdaStr:
			if !need(2) {
				return nil, faults
			}
			d.StrID = u16(raw[off:])
			off += 2
		case OpLdaGlobal:
			if !need(2) {
				return nil, faults
			}
			d.StrID = u16(raw[off:])
			off += 2
		case OpLdNull, OpLdUndef, OpLdTrue, OpLdFalse, OpLdNaN,
			OpNeg, OpNot, OpBitNot, OpTypeof, OpToNumber, OpToNumeric, OpIsTrue, OpIsFalse,
			OpCreateObject, OpReturn, OpReturnUndefined, OpThrow, OpUnreachable, OpNop:
			// no operands
		case OpAdd2, OpSub2, OpMul2, OpDiv2, OpMod2, OpShl2, OpShr2, OpAShr2, OpAnd2, OpOr2, OpXor2, OpExp2,
			OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpStrictEq, OpStrictNe, OpIsIn, OpInstanceOf,
			OpCreateArray:
			if !need(2) {
				return nil, faults
			}
			d.Reg1 = u16(raw[off:])
			off += 2
		case OpGetProperty, OpSetProperty:
			if !need(4) {
				return nil, faults
			}
			d.Reg1 = u16(raw[off:])
			d.StrID = u16(raw[off+2:])
			off += 4
		case OpGetElement, OpSetElement:
			if !need(4) {
				return nil, faults
			}
			d.Reg1 = u16(raw[off:])
			d.Reg2 = u16(raw[off+2:])
			off += 4
		case OpJLt, OpJLe, OpJGt, OpJGe, OpJEq, OpJNe:
			if !need(6) {
				return nil, faults
			}
			d.Reg1 = u16(raw[off:])
			d.Target = int(i32(raw[off+2:]))
			off += 6
		case OpJmp, OpJumpIfTrue, OpJumpIfFalse:
			if !need(4) {
				return nil, faults
			}
			d.Target = int(i32(raw[off:]))
			off += 4
		case OpCall, OpNewObj, OpCallRuntime:
			if !need(3) {
				return nil, faults
			}
			d.StrID = u16(raw[off:])
			argc := int(raw[off+2])
			off += 3
			if !need(2 * argc) {
				return nil, faults
			}
			d.Args = make([]int, argc)
			for i := 0; i < argc; i++ {
				d.Args[i] = u16(raw[off+2*i:])
			}
			off += 2 * argc
		case OpCallThis:
			if !need(5) {
				return nil, faults
			}
			d.StrID = u16(raw[off:])
			d.Reg1 = u16(raw[off+2:])
			argc := int(raw[off+4])
			off += 5
			if !need(2 * argc) {
				return nil, faults
			}
			d.Args = make([]int, argc)
			for i := 0; i < argc; i++ {
				d.Args[i] = u16(raw[off+2*i:])
			}
			off += 2 * argc
		default:
			faults = append(faults, cerrors.NewLoweringError(cerrors.LoweringUnknownOpcode,
				fmt.Sprintf("unrecognized opcode 0x%02x at offset %d", byte(op), start)).Build())
			return nil, faults
		}

		d.Len = off - start
		out = append(out, d)
	}

	if len(faults) > 0 {
		return nil, faults
	}
	return out, nil
}

// isTerminatorOp reports whether op ends a block.
func isTerminatorOp(op Op) bool {
	switch op {
	case OpReturn, OpReturnUndefined, OpThrow, OpUnreachable,
		OpJmp, OpJumpIfTrue, OpJumpIfFalse,
		OpJLt, OpJLe, OpJGt, OpJGe, OpJEq, OpJNe:
		return true
	}
	return false
}

// branchTargets returns the absolute offsets d can jump to, if any.
func branchTargets(d decodedInstr) []int {
	switch d.Op {
	case OpJmp, OpJumpIfTrue, OpJumpIfFalse, OpJLt, OpJLe, OpJGt, OpJGe, OpJEq, OpJNe:
		return []int{d.Target}
	}
	return nil
}
