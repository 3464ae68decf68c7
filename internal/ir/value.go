package ir

import "fmt"

// Value is the root of the SSA graph. Concrete variants are *Constant,
// *Argument, *GlobalValue, *BasicBlock, and *Instr. Every non-block,
// non-argument, non-global value is defined exactly once (SSA); Users
// is the non-owning back-edge list maintained eagerly on every mutation.
type Value interface {
	Type() *Type
	Name() string
	Users() []*Instr

	addUser(u *Instr)
	removeUser(u *Instr)
}

// valueBase is embedded by every Value variant to share the def-use
// bookkeeping instead of duplicating it per concrete type.
type valueBase struct {
	users []*Instr
}

func (b *valueBase) Users() []*Instr {
	out := make([]*Instr, len(b.users))
	copy(out, b.users)
	return out
}

func (b *valueBase) addUser(u *Instr) {
	b.users = append(b.users, u)
}

func (b *valueBase) removeUser(u *Instr) {
	for i, x := range b.users {
		if x == u {
			b.users = append(b.users[:i], b.users[i+1:]...)
			return
		}
	}
}

// ConstKind tags the distinguished Constant variants.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstNull
	ConstUndefined
	ConstNaN
	ConstTrue
	ConstFalse
)

// Constant is immutable, has no operands and no owning block, and per the
// data model may be shared (interned) across functions within a module.
type Constant struct {
	valueBase
	Kind   ConstKind
	Typ    *Type
	IntVal int64
	FltVal float64
	StrVal string
}

func (c *Constant) Type() *Type { return c.Typ }

func (c *Constant) Name() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.IntVal)
	case ConstFloat:
		return fmt.Sprintf("%g", c.FltVal)
	case ConstString:
		return fmt.Sprintf("%q", c.StrVal)
	case ConstNull:
		return "null"
	case ConstUndefined:
		return "undefined"
	case ConstNaN:
		return "NaN"
	case ConstTrue:
		return "true"
	case ConstFalse:
		return "false"
	default:
		return "<const>"
	}
}

func NewIntConst(v int64, t *Type) *Constant {
	return &Constant{Kind: ConstInt, Typ: t, IntVal: v}
}

func NewFloatConst(v float64, t *Type) *Constant {
	return &Constant{Kind: ConstFloat, Typ: t, FltVal: v}
}

func NewStringConst(v string) *Constant {
	return &Constant{Kind: ConstString, Typ: StringT(), StrVal: v}
}

func NewNullConst() *Constant      { return &Constant{Kind: ConstNull, Typ: Any()} }
func NewUndefinedConst() *Constant { return &Constant{Kind: ConstUndefined, Typ: Any()} }
func NewNaNConst() *Constant       { return &Constant{Kind: ConstNaN, Typ: F64()} }
func NewTrueConst() *Constant      { return &Constant{Kind: ConstTrue, Typ: Bool()} }
func NewFalseConst() *Constant     { return &Constant{Kind: ConstFalse, Typ: Bool()} }

// key is a deterministic interning key: same kind/value/type collapse to
// one shared representative (see Module.InternConstant).
func (c *Constant) key() string {
	return fmt.Sprintf("%d|%s|%d|%g|%s", c.Kind, c.Typ.String(), c.IntVal, c.FltVal, c.StrVal)
}

// Argument is a function parameter: bound to a function, carries its
// positional index and type.
type Argument struct {
	valueBase
	Fn    *Function
	Index int
	Typ   *Type
	Nm    string
}

func (a *Argument) Type() *Type { return a.Typ }
func (a *Argument) Name() string {
	if a.Nm != "" {
		return a.Nm
	}
	return fmt.Sprintf("arg%d", a.Index)
}

// GlobalValue is a named value external to or defined within the module,
// typically of function type for call targets resolved via the decoder's
// global/method name maps.
type GlobalValue struct {
	valueBase
	Nm      string
	Typ     *Type
	Defined bool
}

func (g *GlobalValue) Type() *Type  { return g.Typ }
func (g *GlobalValue) Name() string { return g.Nm }
