package ir

import (
	"fmt"
	"strings"
)

// TypeKind tags the closed set of primitive and reference types used to
// label SSA values. There is no subtyping; any widens everything at the
// IR level and conversion between kinds is explicit via cast instructions.
type TypeKind int

const (
	KVoid TypeKind = iota
	KI32
	KI64
	KF32
	KF64
	KBool
	KAny
	KObject
	KString
	KLabel
	KArray
	KPointer
	KFunction
	KStruct
)

func (k TypeKind) String() string {
	switch k {
	case KVoid:
		return "void"
	case KI32:
		return "i32"
	case KI64:
		return "i64"
	case KF32:
		return "f32"
	case KF64:
		return "f64"
	case KBool:
		return "bool"
	case KAny:
		return "any"
	case KObject:
		return "object"
	case KString:
		return "string"
	case KLabel:
		return "label"
	case KArray:
		return "array"
	case KPointer:
		return "pointer"
	case KFunction:
		return "function"
	case KStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// StructField is one named member of a struct(name, [fields]) type.
type StructField struct {
	Name string
	Type *Type
}

// Type is the closed tagged union from the data model: a primitive kind,
// or one of the parameterized variants (array, pointer, function, struct).
// Values are compared with Equals, never with ==, since the parameterized
// variants are allocated per use.
type Type struct {
	Kind TypeKind

	Elem *Type // array(T), pointer(T): element type

	Ret    *Type   // function(ret, [params]): return type
	Params []*Type // function(ret, [params]): parameter types

	Name   string        // struct(name, [fields]): struct name
	Fields []StructField // struct(name, [fields]): fields
}

func Void() *Type     { return &Type{Kind: KVoid} }
func I32() *Type      { return &Type{Kind: KI32} }
func I64() *Type      { return &Type{Kind: KI64} }
func F32() *Type      { return &Type{Kind: KF32} }
func F64() *Type      { return &Type{Kind: KF64} }
func Bool() *Type     { return &Type{Kind: KBool} }
func Any() *Type      { return &Type{Kind: KAny} }
func Object() *Type   { return &Type{Kind: KObject} }
func StringT() *Type  { return &Type{Kind: KString} }
func LabelT() *Type   { return &Type{Kind: KLabel} }

func ArrayOf(elem *Type) *Type   { return &Type{Kind: KArray, Elem: elem} }
func PointerTo(elem *Type) *Type { return &Type{Kind: KPointer, Elem: elem} }

func FunctionType(ret *Type, params []*Type) *Type {
	return &Type{Kind: KFunction, Ret: ret, Params: params}
}

func StructType(name string, fields []StructField) *Type {
	return &Type{Kind: KStruct, Name: name, Fields: fields}
}

// Equals is structural equality over the closed type union.
func (t *Type) Equals(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KArray, KPointer:
		return t.Elem.Equals(o.Elem)
	case KFunction:
		if !t.Ret.Equals(o.Ret) || len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equals(o.Params[i]) {
				return false
			}
		}
		return true
	case KStruct:
		if t.Name != o.Name || len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equals(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) IsInteger() bool  { return t != nil && (t.Kind == KI32 || t.Kind == KI64) }
func (t *Type) IsFloating() bool { return t != nil && (t.Kind == KF32 || t.Kind == KF64) }
func (t *Type) IsNumeric() bool  { return t.IsInteger() || t.IsFloating() }
func (t *Type) IsReference() bool {
	return t != nil && (t.Kind == KObject || t.Kind == KArray || t.Kind == KPointer || t.Kind == KString)
}
func (t *Type) IsPointer() bool  { return t != nil && t.Kind == KPointer }
func (t *Type) IsArray() bool    { return t != nil && t.Kind == KArray }
func (t *Type) IsFunction() bool { return t != nil && t.Kind == KFunction }
func (t *Type) IsVoid() bool     { return t != nil && t.Kind == KVoid }
func (t *Type) IsBool() bool     { return t != nil && t.Kind == KBool }

// BitWidth returns 0 for void/label/reference-like kinds and the natural
// width for numerics; pointers report the abstract machine's pointer size.
func (t *Type) BitWidth() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KI32, KF32:
		return 32
	case KI64, KF64:
		return 64
	case KBool:
		return 1
	case KPointer:
		return 64
	default:
		return 0
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KArray:
		return fmt.Sprintf("array(%s)", t.Elem)
	case KPointer:
		return fmt.Sprintf("pointer(%s)", t.Elem)
	case KFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("function(%s, [%s])", t.Ret, strings.Join(parts, ", "))
	case KStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		return fmt.Sprintf("struct(%s, [%s])", t.Name, strings.Join(parts, ", "))
	default:
		return t.Kind.String()
	}
}
