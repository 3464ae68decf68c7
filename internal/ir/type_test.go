package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeEquals(t *testing.T) {
	assert.True(t, I32().Equals(I32()))
	assert.False(t, I32().Equals(I64()))
	assert.True(t, ArrayOf(I32()).Equals(ArrayOf(I32())))
	assert.False(t, ArrayOf(I32()).Equals(ArrayOf(I64())))
	assert.True(t, PointerTo(Bool()).Equals(PointerTo(Bool())))

	fn1 := FunctionType(I32(), []*Type{I32(), Bool()})
	fn2 := FunctionType(I32(), []*Type{I32(), Bool()})
	fn3 := FunctionType(I32(), []*Type{I32()})
	assert.True(t, fn1.Equals(fn2))
	assert.False(t, fn1.Equals(fn3))

	st1 := StructType("Point", []StructField{{Name: "x", Type: I32()}, {Name: "y", Type: I32()}})
	st2 := StructType("Point", []StructField{{Name: "x", Type: I32()}, {Name: "y", Type: I32()}})
	st3 := StructType("Point", []StructField{{Name: "x", Type: I32()}})
	assert.True(t, st1.Equals(st2))
	assert.False(t, st1.Equals(st3))
}

func TestTypeBitWidth(t *testing.T) {
	assert.Equal(t, 32, I32().BitWidth())
	assert.Equal(t, 64, I64().BitWidth())
	assert.Equal(t, 32, F32().BitWidth())
	assert.Equal(t, 64, F64().BitWidth())
	assert.Equal(t, 1, Bool().BitWidth())
	assert.Equal(t, 64, PointerTo(I32()).BitWidth())
	assert.Equal(t, 0, Void().BitWidth())
	assert.Equal(t, 0, StringT().BitWidth())
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, I32().IsInteger())
	assert.True(t, F64().IsFloating())
	assert.True(t, I32().IsNumeric())
	assert.True(t, ArrayOf(I32()).IsReference())
	assert.True(t, PointerTo(I32()).IsPointer())
	assert.True(t, Void().IsVoid())
	assert.True(t, Bool().IsBool())
	assert.False(t, I32().IsVoid())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "i32", I32().String())
	assert.Equal(t, "array(i32)", ArrayOf(I32()).String())
	assert.Equal(t, "pointer(bool)", PointerTo(Bool()).String())
	assert.Equal(t, "function(i32, [i32, bool])", FunctionType(I32(), []*Type{I32(), Bool()}).String())
	assert.Equal(t, "struct(Point, [x: i32, y: i32])",
		StructType("Point", []StructField{{Name: "x", Type: I32()}, {Name: "y", Type: I32()}}).String())
}
