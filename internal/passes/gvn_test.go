package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

// TestGVNDoesNotMergeIdentityCreatingInstructions is the direct
// regression for excluding alloca/create_empty_object/create_empty_array
// from congruence classes: two zero-operand create_empty_object calls
// are structurally indistinguishable by ir.StructurallyEqual, but each
// allocates a fresh, non-interchangeable object and must survive GVN as
// two separate instructions.
func TestGVNDoesNotMergeIdentityCreatingInstructions(t *testing.T) {
	_, f, b := newTestFunction("f", ir.Object())
	first := b.BuildCreateEmptyObject()
	second := b.BuildCreateEmptyObject()
	b.BuildSetProperty(first, ir.NewStringConst("k"), ir.NewIntConst(1, ir.I32()))
	b.BuildSetProperty(second, ir.NewStringConst("k"), ir.NewIntConst(2, ir.I32()))
	_, err := b.BuildRet(second)
	require.NoError(t, err)

	require.True(t, ir.StructurallyEqual(first, second), "the two allocations are structurally indistinguishable by opcode/type/operands")

	out, err := GlobalValueNumbering{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.False(t, out.Modified, "GVN must not merge two independent create_empty_object allocations")

	require.NotNil(t, first.Block())
	require.NotNil(t, second.Block())
	assert.NotEqual(t, first, second)
}

// TestGVNDoesNotMergeAllocaInstructions is the alloca analog of the same
// regression: two alloca(i32) instructions are structurally identical
// but must remain distinct stack slots.
func TestGVNDoesNotMergeAllocaInstructions(t *testing.T) {
	_, f, b := newTestFunction("f", ir.Void())
	first := b.BuildAlloca(ir.I32())
	second := b.BuildAlloca(ir.I32())
	b.BuildStore(ir.NewIntConst(1, ir.I32()), first)
	b.BuildStore(ir.NewIntConst(2, ir.I32()), second)
	_, err := b.BuildRet(nil)
	require.NoError(t, err)

	out, err := GlobalValueNumbering{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.False(t, out.Modified, "GVN must not merge two independent alloca slots")
	require.NotNil(t, first.Block())
	require.NotNil(t, second.Block())
}
