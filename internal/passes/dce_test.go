package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

// TestDeadCodeEliminationRemovesUnusedPureInstruction checks the baseline
// single-sweep removal: a pure instruction with no users is erased.
func TestDeadCodeEliminationRemovesUnusedPureInstruction(t *testing.T) {
	_, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	dead := b.BuildMul(x, x)
	_, err := b.BuildRet(x)
	require.NoError(t, err)

	out, err := DeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Nil(t, dead.Block())
}

// TestDeadCodeEliminationLeavesUsedInstructionAlone checks that an
// instruction with at least one user survives.
func TestDeadCodeEliminationLeavesUsedInstructionAlone(t *testing.T) {
	_, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	used := b.BuildMul(x, x)
	_, err := b.BuildRet(used)
	require.NoError(t, err)

	out, err := DeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.False(t, out.Modified)
	assert.NotNil(t, used.Block())
}

// TestDeadCodeEliminationLeavesImpureInstructionAlone checks that an
// instruction with a side effect (store) is never erased regardless of
// its user count.
func TestDeadCodeEliminationLeavesImpureInstructionAlone(t *testing.T) {
	_, f, b := newTestFunction("f", ir.Void())
	ptr := b.BuildAlloca(ir.I32())
	store := b.BuildStore(ir.NewIntConst(1, ir.I32()), ptr)
	_, err := b.BuildRet(nil)
	require.NoError(t, err)
	require.False(t, store.IsPure())

	out, err := DeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.False(t, out.Modified)
	assert.NotNil(t, store.Block())
}

// TestDeadCodeEliminationDoesNotCascadeInASingleSweep is the direct
// regression for DCE's documented single-sweep (non-transitive)
// semantics: u1 becomes dead only once u2 is erased within the same
// sweep, and since u1 is visited earlier in instruction order than u2, a
// single RunFunction call does NOT remove u1 — a second call is needed.
// This is what distinguishes DeadCodeElimination from
// AggressiveDeadCodeElimination.
func TestDeadCodeEliminationDoesNotCascadeInASingleSweep(t *testing.T) {
	_, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	u1 := b.BuildMul(x, x)
	u2 := b.BuildAdd(u1, x) // u1's only user; u2 itself is unused
	_, err := b.BuildRet(x)
	require.NoError(t, err)

	out, err := DeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Nil(t, u2.Block(), "u2 has zero users and is erased in this sweep")
	assert.NotNil(t, u1.Block(), "u1 still had a user (u2) when this sweep visited it")

	out2, err := DeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.True(t, out2.Modified, "a second sweep now finds u1 dead, since u2 is gone")
	assert.Nil(t, u1.Block())
}
