package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

// TestLICMDoesNotHoistThrowingInstructionByDefault is the direct
// regression for the hoist guard: get_property is pure but may throw, and
// §4.8's LICM postcondition says it must never be hoisted by default.
func TestLICMDoesNotHoistThrowingInstructionByDefault(t *testing.T) {
	_, f, b := newTestFunction("loop", ir.Void())
	obj := f.AddParam("obj", ir.Object())
	cont := f.AddParam("cont", ir.Bool())

	entry := f.Entry()
	header := f.CreateBlock("header")
	exit := f.CreateBlock("exit")

	b.SetBlock(entry)
	_, err := b.BuildBr(header)
	require.NoError(t, err)

	key := ir.NewStringConst("x")
	b.SetBlock(header)
	t1 := b.BuildGetProperty(obj, key)
	b.BuildSetProperty(obj, ir.NewStringConst("y"), t1)
	_, err = b.BuildBrCond(cont, header, exit)
	require.NoError(t, err)

	b.SetBlock(exit)
	_, err = b.BuildRet(nil)
	require.NoError(t, err)

	require.Empty(t, f.Verify())
	require.True(t, t1.IsPure())
	require.True(t, t1.MayThrow())

	am := NewAnalysisManager(f)
	loop := am.Loops().Loops[0]

	out, err := (LoopInvariantCodeMotion{}).RunLoop(f, loop, am)
	require.NoError(t, err)
	assert.False(t, out.Modified, "a may-throw instruction must never be hoisted with no PurityOverride")

	found := false
	for _, inst := range header.Instrs {
		if inst == t1 {
			found = true
		}
	}
	assert.True(t, found, "get_property must remain in the loop header")
}

// TestLICMPurityOverrideOptsInThrowingInstruction checks the escape
// hatch: a caller-supplied PurityOverride that accepts get_property lets
// LICM hoist it, but only it — an instruction PurityOverride rejects
// (here, nothing else qualifies) stays put.
func TestLICMPurityOverrideOptsInThrowingInstruction(t *testing.T) {
	_, f, b := newTestFunction("loop", ir.Void())
	obj := f.AddParam("obj", ir.Object())
	cont := f.AddParam("cont", ir.Bool())

	entry := f.Entry()
	header := f.CreateBlock("header")
	exit := f.CreateBlock("exit")

	b.SetBlock(entry)
	_, err := b.BuildBr(header)
	require.NoError(t, err)

	key := ir.NewStringConst("x")
	b.SetBlock(header)
	t1 := b.BuildGetProperty(obj, key)
	b.BuildSetProperty(obj, ir.NewStringConst("y"), t1)
	_, err = b.BuildBrCond(cont, header, exit)
	require.NoError(t, err)

	b.SetBlock(exit)
	_, err = b.BuildRet(nil)
	require.NoError(t, err)

	am := NewAnalysisManager(f)
	loop := am.Loops().Loops[0]

	licm := LoopInvariantCodeMotion{
		PurityOverride: func(inst *ir.Instr) bool { return inst.Opcode() == ir.OpGetProperty },
	}
	out, err := licm.RunLoop(f, loop, am)
	require.NoError(t, err)
	assert.True(t, out.Modified)

	for _, inst := range header.Instrs {
		assert.NotEqual(t, t1, inst, "get_property must be hoisted once PurityOverride accepts it")
	}
	assert.Equal(t, entry, t1.Block(), "with a single entering edge, entry itself is reused as the pre-header")
}

// TestLICMNeverHoistsIdentityCreatingInstruction is the direct regression
// for the identity-exclusion fix: create_empty_object has zero operands
// (trivially "invariant") and is marked pure, but must never be hoisted —
// doing so would make every loop iteration share one object — regardless
// of PurityOverride.
func TestLICMNeverHoistsIdentityCreatingInstruction(t *testing.T) {
	_, f, b := newTestFunction("loop", ir.Void())
	cont := f.AddParam("cont", ir.Bool())

	entry := f.Entry()
	header := f.CreateBlock("header")
	exit := f.CreateBlock("exit")

	b.SetBlock(entry)
	_, err := b.BuildBr(header)
	require.NoError(t, err)

	b.SetBlock(header)
	obj := b.BuildCreateEmptyObject()
	b.BuildSetProperty(obj, ir.NewStringConst("k"), ir.NewIntConst(1, ir.I32()))
	_, err = b.BuildBrCond(cont, header, exit)
	require.NoError(t, err)

	b.SetBlock(exit)
	_, err = b.BuildRet(nil)
	require.NoError(t, err)

	require.True(t, obj.IsPure())
	require.True(t, obj.CreatesIdentity())

	am := NewAnalysisManager(f)
	loop := am.Loops().Loops[0]

	licm := LoopInvariantCodeMotion{
		PurityOverride: func(*ir.Instr) bool { return true }, // accept-everything override
	}
	out, err := licm.RunLoop(f, loop, am)
	require.NoError(t, err)
	assert.False(t, out.Modified, "create_empty_object must never be hoisted, even with an all-accepting PurityOverride")

	found := false
	for _, inst := range header.Instrs {
		if inst == obj {
			found = true
		}
	}
	assert.True(t, found, "create_empty_object must remain in the loop body so each iteration allocates its own object")
}

// TestLICMHoistsPureNonThrowingInvariant is the baseline positive case:
// an ordinary pure, non-throwing, non-identity instruction whose operands
// are all loop-invariant is hoisted with no override needed.
func TestLICMHoistsPureNonThrowingInvariant(t *testing.T) {
	m, f, b := newTestFunction("loop", ir.Void())
	x := f.AddParam("x", ir.I32())
	cont := f.AddParam("cont", ir.Bool())

	entry := f.Entry()
	header := f.CreateBlock("header")
	exit := f.CreateBlock("exit")

	b.SetBlock(entry)
	_, err := b.BuildBr(header)
	require.NoError(t, err)

	b.SetBlock(header)
	invariant := b.BuildAdd(x, intC(m, 1, ir.I32()))
	_ = invariant
	_, err = b.BuildBrCond(cont, header, exit)
	require.NoError(t, err)

	b.SetBlock(exit)
	_, err = b.BuildRet(nil)
	require.NoError(t, err)

	am := NewAnalysisManager(f)
	loop := am.Loops().Loops[0]

	out, err := (LoopInvariantCodeMotion{}).RunLoop(f, loop, am)
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Equal(t, entry, invariant.Block())

	for _, inst := range header.Instrs {
		assert.NotEqual(t, invariant, inst)
	}
}
