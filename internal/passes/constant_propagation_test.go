package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

func runConstantPropagation(t *testing.T, f *ir.Function) Outcome {
	t.Helper()
	out, err := ConstantPropagation{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	return out
}

// TestConstantPropagationProvesPhiConstantFromAgreeingIncoming is the
// core case ConstantFolding cannot handle: an if/else PHI whose two
// incoming values are both constant 7 (by different paths, neither
// syntactically visible to the other) is proven constant by the lattice
// and replaced everywhere it's used.
func TestConstantPropagationProvesPhiConstantFromAgreeingIncoming(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	cond := f.AddParam("cond", ir.Bool())
	entry := f.Entry()
	thenBB := f.CreateBlock("then")
	elseBB := f.CreateBlock("else")
	mergeBB := f.CreateBlock("merge")

	b.SetBlock(entry)
	_, err := b.BuildBrCond(cond, thenBB, elseBB)
	require.NoError(t, err)

	b.SetBlock(thenBB)
	left := b.BuildAdd(intC(m, 3, ir.I32()), intC(m, 4, ir.I32()))
	_, err = b.BuildBr(mergeBB)
	require.NoError(t, err)

	b.SetBlock(elseBB)
	right := b.BuildMul(intC(m, 7, ir.I32()), intC(m, 1, ir.I32()))
	_, err = b.BuildBr(mergeBB)
	require.NoError(t, err)

	b.SetBlock(mergeBB)
	phi := b.BuildPhi(ir.I32())
	phi.AddIncoming(left, thenBB)
	phi.AddIncoming(right, elseBB)
	_, err = b.BuildRet(phi)
	require.NoError(t, err)

	out := runConstantPropagation(t, f)
	assert.True(t, out.Modified)

	ret := mergeBB.Instrs[len(mergeBB.Instrs)-1]
	cst, ok := soleConstOperand(ret)
	require.True(t, ok, "the phi must have been replaced by a constant operand on ret")
	assert.Equal(t, int64(7), cst.IntVal)
}

// TestConstantPropagationLeavesDisagreeingPhiAlone checks that a PHI
// whose incoming values are constants that disagree goes to bottom and
// is left as a real PHI.
func TestConstantPropagationLeavesDisagreeingPhiAlone(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	cond := f.AddParam("cond", ir.Bool())
	entry := f.Entry()
	thenBB := f.CreateBlock("then")
	elseBB := f.CreateBlock("else")
	mergeBB := f.CreateBlock("merge")

	b.SetBlock(entry)
	_, err := b.BuildBrCond(cond, thenBB, elseBB)
	require.NoError(t, err)

	b.SetBlock(thenBB)
	_, err = b.BuildBr(mergeBB)
	require.NoError(t, err)

	b.SetBlock(elseBB)
	_, err = b.BuildBr(mergeBB)
	require.NoError(t, err)

	b.SetBlock(mergeBB)
	phi := b.BuildPhi(ir.I32())
	phi.AddIncoming(intC(m, 1, ir.I32()), thenBB)
	phi.AddIncoming(intC(m, 2, ir.I32()), elseBB)
	_, err = b.BuildRet(phi)
	require.NoError(t, err)

	out := runConstantPropagation(t, f)
	assert.False(t, out.Modified)
	require.NotNil(t, phi.Block())
}

// TestConstantPropagationLeavesNonConstantArgumentAlone checks that an
// add depending on a function argument (never constant) goes to bottom
// and survives untouched.
func TestConstantPropagationLeavesNonConstantArgumentAlone(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	sum := b.BuildAdd(x, intC(m, 1, ir.I32()))
	_, err := b.BuildRet(sum)
	require.NoError(t, err)

	out := runConstantPropagation(t, f)
	assert.False(t, out.Modified)
	assert.NotNil(t, sum.Block())
}

// TestConstantPropagationIdempotent checks that a second run against the
// already-propagated output makes no further change.
func TestConstantPropagationIdempotent(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	sum := b.BuildAdd(intC(m, 2, ir.I32()), intC(m, 3, ir.I32()))
	_, err := b.BuildRet(sum)
	require.NoError(t, err)

	first := runConstantPropagation(t, f)
	require.True(t, first.Modified)

	second := runConstantPropagation(t, f)
	assert.False(t, second.Modified)
}
