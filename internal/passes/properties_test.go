package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

// allFunctionPasses lists every registered FunctionPass the idempotence
// property (§8: "running a pass twice in a row reports modified=false on
// the second run") is checked against.
func allFunctionPasses() []FunctionPass {
	return []FunctionPass{
		ConstantFolding{},
		ConstantPropagation{},
		RedundantCopyElimination{},
		AggressiveDeadCodeElimination{},
		DeadCodeElimination{},
		BranchFolding{},
		SimplifyCFG{},
		GlobalValueNumbering{},
		TypePropagation{},
		VariableReconstruction{},
		CompoundAssignment{},
		RedundantReturnElimination{},
	}
}

// buildIdempotenceFixture returns a small function with a constant-fold
// opportunity, a copy, a dead computation and an add on the copied value;
// not every pass in allFunctionPasses finds something to rewrite in it.
func buildIdempotenceFixture(t *testing.T) *ir.Function {
	t.Helper()
	m, f, b := newTestFunction("fixture", ir.I32())
	x := f.AddParam("x", ir.I32())

	cst := b.BuildAdd(intC(m, 2, ir.I32()), intC(m, 3, ir.I32()))
	cp := b.BuildCopy(cst)
	upd := b.BuildAdd(cp, intC(m, 1, ir.I32()))

	// A leaf pure instruction with no instruction operands: erasing it
	// as dead cannot cascade into a further dead instruction, so a
	// single DCE sweep and the iterate-to-convergence ADCE sweep agree.
	b.BuildMul(x, x)

	_, err := b.BuildRet(upd)
	require.NoError(t, err)
	return f
}

// TestFunctionPassIdempotence checks, for every registered FunctionPass,
// that running it a second time against its own output reports
// modified=false: each pass's rewrite reaches a fixed point in one
// RunFunction call.
func TestFunctionPassIdempotence(t *testing.T) {
	for _, p := range allFunctionPasses() {
		p := p
		t.Run(p.Name(), func(t *testing.T) {
			f := buildIdempotenceFixture(t)
			am := NewAnalysisManager(f)
			_, err := p.RunFunction(f, am)
			require.NoError(t, err)
			am.Invalidate(p.Invalidates())

			out, err := p.RunFunction(f, am)
			require.NoError(t, err)
			assert.False(t, out.Modified, "%s should report modified=false on its second consecutive run", p.Name())
		})
	}
}

// TestAggressiveDCEMonotonicity checks ADCE's monotonicity property: the
// instruction count after a run never exceeds the count before it, and a
// second run against already-minimized IR changes nothing further.
func TestAggressiveDCEMonotonicity(t *testing.T) {
	m, f, b := newTestFunction("mono", ir.I32())
	x := f.AddParam("x", ir.I32())
	a := b.BuildMul(x, x)
	bb := b.BuildAdd(a, intC(m, 1, ir.I32()))
	_ = bb
	c := b.BuildAdd(x, intC(m, 2, ir.I32()))
	_, err := b.BuildRet(c)
	require.NoError(t, err)

	before := len(f.Entry().Instrs)
	out, err := AggressiveDeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	after := len(f.Entry().Instrs)
	assert.LessOrEqual(t, after, before)
	assert.True(t, out.Modified)

	out2, err := AggressiveDeadCodeElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.False(t, out2.Modified)
	assert.Equal(t, after, len(f.Entry().Instrs))
}

// TestSimplifyCFGPreservesReachability builds a function with one dead
// block (unreachable from entry) alongside a live diamond join that
// SimplifyCFG must keep intact (merging it would require dropping a PHI
// operand), and checks that reachability is preserved: the unreachable
// block is gone, every surviving block was reachable before the run, and
// the function still verifies.
func TestSimplifyCFGPreservesReachability(t *testing.T) {
	_, f, b := newTestFunction("reach", ir.I32())
	entry := f.Entry()
	thenBB := f.CreateBlock("then")
	elseBB := f.CreateBlock("else")
	mergeBB := f.CreateBlock("merge")
	dead := f.CreateBlock("dead")

	cond := f.AddParam("cond", ir.Bool())
	a := f.AddParam("a", ir.I32())
	c := f.AddParam("c", ir.I32())

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
	phi.AddIncoming(a, thenBB)
	phi.AddIncoming(c, elseBB)
	_, err = b.BuildRet(phi)
	require.NoError(t, err)

	b.SetBlock(dead)
	_, err = b.BuildRet(nil)
	require.NoError(t, err)

	reachBefore := reachableBlocks(f)
	require.True(t, reachBefore[entry])
	require.True(t, reachBefore[thenBB])
	require.True(t, reachBefore[elseBB])
	require.True(t, reachBefore[mergeBB])
	require.False(t, reachBefore[dead])

	out, err := SimplifyCFG{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.True(t, out.Modified)

	for _, bb := range f.Blocks {
		assert.True(t, reachBefore[bb], "block %s present after SimplifyCFG was not reachable before it", bb.Label)
		assert.NotEqual(t, dead, bb)
	}
	assert.Empty(t, f.Verify())
}

// TestGVNPreservesCongruence builds two structurally identical pure
// additions in a straight-line function and checks that after GVN the
// second is replaced by the first (the two are congruent and the first
// dominates the second), while a third add with different operands
// survives untouched.
func TestGVNPreservesCongruence(t *testing.T) {
	m, f, b := newTestFunction("gvn", ir.I32())
	x := f.AddParam("x", ir.I32())
	y := f.AddParam("y", ir.I32())

	first := b.BuildAdd(x, y)
	second := b.BuildAdd(x, y)
	distinct := b.BuildAdd(x, intC(m, 1, ir.I32()))
	sum := b.BuildAdd(first, distinct)
	_, err := b.BuildRet(sum)
	require.NoError(t, err)

	secondUser := b.BuildCopy(second)

	out, err := GlobalValueNumbering{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	assert.True(t, out.Modified)

	require.Equal(t, 1, secondUser.OperandCount())
	assert.Equal(t, first, secondUser.Operand(0), "the congruent second add must be replaced by the dominating first")
	assert.Nil(t, second.Block(), "the replaced instruction must be erased")

	require.NotNil(t, distinct.Block(), "an add with different operands is not congruent and must survive")
}
