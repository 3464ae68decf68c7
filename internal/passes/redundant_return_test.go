package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

func runRedundantReturn(t *testing.T, f *ir.Function) Outcome {
	t.Helper()
	out, err := RedundantReturnElimination{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	return out
}

// TestRedundantReturnSinksJumpIntoReturn checks that a block which only
// jumps to a plain-return block gets the jump replaced by the return
// directly, leaving the old return block unreachable for SimplifyCFG to
// drop.
func TestRedundantReturnSinksJumpIntoReturn(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	entry := f.Entry()
	tail := f.CreateBlock("tail")

	b.SetBlock(entry)
	_, err := b.BuildBr(tail)
	require.NoError(t, err)

	b.SetBlock(tail)
	_, err = b.BuildRet(intC(m, 7, ir.I32()))
	require.NoError(t, err)

	out := runRedundantReturn(t, f)
	assert.True(t, out.Modified)

	entryTerm := entry.Terminator()
	require.NotNil(t, entryTerm)
	assert.Equal(t, ir.OpRet, entryTerm.Opcode())
	cst, ok := soleConstOperand(entryTerm)
	require.True(t, ok)
	assert.Equal(t, int64(7), cst.IntVal)

	preds := tail.Predecessors()
	assert.Empty(t, preds, "tail's sole predecessor edge was removed when the jump sank into a return")
}

// TestRedundantReturnMergesEquivalentTails builds an if/else where each
// arm jumps to its own plain `ret 0` block. sinkJumpToReturn first turns
// each arm into a plain `ret 0` itself; the tail-merge step then folds
// the else arm into the then arm: entry's else edge is retargeted to then
// and the duplicate else block is dropped.
func TestRedundantReturnMergesEquivalentTails(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	cond := f.AddParam("cond", ir.Bool())
	entry := f.Entry()
	thenBB := f.CreateBlock("then")
	elseBB := f.CreateBlock("else")
	tailA := f.CreateBlock("tailA")
	tailB := f.CreateBlock("tailB")

	b.SetBlock(entry)
	_, err := b.BuildBrCond(cond, thenBB, elseBB)
	require.NoError(t, err)

	b.SetBlock(thenBB)
	_, err = b.BuildBr(tailA)
	require.NoError(t, err)

	b.SetBlock(elseBB)
	_, err = b.BuildBr(tailB)
	require.NoError(t, err)

	b.SetBlock(tailA)
	_, err = b.BuildRet(intC(m, 0, ir.I32()))
	require.NoError(t, err)

	b.SetBlock(tailB)
	_, err = b.BuildRet(intC(m, 0, ir.I32()))
	require.NoError(t, err)

	out := runRedundantReturn(t, f)
	assert.True(t, out.Modified)

	entryTerm := entry.Terminator()
	require.NotNil(t, entryTerm)
	assert.Equal(t, ir.OpBrCond, entryTerm.Opcode())
	assert.Equal(t, thenBB, entryTerm.Targets[1], "entry's else edge must now lead straight to then's equivalent return")

	for _, bb := range f.Blocks {
		assert.NotEqual(t, elseBB, bb, "else must have been dropped as a duplicate return tail")
	}
}

// TestRedundantReturnLeavesDistinctReturnsAlone checks that two plain
// return blocks returning different values are both kept.
func TestRedundantReturnLeavesDistinctReturnsAlone(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	cond := f.AddParam("cond", ir.Bool())
	entry := f.Entry()
	thenBB := f.CreateBlock("then")
	elseBB := f.CreateBlock("else")

	b.SetBlock(entry)
	_, err := b.BuildBrCond(cond, thenBB, elseBB)
	require.NoError(t, err)

	b.SetBlock(thenBB)
	_, err = b.BuildRet(intC(m, 1, ir.I32()))
	require.NoError(t, err)

	b.SetBlock(elseBB)
	_, err = b.BuildRet(intC(m, 2, ir.I32()))
	require.NoError(t, err)

	out := runRedundantReturn(t, f)
	assert.False(t, out.Modified)
	assert.Len(t, f.Blocks, 3)
}

// TestRedundantReturnIdempotent checks a second run against the merged
// output finds nothing further to simplify.
func TestRedundantReturnIdempotent(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	entry := f.Entry()
	tail := f.CreateBlock("tail")

	b.SetBlock(entry)
	_, err := b.BuildBr(tail)
	require.NoError(t, err)

	b.SetBlock(tail)
	_, err = b.BuildRet(intC(m, 3, ir.I32()))
	require.NoError(t, err)

	first := runRedundantReturn(t, f)
	require.True(t, first.Modified)

	second := runRedundantReturn(t, f)
	assert.False(t, second.Modified)
}
