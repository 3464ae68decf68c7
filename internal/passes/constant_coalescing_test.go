package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

// TestConstantCoalescingMergesDuplicateConstants builds two structurally
// identical constants directly (bypassing the builder's own interning) and
// checks that ConstantCoalescing rewrites the second instruction's operand
// to the module's canonical representative for that value.
func TestConstantCoalescingMergesDuplicateConstants(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())

	first := ir.NewIntConst(5, ir.I32())
	second := ir.NewIntConst(5, ir.I32())
	require.NotSame(t, first, second, "the two constants must be distinct, unshared objects before coalescing")

	lhs := b.BuildAdd(x, first)
	rhs := b.BuildAdd(x, second)
	sum := b.BuildAdd(lhs, rhs)
	_, err := b.BuildRet(sum)
	require.NoError(t, err)

	out, err := ConstantCoalescing{}.RunModule(m)
	require.NoError(t, err)
	assert.True(t, out.Modified)

	canon, ok := lhs.Operand(1).(*ir.Constant)
	require.True(t, ok)
	assert.Same(t, canon, rhs.Operand(1), "both operands must now point at the same canonical constant")
}

// TestConstantCoalescingSpansFunctions checks the module-wide scope: two
// separate functions each holding their own unshared copy of the same
// constant value are coalesced to a single shared representative.
func TestConstantCoalescingSpansFunctions(t *testing.T) {
	m := ir.NewModule("test")
	fOne := m.CreateFunction("one", ir.I32())
	fTwo := m.CreateFunction("two", ir.I32())

	b := ir.NewBuilder()
	b.SetFunction(fOne)
	entryOne := fOne.CreateBlock("entry")
	b.SetBlock(entryOne)
	cOne := ir.NewStringConst("shared")
	retOne, err := b.BuildRet(cOne)
	require.NoError(t, err)

	b.SetFunction(fTwo)
	entryTwo := fTwo.CreateBlock("entry")
	b.SetBlock(entryTwo)
	cTwo := ir.NewStringConst("shared")
	retTwo, err := b.BuildRet(cTwo)
	require.NoError(t, err)

	require.NotSame(t, cOne, cTwo)

	out, err := ConstantCoalescing{}.RunModule(m)
	require.NoError(t, err)
	assert.True(t, out.Modified)

	canon, ok := retOne.Operand(0).(*ir.Constant)
	require.True(t, ok)
	assert.Same(t, canon, retTwo.Operand(0))
}

// TestConstantCoalescingIdempotent checks that a second run, once every
// constant already shares its canonical representative, reports no
// further changes.
func TestConstantCoalescingIdempotent(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	lhs := b.BuildAdd(x, ir.NewIntConst(1, ir.I32()))
	rhs := b.BuildAdd(x, ir.NewIntConst(1, ir.I32()))
	sum := b.BuildAdd(lhs, rhs)
	_, err := b.BuildRet(sum)
	require.NoError(t, err)

	first, err := ConstantCoalescing{}.RunModule(m)
	require.NoError(t, err)
	assert.True(t, first.Modified)

	second, err := ConstantCoalescing{}.RunModule(m)
	require.NoError(t, err)
	assert.False(t, second.Modified)
}

// TestConstantCoalescingLeavesAlreadyCanonicalConstantsAlone checks that
// constants already interned through the builder's own intC-style helper
// are not reported as modified.
func TestConstantCoalescingLeavesAlreadyCanonicalConstantsAlone(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	sum := b.BuildAdd(x, intC(m, 9, ir.I32()))
	_, err := b.BuildRet(sum)
	require.NoError(t, err)

	out, err := ConstantCoalescing{}.RunModule(m)
	require.NoError(t, err)
	assert.False(t, out.Modified)
}
