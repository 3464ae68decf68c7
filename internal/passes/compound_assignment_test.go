package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcssa/internal/ir"
)

func runCompoundAssignment(t *testing.T, f *ir.Function) Outcome {
	t.Helper()
	out, err := CompoundAssignment{}.RunFunction(f, NewAnalysisManager(f))
	require.NoError(t, err)
	return out
}

// TestCompoundAssignmentAnnotatesNamedBase checks that `t = total + c`,
// where total is already a named value, gets compound_base/compound_op
// metadata and, since t itself is still default-named, inherits total's
// display name.
func TestCompoundAssignmentAnnotatesNamedBase(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	total := f.AddParam("total", ir.I32())
	upd := b.BuildAdd(total, intC(m, 1, ir.I32()))
	_, err := b.BuildRet(upd)
	require.NoError(t, err)
	require.True(t, isDefaultNamed(upd))

	out := runCompoundAssignment(t, f)
	assert.True(t, out.Modified)
	assert.Equal(t, "total", upd.Name())

	assert.Equal(t, "total", upd.Meta("compound_base"))
	assert.Equal(t, "+=", upd.Meta("compound_op"))
}

// TestCompoundAssignmentSkipsUnnamedBase checks that an op whose first
// operand has no naming signal (a bare mul result, default-named) is left
// untouched.
func TestCompoundAssignmentSkipsUnnamedBase(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	x := f.AddParam("x", ir.I32())
	squared := b.BuildMul(x, x)
	upd := b.BuildAdd(squared, intC(m, 1, ir.I32()))
	_, err := b.BuildRet(upd)
	require.NoError(t, err)

	out := runCompoundAssignment(t, f)
	assert.False(t, out.Modified)
	assert.Equal(t, "", upd.Meta("compound_base"))
}

// TestCompoundAssignmentDoesNotRenameAlreadyNamedInstruction checks that
// an instruction with its own name keeps it, even though it still gets
// the annotation.
func TestCompoundAssignmentDoesNotRenameAlreadyNamedInstruction(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	total := f.AddParam("total", ir.I32())
	upd := b.BuildAdd(total, intC(m, 5, ir.I32()))
	upd.SetName("next_total")
	_, err := b.BuildRet(upd)
	require.NoError(t, err)

	out := runCompoundAssignment(t, f)
	assert.True(t, out.Modified)
	assert.Equal(t, "next_total", upd.Name())
	assert.Equal(t, "total", upd.Meta("compound_base"))
}

// TestCompoundAssignmentIdempotent checks that a second run, which finds
// the annotation and the inherited name already in place, reports
// modified=false.
func TestCompoundAssignmentIdempotent(t *testing.T) {
	m, f, b := newTestFunction("f", ir.I32())
	total := f.AddParam("total", ir.I32())
	upd := b.BuildAdd(total, intC(m, 1, ir.I32()))
	_, err := b.BuildRet(upd)
	require.NoError(t, err)

	first := runCompoundAssignment(t, f)
	require.True(t, first.Modified)

	second := runCompoundAssignment(t, f)
	assert.False(t, second.Modified, "the annotation and name are already in place, so a second run changes nothing")
	assert.Equal(t, "total", upd.Meta("compound_base"))
}
