package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVerifyFault(t *testing.T) {
	f := NewVerifyError(VerifyPHIArityMismatch, "phi has 1 incoming value but block has 2 predecessors").
		WithFunction("max").
		WithBlock("merge").
		WithInstruction(0).
		WithHelp("add one (value, predecessor) pair per predecessor").
		Build()

	reporter := NewReporter()
	formatted := reporter.Format(f)

	assert.Contains(t, formatted, "error["+string(VerifyPHIArityMismatch)+"]")
	assert.Contains(t, formatted, "phi has 1 incoming value")
	assert.Contains(t, formatted, "function max")
	assert.Contains(t, formatted, "block merge")
	assert.Contains(t, formatted, "instruction #0")
	assert.Contains(t, formatted, "add one (value, predecessor) pair")
}

func TestFormatPassFault(t *testing.T) {
	f := NewPassError(PassInvariantBroken, "ConstantFolding", "folded instruction retained stale users").
		WithFunction("f").
		Build()

	reporter := NewReporter()
	formatted := reporter.Format(f)

	assert.Contains(t, formatted, string(PassInvariantBroken))
	assert.Contains(t, formatted, "pass: ConstantFolding")
}

func TestFormatDecodeFault(t *testing.T) {
	cause := assert.AnError
	f := NewDecodeError("malformed method record", cause).Build()

	reporter := NewReporter()
	formatted := reporter.Format(f)

	assert.Contains(t, formatted, string(DecodeUpstream))
	assert.Contains(t, formatted, "cause: "+cause.Error())
}

func TestCategoryAndDescribe(t *testing.T) {
	assert.Equal(t, "Verify", Category(VerifyPHIArityMismatch))
	assert.Equal(t, "Lowering", Category(LoweringUnknownOpcode))
	assert.Equal(t, "Pass", Category(PassInvariantBroken))
	assert.Equal(t, "Decode", Category(DecodeUpstream))
	assert.NotEqual(t, "unknown error code", Describe(VerifyPHIArityMismatch))
}

func TestFormatAllOrdersFaults(t *testing.T) {
	faults := []*CompilerFault{
		NewVerifyError(VerifyMissingTerminator, "block has no terminator").WithBlock("bb0").Build(),
		NewVerifyError(VerifySSAViolated, "value defined twice").WithBlock("bb1").Build(),
	}
	reporter := NewReporter()
	formatted := reporter.FormatAll(faults)
	assert.Contains(t, formatted, "bb0")
	assert.Contains(t, formatted, "bb1")
}
