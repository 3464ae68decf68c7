package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStreamSimpleArithmetic(t *testing.T) {
	raw := concat(
		instrBytes(OpLdaI, i32b(1)),
		instrBytes(OpSta, u16b(0)),
		instrBytes(OpLda, u16b(0)),
		instrBytes(OpReturn),
	)

	stream, faults := decodeStream(raw)
	require.Empty(t, faults)
	require.Len(t, stream, 4)

	assert.Equal(t, OpLdaI, stream[0].Op)
	assert.EqualValues(t, 1, stream[0].IntImm)
	assert.Equal(t, 0, stream[0].Offset)

	assert.Equal(t, OpSta, stream[1].Op)
	assert.Equal(t, 0, stream[1].Reg1)
	assert.Equal(t, 5, stream[1].Offset)

	assert.Equal(t, OpLda, stream[2].Op)
	assert.Equal(t, OpReturn, stream[3].Op)
}

func TestDecodeStreamFloatImmediate(t *testing.T) {
	raw := instrBytes(OpFLdaI, f64b(3.5))
	stream, faults := decodeStream(raw)
	require.Empty(t, faults)
	require.Len(t, stream, 1)
	assert.InDelta(t, 3.5, stream[0].FltImm, 1e-9)
}

func TestDecodeStreamCallWithArgs(t *testing.T) {
	raw := instrBytes(OpCall, u16b(7), u8b(2), u16b(0), u16b(1))
	stream, faults := decodeStream(raw)
	require.Empty(t, faults)
	require.Len(t, stream, 1)
	assert.Equal(t, 7, stream[0].StrID)
	assert.Equal(t, []int{0, 1}, stream[0].Args)
}

func TestDecodeStreamUnknownOpcode(t *testing.T) {
	_, faults := decodeStream([]byte{0xFE})
	require.NotEmpty(t, faults)
	assert.Equal(t, "L0001", string(faults[0].Code))
}

func TestDecodeStreamTruncatedOperand(t *testing.T) {
	_, faults := decodeStream([]byte{byte(OpLdaI), 0x01})
	require.NotEmpty(t, faults)
	assert.Equal(t, "L0006", string(faults[0].Code))
}
