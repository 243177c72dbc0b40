package compiler_test

import (
	"encoding/binary"
	"testing"

	"github.com/mna/lumen/lang/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteByteKeepsLineTableInSync(t *testing.T) {
	var c compiler.Chunk
	c.WriteOp(compiler.OpNil, 1)
	c.WriteOp(compiler.OpPop, 1)
	c.WriteConstant(1.0, 2)
	require.Equal(t, len(c.Code), len(c.Lines))
	assert.Equal(t, []int32{1, 1, 2, 2}, c.Lines)
}

func TestWriteConstantShortOperand(t *testing.T) {
	var c compiler.Chunk
	c.WriteConstant(42.0, 1)
	require.Equal(t, compiler.OpConstant, compiler.Opcode(c.Code[0]))
	idx := int(c.Code[1])
	assert.Equal(t, 42.0, c.Constants[idx])
}

func TestWriteConstantLongOperandPastByteRange(t *testing.T) {
	var c compiler.Chunk
	for i := 0; i <= 0xff; i++ {
		c.AddConstant(float64(i))
	}
	c.WriteConstant(12345.0, 7)
	require.Equal(t, compiler.OpConstantLong, compiler.Opcode(c.Code[0]))
	idx := int(binary.NativeEndian.Uint64(c.Code[1:9]))
	assert.Equal(t, 256, idx)
	assert.Equal(t, 12345.0, c.Constants[idx])
	assert.Equal(t, len(c.Code), len(c.Lines))
}

func TestConstantIndexIsStable(t *testing.T) {
	var c compiler.Chunk
	idx := c.AddConstant(1.0)
	c.AddConstant(2.0)
	c.AddConstant(3.0)
	assert.Equal(t, 1.0, c.Constants[idx])
}

func TestEmitAndPatchJumpEncodesBigEndianDelta(t *testing.T) {
	var c compiler.Chunk
	offset := c.EmitJump(compiler.OpJumpIfFalse, 1)
	c.WriteOp(compiler.OpNil, 1)
	c.WriteOp(compiler.OpPop, 1)
	require.NoError(t, c.PatchJump(offset))

	delta := binary.BigEndian.Uint16(c.Code[offset : offset+2])
	// the jump lands just past the two instructions emitted after it.
	assert.Equal(t, uint16(2), delta)
	assert.Equal(t, len(c.Code), offset+2+int(delta))
}

func TestPatchJumpOverflowIsError(t *testing.T) {
	var c compiler.Chunk
	offset := c.EmitJump(compiler.OpJump, 1)
	for i := 0; i < 0x10000; i++ {
		c.WriteOp(compiler.OpNil, 1)
	}
	assert.Error(t, c.PatchJump(offset))
}

func TestEmitLoopDeltaLandsOnLoopStart(t *testing.T) {
	var c compiler.Chunk
	loopStart := len(c.Code)
	c.WriteOp(compiler.OpNil, 1)
	c.WriteOp(compiler.OpPop, 1)
	require.NoError(t, c.EmitLoop(loopStart, 1))

	opAt := len(c.Code) - 3
	require.Equal(t, compiler.OpLoop, compiler.Opcode(c.Code[opAt]))
	delta := binary.BigEndian.Uint16(c.Code[opAt+1 : opAt+3])
	// subtracting delta from the ip after the operand lands on loopStart.
	assert.Equal(t, loopStart, opAt+3-int(delta))
}
