package compiler

import "encoding/binary"

// Chunk is an append-only bytecode buffer with an associated constant pool
// and a per-byte source-line table: lines[i] is the source line of code[i],
// so every instruction's first byte has a recorded line without a separate
// debug section.
//
// Constants are stored as `any` holding one of float64, *intern.Canonical
// (an interned string), or *FunctionProto (a nested function) — never a
// machine.Value directly, so that this package does not need to import the
// machine package that in turn depends on compiled chunks.
type Chunk struct {
	Code      []byte
	Constants []any
	Lines     []int32
}

// WriteByte appends a raw byte to the chunk, recording line as its source
// line.
func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, int32(line))
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.WriteByte(byte(op), line)
}

// AddConstant appends value to the constant pool and returns its index. Once
// added, a constant's index is stable for the life of the chunk.
func (c *Chunk) AddConstant(value any) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// WriteConstant emits the code to push value: OpConstant with a one-byte
// index when the pool still fits in a byte, otherwise OpConstantLong with an
// eight-byte native-endian index.
func (c *Chunk) WriteConstant(value any, line int) {
	idx := c.AddConstant(value)
	if idx <= 0xff {
		c.WriteOp(OpConstant, line)
		c.WriteByte(byte(idx), line)
		return
	}
	c.WriteOp(OpConstantLong, line)
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], uint64(idx))
	for _, b := range buf {
		c.WriteByte(b, line)
	}
}

// EmitJump writes a jump-family opcode followed by a two-byte placeholder
// operand (0xff 0xff) and returns the offset of the first placeholder byte,
// to be passed to PatchJump once the jump target is known.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.WriteOp(op, line)
	c.WriteByte(0xff, line)
	c.WriteByte(0xff, line)
	return len(c.Code) - 2
}

// PatchJump back-fills the two-byte operand at offset (as returned by
// EmitJump) with the big-endian distance from the end of that operand to the
// current end of the chunk. It reports an error if the distance overflows
// 16 bits.
func (c *Chunk) PatchJump(offset int) error {
	delta := len(c.Code) - offset - 2
	if delta > 0xffff {
		return errJumpTooFar
	}
	binary.BigEndian.PutUint16(c.Code[offset:offset+2], uint16(delta))
	return nil
}

// EmitLoop writes OpLoop with a two-byte big-endian backward distance from
// the end of this instruction to loopStart.
func (c *Chunk) EmitLoop(loopStart int, line int) error {
	c.WriteOp(OpLoop, line)
	// +2 accounts for the two delta bytes being written right after this point.
	delta := len(c.Code) - loopStart + 2
	if delta > 0xffff {
		return errJumpTooFar
	}
	c.WriteByte(byte(delta>>8), line)
	c.WriteByte(byte(delta), line)
	return nil
}
