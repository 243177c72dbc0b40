package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble renders every instruction in the chunk as a human-readable
// listing under a "== name ==" header, one line per instruction prefixed by
// its offset and source line (plus one line per upvalue an OpClosure
// captures).
// Debug-only: informational, never consulted by the VM.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		line, next := c.disassembleInstruction(&sb, offset)
		_ = line
		offset = next
	}
	return sb.String()
}

// DisassembleInstructionAt renders the single instruction starting at
// offset and returns that rendering along with the offset of the next
// instruction. Used by the VM's execution tracer to print each instruction
// immediately before it runs.
func (c *Chunk) DisassembleInstructionAt(offset int) (string, int) {
	var sb strings.Builder
	_, next := c.disassembleInstruction(&sb, offset)
	return sb.String(), next
}

func (c *Chunk) disassembleInstruction(sb *strings.Builder, offset int) (int32, int) {
	line := c.Lines[offset]
	fmt.Fprintf(sb, "%04d ", offset)
	if offset > 0 && c.Lines[offset-1] == line {
		fmt.Fprint(sb, "   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", line)
	}

	op := Opcode(c.Code[offset])
	switch op {
	case OpConstant:
		idx := int(c.Code[offset+1])
		fmt.Fprintf(sb, "%-16s %4d '%v'\n", op, idx, c.Constants[idx])
		return line, offset + 2
	case OpConstantLong:
		idx := int(binary.NativeEndian.Uint64(c.Code[offset+1 : offset+9]))
		fmt.Fprintf(sb, "%-16s %4d '%v'\n", op, idx, c.Constants[idx])
		return line, offset + 9
	case OpGetLocal, OpSetLocal, OpGetGlobal, OpSetGlobal, OpDefineGlobal,
		OpGetUpvalue, OpSetUpvalue, OpCall:
		arg := c.Code[offset+1]
		fmt.Fprintf(sb, "%-16s %4d\n", op, arg)
		return line, offset + 2
	case OpJump, OpJumpIfFalse:
		delta := binary.BigEndian.Uint16(c.Code[offset+1 : offset+3])
		fmt.Fprintf(sb, "%-16s %4d -> %d\n", op, offset, int(offset)+3+int(delta))
		return line, offset + 3
	case OpLoop:
		delta := binary.BigEndian.Uint16(c.Code[offset+1 : offset+3])
		fmt.Fprintf(sb, "%-16s %4d -> %d\n", op, offset, int(offset)+3-int(delta))
		return line, offset + 3
	case OpClosure:
		idx := int(c.Code[offset+1])
		fmt.Fprintf(sb, "%-16s %4d '%v'\n", op, idx, c.Constants[idx])
		next := offset + 2
		if proto, ok := c.Constants[idx].(*FunctionProto); ok {
			for i := 0; i < proto.UpvalueCount; i++ {
				isLocal := c.Code[next]
				index := c.Code[next+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				fmt.Fprintf(sb, "%04d      |                     %s %d\n", next, kind, index)
				next += 2
			}
		}
		return line, next
	default:
		fmt.Fprintf(sb, "%-16s\n", op)
		return line, offset + 1
	}
}
