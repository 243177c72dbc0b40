package compiler

import "fmt"

// Opcode identifies a single bytecode instruction. Every opcode is one byte;
// some carry a fixed-size operand immediately following it (see
// OperandBytes).
type Opcode uint8

//nolint:revive
const (
	OpConstant Opcode = iota
	OpConstantLong
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpSetGlobal
	OpDefineGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpClosure
	OpReturn

	maxOpcode
)

var opcodeNames = [...]string{
	OpConstant:     "constant",
	OpConstantLong: "constant_long",
	OpNil:          "nil",
	OpTrue:         "true",
	OpFalse:        "false",
	OpPop:          "pop",
	OpGetLocal:     "get_local",
	OpSetLocal:     "set_local",
	OpGetGlobal:    "get_global",
	OpSetGlobal:    "set_global",
	OpDefineGlobal: "define_global",
	OpGetUpvalue:   "get_upvalue",
	OpSetUpvalue:   "set_upvalue",
	OpEqual:        "equal",
	OpGreater:      "greater",
	OpLess:         "less",
	OpAdd:          "add",
	OpSubtract:     "subtract",
	OpMultiply:     "multiply",
	OpDivide:       "divide",
	OpNot:          "not",
	OpNegate:       "negate",
	OpPrint:        "print",
	OpJump:         "jump",
	OpJumpIfFalse:  "jump_if_false",
	OpLoop:         "loop",
	OpCall:         "call",
	OpClosure:      "closure",
	OpReturn:       "return",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}

// OperandBytes returns the number of bytes of fixed operand that follow the
// opcode byte itself. OpClosure is variable-length: only its one-byte
// function constant index is counted here, not the two bytes per captured
// upvalue that follow it, so callers that need to skip a whole OpClosure
// instruction must special-case it.
func OperandBytes(op Opcode) int {
	switch op {
	case OpConstant, OpGetLocal, OpSetLocal, OpGetGlobal, OpSetGlobal,
		OpDefineGlobal, OpGetUpvalue, OpSetUpvalue, OpCall, OpClosure:
		return 1
	case OpJump, OpJumpIfFalse, OpLoop:
		return 2
	case OpConstantLong:
		return 8
	default:
		return 0
	}
}
