package machine

import (
	"encoding/binary"
	"fmt"

	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/intern"
)

// run is the fetch-decode-execute loop. A single flat loop drives every
// call frame; Call and Return only push/pop frame records, they never
// recurse through Go's own call stack.
func (th *Thread) run() (Value, error) {
	fr := &th.frames[len(th.frames)-1]

	readByte := func() byte {
		b := fr.closure.Proto.Chunk.Code[fr.ip]
		fr.ip++
		return b
	}
	readShort := func() uint16 {
		b := binary.BigEndian.Uint16(fr.closure.Proto.Chunk.Code[fr.ip : fr.ip+2])
		fr.ip += 2
		return b
	}
	readConstant := func(idx int) any { return fr.closure.Proto.Chunk.Constants[idx] }

	for {
		instrStart := fr.ip
		if th.Trace != nil {
			th.traceStep(fr, instrStart)
		}
		op := compiler.Opcode(readByte())

		runtimeErr := func(format string, args ...any) error {
			line := int(fr.closure.Proto.Chunk.Lines[instrStart])
			return &RuntimeError{Line: line, At: "'" + op.String() + "'", Msg: fmt.Sprintf(format, args...)}
		}

		switch op {
		case compiler.OpConstant:
			th.push(toValue(readConstant(int(readByte()))))

		case compiler.OpConstantLong:
			idx := int(binary.NativeEndian.Uint64(fr.closure.Proto.Chunk.Code[fr.ip : fr.ip+8]))
			fr.ip += 8
			th.push(toValue(readConstant(idx)))

		case compiler.OpNil:
			th.push(Nil)
		case compiler.OpTrue:
			th.push(Boolean(true))
		case compiler.OpFalse:
			th.push(Boolean(false))
		case compiler.OpPop:
			th.pop()

		case compiler.OpGetLocal:
			slot := fr.stackBase + int(readByte())
			th.push(unbox(th.stack[slot]))

		case compiler.OpSetLocal:
			slot := fr.stackBase + int(readByte())
			v := th.peek(0)
			if c, ok := th.stack[slot].(*cell); ok {
				c.v = v
			} else {
				th.stack[slot] = v
			}

		case compiler.OpGetGlobal:
			name := readConstant(int(readByte())).(*intern.Canonical)
			v, ok := th.globals.Get(name)
			if !ok {
				return nil, runtimeErr("Unable to find value for key '%s'.", name.Value)
			}
			th.push(v)

		case compiler.OpSetGlobal:
			name := readConstant(int(readByte())).(*intern.Canonical)
			if _, ok := th.globals.Get(name); !ok {
				return nil, runtimeErr("Unable to find value for key '%s'.", name.Value)
			}
			th.globals.Put(name, th.peek(0))

		case compiler.OpDefineGlobal:
			name := readConstant(int(readByte())).(*intern.Canonical)
			th.globals.Put(name, th.pop())

		case compiler.OpGetUpvalue:
			idx := int(readByte())
			th.push(fr.closure.Upvalues[idx].v)

		case compiler.OpSetUpvalue:
			idx := int(readByte())
			fr.closure.Upvalues[idx].v = th.peek(0)

		case compiler.OpEqual:
			b, a := th.pop(), th.pop()
			th.push(Boolean(valuesEqual(a, b)))

		case compiler.OpGreater, compiler.OpLess:
			b, ok1 := th.peek(0).(Number)
			a, ok2 := th.peek(1).(Number)
			if !ok1 || !ok2 {
				return nil, runtimeErr("Expected two numbers for binary operation.")
			}
			th.pop()
			th.pop()
			if op == compiler.OpGreater {
				th.push(Boolean(a > b))
			} else {
				th.push(Boolean(a < b))
			}

		case compiler.OpAdd:
			bv, av := th.peek(0), th.peek(1)
			switch a := av.(type) {
			case Number:
				b, ok := bv.(Number)
				if !ok {
					return nil, runtimeErr("Expected two numbers for binary operation.")
				}
				th.pop()
				th.pop()
				th.push(a + b)
			case String:
				b, ok := bv.(String)
				if !ok {
					return nil, runtimeErr("Expected two numbers for binary operation.")
				}
				th.pop()
				th.pop()
				th.push(String{Canon: th.strings.Intern([]byte(a.Canon.Value + b.Canon.Value))})
			default:
				return nil, runtimeErr("Expected two numbers for binary operation.")
			}

		case compiler.OpSubtract, compiler.OpMultiply, compiler.OpDivide:
			b, ok1 := th.peek(0).(Number)
			a, ok2 := th.peek(1).(Number)
			if !ok1 || !ok2 {
				return nil, runtimeErr("Expected two numbers for binary operation.")
			}
			th.pop()
			th.pop()
			switch op {
			case compiler.OpSubtract:
				th.push(a - b)
			case compiler.OpMultiply:
				th.push(a * b)
			case compiler.OpDivide:
				th.push(a / b)
			}

		case compiler.OpNot:
			th.push(Boolean(isFalsey(th.pop())))

		case compiler.OpNegate:
			n, ok := th.peek(0).(Number)
			if !ok {
				return nil, runtimeErr("Operand must be a number.")
			}
			th.pop()
			th.push(-n)

		case compiler.OpPrint:
			fmt.Fprintln(th.stdout(), th.pop().String())

		case compiler.OpJump:
			offset := readShort()
			fr.ip += int(offset)

		case compiler.OpJumpIfFalse:
			offset := readShort()
			if isFalsey(th.peek(0)) {
				fr.ip += int(offset)
			}

		case compiler.OpLoop:
			offset := readShort()
			fr.ip -= int(offset)

		case compiler.OpCall:
			argc := int(readByte())
			callee := th.peek(argc)
			closure, ok := callee.(*Closure)
			if !ok {
				return nil, runtimeErr("Can only call functions.")
			}
			if argc != closure.Proto.Arity {
				return nil, runtimeErr("Expected: %d arguments but received: %d", closure.Proto.Arity, argc)
			}
			if len(th.frames) == maxFrames {
				return nil, runtimeErr("Stack overflow.")
			}
			if len(th.stack) > maxStack {
				return nil, runtimeErr("Stack overflow.")
			}
			th.frames = append(th.frames, frame{closure: closure, stackBase: len(th.stack) - argc - 1})
			fr = &th.frames[len(th.frames)-1]

		case compiler.OpClosure:
			proto := readConstant(int(readByte())).(*compiler.FunctionProto)
			closure := &Closure{Proto: proto}
			if n := len(proto.Upvalues); n > 0 {
				closure.Upvalues = make([]*cell, n)
				for i := range closure.Upvalues {
					isLocal := readByte() != 0
					index := int(readByte())
					if isLocal {
						closure.Upvalues[i] = th.captureUpvalue(fr.stackBase + index)
					} else {
						closure.Upvalues[i] = fr.closure.Upvalues[index]
					}
				}
			}
			th.push(closure)

		case compiler.OpReturn:
			result := th.pop()
			finished := th.frames[len(th.frames)-1]
			th.frames = th.frames[:len(th.frames)-1]
			th.stack = th.stack[:finished.stackBase]
			if len(th.frames) == 0 {
				return result, nil
			}
			th.push(result)
			fr = &th.frames[len(th.frames)-1]

		default:
			return nil, runtimeErr("Undefined opcode %d.", byte(op))
		}
	}
}

// captureUpvalue boxes the value currently sitting in stack slot slot (if
// it isn't already boxed) and returns the cell, so that the owning frame's
// own GetLocal/SetLocal and the new closure's GetUpvalue/SetUpvalue share
// one mutable home from this point on.
func (th *Thread) captureUpvalue(slot int) *cell {
	if c, ok := th.stack[slot].(*cell); ok {
		return c
	}
	c := &cell{v: th.stack[slot]}
	th.stack[slot] = c
	return c
}

// unbox reads a local slot's current value, transparently dereferencing a
// cell if the slot has been captured by a closure.
func unbox(v Value) Value {
	if c, ok := v.(*cell); ok {
		return c.v
	}
	return v
}

// toValue converts a chunk constant (as stored by the compiler, which does
// not depend on this package) into its runtime Value.
func toValue(c any) Value {
	switch c := c.(type) {
	case float64:
		return Number(c)
	case *intern.Canonical:
		return String{Canon: c}
	default:
		panic(fmt.Sprintf("unexpected constant type %T", c))
	}
}
