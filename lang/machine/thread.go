package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"
	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/intern"
)

// maxFrames bounds call-frame nesting; exceeding it is a runtime "Stack
// overflow." error rather than a Go stack overflow.
const maxFrames = 64

// maxStack bounds the value stack as a sanity cap against runaway
// recursion that stays within maxFrames but keeps pushing values.
const maxStack = 4096

// Thread runs a single compiled program to completion. It is not safe for
// concurrent use; create one Thread per run.
type Thread struct {
	// Stdout receives the output of `print` statements and nothing else:
	// runtime errors are returned to the caller, not written here, so the
	// caller controls how diagnostics are surfaced. If nil, os.Stdout is
	// used.
	Stdout io.Writer

	// Trace, if non-nil, receives one line of value-stack contents followed
	// by one disassembled instruction line before every instruction the VM
	// executes. Debug-only; never consulted to make execution decisions.
	Trace io.Writer

	strings *intern.Strings
	globals *swiss.Map[*intern.Canonical, Value]

	stack  []Value
	frames []frame
}

// NewThread returns a Thread ready to run a program compiled with interner.
// The same interner must have been used to compile the program, and its
// Strings are shared at runtime so that values produced at run time (e.g.
// string concatenation) are interned into the same table.
func NewThread(interner *intern.Strings) *Thread {
	return &Thread{
		strings: interner,
		globals: swiss.NewMap[*intern.Canonical, Value](64),
		stack:   make([]Value, 0, 256),
		frames:  make([]frame, 0, maxFrames),
	}
}

func (th *Thread) stdout() io.Writer {
	if th.Stdout != nil {
		return th.Stdout
	}
	return os.Stdout
}

// Run wraps proto in a closure and executes it as the program's entry
// point, returning the value it implicitly returns (always Nil for a
// well-formed top-level script) or the first runtime error encountered.
func (th *Thread) Run(proto *compiler.FunctionProto) (Value, error) {
	closure := &Closure{Proto: proto}
	th.push(closure)
	th.frames = append(th.frames, frame{closure: closure, stackBase: 0})
	return th.run()
}

func (th *Thread) push(v Value) { th.stack = append(th.stack, v) }

func (th *Thread) pop() Value {
	v := th.stack[len(th.stack)-1]
	th.stack = th.stack[:len(th.stack)-1]
	return v
}

func (th *Thread) peek(distance int) Value {
	return th.stack[len(th.stack)-1-distance]
}

// traceStep prints the current value stack and the instruction about to
// execute to th.Trace, mirroring a textbook bytecode tracer.
func (th *Thread) traceStep(fr *frame, instrStart int) {
	fmt.Fprint(th.Trace, "          ")
	for _, v := range th.stack {
		fmt.Fprintf(th.Trace, "[ %s ]", v.String())
	}
	fmt.Fprintln(th.Trace)
	line, _ := fr.closure.Proto.Chunk.DisassembleInstructionAt(instrStart)
	fmt.Fprint(th.Trace, line)
}
