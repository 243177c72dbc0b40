package machine

import "fmt"

// RuntimeError is a single runtime fault that halts the VM: a type error on
// an operator, an undefined global, a bad call, or a stack/frame limit
// reached. The VM stops at the first one. At names the opcode that faulted
// (there is no source token left to point at once compilation has
// finished, so the executing instruction is the runtime analog of the
// compiler's offending token), matching the compiler's "Error at …: msg"
// shape.
type RuntimeError struct {
	Line int
	At   string
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] Error at %s: %s", e.Line, e.At, e.Msg)
}
