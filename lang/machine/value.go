// Package machine implements the stack-based virtual machine that executes
// compiled chunks: the value stack, the call-frame stack, the globals table,
// and the runtime representation of every value the language manipulates.
package machine

import (
	"strconv"

	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/intern"
)

// Value is the interface implemented by every runtime value.
type Value interface {
	String() string
	Type() string
}

// Nil is the language's single nil value.
var Nil Value = nilValue{}

type nilValue struct{}

func (nilValue) String() string { return "nil" }
func (nilValue) Type() string   { return "nil" }

// Boolean is a true/false value.
type Boolean bool

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Boolean) Type() string { return "bool" }

// Number is a double-precision float, the language's only numeric type.
type Number float64

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (Number) Type() string     { return "number" }

// String is an interned string value: two Strings are the same string if and
// only if their Canon pointers are equal.
type String struct {
	Canon *intern.Canonical
}

func (s String) String() string { return s.Canon.Value }
func (String) Type() string     { return "string" }

// Closure is a function value: a compiled FunctionProto paired with the
// upvalue cells it captured at creation time. Every callable value, script
// included, is a Closure.
type Closure struct {
	Proto    *compiler.FunctionProto
	Upvalues []*cell
}

func (c *Closure) String() string {
	if c.Proto.Name == "" {
		return "<script>"
	}
	return "<fn " + c.Proto.Name + ">"
}
func (*Closure) Type() string { return "function" }

// isFalsey implements the language's falsey policy: nil and false are
// falsey, every other value (including 0 and "") is truthy.
func isFalsey(v Value) bool {
	switch v := v.(type) {
	case nilValue:
		return true
	case Boolean:
		return !bool(v)
	default:
		return false
	}
}

// valuesEqual implements structural equality: same tag and contents for
// Nil/Boolean/Number, same interned payload for String, same identity for
// Closure. Values of different tags are never equal, even Number and
// Boolean.
func valuesEqual(a, b Value) bool {
	switch a := a.(type) {
	case nilValue:
		_, ok := b.(nilValue)
		return ok
	case Boolean:
		bb, ok := b.(Boolean)
		return ok && a == bb
	case Number:
		bb, ok := b.(Number)
		return ok && a == bb
	case String:
		bb, ok := b.(String)
		return ok && a.Canon == bb.Canon
	case *Closure:
		bb, ok := b.(*Closure)
		return ok && a == bb
	default:
		return false
	}
}
