package compiler

// FunctionKind distinguishes the implicit top-level script from a function
// declared with `fun`. There is no separate closure kind at compile time —
// every function, script included, is wrapped in a runtime closure by the
// VM (the script when the thread starts running it, every other function by
// the OpClosure instruction); only two shapes of compiled function exist.
type FunctionKind uint8

const (
	KindScript FunctionKind = iota
	KindFunction
)

// UpvalueDesc is a compile-time descriptor recorded on the *capturing*
// function: IsLocal=true means "capture slot Index of the immediately
// enclosing function's locals", IsLocal=false means "capture upvalue Index
// of the enclosing function, chained further out".
type UpvalueDesc struct {
	Index   uint8
	IsLocal bool
}

// FunctionProto is the compile-time-constant description of a function: its
// arity, its bytecode chunk, and the upvalues it captures. It lives for the
// process lifetime once compiled, same as every Chunk and constant.
type FunctionProto struct {
	Name         string
	Arity        int
	Kind         FunctionKind
	Chunk        Chunk
	Upvalues     []UpvalueDesc
	UpvalueCount int
}

func (f *FunctionProto) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return "<fn " + f.Name + ">"
}
