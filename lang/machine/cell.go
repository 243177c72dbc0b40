package machine

// A cell is a box around a Value, used to give a captured local a shared,
// indirect home once some nested function closes over it: both the owning
// frame's stack slot and every capturing closure's upvalue entry point at
// the same cell, so mutations through either are visible to the other. A
// local slot starts out holding a plain Value and is boxed into a cell the
// first time OpClosure captures it (see Thread.captureUpvalue); it is never
// unboxed.
type cell struct{ v Value }

var _ Value = (*cell)(nil)

func (c *cell) String() string { return "cell" }
func (c *cell) Type() string   { return "cell" }
