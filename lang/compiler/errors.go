package compiler

import "errors"

// errJumpTooFar is returned internally when a jump or loop offset would not
// fit in the 16 bits available to encode it; the parser turns this into a
// positioned compile error ("Jump too far.") at the call site.
var errJumpTooFar = errors.New("jump too far")
