package maincmd

// compileError, runtimeError, and ioError wrap a subcommand's failure just
// enough for exitCodeFor to tell the three failure classes apart. The
// subcommand has already printed a human-readable message to stderr by the
// time it returns one of these; the wrapper only carries the exit-code
// classification onward to Main.
type compileError struct{ err error }

func (e *compileError) Error() string { return e.err.Error() }
func (e *compileError) Unwrap() error { return e.err }

type runtimeError struct{ err error }

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

type ioError struct{ err error }

func (e *ioError) Error() string { return e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }
