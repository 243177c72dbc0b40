package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/intern"
	"github.com/mna/lumen/lang/machine"
	"github.com/mna/mainer"
)

// Run compiles and executes the program at args[0]. With no path, it reads
// and runs one line at a time from stdin as a REPL.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return REPL(ctx, stdio, c.Trace)
	}
	return RunFile(ctx, stdio, c.Trace, args[0])
}

// RunFile reads, compiles, and executes the program at path. Exported so
// tests can drive it directly, the same way the Cmd method does.
func RunFile(ctx context.Context, stdio mainer.Stdio, trace bool, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return &ioError{err: err}
	}
	return runSource(stdio, trace, src)
}

// runSource compiles and runs one program, reporting which taxonomy (if
// any) its failure belongs to.
func runSource(stdio mainer.Stdio, trace bool, src []byte) error {
	interner := intern.NewStrings()
	proto, err := compiler.Compile(src, interner)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return &compileError{err: err}
	}

	th := machine.NewThread(interner)
	th.Stdout = stdio.Stdout
	if trace {
		th.Trace = stdio.Stderr
	}
	if _, err := th.Run(proto); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return &runtimeError{err: err}
	}
	return nil
}

// REPL reads one line at a time from stdio.Stdin, compiling and running each
// as its own program. A compile or runtime error in one line is reported but
// does not end the session; only EOF or a cancelled ctx does.
func REPL(ctx context.Context, stdio mainer.Stdio, trace bool) error {
	in := stdio.Stdin
	if in == nil {
		in = os.Stdin
	}
	sc := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(stdio.Stdout, "> ")
		if !sc.Scan() {
			return nil
		}
		_ = runSource(stdio, trace, sc.Bytes())
	}
}
