package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/intern"
	"github.com/mna/mainer"
)

// Disasm compiles every file in args without executing it and prints the
// disassembled bytecode of the top-level script and every nested function
// it defines.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFiles(ctx, stdio, args...)
}

// DisasmFiles compiles every named file without executing it and prints the
// disassembled bytecode of the top-level script and every nested function
// it defines. Exported so tests can drive it directly.
func DisasmFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return &ioError{err: err}
		}

		proto, err := compiler.Compile(src, intern.NewStrings())
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return &compileError{err: err}
		}
		disassembleAll(stdio.Stdout, path, proto)
	}
	return nil
}

// disassembleAll prints proto's own chunk, then recurses into every nested
// FunctionProto living in its constant pool, so a single `disasm` dumps the
// whole call graph reachable from the top-level script.
func disassembleAll(w io.Writer, name string, proto *compiler.FunctionProto) {
	fmt.Fprint(w, proto.Chunk.Disassemble(name))
	for _, constant := range proto.Chunk.Constants {
		nested, ok := constant.(*compiler.FunctionProto)
		if !ok {
			continue
		}
		nestedName := nested.Name
		if nestedName == "" {
			nestedName = "<script>"
		}
		disassembleAll(w, nestedName, nested)
	}
}
