// Package maincmd implements the lumen command-line tool: argument parsing
// and dispatch, shared by cmd/lumen and any test harness that wants to
// drive the CLI surface without shelling out to a built binary.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "lumen"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and bytecode virtual machine for the lumen scripting language.

The <command> can be one of:
       run                       Compile and execute a program. With no
                                 <path>, reads a line-oriented REPL from
                                 stdin instead.
       tokenize                  Run the scanner phase only and print the
                                 resulting token stream.
       disasm                    Compile without executing and print the
                                 disassembled bytecode chunk(s).

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   For the <run> command, print a stack
                                 and instruction trace before every
                                 executed instruction (to stderr).

Exit codes: 0 success, 65 compile error, 70 runtime error, 74 I/O error.
`, binName)
)

// Cmd is the root of the lumen CLI: its exported fields are populated by
// mainer's flag parser, and every exported method with the right shape
// (ctx, mainer.Stdio, []string) -> error becomes a dispatchable subcommand
// named after the method, lowercased.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Trace bool `flag:"trace"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		// not a recognized verb: the arguments are the path of a program to run.
		cmdName = "run"
		c.args = append([]string{cmdName}, c.args...)
		c.cmdFn = commands[cmdName]
	}

	if (cmdName == "tokenize" || cmdName == "disasm") && len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: at least one file must be provided", cmdName)
	}

	if c.flags["trace"] && cmdName != "run" {
		return fmt.Errorf("%s: invalid flag 'trace'", cmdName)
	}
	return nil
}

// Main parses args, dispatches to the selected subcommand, and returns the
// process exit code. It never itself calls os.Exit; the caller (cmd/lumen's
// main) does.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	err := c.cmdFn(ctx, stdio, c.args[1:])
	return exitCodeFor(err)
}

// exitCodeFor maps a subcommand's returned error to the sysexits-style
// codes this tool commits to: 0 success, 65 compile error, 70 runtime
// error, 74 I/O error, or mainer's own generic failure code for anything
// else (e.g. an error no subcommand classified).
func exitCodeFor(err error) mainer.ExitCode {
	switch {
	case err == nil:
		return mainer.Success
	case errors.As(err, new(*compileError)):
		return mainer.ExitCode(65)
	case errors.As(err, new(*runtimeError)):
		return mainer.ExitCode(70)
	case errors.As(err, new(*ioError)):
		return mainer.ExitCode(74)
	default:
		return mainer.Failure
	}
}

// buildCmds reflects over v's methods to find every one shaped like a
// subcommand handler, keyed by its lowercased name. Kept generic (no
// lumen-specific logic) since it is pure dispatch plumbing.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
