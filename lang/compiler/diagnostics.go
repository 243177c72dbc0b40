package compiler

import (
	"fmt"
	"strings"
)

// Diagnostic is a single positioned compile error. At is the location
// clause shown between "Error" and the message: "end" when the error was
// reported at the EOF token, empty when it was reported at a scanner ERROR
// token (whose Message already names the lexical problem), otherwise the
// offending token's lexeme in quotes.
type Diagnostic struct {
	Line int
	At   string
	Msg  string
}

func (d Diagnostic) Error() string {
	if d.At == "" {
		return fmt.Sprintf("[line %d] Error: %s", d.Line, d.Msg)
	}
	return fmt.Sprintf("[line %d] Error at %s: %s", d.Line, d.At, d.Msg)
}

// Diagnostics accumulates compile errors in the order they were reported.
// The zero value is ready to use.
type Diagnostics struct {
	list []Diagnostic
}

func (d *Diagnostics) Add(line int, at, msg string) {
	d.list = append(d.list, Diagnostic{Line: line, At: at, Msg: msg})
}

func (d *Diagnostics) Len() int { return len(d.list) }

// Unwrap lets errors.Is/As reach every individual diagnostic.
func (d *Diagnostics) Unwrap() []error {
	errs := make([]error, len(d.list))
	for i, diag := range d.list {
		errs[i] = diag
	}
	return errs
}

func (d *Diagnostics) Error() string {
	var sb strings.Builder
	for i, diag := range d.list {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(diag.Error())
	}
	return sb.String()
}

// Err returns nil if no diagnostic was ever added, otherwise d itself.
func (d *Diagnostics) Err() error {
	if d.Len() == 0 {
		return nil
	}
	return d
}
