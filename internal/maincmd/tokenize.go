package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/lumen/lang/scanner"
	"github.com/mna/lumen/lang/token"
	"github.com/mna/mainer"
)

// Tokenize scans every file in args and prints its token stream.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles scans every named file and prints its token stream, one
// token per line: line number, kind, and lexeme (or the diagnostic message
// for an ERROR token). Exported so tests can drive it directly, the same
// way the Cmd method does.
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return &ioError{err: err}
		}
		tokenizeSource(stdio, src)
	}
	return nil
}

func tokenizeSource(stdio mainer.Stdio, src []byte) {
	var sc scanner.Scanner
	sc.Init(src)
	for {
		tok := sc.ScanToken()
		fmt.Fprintf(stdio.Stdout, "%4d %-14s %s\n", tok.Line, tok.Kind, tokenText(tok, src))
		if tok.Kind == token.EOF {
			break
		}
	}
}

func tokenText(tok token.Token, src []byte) string {
	switch tok.Kind {
	case token.ERROR:
		return tok.Message
	case token.EOF:
		return ""
	default:
		return tok.Lexeme(src)
	}
}
