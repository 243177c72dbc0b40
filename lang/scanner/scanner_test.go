package scanner_test

import (
	"testing"

	"github.com/mna/lumen/lang/scanner"
	"github.com/mna/lumen/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s scanner.Scanner
	s.Init([]byte(src))

	var toks []token.Token
	for {
		tok := s.ScanToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){};,.+-*/! != = == < <= > >=")
	require.Equal(t, []token.Kind{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.SEMICOLON, token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR,
		token.SLASH, token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL, token.EOF,
	}, kinds(toks))
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "and class else false for fun if nil or print return super this true var while orchid")
	want := []token.Kind{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FOR, token.FUN,
		token.IF, token.NIL, token.OR, token.PRINT, token.RETURN, token.SUPER,
		token.THIS, token.TRUE, token.VAR, token.WHILE, token.IDENTIFIER, token.EOF,
	}
	require.Equal(t, want, kinds(toks))
}

func TestScanLineCounting(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;\n")
	// the second `var` is on line 2.
	var secondVar token.Token
	count := 0
	for _, tok := range toks {
		if tok.Kind == token.VAR {
			count++
			if count == 2 {
				secondVar = tok
			}
		}
	}
	require.Equal(t, 2, count)
	assert.Equal(t, 2, secondVar.Line)
}

func TestScanNumber(t *testing.T) {
	src := "123 45.67 8."
	toks := scanAll(t, src)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, "123", toks[0].Lexeme([]byte(src)))
	assert.Equal(t, "45.67", toks[1].Lexeme([]byte(src)))
	// trailing dot with no fractional digit is not consumed.
	assert.Equal(t, "8", toks[2].Lexeme([]byte(src)))
	assert.Equal(t, token.DOT, toks[3].Kind)
}

func TestScanStringAndUnterminated(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)

	toks = scanAll(t, `"oops`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Message)
}

func TestScanMultilineString(t *testing.T) {
	toks := scanAll(t, "\"line1\nline2\" var")
	require.Len(t, toks, 3)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanLexemeRoundTrip(t *testing.T) {
	src := "var counter = 42;"
	toks := scanAll(t, src)
	for _, tok := range toks {
		if tok.Kind == token.EOF || tok.Kind == token.ERROR {
			continue
		}
		got := tok.Lexeme([]byte(src))
		require.Equal(t, src[tok.Start:tok.Start+tok.Length], got)
	}
}

func TestScanEofRepeats(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte(""))
	require.Equal(t, token.EOF, s.ScanToken().Kind)
	require.Equal(t, token.EOF, s.ScanToken().Kind)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll(t, "@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Equal(t, "Unexpected character.", toks[0].Message)
}

func TestRefreshRestartsScanner(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte("var"))
	require.Equal(t, token.VAR, s.ScanToken().Kind)

	s.Refresh([]byte("print"))
	require.Equal(t, token.PRINT, s.ScanToken().Kind)
}
