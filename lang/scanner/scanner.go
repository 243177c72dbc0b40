// Package scanner turns source bytes into a stream of token.Token values.
//
// Adapted from the advance/peek cursor idiom of a hand-written recursive
// descent scanner: the scanner owns only its cursor state (start, current,
// line) and is fully restartable via Refresh, so a single Scanner instance
// can be reused by a REPL across many compile-and-run cycles.
package scanner

import "github.com/mna/lumen/lang/token"

// Scanner turns a source byte buffer into token.Token values one at a time.
// The zero value is not usable; call Init or Refresh first.
type Scanner struct {
	src     []byte
	start   int // first byte of the token being scanned
	current int // next byte to read
	line    int
	// startLine is the line of start; it differs from line only while
	// scanning a multi-line string, whose token reports the line it began on.
	startLine int
}

// Init prepares the scanner to tokenize src from the beginning.
func (s *Scanner) Init(src []byte) {
	s.src = src
	s.start = 0
	s.current = 0
	s.line = 1
	s.startLine = 1
}

// Refresh resets the scanner to tokenize a new source buffer, reusing the
// Scanner value. Equivalent to a fresh Init.
func (s *Scanner) Refresh(src []byte) {
	s.Init(src)
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.src)
}

func (s *Scanner) advance() byte {
	b := s.src[s.current]
	s.current++
	return b
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

// match advances and returns true only if the next byte equals want.
func (s *Scanner) match(want byte) bool {
	if s.isAtEnd() || s.src[s.current] != want {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.isAtEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

// ScanToken returns the next token in the source. At end of input it
// returns token.EOF repeatedly.
func (s *Scanner) ScanToken() token.Token {
	s.skipWhitespace()
	s.start = s.current
	s.startLine = s.line

	if s.isAtEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LEFT_PAREN)
	case ')':
		return s.make(token.RIGHT_PAREN)
	case '{':
		return s.make(token.LEFT_BRACE)
	case '}':
		return s.make(token.RIGHT_BRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.make(s.choose('=', token.BANG_EQUAL, token.BANG))
	case '=':
		return s.make(s.choose('=', token.EQUAL_EQUAL, token.EQUAL))
	case '<':
		return s.make(s.choose('=', token.LESS_EQUAL, token.LESS))
	case '>':
		return s.make(s.choose('=', token.GREATER_EQUAL, token.GREATER))
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) choose(next byte, ifMatch, otherwise token.Kind) token.Kind {
	if s.match(next) {
		return ifMatch
	}
	return otherwise
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.isAtEnd() {
		return s.errorToken("Unterminated string.")
	}
	s.advance() // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // consume '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	lit := string(s.src[s.start:s.current])
	return s.make(token.LookupIdent(lit))
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Start:  s.start,
		Length: s.current - s.start,
		Line:   s.startLine,
	}
}

func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{
		Kind:    token.ERROR,
		Start:   s.start,
		Length:  s.current - s.start,
		Line:    s.startLine,
		Message: msg,
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
