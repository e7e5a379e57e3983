// Package lexer tokenizes a single Jack compilation unit into a
// buffered, one-token-lookahead stream for the compilation engine.
package lexer

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nogafriedman/nand2tetris/internal/token"
)

// Lexer lexes one Jack source unit. Comments (//, /* */, /** */) are
// stripped before token boundaries are recognized; string-literal
// bodies are consumed atomically and are never subject to comment
// stripping, so a "//" or "/*" inside a string is literal content.
//
// The zero value is not usable; construct with New.
type Lexer struct {
	filename string
	src      []rune
	pos      int
	line     int

	tok     token.Token
	tokLine int
	eof     bool
	err     error
}

// New reads all of r and primes the lookahead with the first token.
func New(r io.Reader, filename string) (*Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: reading source", filename)
	}
	l := &Lexer{filename: filename, src: []rune(string(data)), line: 1}
	l.fetch()
	return l, nil
}

// Filename returns the name of the unit being lexed, for error context.
func (l *Lexer) Filename() string { return l.filename }

// Line returns the source line of the current lookahead token.
func (l *Lexer) Line() int { return l.tokLine }

// Peek returns the current lookahead token without consuming it.
// Its zero value is returned once AtEOF reports true.
func (l *Lexer) Peek() token.Token { return l.tok }

// AtEOF reports whether the lookahead is exhausted.
func (l *Lexer) AtEOF() bool { return l.eof }

// Err returns the first lexical error encountered, if any.
func (l *Lexer) Err() error { return l.err }

// Advance consumes and returns the current lookahead token, then lexes
// the next one into the lookahead slot. Once Err is set, Advance
// returns that error. It is an internal-error contract violation to
// call Advance once AtEOF is true.
func (l *Lexer) Advance() (token.Token, error) {
	if l.err != nil {
		return token.Token{}, l.err
	}
	if l.eof {
		token.Internal("Advance called past end of input in %s", l.filename)
	}
	cur := l.tok
	l.fetch()
	return cur, nil
}

func (l *Lexer) fetch() {
	if err := l.skipTrivia(); err != nil {
		l.err = err
		return
	}
	if l.pos >= len(l.src) {
		l.eof = true
		l.tok = token.Token{}
		return
	}
	startLine := l.line
	tok, err := l.lexOne()
	if err != nil {
		l.err = err
		return
	}
	l.tok = tok
	l.tokLine = startLine
}

func (l *Lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case isSpace(c):
			l.pos++
		case c == '/' && l.peekAt(1) == '/':
			l.pos += 2
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			startLine := l.line
			l.pos += 2
			closed := false
			for l.pos+1 < len(l.src) {
				if l.src[l.pos] == '\n' {
					l.line++
				}
				if l.src[l.pos] == '*' && l.src[l.pos+1] == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				return fmt.Errorf("%s:%d: unterminated block comment", l.filename, startLine)
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) lexOne() (token.Token, error) {
	c := l.src[l.pos]
	switch {
	case c == '"':
		return l.lexString()
	case isDigit(c):
		return l.lexInt()
	case c < 128 && token.Symbols[byte(c)]:
		l.pos++
		return token.Token{Type: token.Symbol, Text: string(c)}, nil
	case isIdentStart(c):
		return l.lexWord(), nil
	default:
		return token.Token{}, fmt.Errorf("%s:%d: stray character %q", l.filename, l.line, c)
	}
}

func (l *Lexer) lexString() (token.Token, error) {
	startLine := l.line
	l.pos++ // consume opening quote
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '"' && l.src[l.pos] != '\n' {
		l.pos++
	}
	if l.pos >= len(l.src) || l.src[l.pos] != '"' {
		return token.Token{}, fmt.Errorf("%s:%d: unterminated string constant", l.filename, startLine)
	}
	text := string(l.src[start:l.pos])
	l.pos++ // consume closing quote
	return token.Token{Type: token.StringConst, Text: text}, nil
}

func (l *Lexer) lexInt() (token.Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	val, err := strconv.Atoi(text)
	if err != nil || val > token.MaxInt {
		return token.Token{}, fmt.Errorf("%s:%d: integer constant %s out of range 0..%d", l.filename, l.line, text, token.MaxInt)
	}
	return token.Token{Type: token.IntConst, Text: text, Value: uint16(val)}, nil
}

func (l *Lexer) lexWord() token.Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if token.Keywords[text] {
		return token.Token{Type: token.Keyword, Text: text}
	}
	return token.Token{Type: token.Identifier, Text: text}
}

func isSpace(c rune) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v' }
func isDigit(c rune) bool { return c >= '0' && c <= '9' }
func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c rune) bool { return isIdentStart(c) || isDigit(c) }
