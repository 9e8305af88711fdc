package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// Characters the lexer treats specially. A statement terminator cannot
// contain any of them, nor whitespace.
const SIGNIFICANT_CHARS = ",#/*'\"-:"

// ValidateTerminator checks that a statement terminator can be scanned
// unambiguously.
func ValidateTerminator(terminator string) error {
	if terminator == "" {
		return fmt.Errorf("statement terminator cannot be empty")
	}

	for _, c := range terminator {
		if strings.ContainsRune(SIGNIFICANT_CHARS, c) || unicode.IsSpace(c) {
			return fmt.Errorf("statement terminator %q cannot contain %q", terminator, c)
		}
	}

	return nil
}

// Lexer scans an input buffer into tokens until EOF.
type Lexer struct {
	input      []rune
	pos        int
	line       int
	col        int
	file       string
	terminator []rune

	// SkipWhitespace makes NextToken drop whitespace tokens. The parser
	// flips it on while it reads a directive header.
	SkipWhitespace bool
}

func NewLexer(source, file, terminator string) *Lexer {
	return &Lexer{
		input:      []rune(source),
		line:       1,
		col:        1,
		file:       file,
		terminator: []rune(terminator),
	}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}

	return l.input[l.pos]
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.input) {
		return 0
	}

	return l.input[l.pos+n]
}

func (l *Lexer) next() rune {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return c
}

func (l *Lexer) syntaxError(line, col int, message string) *SyntaxError {
	return &SyntaxError{File: l.file, Line: line, Col: col, Message: message}
}

func isNewline(c rune) bool {
	return c == '\n' || c == '\r'
}

func isBlank(c rune) bool {
	return unicode.IsSpace(c) && !isNewline(c)
}

// NextToken returns the next token in the stream. Once EOF is reached it
// keeps returning EOF tokens.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		tok, err := l.scan()
		if err != nil {
			return nil, err
		}
		if l.SkipWhitespace && tok.Type == WHITESPACE {
			continue
		}

		return tok, nil
	}
}

func (l *Lexer) scan() (*Token, error) {
	line, col := l.line, l.col

	if l.eof() {
		return &Token{Type: EOF, Line: line, Col: col}, nil
	}

	c := l.peek()

	if isNewline(c) {
		l.next()
		if c == '\r' && l.peek() == '\n' {
			l.next()
		} else if c == '\r' {
			l.line++
			l.col = 1
		}
		return &Token{Type: EOL, Text: "\n", Value: "\n", Line: line, Col: col}, nil
	}

	if isBlank(c) {
		var b strings.Builder
		for !l.eof() && isBlank(l.peek()) {
			b.WriteRune(l.next())
		}
		s := b.String()
		return &Token{Type: WHITESPACE, Text: s, Value: s, Line: line, Col: col}, nil
	}

	if c == l.terminator[0] {
		n := 0
		for n < len(l.terminator) && l.peekAt(n) == l.terminator[n] {
			n++
		}

		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(l.next())
		}
		s := b.String()

		if n == len(l.terminator) {
			return &Token{Type: TERMINATOR, Text: s, Value: s, Line: line, Col: col}, nil
		}

		// partial terminator match, keep it as a plain word
		return &Token{Type: WORD, Text: s, Value: s, Line: line, Col: col}, nil
	}

	switch c {
	case '-':
		if l.peekAt(1) == '-' {
			l.next()
			l.next()
			return &Token{Type: LINE_COMMENT_START, Text: "--", Value: "--", Line: line, Col: col}, nil
		}
		l.next()
		return &Token{Type: WORD, Text: "-", Value: "-", Line: line, Col: col}, nil
	case '/':
		if l.peekAt(1) == '*' {
			l.next()
			l.next()
			return &Token{Type: BLOCK_START, Text: "/*", Value: "/*", Line: line, Col: col}, nil
		}
		l.next()
		return &Token{Type: WORD, Text: "/", Value: "/", Line: line, Col: col}, nil
	case '*':
		if l.peekAt(1) == '/' {
			l.next()
			l.next()
			return &Token{Type: BLOCK_STOP, Text: "*/", Value: "*/", Line: line, Col: col}, nil
		}
		if l.peekAt(1) == '*' {
			l.next()
			l.next()
			return &Token{Type: DOUBLE_STAR, Text: "**", Value: "**", Line: line, Col: col}, nil
		}
		l.next()
		return &Token{Type: WORD, Text: "*", Value: "*", Line: line, Col: col}, nil
	case ',':
		l.next()
		return &Token{Type: COMMA, Text: ",", Value: ",", Line: line, Col: col}, nil
	case ':':
		l.next()
		return &Token{Type: COLON, Text: ":", Value: ":", Line: line, Col: col}, nil
	case '#':
		l.next()
		return &Token{Type: HASH, Text: "#", Value: "#", Line: line, Col: col}, nil
	case '\'', '"':
		return l.scanString(c)
	}

	var b strings.Builder
	for !l.eof() {
		c := l.peek()
		if isNewline(c) || isBlank(c) || strings.ContainsRune(SIGNIFICANT_CHARS, c) || c == l.terminator[0] {
			break
		}
		b.WriteRune(l.next())
	}
	s := b.String()

	return &Token{Type: WORD, Text: s, Value: s, Line: line, Col: col}, nil
}

func (l *Lexer) scanString(quote rune) (*Token, error) {
	line, col := l.line, l.col

	var raw, val strings.Builder
	raw.WriteRune(l.next())

	if l.peek() == quote {
		if l.peekAt(1) == quote {
			return l.scanTripleString(quote, line, col, &raw)
		}

		// an immediately closed quote is the empty string
		raw.WriteRune(l.next())
		return l.stringToken(quote, line, col, raw.String(), ""), nil
	}

	for {
		if l.eof() {
			return nil, l.syntaxError(line, col, "unterminated string")
		}

		c := l.peek()
		if isNewline(c) {
			return nil, l.syntaxError(line, col, "unterminated string")
		}

		raw.WriteRune(l.next())
		switch c {
		case '\\':
			if l.eof() {
				return nil, l.syntaxError(line, col, "unterminated string")
			}
			e := l.next()
			raw.WriteRune(e)
			val.WriteRune(e)
		case quote:
			return l.stringToken(quote, line, col, raw.String(), val.String()), nil
		default:
			val.WriteRune(c)
		}
	}
}

func (l *Lexer) scanTripleString(quote rune, line, col int, raw *strings.Builder) (*Token, error) {
	raw.WriteRune(l.next())
	raw.WriteRune(l.next())

	var val strings.Builder
	for {
		if l.eof() {
			return nil, l.syntaxError(line, col, "unterminated string")
		}

		c := l.next()
		raw.WriteRune(c)
		switch c {
		case '\\':
			if l.eof() {
				return nil, l.syntaxError(line, col, "unterminated string")
			}
			e := l.next()
			raw.WriteRune(e)
			val.WriteRune(e)
		case quote:
			if l.peek() == quote && l.peekAt(1) == quote {
				raw.WriteRune(l.next())
				raw.WriteRune(l.next())
				return &Token{Type: MULTILINE_QUOTED, Text: raw.String(), Value: val.String(), Line: line, Col: col}, nil
			}
			if l.peek() == quote {
				// doubled quote stands for a single one
				raw.WriteRune(l.next())
				val.WriteRune(quote)
				continue
			}
			val.WriteRune(quote)
		default:
			val.WriteRune(c)
		}
	}
}

func (l *Lexer) stringToken(quote rune, line, col int, raw, val string) *Token {
	t := SINGLE_QUOTED
	if quote == '"' {
		t = DOUBLE_QUOTED
	}

	return &Token{Type: t, Text: raw, Value: val, Line: line, Col: col}
}

// peekLineDirective reports whether the characters after a "--" introduce
// a directive marker, skipping blanks and extra dashes.
func (l *Lexer) peekLineDirective() bool {
	n := 0
	for {
		c := l.peekAt(n)
		if isBlank(c) || c == '-' {
			n++
			continue
		}

		return c == '#'
	}
}

// peekBlockDirective reports whether the characters after a "/*" introduce
// a "** #" directive marker, skipping blanks and newlines.
func (l *Lexer) peekBlockDirective() bool {
	n := 0
	skip := func() {
		for isBlank(l.peekAt(n)) || isNewline(l.peekAt(n)) {
			n++
		}
	}

	skip()
	if l.peekAt(n) != '*' || l.peekAt(n+1) != '*' {
		return false
	}
	n += 2

	skip()
	return l.peekAt(n) == '#'
}

// skipLine consumes the rest of the current line, including its newline.
func (l *Lexer) skipLine() {
	for !l.eof() {
		c := l.next()
		if c == '\r' && l.peek() == '\n' {
			l.next()
			return
		}
		if c == '\r' {
			l.line++
			l.col = 1
			return
		}
		if c == '\n' {
			return
		}
	}
}

// skipBlock consumes up to and including the closing "*/" of a block
// comment opened at the given position.
func (l *Lexer) skipBlock(line, col int) error {
	for !l.eof() {
		if l.next() == '*' && l.peek() == '/' {
			l.next()
			return nil
		}
	}

	return l.syntaxError(line, col, "unterminated comment")
}
