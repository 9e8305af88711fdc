package parser

import (
	"fmt"
	"strings"
)

// Directive is a named annotation with its arguments, parsed out of a SQL
// comment.
type Directive struct {
	Name string
	Args []string
	File string
	Line int
}

// Statement is a single SQL statement. Where a directive occurred, Text
// contains a placeholder marker whose id keys the Directives map.
type Statement struct {
	Text       string
	File       string
	Line       int
	Directives map[string]*Directive
}

// Parser turns a token stream into an ordered list of statements.
type Parser struct {
	lex  *Lexer
	file string
}

func New(source, file, terminator string) *Parser {
	return &Parser{
		lex:  NewLexer(source, file, terminator),
		file: file,
	}
}

// Parse consumes the whole source. Statements made only of whitespace are
// not emitted.
func (p *Parser) Parse() ([]*Statement, error) {
	var statements []*Statement
	for {
		st, last, err := p.statement()
		if err != nil {
			return nil, err
		}
		if st != nil {
			statements = append(statements, st)
		}
		if last {
			return statements, nil
		}
	}
}

func (p *Parser) statement() (*Statement, bool, error) {
	var text strings.Builder
	directives := make(map[string]*Directive)

	// line of the first real token; directives keep their own line
	line := 0
	dirLine := 0
	pending := false

	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, false, err
		}

		switch tok.Type {
		case EOF:
			return p.emit(&text, directives, line, dirLine), true, nil
		case TERMINATOR:
			return p.emit(&text, directives, line, dirLine), false, nil
		case WHITESPACE, EOL:
			if text.Len() > 0 {
				pending = true
			}
		case LINE_COMMENT_START:
			if !p.lex.peekLineDirective() {
				p.lex.skipLine()
				if text.Len() > 0 {
					pending = true
				}
				continue
			}

			d, err := p.lineDirective()
			if err != nil {
				return nil, false, err
			}
			p.addDirective(&text, directives, d, &pending)
			if dirLine == 0 {
				dirLine = d.Line
			}
		case BLOCK_START:
			if !p.lex.peekBlockDirective() {
				if err := p.lex.skipBlock(tok.Line, tok.Col); err != nil {
					return nil, false, err
				}
				if text.Len() > 0 {
					pending = true
				}
				continue
			}

			d, err := p.blockDirective()
			if err != nil {
				return nil, false, err
			}
			p.addDirective(&text, directives, d, &pending)
			if dirLine == 0 {
				dirLine = d.Line
			}
		default:
			if pending {
				text.WriteByte(' ')
				pending = false
			}
			if line == 0 {
				line = tok.Line
			}
			text.WriteString(tok.Text)
		}
	}
}

func (p *Parser) emit(text *strings.Builder, directives map[string]*Directive, line, dirLine int) *Statement {
	t := text.String()
	if t == "" && len(directives) == 0 {
		return nil
	}

	if line == 0 {
		line = dirLine
	}

	return &Statement{
		Text:       t,
		File:       p.file,
		Line:       line,
		Directives: directives,
	}
}

func (p *Parser) addDirective(text *strings.Builder, directives map[string]*Directive, d *Directive, pending *bool) {
	id := NewPlaceholderID()
	directives[id] = d

	if *pending {
		text.WriteByte(' ')
	}
	text.WriteString(Placeholder(id))

	// the marker carries its own trailing separator
	*pending = true
}

func (p *Parser) unexpected(tok *Token, expected string) error {
	return &SyntaxError{
		File:    p.file,
		Line:    tok.Line,
		Col:     tok.Col,
		Message: fmt.Sprintf("unexpected %s, expected %s", tok.Type, expected),
	}
}

// lineDirective reads `#name[: arg, arg...]` up to the end of the line.
// The leading "--" has been consumed and the marker confirmed.
func (p *Parser) lineDirective() (*Directive, error) {
	p.lex.SkipWhitespace = true
	defer func() { p.lex.SkipWhitespace = false }()

	var d *Directive
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == LINE_COMMENT_START {
			continue
		}
		if tok.Type == WORD && strings.Trim(tok.Value, "-") == "" {
			// odd-length dash runs lex as a trailing dash word
			continue
		}
		if tok.Type != HASH {
			return nil, p.unexpected(tok, "'#'")
		}

		name, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if name.Type != WORD {
			return nil, p.unexpected(name, "directive name")
		}

		d = &Directive{Name: name.Value, File: p.file, Line: name.Line}
		break
	}

	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case EOL, EOF:
		return d, nil
	case COLON:
	default:
		return nil, p.unexpected(tok, "':' or end of line")
	}

	for {
		arg, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch arg.Type {
		case WORD, SINGLE_QUOTED, DOUBLE_QUOTED:
			d.Args = append(d.Args, arg.Value)
		default:
			return nil, p.unexpected(arg, "directive argument")
		}

		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case COMMA:
		case EOL, EOF:
			return d, nil
		default:
			return nil, p.unexpected(tok, "',' or end of line")
		}
	}
}

// blockDirective reads `** #name[: arg, arg...] */`. The leading "/*" has
// been consumed and the marker confirmed.
func (p *Parser) blockDirective() (*Directive, error) {
	p.lex.SkipWhitespace = true
	defer func() { p.lex.SkipWhitespace = false }()

	var d *Directive
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == EOL || tok.Type == DOUBLE_STAR {
			continue
		}
		if tok.Type != HASH {
			return nil, p.unexpected(tok, "'#'")
		}

		name, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if name.Type != WORD {
			return nil, p.unexpected(name, "directive name")
		}

		d = &Directive{Name: name.Value, File: p.file, Line: name.Line}
		break
	}

	tok, err := p.nextBlockToken()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case BLOCK_STOP:
		return d, nil
	case COLON:
	default:
		return nil, p.unexpected(tok, "':' or '*/'")
	}

	for {
		arg, err := p.nextBlockToken()
		if err != nil {
			return nil, err
		}

		// a lone '#' prefixes the next argument value
		prefix := ""
		if arg.Type == HASH {
			prefix = "#"
			arg, err = p.nextBlockToken()
			if err != nil {
				return nil, err
			}
		}

		switch arg.Type {
		case WORD, SINGLE_QUOTED, DOUBLE_QUOTED, MULTILINE_QUOTED:
			d.Args = append(d.Args, prefix+arg.Value)
		default:
			return nil, p.unexpected(arg, "directive argument")
		}

		tok, err := p.nextBlockToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case COMMA:
		case BLOCK_STOP:
			return d, nil
		default:
			return nil, p.unexpected(tok, "',' or '*/'")
		}
	}
}

// nextBlockToken skips line breaks inside a block directive header and
// refuses to run past the end of the comment.
func (p *Parser) nextBlockToken() (*Token, error) {
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOL {
			continue
		}
		if tok.Type == EOF {
			return nil, p.unexpected(tok, "'*/'")
		}

		return tok, nil
	}
}
