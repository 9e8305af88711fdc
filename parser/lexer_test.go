package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lexAll(t *testing.T, source, terminator string) []*Token {
	t.Helper()

	lex := NewLexer(source, "test.sql", terminator)
	var tokens []*Token
	for {
		tok, err := lex.NextToken()
		assert.Nil(t, err)
		if tok.Type == EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func tokenTypes(tokens []*Token) []TokenType {
	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}

	return types
}

func TestLexerBasicTokens(t *testing.T) {
	tokens := lexAll(t, "SELECT a, b -- /* */ ** # :;", ";")

	assert.Equal(t, []TokenType{
		WORD, WHITESPACE, WORD, COMMA, WHITESPACE, WORD, WHITESPACE,
		LINE_COMMENT_START, WHITESPACE, BLOCK_START, WHITESPACE, BLOCK_STOP,
		WHITESPACE, DOUBLE_STAR, WHITESPACE, HASH, WHITESPACE, COLON, TERMINATOR,
	}, tokenTypes(tokens))
	assert.Equal(t, "SELECT", tokens[0].Value)
}

func TestLexerSingleSignificantCharsAreWords(t *testing.T) {
	tokens := lexAll(t, "a-b/c*d", ";")

	assert.Equal(t, []TokenType{WORD, WORD, WORD, WORD, WORD, WORD, WORD}, tokenTypes(tokens))
	assert.Equal(t, "-", tokens[1].Value)
	assert.Equal(t, "/", tokens[3].Value)
	assert.Equal(t, "*", tokens[5].Value)
}

func TestLexerNewlines(t *testing.T) {
	tokens := lexAll(t, "a\nb\r\nc\rd", ";")

	assert.Equal(t, []TokenType{WORD, EOL, WORD, EOL, WORD, EOL, WORD}, tokenTypes(tokens))
	assert.Equal(t, 4, tokens[6].Line)
	assert.Equal(t, 1, tokens[6].Col)
}

func TestLexerTerminator(t *testing.T) {
	tokens := lexAll(t, "a$$b", "$$")
	assert.Equal(t, []TokenType{WORD, TERMINATOR, WORD}, tokenTypes(tokens))

	// partial terminator match falls back to a word
	tokens = lexAll(t, "a$b", "$$")
	assert.Equal(t, []TokenType{WORD, WORD, WORD}, tokenTypes(tokens))
	assert.Equal(t, "$", tokens[1].Value)
}

func TestLexerSingleQuotedString(t *testing.T) {
	tokens := lexAll(t, `'abc' "def" ''`, ";")

	assert.Equal(t, []TokenType{SINGLE_QUOTED, WHITESPACE, DOUBLE_QUOTED, WHITESPACE, SINGLE_QUOTED}, tokenTypes(tokens))
	assert.Equal(t, "abc", tokens[0].Value)
	assert.Equal(t, `'abc'`, tokens[0].Text)
	assert.Equal(t, "def", tokens[2].Value)
	assert.Equal(t, "", tokens[4].Value)
}

func TestLexerBackslashEscape(t *testing.T) {
	tokens := lexAll(t, `'a\'b' 'a\nb'`, ";")

	assert.Equal(t, "a'b", tokens[0].Value)
	// the escaped character is taken verbatim, not interpreted
	assert.Equal(t, "anb", tokens[2].Value)
}

func TestLexerTripleQuotedString(t *testing.T) {
	tokens := lexAll(t, "'''line1\nline2'''", ";")

	assert.Equal(t, []TokenType{MULTILINE_QUOTED}, tokenTypes(tokens))
	assert.Equal(t, "line1\nline2", tokens[0].Value)
}

func TestLexerTripleQuotedDoubledQuote(t *testing.T) {
	tokens := lexAll(t, "'''a''b'''", ";")

	assert.Equal(t, "a'b", tokens[0].Value)
}

func TestLexerUnterminatedString(t *testing.T) {
	lex := NewLexer("SELECT 'abc", "test.sql", ";")

	var err error
	var tok *Token
	for {
		tok, err = lex.NextToken()
		if err != nil || tok.Type == EOF {
			break
		}
	}

	assert.NotNil(t, err)
	serr, ok := err.(*SyntaxError)
	assert.True(t, ok)
	assert.Equal(t, "test.sql", serr.File)
	assert.Equal(t, 1, serr.Line)
	assert.Equal(t, 8, serr.Col)
}

func TestLexerNewlineInString(t *testing.T) {
	lex := NewLexer("'abc\ndef'", "test.sql", ";")

	_, err := lex.NextToken()
	assert.NotNil(t, err)
}

func TestLexerSkipWhitespace(t *testing.T) {
	lex := NewLexer("a b", "test.sql", ";")
	lex.SkipWhitespace = true

	tok, err := lex.NextToken()
	assert.Nil(t, err)
	assert.Equal(t, "a", tok.Value)

	tok, err = lex.NextToken()
	assert.Nil(t, err)
	assert.Equal(t, "b", tok.Value)
}

func TestValidateTerminator(t *testing.T) {
	assert.Nil(t, ValidateTerminator(";"))
	assert.Nil(t, ValidateTerminator("$$"))
	assert.Nil(t, ValidateTerminator("GO"))

	assert.NotNil(t, ValidateTerminator(""))
	assert.NotNil(t, ValidateTerminator(";'"))
	assert.NotNil(t, ValidateTerminator("a b"))
	assert.NotNil(t, ValidateTerminator("#"))
}
