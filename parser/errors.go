package parser

import "fmt"

// SyntaxError reports where in the source the lexer or parser gave up.
type SyntaxError struct {
	File    string
	Line    int
	Col     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Message)
}
