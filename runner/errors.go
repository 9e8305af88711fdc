package runner

import (
	"errors"
	"fmt"

	"github.com/numkem/sqlscript/parser"
)

// ErrNotImplemented is returned by a handler's SetupDirective when it
// only supports static initialization; the composite dispatcher moves on
// to the next handler.
var ErrNotImplemented = errors.New("not implemented")

type ScriptNotFoundError struct {
	Name string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("no script found for name %s", e.Name)
}

type UnrecognizedDirectiveError struct {
	Directive *parser.Directive
}

func (e *UnrecognizedDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: unrecognized directive %s", e.Directive.File, e.Directive.Line, e.Directive.Name)
}

type InvalidDirectiveError struct {
	Message   string
	Directive *parser.Directive
}

func (e *InvalidDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: invalid directive %s: %s", e.Directive.File, e.Directive.Line, e.Directive.Name, e.Message)
}

type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation: %s", e.Message)
}

type StatementExecutionError struct {
	Text  string
	File  string
	Line  int
	Cause error
}

func (e *StatementExecutionError) Error() string {
	return fmt.Sprintf("%s:%d: failed to execute statement %q: %v", e.File, e.Line, e.Text, e.Cause)
}

func (e *StatementExecutionError) Unwrap() error {
	return e.Cause
}
