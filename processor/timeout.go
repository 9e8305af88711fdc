package processor

import (
	"context"
	"strconv"
	"time"

	"github.com/numkem/sqlscript/parser"
	"github.com/numkem/sqlscript/runner"
)

// TimeoutHandler handles `#Timeout: seconds` by running its statement
// through a command with the given timeout instead of the context
// default.
type TimeoutHandler struct{}

func (h *TimeoutHandler) Identity() string {
	return "Timeout"
}

func (h *TimeoutHandler) InitHandler(ctx *Context, config any) error {
	return nil
}

func (h *TimeoutHandler) InitDirective(ctx *Context, d *parser.Directive) (*runner.Initialization, error) {
	if d.Name != "Timeout" {
		return nil, nil
	}

	if len(d.Args) != 1 {
		return nil, &runner.InvalidDirectiveError{Message: "expected a single seconds argument", Directive: d}
	}

	seconds, err := strconv.Atoi(d.Args[0])
	if err != nil || seconds <= 0 {
		return nil, &runner.InvalidDirectiveError{
			Message:   "seconds must be a positive integer",
			Directive: d,
		}
	}

	return &runner.Initialization{State: time.Duration(seconds) * time.Second}, nil
}

func (h *TimeoutHandler) SetupDirective(ctx *Context, d *parser.Directive, state any) (*runner.Initialization, error) {
	if d.Name != "Timeout" {
		return nil, nil
	}

	return nil, runner.ErrNotImplemented
}

func (h *TimeoutHandler) TryExecute(ctx *Context, text string, d *parser.Directive, state any) (bool, error) {
	if d.Name != "Timeout" {
		return false, nil
	}

	timeout := state.(time.Duration)
	affected, err := ctx.Factory(text, timeout).Exec(context.Background())
	if err != nil {
		return false, err
	}

	ctx.Logger.Debugf("executed statement with %s timeout, %d rows affected", timeout, affected)

	return true, nil
}
