package processor

import (
	"fmt"

	"github.com/numkem/sqlscript/parser"
	"github.com/numkem/sqlscript/runner"
)

// Callback receives the final statement text and the directive's
// remaining arguments.
type Callback func(ctx *Context, text string, args []string) error

// CallbackHandler handles `#Callback: name[, args...]` by invoking a
// callback registered under that name. The callback claims the
// statement, nothing else runs it.
type CallbackHandler struct {
	callbacks map[string]Callback
}

func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{
		callbacks: make(map[string]Callback),
	}
}

func (h *CallbackHandler) Identity() string {
	return "Callback"
}

func (h *CallbackHandler) Register(name string, fn Callback) {
	h.callbacks[name] = fn
}

func (h *CallbackHandler) InitHandler(ctx *Context, config any) error {
	return nil
}

func (h *CallbackHandler) InitDirective(ctx *Context, d *parser.Directive) (*runner.Initialization, error) {
	if d.Name != "Callback" {
		return nil, nil
	}

	if len(d.Args) < 1 {
		return nil, &runner.InvalidDirectiveError{Message: "expected a callback name", Directive: d}
	}
	if _, found := h.callbacks[d.Args[0]]; !found {
		return nil, &runner.InvalidDirectiveError{
			Message:   fmt.Sprintf("no callback registered under %s", d.Args[0]),
			Directive: d,
		}
	}

	return &runner.Initialization{}, nil
}

func (h *CallbackHandler) SetupDirective(ctx *Context, d *parser.Directive, state any) (*runner.Initialization, error) {
	if d.Name != "Callback" {
		return nil, nil
	}

	return nil, runner.ErrNotImplemented
}

func (h *CallbackHandler) TryExecute(ctx *Context, text string, d *parser.Directive, state any) (bool, error) {
	if d.Name != "Callback" {
		return false, nil
	}

	fn := h.callbacks[d.Args[0]]
	if err := fn(ctx, text, d.Args[1:]); err != nil {
		return false, fmt.Errorf("callback %s failed: %v", d.Args[0], err)
	}

	return true, nil
}
