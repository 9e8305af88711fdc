package processor

import (
	"github.com/numkem/sqlscript/parser"
	"github.com/numkem/sqlscript/runner"
)

// IfConfig configures the If handler. Dynamic moves property evaluation
// from compile time to each execution's setup pass.
type IfConfig struct {
	Dynamic    bool
	Properties PropertyGetter
}

// IfHandler handles `#If: property, text[, elseText]` by substituting
// text when the property is truthy and elseText (or nothing) otherwise.
type IfHandler struct {
	Properties PropertyGetter

	dynamic bool
}

func (h *IfHandler) Identity() string {
	return "If"
}

func (h *IfHandler) InitHandler(ctx *Context, config any) error {
	if cfg, ok := config.(*IfConfig); ok && cfg != nil {
		h.dynamic = cfg.Dynamic
		if cfg.Properties != nil {
			h.Properties = cfg.Properties
		}
	}

	if h.Properties == nil {
		h.Properties = EnvProperties{}
	}

	return nil
}

func (h *IfHandler) InitDirective(ctx *Context, d *parser.Directive) (*runner.Initialization, error) {
	if d.Name != "If" {
		return nil, nil
	}

	if len(d.Args) < 2 || len(d.Args) > 3 {
		return nil, &runner.InvalidDirectiveError{
			Message:   "expected property, text[, elseText]",
			Directive: d,
		}
	}

	if h.dynamic {
		return &runner.Initialization{Actions: runner.ACTION_DEFER_SETUP}, nil
	}

	return h.evaluate(d), nil
}

func (h *IfHandler) SetupDirective(ctx *Context, d *parser.Directive, state any) (*runner.Initialization, error) {
	if d.Name != "If" {
		return nil, nil
	}

	return h.evaluate(d), nil
}

func (h *IfHandler) evaluate(d *parser.Directive) *runner.Initialization {
	init := &runner.Initialization{Actions: runner.ACTION_REPLACE_TEXT | runner.ACTION_NO_STORE}

	if Truthy(h.Properties.GetProperty(d.Args[0])) {
		init.Text = d.Args[1]
	} else if len(d.Args) == 3 {
		init.Text = d.Args[2]
	}

	return init
}

func (h *IfHandler) TryExecute(ctx *Context, text string, d *parser.Directive, state any) (bool, error) {
	return false, nil
}
