package runner

import (
	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/parser"
)

// Action flags returned by a processor when it initializes a directive.
type Action int

const (
	ACTION_DEFAULT      Action = 0
	ACTION_NO_STORE     Action = 1
	ACTION_REPLACE_TEXT Action = 2
	ACTION_DEFER_SETUP  Action = 4
)

func (a Action) Has(flag Action) bool {
	return a&flag != 0
}

// Initialization is what a processor decides about one directive: which
// actions to apply, the replacement text when ACTION_REPLACE_TEXT is set
// and an opaque state handed back to the processor on setup and execution.
type Initialization struct {
	Actions Action
	Text    string
	State   any
}

// InitializedDirective is a directive the compile pass kept, along with
// its placeholder id and the state its processor chose.
type InitializedDirective struct {
	Directive *parser.Directive
	ID        string
	State     any
}

// initializedStatement is a compiled statement: rewritten text where only
// deferred directives still have their placeholder markers, the stored
// directives in source order and the deferred ids with their index into
// that list.
type initializedStatement struct {
	text       string
	directives []*InitializedDirective
	deferred   map[string]int
	file       string
	line       int
}

type compiledScript []*initializedStatement

// Processor interprets directives and executes statements.
type Processor interface {
	InitProcessor(config any, logger *log.Logger) error
	InitDirective(d *parser.Directive) (*Initialization, error)
	SetupDirective(d *parser.Directive, state any) (*Initialization, error)
	ExecuteStatement(text string, directives []*InitializedDirective) error
}

// Resolver turns a script name into its source. A nil script with a nil
// error means the name is unknown. Processors may implement Resolver to
// supply their own sources.
type Resolver interface {
	Resolve(name string) (*sqlscript.Script, error)
}

// Identifier is implemented by processors and handlers that carry an
// explicit identity instead of their type name.
type Identifier interface {
	Identity() string
}
