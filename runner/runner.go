package runner

import (
	"fmt"
	"os"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/parser"
)

type cacheKey struct {
	name     string
	identity string
}

// Runner compiles scripts once per (script name, processor identity) pair
// and drives the compiled form through the processor.
//
// A Runner is not safe for concurrent use; callers serialize.
type Runner struct {
	resolver Resolver
	configs  map[string]any
	logger   *log.Logger
	cache    map[cacheKey]compiledScript
}

// NewRunner builds a runner. The resolver may be nil, in which case
// script names are taken as file paths unless the processor resolves them
// itself. configs holds one configuration value per processor identity,
// handed to InitProcessor at compile time.
func NewRunner(resolver Resolver, configs map[string]any, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Runner{
		resolver: resolver,
		configs:  configs,
		logger:   logger,
		cache:    make(map[cacheKey]compiledScript),
	}
}

// ProcessorIdentity returns the value's explicit identity when it carries
// a non-empty one, otherwise a stable token for its concrete type.
func ProcessorIdentity(p any) string {
	if id, ok := p.(Identifier); ok {
		if s := id.Identity(); s != "" {
			return s
		}
	}

	return fmt.Sprintf("%T", p)
}

// ExecuteScript compiles the named script on first use with this
// processor identity, then executes every statement in source order.
//
// The cache is keyed by name and processor identity only: running the
// same script again with a different configuration or logger does not
// recompile it.
func (r *Runner) ExecuteScript(name string, p Processor) error {
	key := cacheKey{name: name, identity: ProcessorIdentity(p)}

	compiled, found := r.cache[key]
	if !found {
		var err error
		compiled, err = r.compile(name, key.identity, p)
		if err != nil {
			return err
		}

		r.cache[key] = compiled
		r.logger.Debugf("compiled script %s for %s into %d statements", name, key.identity, len(compiled))
	}

	return r.execute(compiled, p)
}

func (r *Runner) resolve(name string, p Processor) (*sqlscript.Script, error) {
	if resolver, ok := p.(Resolver); ok {
		return resolver.Resolve(name)
	}
	if r.resolver != nil {
		return r.resolver.Resolve(name)
	}

	if _, err := os.Stat(name); err != nil {
		return nil, nil
	}

	return sqlscript.ReadFile(name)
}

func (r *Runner) compile(name, identity string, p Processor) (compiledScript, error) {
	if err := p.InitProcessor(r.configs[identity], r.logger); err != nil {
		return nil, err
	}

	script, err := r.resolve(name, p)
	if err != nil {
		return nil, err
	}
	if script == nil {
		return nil, &ScriptNotFoundError{Name: name}
	}

	statements, err := parser.New(string(script.Content), script.Name, script.Terminator).Parse()
	if err != nil {
		return nil, err
	}

	var compiled compiledScript
	for _, st := range statements {
		ist, err := r.compileStatement(st, p)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, ist)
	}

	return compiled, nil
}

// compileStatement initializes each directive in source order and applies
// its actions to the statement text.
func (r *Runner) compileStatement(st *parser.Statement, p Processor) (*initializedStatement, error) {
	ist := &initializedStatement{
		deferred: make(map[string]int),
		file:     st.File,
		line:     st.Line,
	}

	text, err := parser.Substitute(st.Text, func(id string, out *strings.Builder) error {
		d := st.Directives[id]

		init, err := p.InitDirective(d)
		if err != nil {
			return err
		}
		if init == nil {
			return &UnrecognizedDirectiveError{Directive: d}
		}

		if init.Actions.Has(ACTION_NO_STORE) && init.Actions.Has(ACTION_DEFER_SETUP) {
			return &InvalidOperationError{
				Message: fmt.Sprintf("directive %s cannot combine NoStore with DeferSetup", d.Name),
			}
		}

		if init.Actions.Has(ACTION_REPLACE_TEXT) {
			out.WriteString(init.Text)
		}

		if init.Actions.Has(ACTION_NO_STORE) {
			return nil
		}

		if init.Actions.Has(ACTION_DEFER_SETUP) {
			ist.deferred[id] = len(ist.directives)
			out.WriteString(parser.Placeholder(id))
		}

		ist.directives = append(ist.directives, &InitializedDirective{
			Directive: d,
			ID:        id,
			State:     init.State,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	ist.text = text

	return ist, nil
}

func (r *Runner) execute(compiled compiledScript, p Processor) error {
	for _, st := range compiled {
		text := st.text
		directives := st.directives

		if len(st.deferred) > 0 {
			var err error
			text, directives, err = r.setup(st, p)
			if err != nil {
				return err
			}
		}

		if err := p.ExecuteStatement(text, directives); err != nil {
			return &StatementExecutionError{Text: text, File: st.file, Line: st.line, Cause: err}
		}
	}

	return nil
}

// setup runs the deferred pass over a working copy so the cached entry is
// never mutated.
func (r *Runner) setup(st *initializedStatement, p Processor) (string, []*InitializedDirective, error) {
	working := make([]*InitializedDirective, len(st.directives))
	for i, d := range st.directives {
		copied := *d
		working[i] = &copied
	}

	var remove []int
	text, err := parser.Substitute(st.text, func(id string, out *strings.Builder) error {
		idx, found := st.deferred[id]
		if !found {
			return &InvalidOperationError{Message: fmt.Sprintf("no deferred directive for placeholder %s", id)}
		}
		d := working[idx]

		init, err := p.SetupDirective(d.Directive, d.State)
		if err != nil {
			return err
		}
		if init == nil {
			return &InvalidOperationError{
				Message: fmt.Sprintf("setup of directive %s returned no result", d.Directive.Name),
			}
		}

		if init.Actions.Has(ACTION_REPLACE_TEXT) {
			out.WriteString(init.Text)
		}

		if init.Actions.Has(ACTION_NO_STORE) {
			remove = append(remove, idx)
			return nil
		}

		d.State = init.State

		return nil
	})
	if err != nil {
		return "", nil, err
	}

	// deletions go last, highest index first, so the recorded indices
	// stay valid throughout
	sort.Sort(sort.Reverse(sort.IntSlice(remove)))
	for _, idx := range remove {
		working = append(working[:idx], working[idx+1:]...)
	}

	return text, working, nil
}
