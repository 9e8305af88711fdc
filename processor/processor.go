package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript/db"
	"github.com/numkem/sqlscript/parser"
	"github.com/numkem/sqlscript/runner"
)

// Context is shared by all handlers of a composite: the database handle,
// the command factory bound to it, the logger and the default command
// timeout.
type Context struct {
	DB      db.Database
	Factory db.CommandFactory
	Logger  *log.Logger
	Timeout time.Duration
}

func NewContext(database db.Database, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Context{
		DB:      database,
		Factory: db.NewCommandFactory(database),
		Logger:  logger,
		Timeout: db.DEFAULT_COMMAND_TIMEOUT,
	}
}

// Config configures a composite. Handlers maps a handler identity to the
// configuration value forwarded to that handler's InitHandler.
type Config struct {
	Timeout  time.Duration
	Handlers map[string]any
}

// Handler is one member of a composite. A handler signals that a
// directive isn't its own by returning a nil Initialization with a nil
// error; SetupDirective may also return ErrNotImplemented when the
// handler recognizes the directive but has no deferred pass.
type Handler interface {
	InitHandler(ctx *Context, config any) error
	InitDirective(ctx *Context, d *parser.Directive) (*runner.Initialization, error)
	SetupDirective(ctx *Context, d *parser.Directive, state any) (*runner.Initialization, error)
	TryExecute(ctx *Context, text string, d *parser.Directive, state any) (bool, error)
}

// Composite implements runner.Processor by dispatching every directive
// to an ordered list of handlers, first applicable handler wins.
// Statements no handler claims at execution time run as generic
// non-query commands.
type Composite struct {
	// ID is the processor identity used for compile caching and config
	// lookup. Empty means the concrete type stands in.
	ID string

	ctx      *Context
	handlers []Handler
}

func NewComposite(ctx *Context, handlers ...Handler) *Composite {
	return &Composite{
		ctx:      ctx,
		handlers: handlers,
	}
}

func (c *Composite) Identity() string {
	return c.ID
}

func (c *Composite) Context() *Context {
	return c.ctx
}

func (c *Composite) InitProcessor(config any, logger *log.Logger) error {
	if logger != nil {
		c.ctx.Logger = logger
	}
	if c.ctx.Logger == nil {
		c.ctx.Logger = log.StandardLogger()
	}

	cfg, _ := config.(*Config)
	if cfg != nil && cfg.Timeout > 0 {
		c.ctx.Timeout = cfg.Timeout
	}
	if c.ctx.Timeout <= 0 {
		c.ctx.Timeout = db.DEFAULT_COMMAND_TIMEOUT
	}
	if c.ctx.Factory == nil && c.ctx.DB != nil {
		c.ctx.Factory = db.NewCommandFactory(c.ctx.DB)
	}

	for _, h := range c.handlers {
		var handlerConfig any
		if cfg != nil {
			handlerConfig = cfg.Handlers[runner.ProcessorIdentity(h)]
		}

		if err := h.InitHandler(c.ctx, handlerConfig); err != nil {
			return err
		}
	}

	return nil
}

// InitDirective asks each handler in order; the first one returning a
// non-nil initialization wins. A nil result or an unrecognized-directive
// error moves on to the next handler.
func (c *Composite) InitDirective(d *parser.Directive) (*runner.Initialization, error) {
	for _, h := range c.handlers {
		init, err := h.InitDirective(c.ctx, d)
		if err != nil {
			var unrecognized *runner.UnrecognizedDirectiveError
			if errors.As(err, &unrecognized) {
				continue
			}

			return nil, err
		}
		if init != nil {
			return init, nil
		}
	}

	return nil, &runner.UnrecognizedDirectiveError{Directive: d}
}

// SetupDirective iterates like InitDirective, additionally skipping
// handlers that report ErrNotImplemented.
func (c *Composite) SetupDirective(d *parser.Directive, state any) (*runner.Initialization, error) {
	for _, h := range c.handlers {
		init, err := h.SetupDirective(c.ctx, d, state)
		if err != nil {
			var unrecognized *runner.UnrecognizedDirectiveError
			if errors.As(err, &unrecognized) || errors.Is(err, runner.ErrNotImplemented) {
				continue
			}

			return nil, err
		}
		if init != nil {
			return init, nil
		}
	}

	return nil, &runner.InvalidDirectiveError{Message: "no setup handler", Directive: d}
}

// ExecuteStatement offers the statement to every directive's handlers in
// order. When none claims it, the text runs as a generic non-query
// command through the context's factory.
func (c *Composite) ExecuteStatement(text string, directives []*runner.InitializedDirective) error {
	claimed := false
	for _, id := range directives {
		for _, h := range c.handlers {
			ok, err := h.TryExecute(c.ctx, text, id.Directive, id.State)
			if err != nil {
				return err
			}
			if ok {
				claimed = true
				break
			}
		}
	}

	if claimed || strings.TrimSpace(text) == "" {
		return nil
	}

	affected, err := c.ctx.Factory(text, c.ctx.Timeout).Exec(context.Background())
	if err != nil {
		return err
	}

	c.ctx.Logger.Debugf("executed statement, %d rows affected", affected)

	return nil
}
