package processor

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/numkem/sqlscript/db"
	"github.com/numkem/sqlscript/parser"
	"github.com/numkem/sqlscript/runner"
)

type loadTableState struct {
	table    string
	truncate bool
	columns  []*db.Column
}

// LoadTableHandler handles
// `/* ** #LoadTable: Table, truncate, "col, Type[, len]" ... */`. The
// statement text is run as the source query and its rows stream into
// the target table, which is created from the column specs when absent.
type LoadTableHandler struct{}

func (h *LoadTableHandler) Identity() string {
	return "LoadTable"
}

func (h *LoadTableHandler) InitHandler(ctx *Context, config any) error {
	return nil
}

func (h *LoadTableHandler) InitDirective(ctx *Context, d *parser.Directive) (*runner.Initialization, error) {
	if d.Name != "LoadTable" {
		return nil, nil
	}

	if len(d.Args) < 3 {
		return nil, &runner.InvalidDirectiveError{
			Message:   "expected table, truncate and at least one column spec",
			Directive: d,
		}
	}

	truncate, err := strconv.ParseBool(d.Args[1])
	if err != nil {
		return nil, &runner.InvalidDirectiveError{
			Message:   fmt.Sprintf("invalid truncate flag %q", d.Args[1]),
			Directive: d,
		}
	}

	state := &loadTableState{
		table:    d.Args[0],
		truncate: truncate,
	}
	for _, spec := range d.Args[2:] {
		col, err := db.ParseColumn(spec)
		if err != nil {
			return nil, &runner.InvalidDirectiveError{Message: err.Error(), Directive: d}
		}

		state.columns = append(state.columns, col)
	}

	return &runner.Initialization{State: state}, nil
}

func (h *LoadTableHandler) SetupDirective(ctx *Context, d *parser.Directive, state any) (*runner.Initialization, error) {
	if d.Name != "LoadTable" {
		return nil, nil
	}

	return nil, runner.ErrNotImplemented
}

func (h *LoadTableHandler) TryExecute(ctx *Context, text string, d *parser.Directive, state any) (bool, error) {
	if d.Name != "LoadTable" {
		return false, nil
	}

	st := state.(*loadTableState)
	loader := db.NewBatchLoader(ctx.DB, st.table, st.columns)

	execCtx := context.Background()
	if err := loader.CreateTable(execCtx); err != nil {
		return false, err
	}
	if st.truncate {
		if err := loader.Truncate(execCtx); err != nil {
			return false, err
		}
	}

	var loaded int64
	err := ctx.Factory(text, ctx.Timeout).Query(execCtx, func(rows *sql.Rows) error {
		var err error
		loaded, err = loader.Load(execCtx, rows)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to load table %s: %v", st.table, err)
	}

	ctx.Logger.Debugf("loaded %d rows into %s", loaded, st.table)

	return true, nil
}
