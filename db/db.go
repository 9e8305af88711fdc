package db

import (
	"context"
	"database/sql"
	"time"
)

const DEFAULT_COMMAND_TIMEOUT = 30 * time.Second

// Database is the slice of database/sql the package needs. *sql.DB
// satisfies it directly, as do *sql.Conn and *sql.Tx.
type Database interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Command is one statement bound to a database with an execution
// deadline. The deadline is applied inside Exec and Query, layered on
// whatever context the caller passes in.
type Command struct {
	db      Database
	text    string
	timeout time.Duration
}

// CommandFactory builds commands against a fixed database. A zero
// timeout means DEFAULT_COMMAND_TIMEOUT.
type CommandFactory func(text string, timeout time.Duration) *Command

func NewCommandFactory(database Database) CommandFactory {
	return func(text string, timeout time.Duration) *Command {
		if timeout <= 0 {
			timeout = DEFAULT_COMMAND_TIMEOUT
		}

		return &Command{
			db:      database,
			text:    text,
			timeout: timeout,
		}
	}
}

func (c *Command) Text() string {
	return c.text
}

// Exec runs the command as a non-query and returns the affected row
// count. Drivers that don't report it return 0.
func (c *Command) Exec(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.db.ExecContext(ctx, c.text)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return affected, nil
}

// Query runs the command and hands the result rows to scan. The rows
// are closed when scan returns, so the callback must consume them
// before returning.
func (c *Command) Query(ctx context.Context, scan func(*sql.Rows) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, c.text)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := scan(rows); err != nil {
		return err
	}

	return rows.Err()
}
