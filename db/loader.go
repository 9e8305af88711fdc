package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const DEFAULT_BATCH_SIZE = 500

// BatchLoader streams query results into a target table with batched
// multi-row inserts.
type BatchLoader struct {
	db        Database
	table     string
	columns   []*Column
	BatchSize int
}

func NewBatchLoader(database Database, table string, columns []*Column) *BatchLoader {
	return &BatchLoader{
		db:        database,
		table:     table,
		columns:   columns,
		BatchSize: DEFAULT_BATCH_SIZE,
	}
}

// CreateTable creates the target table from the column specs if it
// doesn't exist yet.
func (l *BatchLoader) CreateTable(ctx context.Context) error {
	ddl := make([]string, len(l.columns))
	for i, col := range l.columns {
		ddl[i] = col.DDL()
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", l.table, strings.Join(ddl, ", "))
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %v", l.table, err)
	}

	return nil
}

// Truncate empties the target table. DELETE instead of TRUNCATE so
// sqlite works too.
func (l *BatchLoader) Truncate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", l.table)); err != nil {
		return fmt.Errorf("failed to truncate table %s: %v", l.table, err)
	}

	return nil
}

// Load consumes rows and inserts them into the target table in batches
// of BatchSize. It returns the number of rows inserted. The source rows
// must have exactly one value per target column.
func (l *BatchLoader) Load(ctx context.Context, rows *sql.Rows) (int64, error) {
	names, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	if len(names) != len(l.columns) {
		return 0, fmt.Errorf("source has %d columns, target table %s has %d", len(names), l.table, len(l.columns))
	}

	var total int64
	var batch []any
	for rows.Next() {
		values := make([]any, len(l.columns))
		scan := make([]any, len(l.columns))
		for i := range values {
			scan[i] = &values[i]
		}

		if err := rows.Scan(scan...); err != nil {
			return total, err
		}

		batch = append(batch, values...)
		if len(batch) >= l.BatchSize*len(l.columns) {
			if err := l.flush(ctx, batch); err != nil {
				return total, err
			}

			total += int64(len(batch) / len(l.columns))
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}

	if len(batch) > 0 {
		if err := l.flush(ctx, batch); err != nil {
			return total, err
		}

		total += int64(len(batch) / len(l.columns))
	}

	return total, nil
}

func (l *BatchLoader) flush(ctx context.Context, batch []any) error {
	width := len(l.columns)
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", width), ", ") + ")"

	names := make([]string, width)
	for i, col := range l.columns {
		names[i] = col.Name
	}

	rows := make([]string, len(batch)/width)
	for i := range rows {
		rows[i] = row
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", l.table, strings.Join(names, ", "), strings.Join(rows, ", "))
	if _, err := l.db.ExecContext(ctx, stmt, batch...); err != nil {
		return fmt.Errorf("failed to insert into %s: %v", l.table, err)
	}

	return nil
}
