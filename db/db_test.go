package db

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// every pooled connection to a plain ":memory:" DSN opens its own
	// empty database; a named shared-cache one is seen by all of them
	database, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared")
	assert.Nil(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestCommandExec(t *testing.T) {
	database := openTestDB(t)
	factory := NewCommandFactory(database)

	_, err := factory("CREATE TABLE t (a INTEGER)", 0).Exec(context.Background())
	assert.Nil(t, err)

	affected, err := factory("INSERT INTO t VALUES (1), (2), (3)", 0).Exec(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestCommandExecError(t *testing.T) {
	database := openTestDB(t)
	factory := NewCommandFactory(database)

	_, err := factory("INSERT INTO missing VALUES (1)", 0).Exec(context.Background())
	assert.NotNil(t, err)
}

func TestCommandQuery(t *testing.T) {
	database := openTestDB(t)
	factory := NewCommandFactory(database)

	_, err := factory("CREATE TABLE t (a INTEGER)", 0).Exec(context.Background())
	assert.Nil(t, err)
	_, err = factory("INSERT INTO t VALUES (1), (2)", 0).Exec(context.Background())
	assert.Nil(t, err)

	var values []int
	err = factory("SELECT a FROM t ORDER BY a", 0).Query(context.Background(), func(rows *sql.Rows) error {
		for rows.Next() {
			var v int
			if err := rows.Scan(&v); err != nil {
				return err
			}
			values = append(values, v)
		}

		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []int{1, 2}, values)
}

func TestParseColumn(t *testing.T) {
	col, err := ParseColumn("a, Int32")
	assert.Nil(t, err)
	assert.Equal(t, &Column{Name: "a", Type: "Int32"}, col)

	col, err = ParseColumn("b, String, 64")
	assert.Nil(t, err)
	assert.Equal(t, &Column{Name: "b", Type: "String", Length: 64}, col)
	assert.Equal(t, "b VARCHAR(64)", col.DDL())

	col, err = ParseColumn("c, String")
	assert.Nil(t, err)
	assert.Equal(t, "c TEXT", col.DDL())
}

func TestParseColumnErrors(t *testing.T) {
	for _, spec := range []string{
		"",
		"a",
		"a, Unknown",
		"a, Int32, x",
		"a, Int32, -1",
		"a, Int32, 1, 2",
		", Int32",
	} {
		_, err := ParseColumn(spec)
		assert.NotNil(t, err, spec)
	}
}

func TestBatchLoader(t *testing.T) {
	database := openTestDB(t)
	factory := NewCommandFactory(database)
	ctx := context.Background()

	_, err := factory("CREATE TABLE src (a INTEGER, b TEXT)", 0).Exec(ctx)
	assert.Nil(t, err)
	_, err = factory("INSERT INTO src VALUES (1, 'one'), (2, 'two'), (3, 'three')", 0).Exec(ctx)
	assert.Nil(t, err)

	columns := []*Column{
		{Name: "a", Type: "Int32"},
		{Name: "b", Type: "String", Length: 16},
	}
	loader := NewBatchLoader(database, "dst", columns)
	loader.BatchSize = 2

	assert.Nil(t, loader.CreateTable(ctx))

	rows, err := database.QueryContext(ctx, "SELECT a, b FROM src ORDER BY a")
	assert.Nil(t, err)
	defer rows.Close()

	total, err := loader.Load(ctx, rows)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), total)

	var count int
	assert.Nil(t, database.QueryRow("SELECT COUNT(*) FROM dst").Scan(&count))
	assert.Equal(t, 3, count)

	var b string
	assert.Nil(t, database.QueryRow("SELECT b FROM dst WHERE a = 2").Scan(&b))
	assert.Equal(t, "two", b)
}

func TestBatchLoaderTruncate(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	columns := []*Column{{Name: "a", Type: "Int32"}}
	loader := NewBatchLoader(database, "dst", columns)

	assert.Nil(t, loader.CreateTable(ctx))
	_, err := database.ExecContext(ctx, "INSERT INTO dst VALUES (1)")
	assert.Nil(t, err)

	assert.Nil(t, loader.Truncate(ctx))

	var count int
	assert.Nil(t, database.QueryRow("SELECT COUNT(*) FROM dst").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestBatchLoaderColumnMismatch(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx, "CREATE TABLE src (a INTEGER, b INTEGER)")
	assert.Nil(t, err)

	loader := NewBatchLoader(database, "dst", []*Column{{Name: "a", Type: "Int32"}})
	assert.Nil(t, loader.CreateTable(ctx))

	rows, err := database.QueryContext(ctx, "SELECT a, b FROM src")
	assert.Nil(t, err)
	defer rows.Close()

	_, err = loader.Load(ctx, rows)
	assert.NotNil(t, err)
}
