package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/numkem/sqlscript"
)

// SqliteScriptStore keeps scripts in a scripts(name, script) table.
type SqliteScriptStore struct {
	db *sql.DB
}

func NewSqliteScriptStore(dbPath string) (*SqliteScriptStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %v", dbPath, err)
	}

	_, err = db.Exec("CREATE TABLE IF NOT EXISTS scripts (name TEXT PRIMARY KEY, script TEXT NOT NULL)")
	if err != nil {
		return nil, fmt.Errorf("failed to create scripts table: %v", err)
	}

	return &SqliteScriptStore{db: db}, nil
}

func (s *SqliteScriptStore) Close() error {
	return s.db.Close()
}

func (s *SqliteScriptStore) Resolve(name string) (*sqlscript.Script, error) {
	var content string
	err := s.db.QueryRow("SELECT script FROM scripts WHERE name = ?", name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get script %s: %v", name, err)
	}

	script, err := sqlscript.ReadString(content)
	if err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = name
	}

	return script, nil
}

func (s *SqliteScriptStore) AddScript(ctx context.Context, name, script string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO scripts (name, script) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET script = excluded.script", name, script)
	if err != nil {
		return fmt.Errorf("failed to add script %s: %v", name, err)
	}

	return nil
}

func (s *SqliteScriptStore) DeleteScript(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scripts WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete script %s: %v", name, err)
	}

	return nil
}

func (s *SqliteScriptStore) ListScripts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM scripts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}
