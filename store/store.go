package store

import (
	"context"
	"fmt"

	"github.com/numkem/sqlscript"
)

// Available backend options
const (
	BACKEND_ETCD_NAME   = "etcd"
	BACKEND_SQLITE_NAME = "sqlite"
	BACKEND_FILE_NAME   = "file"
	BACKEND_DEV_NAME    = "dev"
)

// ScriptStore resolves script names the way the runner expects and
// additionally manages the stored scripts. A nil script with a nil
// error means the name is unknown.
type ScriptStore interface {
	Resolve(name string) (*sqlscript.Script, error)
	AddScript(ctx context.Context, name, script string) error
	DeleteScript(ctx context.Context, name string) error
	ListScripts(ctx context.Context) ([]string, error)
}

func StoreByName(name, etcdEndpoints, scriptDir, dbPath string) (ScriptStore, error) {
	switch name {
	case BACKEND_ETCD_NAME:
		scriptStore, err := NewEtcdScriptStore(etcdEndpoints)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize etcd store: %v", err)
		}

		return scriptStore, nil
	case BACKEND_SQLITE_NAME:
		scriptStore, err := NewSqliteScriptStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %v", err)
		}

		return scriptStore, nil
	case BACKEND_FILE_NAME:
		scriptStore, err := NewFileResolver(scriptDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %v", err)
		}

		return scriptStore, nil
	case BACKEND_DEV_NAME:
		return NewDevStore(), nil
	}

	return nil, fmt.Errorf("unknown backend: %s", name)
}
