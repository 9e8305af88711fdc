package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript"
)

// FileResolver serves scripts as .sql files under a single directory.
// The file name is the script name unless the file carries a `--* name`
// header.
type FileResolver struct {
	dir string
}

func NewFileResolver(dir string) (*FileResolver, error) {
	stat, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read script directory %s: %v", dir, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("script path %s isn't a directory", dir)
	}

	return &FileResolver{dir: dir}, nil
}

func (f *FileResolver) path(name string) string {
	return filepath.Join(f.dir, name+".sql")
}

func (f *FileResolver) Resolve(name string) (*sqlscript.Script, error) {
	if _, err := os.Stat(f.path(name)); err == nil {
		return sqlscript.ReadFile(f.path(name))
	}

	// the name may come from another file's header
	scripts, err := sqlscript.ReadScriptDirectory(f.dir, false)
	if err != nil {
		return nil, err
	}

	return scripts[name], nil
}

func (f *FileResolver) AddScript(ctx context.Context, name, script string) error {
	if err := os.WriteFile(f.path(name), []byte(script), 0644); err != nil {
		return fmt.Errorf("failed to write script %s: %v", name, err)
	}

	log.Debugf("script %s written to %s", name, f.path(name))

	return nil
}

func (f *FileResolver) DeleteScript(ctx context.Context, name string) error {
	if err := os.Remove(f.path(name)); err != nil {
		return fmt.Errorf("failed to delete script %s: %v", name, err)
	}

	return nil
}

func (f *FileResolver) ListScripts(ctx context.Context) ([]string, error) {
	scripts, err := sqlscript.ReadScriptDirectory(f.dir, false)
	if err != nil {
		return nil, err
	}

	var names []string
	for name := range scripts {
		names = append(names, name)
	}

	return names, nil
}

// WatchScripts invokes onChange with the path of every .sql file
// created or modified under the directory until the context is done.
func (f *FileResolver) WatchScripts(ctx context.Context, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %v", f.dir, err)
	}

	log.Infof("watching directory %s", f.dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && filepath.Ext(event.Name) == ".sql" {
				onChange(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}
