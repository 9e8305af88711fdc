package store

import (
	"context"

	"github.com/numkem/sqlscript"
)

// DevStore keeps scripts in memory, for development and tests.
type DevStore struct {
	scripts map[string]string
}

func NewDevStore() *DevStore {
	return &DevStore{
		scripts: make(map[string]string),
	}
}

func (s *DevStore) Resolve(name string) (*sqlscript.Script, error) {
	content, found := s.scripts[name]
	if !found {
		return nil, nil
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

func (s *DevStore) AddScript(ctx context.Context, name, script string) error {
	s.scripts[name] = script

	return nil
}

func (s *DevStore) DeleteScript(ctx context.Context, name string) error {
	delete(s.scripts, name)

	return nil
}

func (s *DevStore) ListScripts(ctx context.Context) ([]string, error) {
	var names []string
	for name := range s.scripts {
		names = append(names, name)
	}

	return names, nil
}
