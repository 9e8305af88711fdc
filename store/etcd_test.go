package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEtcdScriptStore(t *testing.T) {
	s, err := NewEtcdScriptStore("localhost:2379")
	assert.Nil(t, err)

	ctx := context.Background()
	if err := s.AddScript(ctx, "etcd-test", "SELECT 1;"); err != nil {
		t.Skipf("etcd not available: %v", err)
	}
	defer s.DeleteScript(ctx, "etcd-test")

	script, err := s.Resolve("etcd-test")
	assert.Nil(t, err)
	assert.Equal(t, "etcd-test", script.Name)
	assert.Equal(t, "SELECT 1;", string(script.Content))

	names, err := s.ListScripts(ctx)
	assert.Nil(t, err)
	assert.Contains(t, names, "etcd-test")

	script, err = s.Resolve("etcd-missing")
	assert.Nil(t, err)
	assert.Nil(t, script)
}
