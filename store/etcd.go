package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/numkem/sqlscript"
)

const (
	ETCD_TIMEOUT = 3 * time.Second
)

// EtcdScriptStore stores SQL scripts under a single etcd key prefix.
type EtcdScriptStore struct {
	client *clientv3.Client
	prefix string
}

func etcdEndpoints(endpoints string) []string {
	return strings.Split(endpoints, ",")
}

// NewEtcdScriptStore creates a new instance of EtcdScriptStore
func NewEtcdScriptStore(url string) (*EtcdScriptStore, error) {
	log.Debugf("Attempting to connect to etcd @ %s", url)

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   etcdEndpoints(url),
		DialTimeout: ETCD_TIMEOUT,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %v", err)
	}

	log.Debugf("Connected to etcd @ %s", url)

	return &EtcdScriptStore{
		client: client,
		prefix: "sqlscript/scripts/",
	}, nil
}

func (e *EtcdScriptStore) key(name string) string {
	return e.prefix + name
}

func (e *EtcdScriptStore) Resolve(name string) (*sqlscript.Script, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ETCD_TIMEOUT)
	defer cancel()

	resp, err := e.client.Get(ctx, e.key(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get script %s: %v", name, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}

	script, err := sqlscript.ReadString(string(resp.Kvs[0].Value))
	if err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = name
	}

	return script, nil
}

// AddScript stores a script under the given name
func (e *EtcdScriptStore) AddScript(ctx context.Context, name, script string) error {
	ctx, cancel := context.WithTimeout(ctx, ETCD_TIMEOUT)
	defer cancel()

	_, err := e.client.Put(ctx, e.key(name), script)
	if err != nil {
		return fmt.Errorf("failed to add script %s: %v", name, err)
	}

	log.Debugf("Script added under name %s", name)
	return nil
}

// DeleteScript removes the script stored under the given name
func (e *EtcdScriptStore) DeleteScript(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, ETCD_TIMEOUT)
	defer cancel()

	_, err := e.client.Delete(ctx, e.key(name))
	if err != nil {
		return fmt.Errorf("failed to delete script %s: %v", name, err)
	}

	log.Debugf("Deleted script %s", name)
	return nil
}

// ListScripts returns the names of every stored script
func (e *EtcdScriptStore) ListScripts(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ETCD_TIMEOUT)
	defer cancel()

	resp, err := e.client.Get(ctx, e.prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %v", err)
	}

	var names []string
	for _, kv := range resp.Kvs {
		names = append(names, string(kv.Key[len(e.prefix):]))
	}

	log.Debugf("Retrieved %d scripts", len(names))
	return names, nil
}
