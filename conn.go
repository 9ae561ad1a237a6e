package xstream

import (
	"context"
	"errors"
	"sync"

	"github.com/trickstertwo/xstream/resp"
)

// Conn is the Strategy interface for the connection collaborator. It owns
// everything this package deliberately does not: dialing, authentication,
// pooling, pipelining, reconnection and retries.
//
// Do sends one command (first argument the command name) and returns the
// reply tree. A server error reply is returned as a Reply node, not as a
// Go error; the decoders decide how to surface it. Do must be safe for
// concurrent use or document that it is not.
type Conn interface {
	Do(ctx context.Context, args ...string) (resp.Reply, error)
	Close() error
}

// ConnFactory constructs connections from a config blob.
type ConnFactory func(cfg map[string]any) (Conn, error)

var (
	connRegistryMu sync.RWMutex
	connRegistry   = map[string]ConnFactory{}
)

// RegisterConn registers a connection adapter by name. Adapters call this
// from init.
func RegisterConn(name string, factory ConnFactory) error {
	if name == "" {
		return errors.New("conn adapter name must not be empty")
	}
	if factory == nil {
		return errors.New("conn adapter factory must not be nil")
	}
	connRegistryMu.Lock()
	connRegistry[name] = factory
	connRegistryMu.Unlock()
	return nil
}

// NewConn constructs a connection by adapter name with config.
func NewConn(name string, cfg map[string]any) (Conn, error) {
	connRegistryMu.RLock()
	f, ok := connRegistry[name]
	connRegistryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownConn{name: name}
	}
	return f(cfg)
}
