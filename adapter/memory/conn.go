// Package memory provides a scripted in-memory xstream.Conn for tests:
// it records every argument list it receives and plays back a queue of
// canned replies, so command rendering and reply decoding can be verified
// without a live server.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/trickstertwo/xstream"
	"github.com/trickstertwo/xstream/resp"
)

const ConnName = "memory"

func init() {
	if err := xstream.RegisterConn(ConnName, func(_ map[string]any) (xstream.Conn, error) {
		return New(), nil
	}); err != nil {
		panic(fmt.Errorf("xstream/memory: failed to register conn: %w", err))
	}
}

// Conn is a scripted connection. Replies are served in FIFO order; running
// past the script is an error, as is any use after Close.
type Conn struct {
	mu      sync.Mutex
	replies []resp.Reply
	calls   [][]string
	closed  bool
}

var _ xstream.Conn = (*Conn)(nil)

// New returns a Conn preloaded with replies.
func New(replies ...resp.Reply) *Conn {
	return &Conn{replies: append([]resp.Reply(nil), replies...)}
}

// Enqueue appends replies to the script.
func (c *Conn) Enqueue(replies ...resp.Reply) {
	c.mu.Lock()
	c.replies = append(c.replies, replies...)
	c.mu.Unlock()
}

// Do records args and returns the next scripted reply.
func (c *Conn) Do(ctx context.Context, args ...string) (resp.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.New("memory conn is closed")
	}

	c.calls = append(c.calls, append([]string(nil), args...))
	if len(c.replies) == 0 {
		return nil, fmt.Errorf("memory conn: script exhausted at command %d (%v)", len(c.calls), args)
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

// Calls returns every argument list received so far.
func (c *Conn) Calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.calls...)
}

// LastCall returns the most recent argument list, or nil.
func (c *Conn) LastCall() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return append([]string(nil), c.calls[len(c.calls)-1]...)
}

// Close marks the conn closed; further Do calls fail.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}
