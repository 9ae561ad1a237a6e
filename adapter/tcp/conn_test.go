package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xclock"

	"github.com/trickstertwo/xstream/resp"
)

// pipeConn wires a Conn to an in-memory fake server. The server goroutine
// reads one command per scripted reply and writes the reply back.
func pipeConn(t *testing.T, script ...resp.Reply) *Conn {
	t.Helper()

	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })

	go func() {
		r := resp.NewReader(server)
		w := resp.NewWriter(server)
		for _, reply := range script {
			if _, err := r.ReadReply(); err != nil {
				return
			}
			if err := w.WriteReply(reply); err != nil {
				return
			}
		}
	}()

	c := &Conn{
		cfg:   Defaults(),
		clock: xclock.Default(),
		nc:    client,
		r:     resp.NewReader(client),
		w:     resp.NewWriter(client),
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestConn_Do(t *testing.T) {
	c := pipeConn(t, resp.SimpleString("PONG"), resp.Integer(3))
	ctx := context.Background()

	reply, err := c.Do(ctx, "PING")
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString("PONG"), reply)

	reply, err = c.Do(ctx, "XLEN", "events")
	require.NoError(t, err)
	assert.Equal(t, resp.Integer(3), reply)
}

// Server error replies come back as reply nodes, not Go errors, and do
// not poison the connection.
func TestConn_DoServerError(t *testing.T) {
	c := pipeConn(t, resp.Error("ERR wrong number of arguments"), resp.Integer(1))
	ctx := context.Background()

	reply, err := c.Do(ctx, "XLEN")
	require.NoError(t, err)
	assert.Equal(t, resp.Error("ERR wrong number of arguments"), reply)

	_, err = c.Do(ctx, "XLEN", "events")
	assert.NoError(t, err, "conn stays usable after an error reply")
}

func TestConn_DoEmptyCommand(t *testing.T) {
	c := pipeConn(t)
	_, err := c.Do(context.Background())
	assert.Error(t, err)
}

func TestConn_DoCancelledContext(t *testing.T) {
	c := pipeConn(t, resp.SimpleString("PONG"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, "PING")
	assert.ErrorIs(t, err, context.Canceled)
}

// An expired context deadline turns into a write or read deadline on the
// socket, so a stuck server cannot hang the caller.
func TestConn_DoContextDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := &Conn{
		cfg:   Defaults(),
		clock: xclock.Default(),
		nc:    client,
		r:     resp.NewReader(client),
		w:     resp.NewWriter(client),
	}
	defer c.Close()

	// Server accepts the command but never replies.
	go func() {
		r := resp.NewReader(server)
		_, _ = r.ReadReply()
		select {}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, "PING")
	require.Error(t, err)

	var netErr net.Error
	assert.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

// After an I/O failure the connection is closed for good.
func TestConn_FailClosesConn(t *testing.T) {
	client, server := net.Pipe()

	c := &Conn{
		cfg:   Defaults(),
		clock: xclock.Default(),
		nc:    client,
		r:     resp.NewReader(client),
		w:     resp.NewWriter(client),
	}

	server.Close() // reads and writes now fail

	_, err := c.Do(context.Background(), "PING")
	require.Error(t, err)

	_, err = c.Do(context.Background(), "PING")
	assert.ErrorContains(t, err, "closed")
}

func TestConn_CloseIdempotent(t *testing.T) {
	c := pipeConn(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Do(context.Background(), "PING")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.DB = -1
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.ReadTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestConfigFromMap(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{
		"addr":          "redis.internal:6380",
		"username":      "svc",
		"password":      "secret",
		"db":            2,
		"tls":           true,
		"read_timeout":  "30s",
		"write_timeout": 5 * time.Second,
	})
	assert.Equal(t, "redis.internal:6380", cfg.Addr)
	assert.Equal(t, "svc", cfg.Username)
	assert.Equal(t, 2, cfg.DB)
	assert.True(t, cfg.TLS)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, Defaults().DialTimeout, cfg.DialTimeout)
}

func TestConfigFromMap_Defaults(t *testing.T) {
	cfg := ConfigFromMap(nil)
	assert.Equal(t, Defaults(), cfg)
}
