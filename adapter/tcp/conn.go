package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xstream"
	"github.com/trickstertwo/xstream/resp"
)

const ConnName = "tcp"

func init() {
	if err := xstream.RegisterConn(ConnName, func(cfg map[string]any) (xstream.Conn, error) {
		return Dial(ConfigFromMap(cfg))
	}); err != nil {
		panic(fmt.Errorf("xstream/tcp: failed to register conn: %w", err))
	}
}

// Conn is a single RESP2 connection. One command in flight at a time.
type Conn struct {
	cfg    Config
	logger *xlog.Logger
	clock  xclock.Clock

	mu sync.Mutex
	nc net.Conn
	r  *resp.Reader
	w  *resp.Writer

	closed atomic.Bool
}

var _ xstream.Conn = (*Conn)(nil)

// Option configures a Conn at dial time.
type Option func(*Conn)

// WithLogger enables connection lifecycle logging through l.
func WithLogger(l *xlog.Logger) Option {
	return func(c *Conn) { c.logger = l }
}

// WithClock injects a custom xclock clock.
func WithClock(clk xclock.Clock) Option {
	return func(c *Conn) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// Dial connects, authenticates, selects the configured database and
// verifies the connection with a PING.
func Dial(cfg Config, opts ...Option) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("xstream/tcp: %w", err)
	}

	nc, err := net.DialTimeout("tcp", cfg.Addr, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("xstream/tcp: dial %s: %w", cfg.Addr, err)
	}
	if cfg.TLS {
		tc := tls.Client(nc, &tls.Config{
			MinVersion:    tls.VersionTLS12,
			ServerName:    cfg.TLSServerName,
			Renegotiation: tls.RenegotiateNever,
		})
		if err := tc.Handshake(); err != nil {
			nc.Close()
			return nil, fmt.Errorf("xstream/tcp: tls handshake: %w", err)
		}
		nc = tc
	}

	c := &Conn{
		cfg:   cfg,
		clock: xclock.Default(),
		nc:    nc,
		r:     resp.NewReader(nc),
		w:     resp.NewWriter(nc),
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}

	if err := c.handshake(); err != nil {
		c.Close()
		return nil, err
	}

	if c.logger != nil {
		c.logger.With(xlog.Str("addr", cfg.Addr)).Debug().Msg("xstream tcp connected")
	}
	return c, nil
}

// handshake runs AUTH, SELECT and PING on the fresh connection.
func (c *Conn) handshake() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if c.cfg.Password != "" {
		args := []string{"AUTH", c.cfg.Password}
		if c.cfg.Username != "" {
			args = []string{"AUTH", c.cfg.Username, c.cfg.Password}
		}
		if err := c.expectOK(ctx, args...); err != nil {
			return fmt.Errorf("xstream/tcp: auth: %w", err)
		}
	}
	if c.cfg.DB != 0 {
		if err := c.expectOK(ctx, "SELECT", strconv.Itoa(c.cfg.DB)); err != nil {
			return fmt.Errorf("xstream/tcp: select db %d: %w", c.cfg.DB, err)
		}
	}

	reply, err := c.Do(ctx, "PING")
	if err != nil {
		return fmt.Errorf("xstream/tcp: ping: %w", err)
	}
	if s, ok := reply.(resp.SimpleString); !ok || !strings.EqualFold(string(s), "PONG") {
		return fmt.Errorf("xstream/tcp: unexpected ping reply: %s", resp.String(reply))
	}
	return nil
}

func (c *Conn) expectOK(ctx context.Context, args ...string) error {
	reply, err := c.Do(ctx, args...)
	if err != nil {
		return err
	}
	switch v := reply.(type) {
	case resp.SimpleString:
		if string(v) == "OK" {
			return nil
		}
		return fmt.Errorf("unexpected reply: %s", resp.String(reply))
	case resp.Error:
		return v
	default:
		return fmt.Errorf("unexpected reply: %s", resp.String(reply))
	}
}

// Do writes one command and reads one reply tree. Server error replies are
// returned as resp.Error nodes, not Go errors. On any I/O error the
// connection is closed: request/reply pairing cannot be trusted afterwards.
func (c *Conn) Do(ctx context.Context, args ...string) (resp.Reply, error) {
	if len(args) == 0 {
		return nil, errors.New("xstream/tcp: empty command")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.closed.Load() {
		return nil, errors.New("xstream/tcp: conn is closed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setWriteDeadline(ctx); err != nil {
		return nil, c.fail(err)
	}
	if err := c.w.WriteCommand(args...); err != nil {
		return nil, c.fail(fmt.Errorf("xstream/tcp: write %s: %w", args[0], err))
	}

	if err := c.setReadDeadline(ctx); err != nil {
		return nil, c.fail(err)
	}
	reply, err := c.r.ReadReply()
	if err != nil {
		return nil, c.fail(fmt.Errorf("xstream/tcp: read %s reply: %w", args[0], err))
	}
	return reply, nil
}

func (c *Conn) setWriteDeadline(ctx context.Context) error {
	return c.nc.SetWriteDeadline(c.deadline(ctx, c.cfg.WriteTimeout))
}

// setReadDeadline honors the context deadline first, then the configured
// read timeout. With neither, the read can block as long as the server
// does (BLOCK 0 semantics).
func (c *Conn) setReadDeadline(ctx context.Context) error {
	return c.nc.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeout))
}

func (c *Conn) deadline(ctx context.Context, timeout time.Duration) time.Time {
	var dl time.Time
	if timeout > 0 {
		dl = c.clock.Now().Add(timeout)
	}
	if ctxDl, ok := ctx.Deadline(); ok && (dl.IsZero() || ctxDl.Before(dl)) {
		dl = ctxDl
	}
	return dl
}

// fail closes the connection and passes err through.
func (c *Conn) fail(err error) error {
	if c.closed.CompareAndSwap(false, true) {
		c.nc.Close()
		if c.logger != nil {
			c.logger.With(xlog.Str("addr", c.cfg.Addr)).Warn().Err(err).Msg("xstream tcp conn failed")
		}
	}
	return err
}

// Close shuts the connection down.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.nc.Close()
}
