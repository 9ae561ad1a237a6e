package xstream

import (
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithLogger enables per-command debug logging through l.
func WithLogger(l *xlog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock injects a custom xclock clock, used for latency measurement.
func WithClock(clk xclock.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}
