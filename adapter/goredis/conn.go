// Package goredis provides an xstream.Conn backed by a
// github.com/redis/go-redis client, so the command layer can borrow its
// pooling, retries and TLS handling instead of managing sockets itself.
//
// The client is pinned to RESP2 (Protocol: 2): the reply conversion in
// this package covers the RESP2 value tree the rest of xstream decodes.
package goredis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trickstertwo/xstream"
	"github.com/trickstertwo/xstream/resp"
)

const ConnName = "goredis"

func init() {
	if err := xstream.RegisterConn(ConnName, func(cfg map[string]any) (xstream.Conn, error) {
		return New(ConfigFromMap(cfg))
	}); err != nil {
		panic(fmt.Errorf("xstream/goredis: failed to register conn: %w", err))
	}
}

// Config for the go-redis backed connection.
type Config struct {
	Addr          string
	Username      string
	Password      string
	DB            int
	TLS           bool
	TLSServerName string

	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

// Defaults returns a Config with production-safe defaults.
func Defaults() Config {
	return Config{
		Addr:         "127.0.0.1:6379",
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
	}
}

// ConfigFromMap safely converts a generic map to Config with defaults.
func ConfigFromMap(m map[string]any) Config {
	getString := func(k, d string) string {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
		return d
	}
	getInt := func(k string, d int) int {
		switch v := m[k].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
		return d
	}
	getBool := func(k string, d bool) bool {
		if v, ok := m[k].(bool); ok {
			return v
		}
		return d
	}

	def := Defaults()
	return Config{
		Addr:          getString("addr", def.Addr),
		Username:      getString("username", ""),
		Password:      getString("password", ""),
		DB:            getInt("db", def.DB),
		TLS:           getBool("tls", false),
		TLSServerName: getString("tls_server_name", ""),
		MaxRetries:    getInt("max_retries", def.MaxRetries),
		PoolSize:      getInt("pool_size", def.PoolSize),
		MinIdleConns:  getInt("min_idle_conns", def.MinIdleConns),
	}
}

// Conn adapts a *redis.Client to xstream.Conn.
type Conn struct {
	client *redis.Client
}

var _ xstream.Conn = (*Conn)(nil)

// New builds a client from cfg and verifies it with a PING.
func New(cfg Config) (*Conn, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Protocol:     2,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:    tls.VersionTLS12,
			ServerName:    cfg.TLSServerName,
			Renegotiation: tls.RenegotiateNever,
		}
	}

	client := redis.NewClient(opts)
	if err := ping(client); err != nil {
		client.Close()
		return nil, err
	}
	return &Conn{client: client}, nil
}

// Wrap adapts an existing client without taking ownership checks; Close
// still closes it.
func Wrap(client *redis.Client) *Conn {
	return &Conn{client: client}
}

// Do sends the command through the pooled client and converts the decoded
// result back into a resp.Reply tree. Server error replies come back as
// resp.Error nodes, matching the xstream.Conn contract.
func (c *Conn) Do(ctx context.Context, args ...string) (resp.Reply, error) {
	if len(args) == 0 {
		return nil, errors.New("xstream/goredis: empty command")
	}

	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}

	val, err := c.client.Do(ctx, anyArgs...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return resp.Nil{}, nil
		}
		if msg, ok := serverError(err); ok {
			return resp.Error(msg), nil
		}
		return nil, fmt.Errorf("xstream/goredis: %s: %w", args[0], err)
	}
	return convert(val)
}

// Close releases the pooled client.
func (c *Conn) Close() error { return c.client.Close() }

// serverError distinguishes a reply-borne server error from a transport
// failure. go-redis models both as Go errors; the Conn contract wants
// server errors as reply nodes.
func serverError(err error) (string, bool) {
	var redisErr redis.Error
	if errors.As(err, &redisErr) && !errors.Is(err, redis.Nil) {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return "", false
		}
		return redisErr.Error(), true
	}
	return "", false
}

// convert maps go-redis's decoded RESP2 value tree onto resp.Reply.
// go-redis collapses simple and bulk strings both to Go string, which
// xstream's decoders accept interchangeably; the status replies OK and
// PONG are mapped back to SimpleString so status checks keep working.
func convert(val any) (resp.Reply, error) {
	switch v := val.(type) {
	case nil:
		return resp.Nil{}, nil
	case int64:
		return resp.Integer(v), nil
	case string:
		if v == "OK" || v == "PONG" {
			return resp.SimpleString(v), nil
		}
		return resp.BulkString(v), nil
	case []byte:
		return resp.BulkString(v), nil
	case error:
		return resp.Error(v.Error()), nil
	case []any:
		arr := make(resp.Array, len(v))
		for i, item := range v {
			elem, err := convert(item)
			if err != nil {
				return nil, err
			}
			arr[i] = elem
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("xstream/goredis: unconvertible reply value %T", val)
	}
}

func ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := client.Ping(ctx).Result()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("xstream/goredis: ping timeout: %w", err)
		}
		return fmt.Errorf("xstream/goredis: ping: %w", err)
	}
	if !strings.EqualFold(res, "PONG") {
		return fmt.Errorf("xstream/goredis: unexpected ping result: %s", res)
	}
	return nil
}
