package goredis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xstream/resp"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want resp.Reply
	}{
		{"nil", nil, resp.Nil{}},
		{"integer", int64(42), resp.Integer(42)},
		{"status ok", "OK", resp.SimpleString("OK")},
		{"status pong", "PONG", resp.SimpleString("PONG")},
		{"string", "5-1", resp.BulkString("5-1")},
		{"bytes", []byte("payload"), resp.BulkString("payload")},
		{
			"entry tree",
			[]any{
				"5-1",
				[]any{"f", "v"},
			},
			resp.Array{
				resp.BulkString("5-1"),
				resp.Array{resp.BulkString("f"), resp.BulkString("v")},
			},
		},
		{
			"nested nil",
			[]any{"5-1", nil},
			resp.Array{resp.BulkString("5-1"), resp.Nil{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_Unknown(t *testing.T) {
	_, err := convert(struct{}{})
	assert.Error(t, err)
}

func TestConfigFromMap(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{
		"addr":      "redis.internal:6380",
		"username":  "svc",
		"password":  "secret",
		"db":        3,
		"tls":       true,
		"pool_size": 20,
	})
	assert.Equal(t, "redis.internal:6380", cfg.Addr)
	assert.Equal(t, "svc", cfg.Username)
	assert.Equal(t, 3, cfg.DB)
	assert.True(t, cfg.TLS)
	assert.Equal(t, 20, cfg.PoolSize)
	assert.Equal(t, Defaults().MaxRetries, cfg.MaxRetries)
}

func TestConfigFromMap_Defaults(t *testing.T) {
	assert.Equal(t, Defaults(), ConfigFromMap(nil))
}

// The factory dials eagerly, so constructing against a dead address fails
// fast instead of deferring the error to the first command.
func TestNew_Unreachable(t *testing.T) {
	cfg := Defaults()
	cfg.Addr = "127.0.0.1:1"

	start := time.Now()
	_, err := New(cfg)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}
