// Package tcp provides an xstream.Conn speaking RESP2 over a single TCP
// (optionally TLS) connection, with no client library in between.
//
// The adapter keeps exactly one command in flight: Do serializes callers
// behind a mutex, writes the command and reads one reply tree. There is no
// pooling, pipelining or reconnection; a caller wanting those should use
// adapter/goredis or bring its own Conn. After an I/O error the connection
// is left closed and every later call fails, which keeps request/reply
// framing from desynchronizing.
//
// Context deadlines map onto socket deadlines, so an expired deadline
// interrupts a blocked read. A plain cancel without a deadline does not:
// cancellation is only checked on entry to Do. Give blocking reads
// (BLOCK 0) a context deadline, a read_timeout, or Close the conn from
// another goroutine to unblock them.
//
// Minimal config keys (see Defaults):
//   - addr: "host:port" (default "127.0.0.1:6379")
//   - username, password: AUTH credentials (optional)
//   - db: database index for SELECT (default 0)
//   - tls, tls_server_name: enable TLS
//   - dial_timeout, read_timeout, write_timeout: durations
package tcp
