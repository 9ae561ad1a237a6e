// Package xstream is a typed command layer for Redis Streams.
//
// It does exactly two things: render stream operations (XADD, XREAD,
// XRANGE, consumer-group commands, ...) into RESP argument lists, and
// decode the reply trees those commands produce into typed results
// (entries, IDs, pending summaries, stream info). Everything else,
// from dialing and authentication to pooling and retries, belongs to a
// Conn collaborator chosen by the caller.
//
// Adapters under adapter/ provide connections: adapter/tcp speaks RESP2
// over a single net.Conn, adapter/goredis borrows a pooled
// github.com/redis/go-redis client, and adapter/memory plays back canned
// replies for tests.
//
//	conn, err := tcp.Dial(tcp.Defaults())
//	if err != nil {
//		// handle
//	}
//	c := xstream.NewClient(conn)
//	id, err := c.XAdd(ctx, xstream.XAddArgs{
//		Stream: "events",
//		Values: []xstream.Field{{Name: "kind", Value: "signup"}},
//	})
package xstream
