package xstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xstream/resp"
)

// Client issues stream commands over a Conn: each method renders the
// command's argument list, hands it to the connection, and decodes the
// reply into its typed result. The client itself holds no mutable state
// besides counters and is safe for concurrent use whenever its Conn is.
type Client struct {
	conn    Conn
	logger  *xlog.Logger
	clock   xclock.Clock
	metrics clientMetrics
}

// NewClient wraps conn. The zero configuration logs nothing and uses the
// default clock.
func NewClient(conn Conn, opts ...Option) *Client {
	c := &Client{conn: conn, clock: xclock.Default()}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c
}

// Conn returns the underlying connection collaborator.
func (c *Client) Conn() Conn { return c.conn }

// Metrics returns a snapshot of the client's counters.
func (c *Client) Metrics() Metrics { return c.metrics.snapshot() }

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// do sends built args over the connection. buildErr short-circuits so
// methods can thread the builder result straight through.
func (c *Client) do(ctx context.Context, args []string, buildErr error) (resp.Reply, error) {
	if buildErr != nil {
		c.metrics.buildErrors.Add(1)
		return nil, buildErr
	}
	c.metrics.commands.Add(1)

	start := c.clock.Now()
	reply, err := c.conn.Do(ctx, args...)
	if c.logger != nil {
		lg := c.logger.With(
			xlog.Str("command", args[0]),
			xlog.Dur("duration", c.clock.Since(start)),
		)
		if err != nil {
			lg.Warn().Err(err).Msg("xstream command failed")
		} else {
			lg.Debug().Msg("xstream command")
		}
	}
	if err != nil {
		c.metrics.connErrors.Add(1)
		return nil, fmt.Errorf("xstream: %s: %w", args[0], err)
	}
	return reply, nil
}

// observe classifies a decode-stage error into the counters.
func (c *Client) observe(err error) error {
	if err == nil {
		return nil
	}
	var srv ServerError
	if errors.As(err, &srv) {
		c.metrics.serverErrors.Add(1)
	} else {
		c.metrics.decodeErrors.Add(1)
	}
	return err
}

// XAdd appends an entry and returns the ID the server assigned.
func (c *Client) XAdd(ctx context.Context, a XAddArgs) (EntryID, error) {
	args, err := buildXAdd(a)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return EntryID{}, err
	}
	id, err := decodeEntryID(cmdXAdd, reply)
	return id, c.observe(err)
}

// XLen returns the number of entries in a stream.
func (c *Client) XLen(ctx context.Context, stream string) (int64, error) {
	args, err := buildXLen(stream)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return 0, err
	}
	n, err := decodeInt(cmdXLen, reply)
	return n, c.observe(err)
}

// XRange returns entries between start and stop inclusive, oldest first.
// Use MinID/MaxID for the full stream and a "(" prefix for exclusive
// bounds.
func (c *Client) XRange(ctx context.Context, stream, start, stop string) ([]Entry, error) {
	return c.xrange(ctx, cmdXRange, stream, start, stop, 0)
}

// XRangeN is XRange capped at count entries.
func (c *Client) XRangeN(ctx context.Context, stream, start, stop string, count int64) ([]Entry, error) {
	return c.xrange(ctx, cmdXRange, stream, start, stop, count)
}

// XRevRange returns entries between stop and start, newest first. Note the
// server takes the higher bound first for the reverse form.
func (c *Client) XRevRange(ctx context.Context, stream, stop, start string) ([]Entry, error) {
	return c.xrange(ctx, cmdXRevRange, stream, stop, start, 0)
}

// XRevRangeN is XRevRange capped at count entries.
func (c *Client) XRevRangeN(ctx context.Context, stream, stop, start string, count int64) ([]Entry, error) {
	return c.xrange(ctx, cmdXRevRange, stream, stop, start, count)
}

func (c *Client) xrange(ctx context.Context, command, stream, first, second string, count int64) ([]Entry, error) {
	args, err := buildXRange(command, stream, first, second, count)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	entries, err := decodeEntries(command, reply)
	return entries, c.observe(err)
}

// XRead reads new entries from one or more streams. With no BLOCK a
// server holding no new entries replies nil, which decodes to an empty
// slice.
func (c *Client) XRead(ctx context.Context, a XReadArgs) ([]XStream, error) {
	args, err := buildXRead(a)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	streams, err := decodeStreams(cmdXRead, reply)
	return streams, c.observe(err)
}

// XReadGroup reads on behalf of a consumer inside a group. The group must
// already exist.
func (c *Client) XReadGroup(ctx context.Context, a XReadGroupArgs) ([]XStream, error) {
	args, err := buildXReadGroup(a)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	streams, err := decodeStreams(cmdXReadGrp, reply)
	return streams, c.observe(err)
}

// XDel removes entries by ID and returns how many were actually deleted.
func (c *Client) XDel(ctx context.Context, stream string, ids ...string) (int64, error) {
	args, err := buildXDel(stream, ids)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return 0, err
	}
	n, err := decodeInt(cmdXDel, reply)
	return n, c.observe(err)
}

// XAck acknowledges pending entries for a group and returns how many were
// acknowledged.
func (c *Client) XAck(ctx context.Context, stream, group string, ids ...string) (int64, error) {
	args, err := buildXAck(stream, group, ids)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return 0, err
	}
	n, err := decodeInt(cmdXAck, reply)
	return n, c.observe(err)
}

// XTrim bounds a stream by MAXLEN or MINID and returns the number of
// evicted entries.
func (c *Client) XTrim(ctx context.Context, a XTrimArgs) (int64, error) {
	args, err := buildXTrim(a)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return 0, err
	}
	n, err := decodeInt(cmdXTrim, reply)
	return n, c.observe(err)
}

// XGroupCreate creates a consumer group reading from start ("$" for new
// entries only). The stream must exist; see XGroupCreateMkStream.
func (c *Client) XGroupCreate(ctx context.Context, stream, group, start string) error {
	args, err := buildXGroupCreate(stream, group, start, false)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return err
	}
	return c.observe(decodeOK(cmdXGroup, reply))
}

// XGroupCreateMkStream is XGroupCreate creating the stream when missing.
func (c *Client) XGroupCreateMkStream(ctx context.Context, stream, group, start string) error {
	args, err := buildXGroupCreate(stream, group, start, true)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return err
	}
	return c.observe(decodeOK(cmdXGroup, reply))
}

// XGroupSetID moves a group's delivery cursor.
func (c *Client) XGroupSetID(ctx context.Context, stream, group, start string) error {
	args, err := buildXGroupSetID(stream, group, start)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return err
	}
	return c.observe(decodeOK(cmdXGroup, reply))
}

// XGroupDestroy removes a group; the result reports whether it existed.
func (c *Client) XGroupDestroy(ctx context.Context, stream, group string) (int64, error) {
	args, err := buildXGroupDestroy(stream, group)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return 0, err
	}
	n, err := decodeInt(cmdXGroup, reply)
	return n, c.observe(err)
}

// XGroupDelConsumer removes a consumer from a group and returns the
// number of pending entries it owned.
func (c *Client) XGroupDelConsumer(ctx context.Context, stream, group, consumer string) (int64, error) {
	args, err := buildXGroupDelConsumer(stream, group, consumer)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return 0, err
	}
	n, err := decodeInt(cmdXGroup, reply)
	return n, c.observe(err)
}

// XClaim reassigns pending entries to a consumer and returns them.
func (c *Client) XClaim(ctx context.Context, a XClaimArgs) ([]Entry, error) {
	args, err := buildXClaim(a, false)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	entries, err := decodeEntries(cmdXClaim, reply)
	return entries, c.observe(err)
}

// XClaimJustID is XClaim with JUSTID: only IDs come back and delivery
// counters are left untouched.
func (c *Client) XClaimJustID(ctx context.Context, a XClaimArgs) ([]EntryID, error) {
	args, err := buildXClaim(a, true)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	ids, err := decodeIDs(cmdXClaim, reply)
	return ids, c.observe(err)
}

// XPending returns the summary form: total count, ID bounds and
// per-consumer counts.
func (c *Client) XPending(ctx context.Context, stream, group string) (XPending, error) {
	args, err := buildXPending(stream, group)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return XPending{}, err
	}
	p, err := decodePending(cmdXPending, reply)
	return p, c.observe(err)
}

// XPendingExt returns the extended form: one row per pending entry over a
// range, optionally filtered by consumer and minimum idle time.
func (c *Client) XPendingExt(ctx context.Context, a XPendingExtArgs) ([]XPendingEntry, error) {
	args, err := buildXPendingExt(a)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	rows, err := decodePendingExt(cmdXPending, reply)
	return rows, c.observe(err)
}

// XInfoStream returns high-level details about a stream.
func (c *Client) XInfoStream(ctx context.Context, stream string) (XInfoStream, error) {
	args, err := buildXInfo("STREAM", stream, "")
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return XInfoStream{}, err
	}
	info, err := decodeInfoStream(cmdXInfo, reply)
	return info, c.observe(err)
}

// XInfoGroups returns the consumer groups of a stream.
func (c *Client) XInfoGroups(ctx context.Context, stream string) ([]XInfoGroup, error) {
	args, err := buildXInfo("GROUPS", stream, "")
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	groups, err := decodeInfoGroups(cmdXInfo, reply)
	return groups, c.observe(err)
}

// XInfoConsumers returns the consumers of a group.
func (c *Client) XInfoConsumers(ctx context.Context, stream, group string) ([]XInfoConsumer, error) {
	args, err := buildXInfo("CONSUMERS", stream, group)
	reply, err := c.do(ctx, args, err)
	if err != nil {
		return nil, err
	}
	consumers, err := decodeInfoConsumers(cmdXInfo, reply)
	return consumers, c.observe(err)
}
