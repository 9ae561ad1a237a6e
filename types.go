package xstream

import "time"

// XStream is the per-stream slice of an XREAD/XREADGROUP reply. Order of
// streams and of entries within a stream is the order the server returned.
type XStream struct {
	Stream  string
	Entries []Entry
}

// XPending is the summary form of XPENDING: total pending count, the
// lowest and highest pending IDs, and per-consumer counts.
type XPending struct {
	Count     int64
	Lower     EntryID
	Higher    EntryID
	Consumers []XPendingConsumer
}

// XPendingConsumer is one consumer row of an XPENDING summary.
type XPendingConsumer struct {
	Name    string
	Pending int64
}

// XPendingEntry is one row of the extended XPENDING form.
type XPendingEntry struct {
	ID         EntryID
	Consumer   string
	Idle       time.Duration
	RetryCount int64
}

// XInfoStream is the XINFO STREAM reply.
type XInfoStream struct {
	Length          int64
	RadixTreeKeys   int64
	RadixTreeNodes  int64
	Groups          int64
	LastGeneratedID EntryID
	// FirstEntry and LastEntry are nil for an empty stream.
	FirstEntry *Entry
	LastEntry  *Entry
}

// XInfoGroup is one group row of the XINFO GROUPS reply.
type XInfoGroup struct {
	Name            string
	Consumers       int64
	Pending         int64
	LastDeliveredID EntryID
}

// XInfoConsumer is one consumer row of the XINFO CONSUMERS reply.
type XInfoConsumer struct {
	Name    string
	Pending int64
	Idle    time.Duration
}
