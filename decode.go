package xstream

import (
	"strconv"
	"time"

	"github.com/trickstertwo/xstream/resp"
)

// Each command's reply has a fixed shape, so every decoder below is
// specialized to one command (or one family sharing a shape) and is chosen
// at the call site. Nothing is inferred from the reply alone: XPENDING's
// summary and extended forms look nothing alike and are bound to separate
// decoders by the methods that issue them.
//
// All decoders are pure projections over the reply tree. A structural
// mismatch yields a DecodeError carrying the offending fragment; an
// embedded server error yields a ServerError; neither is retried here.

// errorOf surfaces an embedded server error reply, if any.
func errorOf(r resp.Reply) error {
	if e, ok := r.(resp.Error); ok {
		return ServerError(e)
	}
	return nil
}

// text projects a reply node that is logically a string. The server uses
// bulk strings almost everywhere but status replies are simple strings.
func text(r resp.Reply) (string, bool) {
	switch v := r.(type) {
	case resp.BulkString:
		return string(v), true
	case resp.SimpleString:
		return string(v), true
	default:
		return "", false
	}
}

// integer projects an integer node. Counters inside aggregate replies
// (e.g. per-consumer pending counts) arrive as decimal bulk strings, so
// those are accepted too.
func integer(r resp.Reply) (int64, bool) {
	switch v := r.(type) {
	case resp.Integer:
		return int64(v), true
	case resp.BulkString:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// decodeOK expects a +OK status reply (XGROUP CREATE, XGROUP SETID).
func decodeOK(command string, r resp.Reply) error {
	if err := errorOf(r); err != nil {
		return err
	}
	if s, ok := r.(resp.SimpleString); ok && string(s) == "OK" {
		return nil
	}
	return decodeErr(command, "expected +OK", r)
}

// decodeInt expects a plain integer reply (XLEN, XACK, XDEL, XTRIM,
// XGROUP DESTROY/DELCONSUMER).
func decodeInt(command string, r resp.Reply) (int64, error) {
	if err := errorOf(r); err != nil {
		return 0, err
	}
	n, ok := r.(resp.Integer)
	if !ok {
		return 0, decodeErr(command, "expected integer", r)
	}
	return int64(n), nil
}

// decodeEntryID expects a single bulk string carrying an entry ID (XADD).
func decodeEntryID(command string, r resp.Reply) (EntryID, error) {
	if err := errorOf(r); err != nil {
		return EntryID{}, err
	}
	s, ok := text(r)
	if !ok {
		return EntryID{}, decodeErr(command, "expected bulk string id", r)
	}
	id, err := ParseEntryID(s)
	if err != nil {
		return EntryID{}, decodeErr(command, "malformed entry id "+strconv.Quote(s), r)
	}
	return id, nil
}

// decodeEntry expects the two-element [id, fields] shape of one entry.
// A nil fields array is allowed: XCLAIM reports entries deleted from the
// stream that way.
func decodeEntry(command string, r resp.Reply) (Entry, error) {
	pair, ok := r.(resp.Array)
	if !ok || len(pair) != 2 {
		return Entry{}, decodeErr(command, "malformed entry: expected [id, fields]", r)
	}

	idText, ok := text(pair[0])
	if !ok {
		return Entry{}, decodeErr(command, "malformed entry: id is not a string", pair[0])
	}
	id, err := ParseEntryID(idText)
	if err != nil {
		return Entry{}, decodeErr(command, "malformed entry id "+strconv.Quote(idText), pair[0])
	}

	if _, isNil := pair[1].(resp.Nil); isNil {
		return Entry{ID: id}, nil
	}
	fields, ok := pair[1].(resp.Array)
	if !ok {
		return Entry{}, decodeErr(command, "malformed entry: fields is not an array", pair[1])
	}
	if len(fields)%2 != 0 {
		return Entry{}, decodeErr(command, "malformed entry: odd field count", pair[1])
	}

	entry := Entry{ID: id, Fields: make([]Field, 0, len(fields)/2)}
	for i := 0; i < len(fields); i += 2 {
		name, ok := text(fields[i])
		if !ok {
			return Entry{}, decodeErr(command, "malformed entry: field name is not a string", fields[i])
		}
		value, ok := text(fields[i+1])
		if !ok {
			return Entry{}, decodeErr(command, "malformed entry: field value is not a string", fields[i+1])
		}
		entry.Fields = append(entry.Fields, Field{Name: name, Value: value})
	}
	return entry, nil
}

// decodeEntries expects an array of entries (XRANGE, XREVRANGE, XCLAIM).
func decodeEntries(command string, r resp.Reply) ([]Entry, error) {
	if err := errorOf(r); err != nil {
		return nil, err
	}
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected entries array", r)
	}

	entries := make([]Entry, 0, len(arr))
	for _, item := range arr {
		entry, err := decodeEntry(command, item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// decodeStreams expects the per-stream shape of XREAD/XREADGROUP:
// an array of [stream-name, entries] pairs. A nil top-level reply means
// "no data" and decodes to an empty result, not an error.
func decodeStreams(command string, r resp.Reply) ([]XStream, error) {
	if err := errorOf(r); err != nil {
		return nil, err
	}
	if _, isNil := r.(resp.Nil); isNil {
		return []XStream{}, nil
	}
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected array of streams", r)
	}

	streams := make([]XStream, 0, len(arr))
	for _, item := range arr {
		pair, ok := item.(resp.Array)
		if !ok || len(pair) != 2 {
			return nil, decodeErr(command, "expected [stream, entries] pair", item)
		}
		name, ok := text(pair[0])
		if !ok {
			return nil, decodeErr(command, "stream name is not a string", pair[0])
		}
		entries, err := decodeEntries(command, pair[1])
		if err != nil {
			return nil, err
		}
		streams = append(streams, XStream{Stream: name, Entries: entries})
	}
	return streams, nil
}

// decodeIDs expects an array of bulk string IDs (XCLAIM ... JUSTID).
func decodeIDs(command string, r resp.Reply) ([]EntryID, error) {
	if err := errorOf(r); err != nil {
		return nil, err
	}
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected array of ids", r)
	}

	ids := make([]EntryID, 0, len(arr))
	for _, item := range arr {
		s, ok := text(item)
		if !ok {
			return nil, decodeErr(command, "id is not a string", item)
		}
		id, err := ParseEntryID(s)
		if err != nil {
			return nil, decodeErr(command, "malformed entry id "+strconv.Quote(s), item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// decodePending expects the XPENDING summary shape:
// [count, lower|nil, higher|nil, [[consumer, count] ...]|nil].
func decodePending(command string, r resp.Reply) (XPending, error) {
	if err := errorOf(r); err != nil {
		return XPending{}, err
	}
	arr, ok := r.(resp.Array)
	if !ok || len(arr) != 4 {
		return XPending{}, decodeErr(command, "expected 4-element summary", r)
	}

	count, ok := integer(arr[0])
	if !ok {
		return XPending{}, decodeErr(command, "pending count is not an integer", arr[0])
	}
	out := XPending{Count: count}
	if count == 0 {
		// No pending entries: bounds and consumer list are nil.
		return out, nil
	}

	lower, err := boundID(command, arr[1])
	if err != nil {
		return XPending{}, err
	}
	higher, err := boundID(command, arr[2])
	if err != nil {
		return XPending{}, err
	}
	out.Lower, out.Higher = lower, higher

	consumers, ok := arr[3].(resp.Array)
	if !ok {
		return XPending{}, decodeErr(command, "consumer list is not an array", arr[3])
	}
	out.Consumers = make([]XPendingConsumer, 0, len(consumers))
	for _, item := range consumers {
		row, ok := item.(resp.Array)
		if !ok || len(row) != 2 {
			return XPending{}, decodeErr(command, "expected [consumer, count] pair", item)
		}
		name, ok := text(row[0])
		if !ok {
			return XPending{}, decodeErr(command, "consumer name is not a string", row[0])
		}
		pending, ok := integer(row[1])
		if !ok {
			return XPending{}, decodeErr(command, "consumer pending count is not a number", row[1])
		}
		out.Consumers = append(out.Consumers, XPendingConsumer{Name: name, Pending: pending})
	}
	return out, nil
}

func boundID(command string, r resp.Reply) (EntryID, error) {
	s, ok := text(r)
	if !ok {
		return EntryID{}, decodeErr(command, "pending bound is not a string", r)
	}
	id, err := ParseEntryID(s)
	if err != nil {
		return EntryID{}, decodeErr(command, "malformed pending bound "+strconv.Quote(s), r)
	}
	return id, nil
}

// decodePendingExt expects the extended XPENDING shape: an array of
// [id, consumer, idle-ms, delivery-count] rows.
func decodePendingExt(command string, r resp.Reply) ([]XPendingEntry, error) {
	if err := errorOf(r); err != nil {
		return nil, err
	}
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected array of pending entries", r)
	}

	out := make([]XPendingEntry, 0, len(arr))
	for _, item := range arr {
		row, ok := item.(resp.Array)
		if !ok || len(row) != 4 {
			return nil, decodeErr(command, "expected [id, consumer, idle, deliveries] row", item)
		}
		idText, ok := text(row[0])
		if !ok {
			return nil, decodeErr(command, "pending id is not a string", row[0])
		}
		id, err := ParseEntryID(idText)
		if err != nil {
			return nil, decodeErr(command, "malformed pending id "+strconv.Quote(idText), row[0])
		}
		consumer, ok := text(row[1])
		if !ok {
			return nil, decodeErr(command, "pending consumer is not a string", row[1])
		}
		idle, ok := integer(row[2])
		if !ok {
			return nil, decodeErr(command, "pending idle time is not an integer", row[2])
		}
		retries, ok := integer(row[3])
		if !ok {
			return nil, decodeErr(command, "pending delivery count is not an integer", row[3])
		}
		out = append(out, XPendingEntry{
			ID:         id,
			Consumer:   consumer,
			Idle:       time.Duration(idle) * time.Millisecond,
			RetryCount: retries,
		})
	}
	return out, nil
}

// infoMap projects the flat [key, value, key, value ...] shape XINFO
// replies use into per-key lookups, preserving unknown keys harmlessly.
func infoMap(command string, r resp.Reply) (map[string]resp.Reply, error) {
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected key/value array", r)
	}
	if len(arr)%2 != 0 {
		return nil, decodeErr(command, "odd key/value count", r)
	}

	m := make(map[string]resp.Reply, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		key, ok := text(arr[i])
		if !ok {
			return nil, decodeErr(command, "info key is not a string", arr[i])
		}
		m[key] = arr[i+1]
	}
	return m, nil
}

// decodeInfoStream expects the XINFO STREAM shape. Unknown keys are
// ignored so newer servers keep decoding.
func decodeInfoStream(command string, r resp.Reply) (XInfoStream, error) {
	if err := errorOf(r); err != nil {
		return XInfoStream{}, err
	}
	m, err := infoMap(command, r)
	if err != nil {
		return XInfoStream{}, err
	}

	var out XInfoStream
	if v, ok := m["length"]; ok {
		out.Length, _ = integer(v)
	}
	if v, ok := m["radix-tree-keys"]; ok {
		out.RadixTreeKeys, _ = integer(v)
	}
	if v, ok := m["radix-tree-nodes"]; ok {
		out.RadixTreeNodes, _ = integer(v)
	}
	if v, ok := m["groups"]; ok {
		out.Groups, _ = integer(v)
	}
	if v, ok := m["last-generated-id"]; ok {
		if s, ok := text(v); ok {
			if id, err := ParseEntryID(s); err == nil {
				out.LastGeneratedID = id
			}
		}
	}
	if v, ok := m["first-entry"]; ok {
		entry, err := optionalEntry(command, v)
		if err != nil {
			return XInfoStream{}, err
		}
		out.FirstEntry = entry
	}
	if v, ok := m["last-entry"]; ok {
		entry, err := optionalEntry(command, v)
		if err != nil {
			return XInfoStream{}, err
		}
		out.LastEntry = entry
	}
	return out, nil
}

func optionalEntry(command string, r resp.Reply) (*Entry, error) {
	if _, isNil := r.(resp.Nil); isNil {
		return nil, nil
	}
	entry, err := decodeEntry(command, r)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// decodeInfoGroups expects the XINFO GROUPS shape: an array of key/value
// rows, one per group.
func decodeInfoGroups(command string, r resp.Reply) ([]XInfoGroup, error) {
	if err := errorOf(r); err != nil {
		return nil, err
	}
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected array of groups", r)
	}

	out := make([]XInfoGroup, 0, len(arr))
	for _, item := range arr {
		m, err := infoMap(command, item)
		if err != nil {
			return nil, err
		}
		var g XInfoGroup
		if v, ok := m["name"]; ok {
			g.Name, _ = text(v)
		}
		if v, ok := m["consumers"]; ok {
			g.Consumers, _ = integer(v)
		}
		if v, ok := m["pending"]; ok {
			g.Pending, _ = integer(v)
		}
		if v, ok := m["last-delivered-id"]; ok {
			if s, ok := text(v); ok {
				if id, err := ParseEntryID(s); err == nil {
					g.LastDeliveredID = id
				}
			}
		}
		out = append(out, g)
	}
	return out, nil
}

// decodeInfoConsumers expects the XINFO CONSUMERS shape.
func decodeInfoConsumers(command string, r resp.Reply) ([]XInfoConsumer, error) {
	if err := errorOf(r); err != nil {
		return nil, err
	}
	arr, ok := r.(resp.Array)
	if !ok {
		return nil, decodeErr(command, "expected array of consumers", r)
	}

	out := make([]XInfoConsumer, 0, len(arr))
	for _, item := range arr {
		m, err := infoMap(command, item)
		if err != nil {
			return nil, err
		}
		var c XInfoConsumer
		if v, ok := m["name"]; ok {
			c.Name, _ = text(v)
		}
		if v, ok := m["pending"]; ok {
			c.Pending, _ = integer(v)
		}
		if v, ok := m["idle"]; ok {
			if ms, ok := integer(v); ok {
				c.Idle = time.Duration(ms) * time.Millisecond
			}
		}
		out = append(out, c)
	}
	return out, nil
}
