package xstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xstream/resp"
)

// entryReply builds the [id, [field, value, ...]] reply shape of one entry.
func entryReply(id string, fields ...string) resp.Reply {
	fs := make(resp.Array, len(fields))
	for i, f := range fields {
		fs[i] = resp.BulkString(f)
	}
	return resp.Array{resp.BulkString(id), fs}
}

func TestDecodeOK(t *testing.T) {
	require.NoError(t, decodeOK("XGROUP", resp.SimpleString("OK")))

	err := decodeOK("XGROUP", resp.Integer(1))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "XGROUP", de.Command)

	err = decodeOK("XGROUP", resp.Error("BUSYGROUP Consumer Group name already exists"))
	var srv ServerError
	require.ErrorAs(t, err, &srv)
	assert.Equal(t, "BUSYGROUP Consumer Group name already exists", srv.Message())
}

func TestDecodeInt(t *testing.T) {
	n, err := decodeInt("XLEN", resp.Integer(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = decodeInt("XLEN", resp.BulkString("42"))
	assert.Error(t, err, "plain integer replies are never bulk strings")
}

func TestDecodeEntryID(t *testing.T) {
	id, err := decodeEntryID("XADD", resp.BulkString("1526919030474-55"))
	require.NoError(t, err)
	assert.Equal(t, EntryID{Ms: 1526919030474, Seq: 55}, id)

	_, err = decodeEntryID("XADD", resp.BulkString("not-an-id"))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.NotNil(t, de.Raw)

	_, err = decodeEntryID("XADD", resp.Error("ERR The ID specified in XADD is equal or smaller than the target stream top item"))
	var srv ServerError
	assert.ErrorAs(t, err, &srv)
}

func TestDecodeEntries(t *testing.T) {
	reply := resp.Array{
		entryReply("5-1", "a", "1", "b", "2"),
		entryReply("5-2", "c", "3"),
	}
	entries, err := decodeEntries("XRANGE", reply)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, EntryID{Ms: 5, Seq: 1}, entries[0].ID)
	assert.Equal(t, []Field{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}, entries[0].Fields)
	assert.Equal(t, []Field{{Name: "c", Value: "3"}}, entries[1].Fields)

	empty, err := decodeEntries("XRANGE", resp.Array{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeEntries_Malformed(t *testing.T) {
	// Odd field count inside an entry.
	_, err := decodeEntries("XRANGE", resp.Array{
		resp.Array{resp.BulkString("5-1"), resp.Array{resp.BulkString("a")}},
	})
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	// Entry is not an [id, fields] pair.
	_, err = decodeEntries("XRANGE", resp.Array{resp.BulkString("5-1")})
	assert.ErrorAs(t, err, &de)

	// Top level is not an array.
	_, err = decodeEntries("XRANGE", resp.Integer(3))
	assert.ErrorAs(t, err, &de)
}

// XCLAIM may report entries that were deleted from the stream as an entry
// with nil fields; that decodes to an entry with no fields, not an error.
func TestDecodeEntries_NilFields(t *testing.T) {
	entries, err := decodeEntries("XCLAIM", resp.Array{
		resp.Array{resp.BulkString("5-1"), resp.Nil{}},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, EntryID{Ms: 5, Seq: 1}, entries[0].ID)
	assert.Empty(t, entries[0].Fields)
}

func TestDecodeStreams(t *testing.T) {
	reply := resp.Array{
		resp.Array{resp.BulkString("s1"), resp.Array{entryReply("5-1", "f", "v")}},
		resp.Array{resp.BulkString("s2"), resp.Array{}},
	}
	streams, err := decodeStreams("XREAD", reply)
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "s1", streams[0].Stream)
	require.Len(t, streams[0].Entries, 1)
	assert.Equal(t, "s2", streams[1].Stream)
	assert.Empty(t, streams[1].Entries)
}

// A timed-out blocking read replies nil; that is "no data", not an error.
func TestDecodeStreams_NilReply(t *testing.T) {
	streams, err := decodeStreams("XREAD", resp.Nil{})
	require.NoError(t, err)
	assert.NotNil(t, streams)
	assert.Empty(t, streams)
}

func TestDecodeIDs(t *testing.T) {
	ids, err := decodeIDs("XCLAIM", resp.Array{
		resp.BulkString("5-1"),
		resp.BulkString("6-0"),
	})
	require.NoError(t, err)
	assert.Equal(t, []EntryID{{Ms: 5, Seq: 1}, {Ms: 6, Seq: 0}}, ids)

	_, err = decodeIDs("XCLAIM", resp.Array{resp.Integer(5)})
	assert.Error(t, err)
}

func TestDecodePending_Summary(t *testing.T) {
	reply := resp.Array{
		resp.Integer(10),
		resp.BulkString("5-1"),
		resp.BulkString("9-0"),
		resp.Array{
			resp.Array{resp.BulkString("consumer-a"), resp.BulkString("6")},
			resp.Array{resp.BulkString("consumer-b"), resp.BulkString("4")},
		},
	}
	p, err := decodePending("XPENDING", reply)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Count)
	assert.Equal(t, EntryID{Ms: 5, Seq: 1}, p.Lower)
	assert.Equal(t, EntryID{Ms: 9, Seq: 0}, p.Higher)
	require.Len(t, p.Consumers, 2)
	assert.Equal(t, XPendingConsumer{Name: "consumer-a", Pending: 6}, p.Consumers[0])
}

// With nothing pending the server sends [0, nil, nil, nil]; the bounds
// must not be parsed.
func TestDecodePending_Empty(t *testing.T) {
	reply := resp.Array{resp.Integer(0), resp.Nil{}, resp.Nil{}, resp.Nil{}}
	p, err := decodePending("XPENDING", reply)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Count)
	assert.Empty(t, p.Consumers)
}

func TestDecodePendingExt(t *testing.T) {
	reply := resp.Array{
		resp.Array{
			resp.BulkString("5-1"),
			resp.BulkString("consumer-a"),
			resp.Integer(60000),
			resp.Integer(3),
		},
	}
	rows, err := decodePendingExt("XPENDING", reply)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, EntryID{Ms: 5, Seq: 1}, rows[0].ID)
	assert.Equal(t, "consumer-a", rows[0].Consumer)
	assert.Equal(t, time.Minute, rows[0].Idle)
	assert.Equal(t, int64(3), rows[0].RetryCount)

	_, err = decodePendingExt("XPENDING", resp.Array{
		resp.Array{resp.BulkString("5-1"), resp.BulkString("c")},
	})
	assert.Error(t, err, "short row")
}

func TestDecodeInfoStream(t *testing.T) {
	reply := resp.Array{
		resp.BulkString("length"), resp.Integer(4),
		resp.BulkString("radix-tree-keys"), resp.Integer(1),
		resp.BulkString("radix-tree-nodes"), resp.Integer(2),
		resp.BulkString("groups"), resp.Integer(1),
		resp.BulkString("last-generated-id"), resp.BulkString("7-3"),
		resp.BulkString("first-entry"), entryReply("5-1", "f", "v"),
		resp.BulkString("last-entry"), resp.Nil{},
		resp.BulkString("some-future-key"), resp.Integer(9),
	}
	info, err := decodeInfoStream("XINFO", reply)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Length)
	assert.Equal(t, int64(1), info.Groups)
	assert.Equal(t, EntryID{Ms: 7, Seq: 3}, info.LastGeneratedID)
	require.NotNil(t, info.FirstEntry)
	assert.Equal(t, EntryID{Ms: 5, Seq: 1}, info.FirstEntry.ID)
	assert.Nil(t, info.LastEntry)
}

func TestDecodeInfoGroups(t *testing.T) {
	reply := resp.Array{
		resp.Array{
			resp.BulkString("name"), resp.BulkString("g1"),
			resp.BulkString("consumers"), resp.Integer(2),
			resp.BulkString("pending"), resp.Integer(5),
			resp.BulkString("last-delivered-id"), resp.BulkString("7-0"),
		},
	}
	groups, err := decodeInfoGroups("XINFO", reply)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].Name)
	assert.Equal(t, int64(2), groups[0].Consumers)
	assert.Equal(t, int64(5), groups[0].Pending)
	assert.Equal(t, EntryID{Ms: 7, Seq: 0}, groups[0].LastDeliveredID)
}

func TestDecodeInfoConsumers(t *testing.T) {
	reply := resp.Array{
		resp.Array{
			resp.BulkString("name"), resp.BulkString("c1"),
			resp.BulkString("pending"), resp.Integer(3),
			resp.BulkString("idle"), resp.Integer(1500),
		},
	}
	consumers, err := decodeInfoConsumers("XINFO", reply)
	require.NoError(t, err)
	require.Len(t, consumers, 1)
	assert.Equal(t, "c1", consumers[0].Name)
	assert.Equal(t, int64(3), consumers[0].Pending)
	assert.Equal(t, 1500*time.Millisecond, consumers[0].Idle)
}

// DecodeError diagnostics carry the offending fragment, not the whole
// reply tree.
func TestDecodeError_CarriesFragment(t *testing.T) {
	_, err := decodeStreams("XREAD", resp.Array{resp.Integer(7)})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, resp.Integer(7), de.Raw)
	assert.Contains(t, de.Error(), "XREAD")
}
