package xstream

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID sentinels accepted by the server in place of an explicit entry ID.
// All of them are request-only: replies always carry explicit "<ms>-<seq>"
// IDs.
const (
	// MinID addresses the lowest possible entry ID ("-").
	MinID = "-"
	// MaxID addresses the highest possible entry ID ("+").
	MaxID = "+"
	// AutoID asks the server to generate the next ID ("*"). XADD only.
	AutoID = "*"
	// LastID addresses the last entry currently in the stream ("$").
	// XREAD and XGROUP CREATE/SETID only.
	LastID = "$"
	// NewID addresses entries never delivered to any consumer (">").
	// XREADGROUP only.
	NewID = ">"
)

// EntryID identifies one entry within a stream: a millisecond timestamp
// and a sequence number, totally ordered by numeric comparison of the two
// parts in turn. The textual form is "<ms>-<seq>".
type EntryID struct {
	Ms  uint64
	Seq uint64
}

// String renders the ID in its wire form, e.g. "1526919030474-55".
func (id EntryID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// Compare returns -1, 0 or 1 ordering id against other by (ms, seq).
// This matches the ordering the server applies; it is not a byte
// comparison of the rendered form.
func (id EntryID) Compare(other EntryID) int {
	switch {
	case id.Ms < other.Ms:
		return -1
	case id.Ms > other.Ms:
		return 1
	case id.Seq < other.Seq:
		return -1
	case id.Seq > other.Seq:
		return 1
	default:
		return 0
	}
}

// Before reports whether id orders strictly before other.
func (id EntryID) Before(other EntryID) bool { return id.Compare(other) < 0 }

// Next returns the smallest ID strictly greater than id. Overflow past the
// maximum ID is reported instead of wrapping.
func (id EntryID) Next() (next EntryID, overflow bool) {
	if id.Seq < math.MaxUint64 {
		return EntryID{Ms: id.Ms, Seq: id.Seq + 1}, false
	}
	if id.Ms < math.MaxUint64 {
		return EntryID{Ms: id.Ms + 1, Seq: 0}, false
	}
	return EntryID{}, true
}

// ParseEntryID parses an explicit "<ms>-<seq>" ID. A bare "<ms>" is
// accepted as "<ms>-0", mirroring the server's shorthand for range bounds.
// Sentinels ("-", "+", "*", "$", ">") and partial wildcards ("<ms>-*") are
// not explicit IDs and are rejected.
func ParseEntryID(s string) (EntryID, error) {
	if s == "" {
		return EntryID{}, fmt.Errorf("xstream: empty entry id")
	}

	msPart, seqPart, hasSeq := strings.Cut(s, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return EntryID{}, fmt.Errorf("xstream: bad entry id %q: %w", s, err)
	}
	if !hasSeq {
		return EntryID{Ms: ms}, nil
	}

	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return EntryID{}, fmt.Errorf("xstream: bad entry id %q: %w", s, err)
	}
	return EntryID{Ms: ms, Seq: seq}, nil
}

// Field is one field/value pair of an entry. Values are binary safe.
type Field struct {
	Name  string
	Value string
}

// Entry is one record of a stream: an ID plus its field/value pairs in the
// order the server returned them. Duplicate field names are preserved.
type Entry struct {
	ID     EntryID
	Fields []Field
}

// Value returns the value of the first field named name, and whether the
// entry carries such a field.
func (e Entry) Value(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Pairs flattens the fields into the name, value, name, value... sequence
// used when re-adding an entry.
func (e Entry) Pairs() []string {
	out := make([]string, 0, len(e.Fields)*2)
	for _, f := range e.Fields {
		out = append(out, f.Name, f.Value)
	}
	return out
}

// validRangeBound reports whether s is usable as an XRANGE/XREVRANGE or
// XPENDING bound: "-", "+", an explicit ID, a bare ms, or an exclusive
// "(<id>" form.
func validRangeBound(s string) bool {
	if s == MinID || s == MaxID {
		return true
	}
	if strings.HasPrefix(s, "(") {
		s = s[1:]
	}
	_, err := ParseEntryID(s)
	return err == nil
}
