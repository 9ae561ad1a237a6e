// Package resp implements the subset of the Redis Serialization Protocol
// (RESP2) needed to exchange commands and replies with a Redis server.
//
// A reply is modeled as a closed set of variants implementing Reply, so
// every decode site can switch exhaustively over the five RESP2 kinds plus
// the nil reply. Replies are immutable once read; consumers only pattern
// match and project.
package resp

import "strconv"

// Type bytes of the RESP2 wire format.
const (
	typeSimpleString = byte('+') // +<string>\r\n
	typeError        = byte('-') // -<string>\r\n
	typeInteger      = byte(':') // :<number>\r\n
	typeBulkString   = byte('$') // $<length>\r\n<bytes>\r\n
	typeArray        = byte('*') // *<len>\r\n<elements>
)

// Reply is one node of a reply tree returned by a Redis server.
//
// Implementations: SimpleString, Error, Integer, BulkString, Array, Nil.
type Reply interface {
	replyNode()

	// Kind returns a short human-readable name of the variant,
	// used in diagnostics.
	Kind() string
}

// SimpleString is a single-line status reply, e.g. "OK".
type SimpleString string

// Error is a server error reply, e.g. "ERR unknown command".
type Error string

// Integer is a signed 64-bit integer reply.
type Integer int64

// BulkString is a binary-safe string reply.
type BulkString []byte

// Array is an ordered collection of replies.
type Array []Reply

// Nil is the null reply ($-1 or *-1): an absent bulk string or array.
type Nil struct{}

func (SimpleString) replyNode() {}
func (Error) replyNode()        {}
func (Integer) replyNode()      {}
func (BulkString) replyNode()   {}
func (Array) replyNode()        {}
func (Nil) replyNode()          {}

func (SimpleString) Kind() string { return "simple string" }
func (Error) Kind() string        { return "error" }
func (Integer) Kind() string      { return "integer" }
func (BulkString) Kind() string   { return "bulk string" }
func (Array) Kind() string        { return "array" }
func (Nil) Kind() string          { return "nil" }

func (s SimpleString) String() string { return string(s) }
func (b BulkString) String() string   { return string(b) }

// Error implements the error interface so a server error reply can travel
// through error returns unchanged.
func (e Error) Error() string { return string(e) }

// String renders a Reply for diagnostics. It is not the wire form.
func String(r Reply) string {
	switch v := r.(type) {
	case nil:
		return "<nil>"
	case SimpleString:
		return "+" + string(v)
	case Error:
		return "-" + string(v)
	case Integer:
		return ":" + strconv.FormatInt(int64(v), 10)
	case BulkString:
		return strconv.Quote(string(v))
	case Nil:
		return "(nil)"
	case Array:
		out := "["
		for i, e := range v {
			if i > 0 {
				out += " "
			}
			out += String(e)
		}
		return out + "]"
	default:
		return "<unknown>"
	}
}
