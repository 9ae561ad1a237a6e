package xstream

import (
	"fmt"

	"github.com/trickstertwo/xstream/resp"
)

// BuildError reports arguments that cannot be rendered into a valid
// command. It is returned before anything reaches the connection.
type BuildError struct {
	Command string // command being built, e.g. "XADD"
	Reason  string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("xstream: build %s: %s", e.Command, e.Reason)
}

func buildErr(command, format string, args ...any) error {
	return &BuildError{Command: command, Reason: fmt.Sprintf(format, args...)}
}

// DecodeError reports a reply whose shape does not match what the command
// guarantees. Raw carries the offending fragment for diagnostics.
type DecodeError struct {
	Command string
	Reason  string
	Raw     resp.Reply
}

func (e *DecodeError) Error() string {
	if e.Raw == nil {
		return fmt.Sprintf("xstream: decode %s reply: %s", e.Command, e.Reason)
	}
	return fmt.Sprintf("xstream: decode %s reply: %s (got %s)", e.Command, e.Reason, resp.String(e.Raw))
}

func decodeErr(command, reason string, raw resp.Reply) error {
	return &DecodeError{Command: command, Reason: reason, Raw: raw}
}

// ServerError is an error reply embedded in the response, e.g.
// "NOGROUP No such consumer group". It is surfaced verbatim, never
// coerced into an empty result.
type ServerError string

func (e ServerError) Error() string { return "xstream: server error: " + string(e) }

// Message returns the raw server error text, e.g. "BUSYGROUP Consumer
// Group name already exists".
func (e ServerError) Message() string { return string(e) }

// ErrUnknownConn is returned by NewConn for an unregistered adapter name.
type ErrUnknownConn struct{ name string }

func (e ErrUnknownConn) Error() string {
	return fmt.Sprintf("xstream: unknown conn adapter: %s", e.name)
}
