package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// MaxBulkLen caps the length a reader accepts for a single bulk string.
// Redis itself limits bulk strings to 512MB.
const MaxBulkLen = 512 * 1024 * 1024

// Reader decodes RESP2 replies from a stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r in a buffered RESP reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadReply reads one complete reply tree.
//
// A nil bulk string or nil array is returned as Nil{}. Server error replies
// are returned as an Error node, not as a Go error: the caller decides
// whether an embedded error is fatal for the command at hand.
func (r *Reader) ReadReply() (Reply, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}

	switch line[0] {
	case typeSimpleString:
		return SimpleString(line[1:]), nil
	case typeError:
		return Error(line[1:]), nil
	case typeInteger:
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("resp: bad integer line %q: %w", line, err)
		}
		return Integer(n), nil
	case typeBulkString:
		return r.readBulk(line[1:])
	case typeArray:
		return r.readArray(line[1:])
	default:
		return nil, fmt.Errorf("resp: unknown type byte %q", line[0])
	}
}

// readLine reads up to CRLF and returns the line without the terminator.
func (r *Reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 3 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("resp: malformed line %q", line)
	}
	return line[:len(line)-2], nil
}

func (r *Reader) readBulk(header string) (Reply, error) {
	n, err := strconv.Atoi(header)
	if err != nil {
		return nil, fmt.Errorf("resp: bad bulk length %q: %w", header, err)
	}
	if n == -1 {
		return Nil{}, nil
	}
	if n < 0 || n > MaxBulkLen {
		return nil, fmt.Errorf("resp: bulk length %d out of range", n)
	}

	buf := make([]byte, n+2) // +2 for the trailing \r\n
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("resp: bulk string missing CRLF terminator")
	}
	return BulkString(buf[:n]), nil
}

func (r *Reader) readArray(header string) (Reply, error) {
	n, err := strconv.Atoi(header)
	if err != nil {
		return nil, fmt.Errorf("resp: bad array length %q: %w", header, err)
	}
	if n == -1 {
		return Nil{}, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("resp: array length %d out of range", n)
	}

	arr := make(Array, n)
	for i := range arr {
		elem, err := r.ReadReply()
		if err != nil {
			return nil, err
		}
		arr[i] = elem
	}
	return arr, nil
}
