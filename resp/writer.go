package resp

import (
	"bufio"
	"io"
	"strconv"
)

// Writer encodes outbound commands in RESP2 framing.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w in a buffered RESP writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteCommand frames args as an array of bulk strings and flushes it.
// The first argument is the command name.
func (w *Writer) WriteCommand(args ...string) error {
	w.bw.WriteByte(typeArray)
	w.bw.WriteString(strconv.Itoa(len(args)))
	w.bw.WriteString("\r\n")
	for _, a := range args {
		w.bw.WriteByte(typeBulkString)
		w.bw.WriteString(strconv.Itoa(len(a)))
		w.bw.WriteString("\r\n")
		w.bw.WriteString(a)
		w.bw.WriteString("\r\n")
	}
	return w.bw.Flush()
}

// WriteReply frames a reply tree and flushes it. Servers (and test fakes
// standing in for one) use this; clients only read replies.
func (w *Writer) WriteReply(r Reply) error {
	w.bw.Write(AppendReply(nil, r))
	return w.bw.Flush()
}

// AppendReply renders the RESP2 framing of r onto dst and returns the
// extended slice. Nil{} is rendered as a nil bulk string.
func AppendReply(dst []byte, r Reply) []byte {
	switch v := r.(type) {
	case SimpleString:
		dst = append(dst, typeSimpleString)
		dst = append(dst, v...)
		dst = append(dst, '\r', '\n')
	case Error:
		dst = append(dst, typeError)
		dst = append(dst, v...)
		dst = append(dst, '\r', '\n')
	case Integer:
		dst = append(dst, typeInteger)
		dst = strconv.AppendInt(dst, int64(v), 10)
		dst = append(dst, '\r', '\n')
	case BulkString:
		dst = append(dst, typeBulkString)
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v...)
		dst = append(dst, '\r', '\n')
	case Nil:
		dst = append(dst, "$-1\r\n"...)
	case Array:
		dst = append(dst, typeArray)
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, '\r', '\n')
		for _, e := range v {
			dst = AppendReply(dst, e)
		}
	}
	return dst
}

// AppendCommand renders the RESP2 framing of args onto dst and returns the
// extended slice. Useful for tests and offline framing.
func AppendCommand(dst []byte, args ...string) []byte {
	dst = append(dst, typeArray)
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, '\r', '\n')
	for _, a := range args {
		dst = append(dst, typeBulkString)
		dst = strconv.AppendInt(dst, int64(len(a)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, a...)
		dst = append(dst, '\r', '\n')
	}
	return dst
}
