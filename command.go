package xstream

import (
	"strconv"
	"strings"
	"time"
)

// Command names emitted as the first argument.
const (
	cmdXAdd      = "XADD"
	cmdXRead     = "XREAD"
	cmdXReadGrp  = "XREADGROUP"
	cmdXRange    = "XRANGE"
	cmdXRevRange = "XREVRANGE"
	cmdXTrim     = "XTRIM"
	cmdXLen      = "XLEN"
	cmdXDel      = "XDEL"
	cmdXAck      = "XACK"
	cmdXGroup    = "XGROUP"
	cmdXClaim    = "XCLAIM"
	cmdXPending  = "XPENDING"
	cmdXInfo     = "XINFO"
)

// BlockForever renders "BLOCK 0", which tells the server to block without
// a timeout. A zero Block omits the flag entirely (non-blocking call).
const BlockForever time.Duration = -1

// XAddArgs describes an XADD call.
//
// Rendered grammar, flags in this fixed order:
//
//	XADD key [NOMKSTREAM] [MAXLEN|MINID [~|=] threshold [LIMIT n]]
//	     <id|*> field value [field value ...]
type XAddArgs struct {
	Stream     string
	NoMkStream bool

	// Trim strategy: set at most one of MaxLen/MinID.
	MaxLen int64
	MinID  string
	Approx bool
	Limit  int64 // LIMIT requires Approx

	// ID defaults to AutoID ("*"). An explicit "<ms>-<seq>" or a partial
	// wildcard "<ms>-*" is passed through.
	ID     string
	Values []Field
}

func buildXAdd(a XAddArgs) ([]string, error) {
	if a.Stream == "" {
		return nil, buildErr(cmdXAdd, "empty stream name")
	}
	if len(a.Values) == 0 {
		return nil, buildErr(cmdXAdd, "empty field list")
	}

	args := make([]string, 0, 8+len(a.Values)*2)
	args = append(args, cmdXAdd, a.Stream)
	if a.NoMkStream {
		args = append(args, "NOMKSTREAM")
	}

	trim, err := appendTrim(nil, cmdXAdd, a.MaxLen, a.MinID, a.Approx, a.Limit, false)
	if err != nil {
		return nil, err
	}
	args = append(args, trim...)

	id := a.ID
	if id == "" {
		id = AutoID
	}
	if err := checkAddID(id); err != nil {
		return nil, err
	}
	args = append(args, id)

	for _, f := range a.Values {
		if f.Name == "" {
			return nil, buildErr(cmdXAdd, "empty field name")
		}
		args = append(args, f.Name, f.Value)
	}
	return args, nil
}

// checkAddID accepts "*", an explicit ID, or a partial wildcard "<ms>-*".
func checkAddID(id string) error {
	if id == AutoID {
		return nil
	}
	if ms, ok := strings.CutSuffix(id, "-*"); ok {
		if _, err := strconv.ParseUint(ms, 10, 64); err != nil {
			return buildErr(cmdXAdd, "bad entry id %q", id)
		}
		return nil
	}
	if _, err := ParseEntryID(id); err != nil {
		return buildErr(cmdXAdd, "bad entry id %q", id)
	}
	return nil
}

// appendTrim renders the shared XADD/XTRIM trim clause. When required is
// set (XTRIM), an absent strategy is an error; otherwise it renders
// nothing.
func appendTrim(args []string, command string, maxLen int64, minID string, approx bool, limit int64, required bool) ([]string, error) {
	hasMaxLen := maxLen > 0
	hasMinID := minID != ""

	switch {
	case hasMaxLen && hasMinID:
		return nil, buildErr(command, "both MAXLEN and MINID set")
	case !hasMaxLen && !hasMinID:
		if required {
			return nil, buildErr(command, "no trim strategy: set MaxLen or MinID")
		}
		if limit > 0 {
			return nil, buildErr(command, "LIMIT without a trim strategy")
		}
		return args, nil
	}

	if limit > 0 && !approx {
		return nil, buildErr(command, "LIMIT requires approximate trimming")
	}

	marker := "="
	if approx {
		marker = "~"
	}

	if hasMaxLen {
		args = append(args, "MAXLEN", marker, strconv.FormatInt(maxLen, 10))
	} else {
		if _, err := ParseEntryID(minID); err != nil {
			return nil, buildErr(command, "bad MINID %q", minID)
		}
		args = append(args, "MINID", marker, minID)
	}
	if limit > 0 {
		args = append(args, "LIMIT", strconv.FormatInt(limit, 10))
	}
	return args, nil
}

// XReadArgs describes an XREAD call.
//
//	XREAD [COUNT n] [BLOCK ms] STREAMS key [key ...] id [id ...]
type XReadArgs struct {
	// Streams lists the stream names followed by their start IDs, e.g.
	// []string{"s1", "s2", "0-0", "$"}, the same convention as the
	// server's STREAMS clause (and go-redis).
	Streams []string
	Count   int64
	// Block == 0 omits BLOCK; BlockForever renders "BLOCK 0"; a positive
	// duration renders its milliseconds.
	Block time.Duration
}

func buildXRead(a XReadArgs) ([]string, error) {
	return buildRead(cmdXRead, nil, a.Streams, a.Count, a.Block, false)
}

// XReadGroupArgs describes an XREADGROUP call.
//
//	XREADGROUP GROUP group consumer [COUNT n] [BLOCK ms] [NOACK]
//	           STREAMS key [key ...] id [id ...]
type XReadGroupArgs struct {
	Group    string
	Consumer string
	Streams  []string // stream names followed by IDs, usually ">"
	Count    int64
	Block    time.Duration
	NoAck    bool
}

func buildXReadGroup(a XReadGroupArgs) ([]string, error) {
	if a.Group == "" {
		return nil, buildErr(cmdXReadGrp, "empty group name")
	}
	if a.Consumer == "" {
		return nil, buildErr(cmdXReadGrp, "empty consumer name")
	}
	prefix := []string{"GROUP", a.Group, a.Consumer}
	return buildRead(cmdXReadGrp, prefix, a.Streams, a.Count, a.Block, a.NoAck)
}

func buildRead(command string, prefix, streams []string, count int64, block time.Duration, noAck bool) ([]string, error) {
	if len(streams) == 0 {
		return nil, buildErr(command, "empty stream list")
	}
	if len(streams)%2 != 0 {
		return nil, buildErr(command, "streams list must pair every stream with an id, got %d items", len(streams))
	}
	for _, s := range streams {
		if s == "" {
			return nil, buildErr(command, "empty stream name or id")
		}
	}

	args := make([]string, 0, len(prefix)+len(streams)+6)
	args = append(args, command)
	args = append(args, prefix...)
	if count > 0 {
		args = append(args, "COUNT", strconv.FormatInt(count, 10))
	}
	if block != 0 {
		args = append(args, "BLOCK", formatMs(block))
	}
	if noAck {
		args = append(args, "NOACK")
	}
	args = append(args, "STREAMS")
	args = append(args, streams...)
	return args, nil
}

func buildXRange(command, stream, start, stop string, count int64) ([]string, error) {
	if stream == "" {
		return nil, buildErr(command, "empty stream name")
	}
	if !validRangeBound(start) {
		return nil, buildErr(command, "bad range start %q", start)
	}
	if !validRangeBound(stop) {
		return nil, buildErr(command, "bad range end %q", stop)
	}

	args := []string{command, stream, start, stop}
	if count > 0 {
		args = append(args, "COUNT", strconv.FormatInt(count, 10))
	}
	return args, nil
}

// XTrimArgs describes an XTRIM call.
//
//	XTRIM key MAXLEN|MINID [~|=] threshold [LIMIT n]
type XTrimArgs struct {
	Stream string
	// Set exactly one of MaxLen/MinID.
	MaxLen int64
	MinID  string
	Approx bool
	Limit  int64 // LIMIT requires Approx
}

func buildXTrim(a XTrimArgs) ([]string, error) {
	if a.Stream == "" {
		return nil, buildErr(cmdXTrim, "empty stream name")
	}
	args := []string{cmdXTrim, a.Stream}
	return appendTrim(args, cmdXTrim, a.MaxLen, a.MinID, a.Approx, a.Limit, true)
}

func buildXLen(stream string) ([]string, error) {
	if stream == "" {
		return nil, buildErr(cmdXLen, "empty stream name")
	}
	return []string{cmdXLen, stream}, nil
}

func buildXDel(stream string, ids []string) ([]string, error) {
	return buildKeyIDs(cmdXDel, stream, "", ids)
}

func buildXAck(stream, group string, ids []string) ([]string, error) {
	if group == "" {
		return nil, buildErr(cmdXAck, "empty group name")
	}
	return buildKeyIDs(cmdXAck, stream, group, ids)
}

func buildKeyIDs(command, stream, group string, ids []string) ([]string, error) {
	if stream == "" {
		return nil, buildErr(command, "empty stream name")
	}
	if len(ids) == 0 {
		return nil, buildErr(command, "empty id list")
	}

	args := make([]string, 0, 3+len(ids))
	args = append(args, command, stream)
	if group != "" {
		args = append(args, group)
	}
	for _, id := range ids {
		if _, err := ParseEntryID(id); err != nil {
			return nil, buildErr(command, "bad entry id %q", id)
		}
		args = append(args, id)
	}
	return args, nil
}

func buildXGroupCreate(stream, group, start string, mkStream bool) ([]string, error) {
	if err := checkGroupArgs(stream, group); err != nil {
		return nil, err
	}
	if err := checkGroupStartID(start); err != nil {
		return nil, err
	}
	args := []string{cmdXGroup, "CREATE", stream, group, start}
	if mkStream {
		args = append(args, "MKSTREAM")
	}
	return args, nil
}

func buildXGroupSetID(stream, group, start string) ([]string, error) {
	if err := checkGroupArgs(stream, group); err != nil {
		return nil, err
	}
	if err := checkGroupStartID(start); err != nil {
		return nil, err
	}
	return []string{cmdXGroup, "SETID", stream, group, start}, nil
}

func buildXGroupDestroy(stream, group string) ([]string, error) {
	if err := checkGroupArgs(stream, group); err != nil {
		return nil, err
	}
	return []string{cmdXGroup, "DESTROY", stream, group}, nil
}

func buildXGroupDelConsumer(stream, group, consumer string) ([]string, error) {
	if err := checkGroupArgs(stream, group); err != nil {
		return nil, err
	}
	if consumer == "" {
		return nil, buildErr(cmdXGroup, "empty consumer name")
	}
	return []string{cmdXGroup, "DELCONSUMER", stream, group, consumer}, nil
}

func checkGroupArgs(stream, group string) error {
	if stream == "" {
		return buildErr(cmdXGroup, "empty stream name")
	}
	if group == "" {
		return buildErr(cmdXGroup, "empty group name")
	}
	return nil
}

// checkGroupStartID accepts "$" or an explicit ID as a group cursor.
func checkGroupStartID(start string) error {
	if start == LastID {
		return nil
	}
	if _, err := ParseEntryID(start); err != nil {
		return buildErr(cmdXGroup, "bad start id %q", start)
	}
	return nil
}

// XClaimArgs describes an XCLAIM call.
//
//	XCLAIM key group consumer min-idle-time id [id ...]
//	       [IDLE ms] [TIME unix-ms] [RETRYCOUNT n] [FORCE] [JUSTID]
type XClaimArgs struct {
	Stream   string
	Group    string
	Consumer string
	MinIdle  time.Duration
	IDs      []string

	// Optional flags, rendered in grammar order.
	Idle       time.Duration
	Time       time.Time // zero means unset
	RetryCount int64
	Force      bool
}

func buildXClaim(a XClaimArgs, justID bool) ([]string, error) {
	if a.Stream == "" {
		return nil, buildErr(cmdXClaim, "empty stream name")
	}
	if a.Group == "" {
		return nil, buildErr(cmdXClaim, "empty group name")
	}
	if a.Consumer == "" {
		return nil, buildErr(cmdXClaim, "empty consumer name")
	}
	if len(a.IDs) == 0 {
		return nil, buildErr(cmdXClaim, "empty id list")
	}
	if a.MinIdle < 0 {
		return nil, buildErr(cmdXClaim, "negative min-idle-time")
	}

	args := make([]string, 0, 10+len(a.IDs))
	args = append(args, cmdXClaim, a.Stream, a.Group, a.Consumer,
		strconv.FormatInt(a.MinIdle.Milliseconds(), 10))
	for _, id := range a.IDs {
		if _, err := ParseEntryID(id); err != nil {
			return nil, buildErr(cmdXClaim, "bad entry id %q", id)
		}
		args = append(args, id)
	}
	if a.Idle > 0 {
		args = append(args, "IDLE", formatMs(a.Idle))
	}
	if !a.Time.IsZero() {
		args = append(args, "TIME", strconv.FormatInt(a.Time.UnixMilli(), 10))
	}
	if a.RetryCount > 0 {
		args = append(args, "RETRYCOUNT", strconv.FormatInt(a.RetryCount, 10))
	}
	if a.Force {
		args = append(args, "FORCE")
	}
	if justID {
		args = append(args, "JUSTID")
	}
	return args, nil
}

func buildXPending(stream, group string) ([]string, error) {
	if stream == "" {
		return nil, buildErr(cmdXPending, "empty stream name")
	}
	if group == "" {
		return nil, buildErr(cmdXPending, "empty group name")
	}
	return []string{cmdXPending, stream, group}, nil
}

// XPendingExtArgs describes the extended XPENDING form.
//
//	XPENDING key group [IDLE ms] start end count [consumer]
type XPendingExtArgs struct {
	Stream   string
	Group    string
	Idle     time.Duration
	Start    string
	End      string
	Count    int64
	Consumer string // optional filter
}

func buildXPendingExt(a XPendingExtArgs) ([]string, error) {
	if a.Stream == "" {
		return nil, buildErr(cmdXPending, "empty stream name")
	}
	if a.Group == "" {
		return nil, buildErr(cmdXPending, "empty group name")
	}
	if !validRangeBound(a.Start) {
		return nil, buildErr(cmdXPending, "bad range start %q", a.Start)
	}
	if !validRangeBound(a.End) {
		return nil, buildErr(cmdXPending, "bad range end %q", a.End)
	}
	if a.Count <= 0 {
		return nil, buildErr(cmdXPending, "count must be positive, got %d", a.Count)
	}

	args := []string{cmdXPending, a.Stream, a.Group}
	if a.Idle > 0 {
		args = append(args, "IDLE", formatMs(a.Idle))
	}
	args = append(args, a.Start, a.End, strconv.FormatInt(a.Count, 10))
	if a.Consumer != "" {
		args = append(args, a.Consumer)
	}
	return args, nil
}

func buildXInfo(section, stream, group string) ([]string, error) {
	if stream == "" {
		return nil, buildErr(cmdXInfo, "empty stream name")
	}
	args := []string{cmdXInfo, section, stream}
	if section == "CONSUMERS" {
		if group == "" {
			return nil, buildErr(cmdXInfo, "empty group name")
		}
		args = append(args, group)
	}
	return args, nil
}

// formatMs renders a duration as integer milliseconds. BlockForever (any
// negative duration) renders "0", which the server reads as "no timeout".
// Sub-millisecond positive durations round up to 1 rather than silently
// becoming non-blocking.
func formatMs(d time.Duration) string {
	if d < 0 {
		return "0"
	}
	if d > 0 && d < time.Millisecond {
		return "1"
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}
