package xstream

import "sync/atomic"

// clientMetrics tracks per-client telemetry.
type clientMetrics struct {
	commands     atomic.Uint64
	buildErrors  atomic.Uint64
	connErrors   atomic.Uint64
	decodeErrors atomic.Uint64
	serverErrors atomic.Uint64
}

// Metrics is a snapshot of a client's counters.
type Metrics struct {
	Commands     uint64 // commands attempted
	BuildErrors  uint64 // rejected before reaching the connection
	ConnErrors   uint64 // transport failures reported by the Conn
	DecodeErrors uint64 // reply shape mismatches
	ServerErrors uint64 // error replies from the server
}

func (m *clientMetrics) snapshot() Metrics {
	return Metrics{
		Commands:     m.commands.Load(),
		BuildErrors:  m.buildErrors.Load(),
		ConnErrors:   m.connErrors.Load(),
		DecodeErrors: m.decodeErrors.Load(),
		ServerErrors: m.serverErrors.Load(),
	}
}
