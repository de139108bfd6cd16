// Package metrics provides lightweight, lock-free counters and gauges
// for tracking runtime statistics of an sshconsole server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics shared by every console session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	sessionsActive  atomic.Int64
	sessionsTotal   atomic.Int64
	bytesIn         atomic.Int64
	bytesOut        atomic.Int64
	commandsTotal   atomic.Int64
	commandFailures atomic.Int64
	rejectedTotal   atomic.Int64
	errorsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the current number of open sessions.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// ConnectionRejected records a connection refused by the session cap or
// a failed handshake.
func (c *Collector) ConnectionRejected() {
	if c == nil {
		return
	}
	c.rejectedTotal.Add(1)
}

// RejectedConnections returns the number of refused connections.
func (c *Collector) RejectedConnections() int64 {
	if c == nil {
		return 0
	}
	return c.rejectedTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from a channel.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to a channel.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandDispatched records one dispatched command line.  failed marks
// lines that were rejected (syntax, unknown name, bad arguments).
func (c *Collector) CommandDispatched(failed bool) {
	if c == nil {
		return
	}
	c.commandsTotal.Add(1)
	if failed {
		c.commandFailures.Add(1)
	}
}

// Commands returns the total number of dispatched lines.
func (c *Collector) Commands() int64 {
	if c == nil {
		return 0
	}
	return c.commandsTotal.Load()
}

// CommandFailures returns the number of rejected lines.
func (c *Collector) CommandFailures() int64 {
	if c == nil {
		return 0
	}
	return c.commandFailures.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the session error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// Uptime returns the time since the collector was created.
func (c *Collector) Uptime() time.Duration {
	if c == nil {
		return 0
	}
	return time.Since(c.startTime)
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	Rejected         int64  `json:"connections_rejected"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	Commands         int64  `json:"commands_total"`
	CommandFailures  int64  `json:"command_failures"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:          time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:  c.sessionsActive.Load(),
		SessionsTotal:   c.sessionsTotal.Load(),
		Rejected:        c.rejectedTotal.Load(),
		BytesIn:         c.bytesIn.Load(),
		BytesOut:        c.bytesOut.Load(),
		Commands:        c.commandsTotal.Load(),
		CommandFailures: c.commandFailures.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
