package transport

import (
	"bufio"
	"io"
	"sync"
	"sync/atomic"

	conerr "sshconsole/internal/errors"
	"sshconsole/internal/metrics"
)

// Stream wraps a Channel for the lifetime of one console session.
// Reads go through a single buffered reader so the line editor and any
// handler that reads input itself never lose bytes to each other.
// Close reaches the underlying channel exactly once.
type Stream struct {
	ch      Channel
	r       *bufio.Reader
	metrics *metrics.Collector

	closed   atomic.Bool
	once     sync.Once
	closeErr error
}

// NewStream wraps ch.  m may be nil.
func NewStream(ch Channel, m *metrics.Collector) *Stream {
	return &Stream{
		ch:      ch,
		r:       bufio.NewReader(ch),
		metrics: m,
	}
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.metrics.BytesReceived(int64(n))
	return n, err
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err == nil {
		s.metrics.BytesReceived(1)
	}
	return b, err
}

// Write implements io.Writer.  Writing after Close fails with
// ErrSessionClosed.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, conerr.ErrSessionClosed
	}
	n, err := s.ch.Write(p)
	s.metrics.BytesSent(int64(n))
	return n, err
}

// WriteString implements io.StringWriter.
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Close closes the underlying channel once.  Later calls return the
// first call's result.
func (s *Stream) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.ch.Close()
	})
	return s.closeErr
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool { return s.closed.Load() }

var (
	_ Channel         = (*Stream)(nil)
	_ io.ByteReader   = (*Stream)(nil)
	_ io.StringWriter = (*Stream)(nil)
)
