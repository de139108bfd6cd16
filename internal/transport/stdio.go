package transport

import "io"

// stdio joins a separate reader and writer into a Channel.
type stdio struct {
	io.Reader
	io.Writer
	closeFn func() error
}

// NewStdio returns a Channel reading from in and writing to out.
// closeFn runs on Close and may be nil.
func NewStdio(in io.Reader, out io.Writer, closeFn func() error) Channel {
	return &stdio{Reader: in, Writer: out, closeFn: closeFn}
}

func (s *stdio) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
