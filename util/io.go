package util

import (
	"context"
	"errors"
	"io"
	"net"
)

// DefaultBufSize is the standard buffer size for relayed I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// halfCloser is implemented by streams that can signal end-of-input
// without tearing down the read side (net.TCPConn, ssh.Channel).
type halfCloser interface {
	CloseWrite() error
}

// BidirectionalCopy shuffles data between a remote stream and an
// arbitrary reader/writer pair (typically the local terminal) until one
// side reaches EOF or the context is cancelled.
func BidirectionalCopy(ctx context.Context, remote io.ReadWriteCloser, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	outDone := make(chan struct{})

	// remote → writer
	go func() {
		defer close(outDone)
		_, err := copyPooled(w, remote)
		errCh <- err
		cancel()
	}()

	// reader → remote.  A terminal read cannot be interrupted, so this
	// goroutine is not waited for; it exits on its next read.
	go func() {
		_, err := copyPooled(remote, r)
		// Half-close so the peer sees EOF but can still finish sending.
		if hc, ok := remote.(halfCloser); ok {
			hc.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	remote.Close() // unblock any pending reads/writes
	<-outDone

	for {
		select {
		case err := <-errCh:
			if err != nil && !isHarmless(err) {
				return err
			}
		default:
			return nil
		}
	}
}

func copyPooled(dst io.Writer, src io.Reader) (int64, error) {
	buf := GetBuf()
	defer PutBuf(buf)
	return io.CopyBuffer(dst, src, *buf)
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
