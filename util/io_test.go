package util

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer accepts one connection and echoes it until EOF.
func echoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn) //nolint:errcheck
	}()
	return ln.Addr().String()
}

func TestBidirectionalCopy_HalfClose(t *testing.T) {
	conn, err := net.Dial("tcp", echoServer(t))
	require.NoError(t, err)

	input := bytes.NewBufferString("help\r")
	output := &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Input EOF half-closes the write side; the echo server then closes
	// its side, which ends the copy.
	require.NoError(t, BidirectionalCopy(ctx, conn, input, output))
	assert.Equal(t, "help\r", output.String())
}

func TestBidirectionalCopy_RemoteEndsWhileInputBlocked(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("bye\r\n")) //nolint:errcheck
		conn.Close()
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	// A pipe nobody writes to stands in for an idle terminal.
	pr, pw := io.Pipe()
	defer pw.Close()
	output := &bytes.Buffer{}

	done := make(chan error, 1)
	go func() { done <- BidirectionalCopy(context.Background(), conn, pr, output) }()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Equal(t, "bye\r\n", output.String())
	case <-time.After(3 * time.Second):
		t.Fatal("copy did not return after the remote closed")
	}
}

func TestBidirectionalCopy_ContextCancel(t *testing.T) {
	conn, err := net.Dial("tcp", echoServer(t))
	require.NoError(t, err)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- BidirectionalCopy(ctx, conn, pr, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("copy did not return after cancel")
	}
}

func TestIsHarmless(t *testing.T) {
	assert.True(t, isHarmless(nil))
	assert.True(t, isHarmless(io.EOF))
	assert.True(t, isHarmless(net.ErrClosed))
	assert.True(t, isHarmless(io.ErrClosedPipe))
	assert.False(t, isHarmless(io.ErrUnexpectedEOF))
}
