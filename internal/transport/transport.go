// Package transport provides the byte-stream abstractions a console
// session runs over.  Transports handle the "how" of data movement
// (an SSH session channel, the local terminal, an in-memory pipe in
// tests) independent of what the console does with the bytes.
package transport

import (
	"context"
	"io"
	"net"
)

// Channel is an ordered, reliable duplex byte stream.  Short reads are
// allowed; Close must be safe to call once the peer is gone.
type Channel interface {
	io.Reader
	io.Writer
	Close() error
}

// Dialer opens outbound network connections for the console client.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer.
	// Stateless dialers return nil.
	Close() error
}
