package transport

import (
	"context"
	"net"
	"time"
)

// TCPDialer opens the plain TCP connection an SSH client handshake runs
// over.
type TCPDialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration // 0 = Go default, negative disables
}

// Dial connects to address, honouring both ctx and Timeout.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op; TCPDialer holds no state.
func (d *TCPDialer) Close() error { return nil }
