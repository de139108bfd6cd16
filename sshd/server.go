// Package sshd is the server side of the console's SSH transport: host
// key handling, client authentication and the per-connection handshake
// that yields one interactive channel.
package sshd

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	conerr "sshconsole/internal/errors"
	"sshconsole/util"
)

// Conn is an authenticated SSH connection whose session channel has
// requested a shell.  It reads and writes that channel.
type Conn struct {
	ssh.Channel
	sconn *ssh.ServerConn
	once  sync.Once
}

// User is the name the client authenticated as.
func (c *Conn) User() string { return c.sconn.User() }

// RemoteAddr is the client's network address.
func (c *Conn) RemoteAddr() net.Addr { return c.sconn.RemoteAddr() }

// Close reports exit status 0, then tears down the channel and the
// underlying connection.  It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		_, _ = c.Channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
		_ = c.Channel.Close()
		err = c.sconn.Close()
	})
	return err
}

// Accept runs the SSH handshake on conn, accepts the first "session"
// channel and waits up to shellTimeout for the client to request a
// shell.  Any failure closes conn.
func Accept(ctx context.Context, conn net.Conn, cfg *ssh.ServerConfig, shellTimeout time.Duration) (*Conn, error) {
	host, port := util.RemoteHost(conn.RemoteAddr()), 0
	if ta, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		port = ta.Port
	}

	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, conerr.WrapSSH("handshake", host, port, err)
	}
	go ssh.DiscardRequests(reqs)

	fail := func(err error) (*Conn, error) {
		sconn.Close()
		return nil, conerr.WrapSSH("channel", host, port, err)
	}

	timer := time.NewTimer(shellTimeout)
	defer timer.Stop()

	var (
		ch     ssh.Channel
		chReqs <-chan *ssh.Request
	)
	for ch == nil {
		select {
		case nc, ok := <-chans:
			if !ok {
				return fail(conerr.ErrNoShell)
			}
			if nc.ChannelType() != "session" {
				_ = nc.Reject(ssh.UnknownChannelType, "only session channels are supported")
				continue
			}
			ch, chReqs, err = nc.Accept()
			if err != nil {
				return fail(err)
			}
		case <-timer.C:
			return fail(conerr.ErrNoShell)
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}

	go func() {
		for nc := range chans {
			_ = nc.Reject(ssh.Prohibited, "one session per connection")
		}
	}()

	shell := make(chan struct{})
	go serveRequests(chReqs, shell)

	select {
	case <-shell:
	case <-timer.C:
		ch.Close()
		return fail(conerr.ErrNoShell)
	case <-ctx.Done():
		ch.Close()
		return fail(ctx.Err())
	}

	return &Conn{Channel: ch, sconn: sconn}, nil
}

// serveRequests answers channel requests for the life of the channel.
// Terminal setup requests succeed and are otherwise ignored; exec and
// subsystem are refused.
func serveRequests(reqs <-chan *ssh.Request, shell chan<- struct{}) {
	var once sync.Once
	for req := range reqs {
		ok := false
		switch req.Type {
		case "shell":
			ok = true
			once.Do(func() { close(shell) })
		case "pty-req", "env", "window-change":
			ok = true
		}
		if req.WantReply {
			_ = req.Reply(ok, nil)
		}
	}
}
