// Package sshclient connects the local terminal to a remote console
// server over SSH, for operators who want the console without a
// separate ssh binary.
package sshclient

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	conerr "sshconsole/internal/errors"
	"sshconsole/internal/transport"
	"sshconsole/util"
)

// Config holds everything needed to reach a console server.
type Config struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Client is one SSH connection to a console server.
type Client struct {
	config *Config
	dialer transport.Dialer
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

// New creates a client that is ready to Connect.
func New(cfg *Config, logger *util.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		dialer: &transport.TCPDialer{Timeout: cfg.ConnTimeout},
		logger: logger,
	}
}

// Connect dials the server and completes the SSH handshake.
func (c *Client) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(c.config)
	if err != nil {
		return conerr.WrapSSH("auth", c.config.Host, c.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(c.config)
	if err != nil {
		return conerr.WrapSSH("hostkey", c.config.Host, c.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         c.config.ConnTimeout,
	}

	addr := util.FormatAddr(c.config.Host, c.config.Port)
	c.logger.Debug("SSH: dialing %s as %s", addr, c.config.User)

	tcpConn, err := c.dialer.Dial(ctx, "tcp", addr)
	if err != nil {
		return conerr.Wrap("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return conerr.WrapSSH("handshake", c.config.Host, c.config.Port, err)
	}

	c.mu.Lock()
	c.client = ssh.NewClient(sshConn, chans, reqs)
	c.alive = true
	c.mu.Unlock()

	go c.monitor()
	return nil
}

// Shell opens a session channel, requests a pty of the given size and
// starts the remote shell.
func (c *Client) Shell(termType string, width, height int) (*Shell, error) {
	c.mu.RLock()
	client, alive := c.client, c.alive
	c.mu.RUnlock()
	if !alive || client == nil {
		return nil, conerr.ErrNotConnected
	}

	sess, err := client.NewSession()
	if err != nil {
		return nil, conerr.WrapSSH("channel", c.config.Host, c.config.Port, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty(termType, height, width, modes); err != nil {
		sess.Close()
		return nil, fmt.Errorf("pty request: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("shell request: %w", err)
	}
	return &Shell{sess: sess, stdin: stdin, stdout: stdout}, nil
}

// Close shuts down the SSH connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alive = false
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the connection is still up.
func (c *Client) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alive
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (c *Client) monitor() {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil {
		return
	}

	err := client.Wait()

	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("SSH connection closed: %v", err)
	} else {
		c.logger.Debug("SSH connection closed")
	}
}

// Shell is a running remote shell.  It reads the remote output and
// writes the local input, so it can be handed to util.BidirectionalCopy.
type Shell struct {
	sess   *ssh.Session
	stdin  io.WriteCloser
	stdout io.Reader
}

func (s *Shell) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *Shell) Write(p []byte) (int, error) { return s.stdin.Write(p) }

// CloseWrite signals end of input to the remote side.
func (s *Shell) CloseWrite() error { return s.stdin.Close() }

// Close ends the session.
func (s *Shell) Close() error { return s.sess.Close() }

// Resize forwards a local window-size change.
func (s *Shell) Resize(width, height int) error {
	return s.sess.WindowChange(height, width)
}

// Wait blocks until the remote shell exits.
func (s *Shell) Wait() error { return s.sess.Wait() }
