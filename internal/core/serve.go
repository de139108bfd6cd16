package core

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/time/rate"

	"sshconsole/internal/command"
	conerr "sshconsole/internal/errors"
	"sshconsole/internal/metrics"
	"sshconsole/internal/retry"
	"sshconsole/internal/session"
	"sshconsole/sshd"
	"sshconsole/util"
)

// ServeMode accepts SSH connections and runs one console session per
// connection, each in its own goroutine.
type ServeMode struct {
	Address          string // "host:port"
	SSH              *ssh.ServerConfig
	ShellTimeout     time.Duration
	HandshakeTimeout time.Duration
	MaxSessions      int     // 0 = unlimited
	AcceptRate       float64 // connections per second, 0 = unlimited
	AcceptBurst      int
	MetricsAddr      string // empty disables the /metrics endpoint
	GracePeriod      time.Duration

	Dispatcher *command.Dispatcher
	Settings   session.Settings
	Metrics    *metrics.Collector
	Logger     *util.Logger

	// Backoff governs bind retries; nil uses a short default.
	Backoff *retry.Backoff

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Run binds the listener and serves until ctx is cancelled.  On return
// every live connection has been closed.
func (m *ServeMode) Run(ctx context.Context) error {
	ln, err := m.listen(ctx)
	if err != nil {
		return err
	}
	m.Logger.Info("console listening on %s", ln.Addr())

	if m.MetricsAddr != "" {
		srv := m.serveMetrics()
		defer srv.Close() //nolint:errcheck
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(ctx, func() { ln.Close() }) //nolint:errcheck
	defer stop()

	var wg sync.WaitGroup
	defer m.shutdown(cancel, &wg)

	var limiter *rate.Limiter
	if m.AcceptRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(m.AcceptRate), max(m.AcceptBurst, 1))
	}
	var slots chan struct{}
	if m.MaxSessions > 0 {
		slots = make(chan struct{}, m.MaxSessions)
	}

	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if conerr.IsRetryable(err) {
				m.Logger.Warn("accept: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return conerr.Wrap("accept", ln.Addr().String(), err)
		}

		if slots != nil {
			select {
			case slots <- struct{}{}:
			default:
				m.Metrics.ConnectionRejected()
				m.Logger.Warn("session limit (%d) reached, rejecting %s", m.MaxSessions, conn.RemoteAddr())
				conn.Close()
				continue
			}
		}

		m.track(conn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer m.untrack(conn)
			defer func() {
				if slots != nil {
					<-slots
				}
			}()
			m.serveConn(ctx, conn)
		}()
	}
}

// ── Connection handling ──────────────────────────────────────────────

func (m *ServeMode) serveConn(ctx context.Context, conn net.Conn) {
	logger := m.Logger.With("remote", conn.RemoteAddr().String())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic serving connection: %v", r)
			m.Metrics.RecordError("connection panic")
			conn.Close()
		}
	}()

	if m.HandshakeTimeout > 0 {
		conn.SetDeadline(time.Now().Add(m.HandshakeTimeout)) //nolint:errcheck
	}
	sc, err := sshd.Accept(ctx, conn, m.SSH, m.ShellTimeout)
	if err != nil {
		m.Metrics.ConnectionRejected()
		logger.Verbose("rejected: %v", err)
		return
	}
	conn.SetDeadline(time.Time{}) //nolint:errcheck

	sess := session.New(sc, m.Dispatcher, session.Options{
		User:       sc.User(),
		RemoteAddr: conn.RemoteAddr().String(),
		Settings:   m.Settings,
		Logger:     logger,
		Metrics:    m.Metrics,
	})
	sess.Run(ctx) //nolint:errcheck // the session logs its own end
}

func (m *ServeMode) track(conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns == nil {
		m.conns = make(map[net.Conn]struct{})
	}
	m.conns[conn] = struct{}{}
}

func (m *ServeMode) untrack(conn net.Conn) {
	m.mu.Lock()
	delete(m.conns, conn)
	m.mu.Unlock()
}

// Active returns the number of connections being served.
func (m *ServeMode) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// shutdown cancels every session, closes the raw connections (which
// unblocks handshakes still in progress) and waits for the goroutines.
func (m *ServeMode) shutdown(cancel context.CancelFunc, wg *sync.WaitGroup) {
	cancel()

	m.mu.Lock()
	for c := range m.conns {
		c.Close()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	grace := m.GracePeriod
	if grace <= 0 {
		grace = 5 * time.Second
	}
	select {
	case <-done:
		m.Logger.Verbose("all sessions closed")
	case <-time.After(grace):
		m.Logger.Warn("%d connections still open after %s", m.Active(), grace)
	}
}

// ── Listener & metrics ───────────────────────────────────────────────

// listen binds m.Address, retrying while the address is busy (a
// restarted server whose old socket is still in TIME_WAIT).  Permission
// errors are not retried.
func (m *ServeMode) listen(ctx context.Context) (net.Listener, error) {
	b := m.Backoff
	if b == nil {
		b = retry.DefaultBackoff()
	}
	if b.OnRetry == nil {
		bo := *b
		bo.OnRetry = func(attempt int, err error, wait time.Duration) {
			m.Logger.Warn("bind %s failed (attempt %d), retrying in %s: %v",
				m.Address, attempt, wait.Round(time.Millisecond), err)
		}
		b = &bo
	}

	var lc net.ListenConfig
	var ln net.Listener
	err := b.Do(ctx, func(int) error {
		l, err := lc.Listen(ctx, "tcp", m.Address)
		if errors.Is(err, os.ErrPermission) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		ln = l
		return nil
	})
	if err != nil {
		return nil, conerr.Wrap("listen", m.Address, err)
	}
	return ln, nil
}

func (m *ServeMode) serveMetrics() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Metrics.Handler())

	srv := &http.Server{
		Addr:              m.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		m.Logger.Info("metrics on http://%s/metrics", m.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Logger.Error("metrics server: %v", err)
		}
	}()
	return srv
}
