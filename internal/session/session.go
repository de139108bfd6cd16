// Package session runs one console connection: it prints the banner,
// then loops prompt, edit, submit and dispatch until the user quits or
// the channel fails.
//
// A session owns its channel, history and editor.  The only things it
// shares with other sessions are the immutable command registry, the
// metrics collector and the logger.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"sshconsole/internal/command"
	conerr "sshconsole/internal/errors"
	"sshconsole/internal/lineedit"
	"sshconsole/internal/metrics"
	"sshconsole/internal/transport"
	"sshconsole/util"
)

// State is a step of the session loop.
type State int32

const (
	Prompting State = iota
	EditingLine
	Dispatching
	Closed
)

func (s State) String() string {
	switch s {
	case Prompting:
		return "prompting"
	case EditingLine:
		return "editing"
	case Dispatching:
		return "dispatching"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Settings are the per-server console tuneables.
type Settings struct {
	MaxHistory int
	Banner     string // empty → DefaultBanner()
	Prompt     string // empty → "> "
}

// Options carries a session's identity and shared collaborators.
type Options struct {
	User       string
	RemoteAddr string
	Settings   Settings
	Logger     *util.Logger       // nil → quiet logger
	Metrics    *metrics.Collector // may be nil
}

// Session encapsulates the runtime state of a single console
// connection.
type Session struct {
	id       string
	user     string
	remote   string
	settings Settings

	stream     *transport.Stream
	dispatcher *command.Dispatcher
	history    *lineedit.History
	editor     *lineedit.Editor
	logger     *util.Logger
	metrics    *metrics.Collector

	state atomic.Int32
}

// New creates a session over ch.  The session takes ownership of ch and
// closes it when Run returns.
func New(ch transport.Channel, d *command.Dispatcher, opts Options) *Session {
	settings := opts.Settings
	if settings.Banner == "" {
		settings.Banner = DefaultBanner()
	}
	if settings.Prompt == "" {
		settings.Prompt = "> "
	}

	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(0)
	}

	s := &Session{
		id:         id,
		user:       opts.User,
		remote:     opts.RemoteAddr,
		settings:   settings,
		stream:     transport.NewStream(ch, opts.Metrics),
		dispatcher: d,
		history:    lineedit.NewHistory(settings.MaxHistory),
		logger:     logger.With("session", id[:8]),
		metrics:    opts.Metrics,
	}
	s.editor = lineedit.NewEditor(s.stream, s.stream, s.history, settings.Prompt)
	return s
}

// DefaultBanner returns "Welcome to <hostname>!".
func DefaultBanner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "sshconsole"
	}
	return fmt.Sprintf("Welcome to %s!", host)
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// User returns the authenticated user name, if any.
func (s *Session) User() string { return s.user }

// RemoteAddr returns the peer address, if any.
func (s *Session) RemoteAddr() string { return s.remote }

// History returns the lines entered so far, oldest first.
func (s *Session) History() []string { return s.history.Entries() }

// State returns the current loop state.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Run drives the session until it ends and always closes the channel
// exactly once.  A clean end (quit, force-quit, EOF, ctx cancellation)
// returns nil; channel failures, decode failures and handler errors or
// panics are returned.
func (s *Session) Run(ctx context.Context) (err error) {
	s.metrics.SessionOpened()
	s.logger.Info("session opened user=%q remote=%s", s.user, s.remote)

	stop := context.AfterFunc(ctx, func() { s.stream.Close() }) //nolint:errcheck

	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("panic stack:\n%s", debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
		stop()
		s.setState(Closed)
		s.stream.Close() //nolint:errcheck
		s.metrics.SessionClosed()
		if err != nil {
			s.metrics.RecordError(err.Error())
			s.logger.Warn("session ended: %v", err)
			return
		}
		s.logger.Info("session closed")
	}()

	if err := s.greet(); err != nil {
		return s.ended(ctx, err)
	}

	for {
		s.setState(Prompting)
		if err := s.editor.Begin(); err != nil {
			return s.ended(ctx, err)
		}

		s.setState(EditingLine)
		line, sig, err := s.editor.ReadLine()
		if err != nil {
			return s.ended(ctx, err)
		}
		if sig == lineedit.SignalForceQuit {
			s.logger.Verbose("force quit")
			return nil
		}
		if line == "" {
			continue
		}

		s.setState(Dispatching)
		outcome, err := s.dispatcher.Dispatch(ctx, s, s.stream, line)
		if err != nil {
			return s.ended(ctx, err)
		}
		if outcome == command.Terminate {
			return nil
		}
	}
}

func (s *Session) greet() error {
	var sb strings.Builder
	sb.WriteString(util.CRLF(s.settings.Banner))
	sb.WriteString("\r\nAvailable Commands:\r\n  ")
	sb.WriteString(strings.Join(s.dispatcher.Registry().Names(), "  "))
	sb.WriteString("\r\n")
	_, err := s.stream.WriteString(sb.String())
	return err
}

// ended maps a loop error onto Run's result.  EOF and errors caused by
// shutdown are clean.
func (s *Session) ended(ctx context.Context, err error) error {
	switch {
	case conerr.Is(err, io.EOF), ctx.Err() != nil, conerr.Is(err, conerr.ErrSessionClosed):
		return nil
	}
	return err
}

var _ command.Session = (*Session)(nil)
