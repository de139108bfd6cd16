package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"sshconsole/internal/command"
	"sshconsole/internal/metrics"
	"sshconsole/internal/session"
	"sshconsole/internal/transport"
	"sshconsole/util"
)

// LocalMode runs a single console session on the local terminal.  It is
// meant for trying out commands without an SSH client.
type LocalMode struct {
	Dispatcher *command.Dispatcher
	Settings   session.Settings
	Metrics    *metrics.Collector
	Logger     *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *LocalMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *LocalMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run puts a terminal stdin into raw mode, so keystrokes reach the line
// editor unprocessed, and runs the session until it ends.
func (m *LocalMode) Run(ctx context.Context) error {
	in := m.stdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(fd, old) //nolint:errcheck
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "local"
	}

	ch := transport.NewStdio(in, m.stdout(), nil)
	sess := session.New(ch, m.Dispatcher, session.Options{
		User:       user,
		RemoteAddr: "local",
		Settings:   m.Settings,
		Logger:     m.Logger,
		Metrics:    m.Metrics,
	})
	return sess.Run(ctx)
}
