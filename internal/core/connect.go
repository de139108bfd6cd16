package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"sshconsole/sshclient"
	"sshconsole/util"
)

// ConnectMode opens an interactive shell on a remote console server and
// relays the local terminal to it.
type ConnectMode struct {
	Client *sshclient.Client
	Logger *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run connects, requests a pty sized like the local terminal and copies
// bytes both ways until either side closes.
func (m *ConnectMode) Run(ctx context.Context) error {
	if err := m.Client.Connect(ctx); err != nil {
		return err
	}
	defer m.Client.Close() //nolint:errcheck

	in, out := m.stdin(), m.stdout()
	width, height := 80, 24
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(fd, old) //nolint:errcheck
	}

	termType := os.Getenv("TERM")
	if termType == "" {
		termType = "xterm"
	}
	shell, err := m.Client.Shell(termType, width, height)
	if err != nil {
		return err
	}
	defer shell.Close() //nolint:errcheck

	m.Logger.Verbose("shell open (%s %dx%d)", termType, width, height)

	if fd >= 0 {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go watchSize(ctx, fd, width, height, shell)
	}
	return util.BidirectionalCopy(ctx, shell, in, out)
}

// watchSize polls the terminal size and forwards changes to the remote
// pty.
func watchSize(ctx context.Context, fd, width, height int, shell *sshclient.Shell) {
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			w, h, err := term.GetSize(fd)
			if err != nil || (w == width && h == height) {
				continue
			}
			width, height = w, h
			shell.Resize(w, h) //nolint:errcheck
		}
	}
}
