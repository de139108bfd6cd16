package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sshconsole/internal/command"
	conerr "sshconsole/internal/errors"
	"sshconsole/internal/metrics"
)

// scriptChannel replays fixed input and records output and closes.
type scriptChannel struct {
	in     io.Reader
	mu     sync.Mutex
	out    bytes.Buffer
	closes int
}

func newScript(input string) *scriptChannel {
	return &scriptChannel{in: strings.NewReader(input)}
}

func (c *scriptChannel) Read(p []byte) (int, error) { return c.in.Read(p) }

func (c *scriptChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

func (c *scriptChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *scriptChannel) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

func newDispatcher(t *testing.T, cmds ...*command.Command) *command.Dispatcher {
	t.Helper()
	b := command.NewBuilder()
	require.NoError(t, b.Register(command.Defaults()...))
	require.NoError(t, b.Register(cmds...))
	return command.NewDispatcher(b.Build(), nil, nil)
}

func testSettings() Settings {
	return Settings{MaxHistory: 64, Banner: "Welcome to test!"}
}

const greeting = "Welcome to test!\r\nAvailable Commands:\r\n  quit  help  ping\r\n"

func TestSession_Scenario(t *testing.T) {
	ch := newScript("ping\rhelp\rbogus\rquit\r")
	s := New(ch, newDispatcher(t), Options{Settings: testSettings()})

	require.NoError(t, s.Run(context.Background()))

	want := greeting +
		"> ping\r\n" +
		"> help\r\nusage: help [cmd]\r\n\r\nShow usage for a command.\r\n" +
		"> bogus\r\nCommand unrecognized: bogus\r\n" +
		"> quit\r\n"
	assert.Equal(t, want, ch.output())
	assert.Equal(t, 1, ch.closes)
	assert.Equal(t, Closed, s.State())
	assert.Equal(t, []string{"ping", "help", "bogus", "quit"}, s.History())
}

func TestSession_EndsWithoutError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tail  string
	}{
		{"ctrl-c", "pi\x03", "> pi\r\n"},
		{"ctrl-d", "\x04", "> \r\n"},
		{"eof", "ping\r", "> ping\r\n> "},
		{"quit after blank lines", "\r  \rquit\r", "> \r\n>   \r\n> quit\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newScript(tt.input)
			s := New(ch, newDispatcher(t), Options{Settings: testSettings()})

			require.NoError(t, s.Run(context.Background()))
			assert.Equal(t, greeting+tt.tail, ch.output())
			assert.Equal(t, 1, ch.closes)
		})
	}
}

func TestSession_ForceQuitSkipsHistory(t *testing.T) {
	ch := newScript("ping\rhalf\x03")
	s := New(ch, newDispatcher(t), Options{Settings: testSettings()})
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"ping"}, s.History())
}

func TestSession_DecodeErrorIsFatal(t *testing.T) {
	m := metrics.New()
	ch := newScript("pi\xffng\r")
	s := New(ch, newDispatcher(t), Options{Settings: testSettings(), Metrics: m})

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, conerr.ErrDecode)
	assert.Equal(t, 1, ch.closes)
	assert.Equal(t, int64(1), m.ErrorCount())
	assert.Equal(t, int64(0), m.ActiveSessions())
}

func TestSession_HandlerErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	d := newDispatcher(t, command.New("fail", func(context.Context, *command.Invocation) (any, error) {
		return nil, boom
	}))
	ch := newScript("fail\rping\r")
	s := New(ch, d, Options{Settings: testSettings()})

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasSuffix(ch.output(), "> fail\r\n"), "nothing runs after the failure")
	assert.Equal(t, 1, ch.closes)
}

func TestSession_PanicIsContained(t *testing.T) {
	d := newDispatcher(t, command.New("explode", func(context.Context, *command.Invocation) (any, error) {
		panic("kaboom")
	}))
	ch := newScript("explode\r")
	s := New(ch, d, Options{Settings: testSettings()})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, 1, ch.closes)
	assert.Equal(t, Closed, s.State())
}

func TestSession_HistoryBound(t *testing.T) {
	var input strings.Builder
	for i := 0; i < 10; i++ {
		input.WriteString("ping\r")
	}
	input.WriteString("help\r")

	settings := testSettings()
	settings.MaxHistory = 3
	s := New(newScript(input.String()), newDispatcher(t), Options{Settings: settings})
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []string{"ping", "ping", "help"}, s.History())
}

func TestSession_HistoryRecallDispatches(t *testing.T) {
	calls := 0
	d := newDispatcher(t, command.New("count", func(context.Context, *command.Invocation) (any, error) {
		calls++
		return calls, nil
	}))
	ch := newScript("count\r\x1b[A\r")
	s := New(ch, d, Options{Settings: testSettings()})
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, calls)
	assert.Contains(t, ch.output(), "2\r\n")
}

func TestSession_HandlerReadsChannel(t *testing.T) {
	b := command.NewBuilder()
	require.NoError(t, b.Register(command.Defaults()...))
	require.NoError(t, b.Register(command.Examples()...))
	d := command.NewDispatcher(b.Build(), nil, nil)

	ch := newScript("argparser v\rZping\r")
	s := New(ch, d, Options{Settings: testSettings()})
	require.NoError(t, s.Run(context.Background()))

	out := ch.output()
	assert.Contains(t, out, "Channel char: Z\r\n")
	assert.Contains(t, out, "> ping\r\n", "input after the handler's byte reaches the editor")
	assert.Equal(t, []string{"argparser v", "ping"}, s.History())
}

func TestSession_DefaultsAndIdentity(t *testing.T) {
	s := New(newScript(""), newDispatcher(t), Options{
		User:       "ops",
		RemoteAddr: "10.0.0.7:50123",
		Settings:   Settings{MaxHistory: 8},
	})
	assert.Equal(t, DefaultBanner(), s.settings.Banner)
	assert.Equal(t, "> ", s.settings.Prompt)
	assert.Equal(t, "ops", s.User())
	assert.Equal(t, "10.0.0.7:50123", s.RemoteAddr())
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, Prompting, s.State())
	assert.True(t, strings.HasPrefix(DefaultBanner(), "Welcome to "))
}

// pipeChannel is a blocking in-memory channel.
type pipeChannel struct {
	*io.PipeReader
	*io.PipeWriter
}

func (p *pipeChannel) Close() error {
	p.PipeReader.Close()
	return p.PipeWriter.Close()
}

func TestSession_ContextCancel(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	go io.Copy(io.Discard, outR) //nolint:errcheck

	s := New(&pipeChannel{inR, outW}, newDispatcher(t), Options{Settings: testSettings()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	_, err := inW.Write([]byte("pi"))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not stop on cancellation")
	}
	assert.Equal(t, Closed, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "prompting", Prompting.String())
	assert.Equal(t, "editing", EditingLine.String())
	assert.Equal(t, "dispatching", Dispatching.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "unknown", State(42).String())
}
