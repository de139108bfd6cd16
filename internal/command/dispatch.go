package command

import (
	"context"
	"fmt"
	"io"
	"strings"

	conerr "sshconsole/internal/errors"
	"sshconsole/internal/metrics"
	"sshconsole/internal/transport"
	"sshconsole/util"
)

// Outcome tells the session controller what to do after a line.
type Outcome int

const (
	Continue Outcome = iota
	Terminate
)

func (o Outcome) String() string {
	if o == Terminate {
		return "terminate"
	}
	return "continue"
}

// ErrExit ends a command early without further output.  The session
// carries on.
var ErrExit = conerr.New("command exited")

// Dispatcher runs submitted lines against a registry.  It holds no
// per-session state and may be shared.
type Dispatcher struct {
	reg     *Registry
	logger  *util.Logger
	metrics *metrics.Collector
}

// NewDispatcher returns a dispatcher for reg.  logger and m may be nil.
func NewDispatcher(reg *Registry, logger *util.Logger, m *metrics.Collector) *Dispatcher {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Dispatcher{reg: reg, logger: logger, metrics: m}
}

// Registry returns the registry lines are dispatched against.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Dispatch tokenizes line, binds it and invokes the command.  User
// mistakes (syntax, unknown name, bad arguments) are reported on ch and
// yield Continue with a nil error.  A failing handler yields Terminate
// and a *HandlerError; so does a failed write to ch.
func (d *Dispatcher) Dispatch(ctx context.Context, sess Session, ch transport.Channel, line string) (Outcome, error) {
	words, err := Split(line)
	if err != nil {
		d.metrics.CommandDispatched(true)
		var se *conerr.SyntaxError
		if !conerr.As(err, &se) {
			return Terminate, err
		}
		return d.report(ch, "Invalid command syntax: "+se.Reason)
	}
	if len(words) == 0 {
		return Continue, nil
	}

	name := words[0]
	cmd, ok := d.reg.Lookup(name)
	if !ok {
		d.metrics.CommandDispatched(true)
		d.logger.Verbose("unknown command %q", name)
		return d.report(ch, "Command unrecognized: "+name)
	}

	d.logger.Debug("dispatch %s %q", name, words[1:])
	out, err := d.invoke(ctx, &cmd, sess, ch, name, words[1:])

	var be *conerr.BindingError
	switch {
	case err == nil:
	case conerr.As(err, &be):
		d.metrics.CommandDispatched(true)
		d.logger.Verbose("bad arguments for %s: %v", name, be)
		if err := writeLine(ch, "Invalid command arguments"); err != nil {
			return Terminate, err
		}
		if err := Help(ctx, d.reg, sess, ch, name); err != nil {
			return Terminate, err
		}
		return Continue, nil
	case conerr.Is(err, ErrExit):
		d.metrics.CommandDispatched(false)
		return Continue, nil
	default:
		d.metrics.CommandDispatched(true)
		return Terminate, &conerr.HandlerError{Command: name, Err: err}
	}

	d.metrics.CommandDispatched(false)
	if out == Quit {
		return Terminate, nil
	}
	if out == nil || cmd.Wants(InjectChannel) {
		return Continue, nil
	}
	text := fmt.Sprint(out)
	if text == "" {
		return Continue, nil
	}
	if err := writeLine(ch, util.CRLF(text)); err != nil {
		return Terminate, err
	}
	return Continue, nil
}

func (d *Dispatcher) invoke(ctx context.Context, cmd *Command, sess Session, ch transport.Channel, name string, tokens []string) (any, error) {
	inv := newInvocation(cmd, d.reg, sess, ch, name, tokens)
	if !cmd.FreeForm {
		args, err := Bind(&cmd.Descriptor, tokens)
		if err != nil {
			return nil, err
		}
		inv.Args = args
	}
	return cmd.Handler(ctx, inv)
}

func (d *Dispatcher) report(ch transport.Channel, msg string) (Outcome, error) {
	if err := writeLine(ch, msg); err != nil {
		return Terminate, err
	}
	return Continue, nil
}

func newInvocation(cmd *Command, reg *Registry, sess Session, ch transport.Channel, name string, raw []string) *Invocation {
	inv := &Invocation{Raw: raw, Registry: reg, Args: Args{}}
	if cmd.Wants(InjectChannel) {
		inv.Channel = ch
	}
	if cmd.Wants(InjectSession) {
		inv.Session = sess
	}
	if cmd.Wants(InjectName) {
		inv.Name = name
	}
	return inv
}

// Help writes usage for target to ch.  Free-form commands are invoked
// with the single token "-h" and print their own usage.
func Help(ctx context.Context, reg *Registry, sess Session, ch transport.Channel, target string) error {
	cmd, ok := reg.Lookup(target)
	if !ok {
		return writeLine(ch, "Command unrecognized: "+target)
	}

	if cmd.FreeForm {
		inv := newInvocation(&cmd, reg, sess, ch, target, []string{"-h"})
		if _, err := cmd.Handler(ctx, inv); err != nil && !conerr.Is(err, ErrExit) {
			return &conerr.HandlerError{Command: target, Err: err}
		}
		return nil
	}

	var sb strings.Builder
	sb.WriteString("usage: ")
	sb.WriteString(cmd.Usage())
	sb.WriteString("\r\n")
	if lines := docLines(cmd.Doc); len(lines) > 0 {
		sb.WriteString("\r\n")
		sb.WriteString(strings.Join(lines, "\r\n"))
		sb.WriteString("\r\n")
	}
	_, err := io.WriteString(ch, sb.String())
	return err
}

// docLines normalises documentation: tabs expanded, the first line
// trimmed, the rest dedented by their common indentation, and blank
// lines at either end dropped.
func docLines(doc string) []string {
	if strings.TrimSpace(doc) == "" {
		return nil
	}
	lines := strings.Split(expandTabs(strings.ReplaceAll(doc, "\r\n", "\n")), "\n")

	margin := -1
	for _, l := range lines[1:] {
		body := strings.TrimLeft(l, " ")
		if body == "" {
			continue
		}
		if indent := len(l) - len(body); margin < 0 || indent < margin {
			margin = indent
		}
	}

	out := []string{strings.TrimSpace(lines[0])}
	for _, l := range lines[1:] {
		if margin > 0 && len(l) >= margin {
			l = l[margin:]
		}
		out = append(out, strings.TrimRight(l, " "))
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return out
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := 8 - col%8
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}

func writeLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\r\n")
	return err
}
