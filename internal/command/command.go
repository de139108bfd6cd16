// Package command holds the console's command model: descriptors built
// by explicit registration, an immutable registry shared by every
// session, a shell-style tokenizer, positional argument binding and
// the dispatcher that ties them together.
package command

import (
	"context"
	"strings"

	"sshconsole/internal/transport"
)

// Inject is a set of context values a handler asks to receive.  They
// are supplied by the dispatcher and never bound from user tokens.
type Inject uint8

const (
	// InjectChannel hands the handler the session channel.  The
	// dispatcher then writes nothing on the handler's behalf.
	InjectChannel Inject = 1 << iota
	// InjectSession hands the handler the owning session.
	InjectSession
	// InjectName hands the handler the name it was invoked under.
	InjectName
)

// Param is one declared positional parameter.
type Param struct {
	Name     string
	Optional bool
	Default  any
}

// Descriptor is the metadata the dispatcher binds against and help
// renders from.
type Descriptor struct {
	Name     string
	Params   []Param
	FreeForm bool // receives raw tokens and renders its own help on "-h"
	Inject   Inject
	Doc      string
}

// Wants reports whether every injection in i was requested.
func (d *Descriptor) Wants(i Inject) bool { return d.Inject&i == i }

// Usage renders "name <req> [opt]".
func (d *Descriptor) Usage() string {
	parts := []string{d.Name}
	for _, p := range d.Params {
		if p.Optional {
			parts = append(parts, "["+p.Name+"]")
		} else {
			parts = append(parts, "<"+p.Name+">")
		}
	}
	return strings.Join(parts, " ")
}

// Session is the view of the owning session a handler can request.
type Session interface {
	ID() string
	User() string
	RemoteAddr() string
	History() []string
}

// Invocation carries everything a handler receives.  Channel, Session
// and Name are set only when the descriptor asked for them.
type Invocation struct {
	Name     string
	Channel  transport.Channel
	Session  Session
	Args     Args
	Raw      []string // tokens after the command name
	Registry *Registry
}

// Handler is a command body.  A non-nil result is written back to the
// user unless the channel was injected.  Returning Quit ends the
// session; returning an error other than a *BindingError or ErrExit ends
// it with that error.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Command is a registered handler and its descriptor.
type Command struct {
	Descriptor
	Handler Handler
}

// Option configures a Descriptor.
type Option func(*Descriptor)

// New builds a command.  Validation happens on registration.
func New(name string, h Handler, opts ...Option) *Command {
	c := &Command{Descriptor: Descriptor{Name: name}, Handler: h}
	for _, o := range opts {
		o(&c.Descriptor)
	}
	return c
}

// Required declares required positional parameters, in order.
func Required(names ...string) Option {
	return func(d *Descriptor) {
		for _, n := range names {
			d.Params = append(d.Params, Param{Name: n})
		}
	}
}

// Optional declares an optional positional parameter with its default.
func Optional(name string, def any) Option {
	return func(d *Descriptor) {
		d.Params = append(d.Params, Param{Name: name, Optional: true, Default: def})
	}
}

// Doc attaches documentation shown by help.
func Doc(text string) Option {
	return func(d *Descriptor) { d.Doc = text }
}

// WithChannel requests the session channel.
func WithChannel() Option {
	return func(d *Descriptor) { d.Inject |= InjectChannel }
}

// WithSession requests the owning session.
func WithSession() Option {
	return func(d *Descriptor) { d.Inject |= InjectSession }
}

// WithName requests the invoked name.
func WithName() Option {
	return func(d *Descriptor) { d.Inject |= InjectName }
}

// FreeForm marks a command that takes raw tokens.
func FreeForm() Option {
	return func(d *Descriptor) { d.FreeForm = true }
}

type quitResult struct{}

// Quit is returned by a handler to end the session cleanly.
var Quit any = quitResult{}
