package command

import (
	"fmt"
	"strings"
)

// Builder collects commands before the server starts.
type Builder struct {
	cmds  map[string]*Command
	order []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{cmds: make(map[string]*Command)}
}

// Register validates and adds commands.  Names must be unique and
// non-empty, required parameters must precede optional ones, and a
// free-form command declares no parameters.
func (b *Builder) Register(cmds ...*Command) error {
	for _, c := range cmds {
		if err := validate(c); err != nil {
			return err
		}
		if _, dup := b.cmds[c.Name]; dup {
			return fmt.Errorf("command %q registered twice", c.Name)
		}
		b.cmds[c.Name] = c
		b.order = append(b.order, c.Name)
	}
	return nil
}

func validate(c *Command) error {
	switch {
	case c == nil:
		return fmt.Errorf("nil command")
	case c.Name == "" || strings.ContainsAny(c.Name, " \t\r\n\"'\\"):
		return fmt.Errorf("invalid command name %q", c.Name)
	case c.Handler == nil:
		return fmt.Errorf("command %q has no handler", c.Name)
	case c.FreeForm && len(c.Params) > 0:
		return fmt.Errorf("command %q: free-form commands take no declared parameters", c.Name)
	}
	seen := make(map[string]bool, len(c.Params))
	optional := false
	for _, p := range c.Params {
		if seen[p.Name] {
			return fmt.Errorf("command %q: parameter %q declared twice", c.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Optional {
			optional = true
		} else if optional {
			return fmt.Errorf("command %q: required parameter %q follows an optional one", c.Name, p.Name)
		}
	}
	return nil
}

// Build freezes a copy of the registered commands.  Later Register
// calls do not affect the returned registry.
func (b *Builder) Build() *Registry {
	r := &Registry{
		cmds:  make(map[string]*Command, len(b.cmds)),
		order: append([]string(nil), b.order...),
	}
	for name, c := range b.cmds {
		cp := *c
		cp.Params = append([]Param(nil), c.Params...)
		r.cmds[name] = &cp
	}
	return r
}

// Registry is an immutable name to command mapping, safe for
// concurrent readers.
type Registry struct {
	cmds  map[string]*Command
	order []string
}

// Lookup returns a copy of the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.cmds[name]
	if !ok {
		return Command{}, false
	}
	cp := *c
	cp.Params = append([]Param(nil), c.Params...)
	return cp, true
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of commands.
func (r *Registry) Len() int { return len(r.order) }
