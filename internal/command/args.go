package command

import (
	"fmt"
	"strconv"

	conerr "sshconsole/internal/errors"
)

// Args maps parameter names to bound values: the user's token (a
// string) or the declared default.
type Args map[string]any

// String returns the named argument formatted as text.  Missing
// arguments and nil defaults give "".
func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the named argument as an int.  A value that is not an
// integer is a *BindingError, so the user sees the command's usage.
func (a Args) Int(name string) (int, error) {
	switch v := a[name].(type) {
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &conerr.BindingError{Reason: fmt.Sprintf("argument %s: %q is not an integer", name, v)}
		}
		return n, nil
	default:
		return 0, &conerr.BindingError{Reason: fmt.Sprintf("argument %s: cannot use %v as an integer", name, v)}
	}
}

// Bind assigns tokens to the descriptor's parameters by position.
// Required parameters must all be filled; optional ones take what is
// left and otherwise their default; surplus tokens are an error.
func Bind(d *Descriptor, tokens []string) (Args, error) {
	required := 0
	for _, p := range d.Params {
		if !p.Optional {
			required++
		}
	}
	if len(tokens) < required {
		return nil, &conerr.BindingError{
			Command: d.Name,
			Reason:  fmt.Sprintf("missing argument %q", d.Params[len(tokens)].Name),
		}
	}
	if len(tokens) > len(d.Params) {
		return nil, &conerr.BindingError{
			Command: d.Name,
			Reason:  fmt.Sprintf("expected at most %d arguments, got %d", len(d.Params), len(tokens)),
		}
	}

	args := make(Args, len(d.Params))
	for i, p := range d.Params {
		if i < len(tokens) {
			args[p.Name] = tokens[i]
		} else {
			args[p.Name] = p.Default
		}
	}
	return args, nil
}
