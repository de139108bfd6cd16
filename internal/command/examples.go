package command

import (
	"context"
	"fmt"
	"io"
)

// Examples returns demonstration commands: params, docstring and
// argparser.
func Examples() []*Command {
	return []*Command{
		New("params", func(_ context.Context, inv *Invocation) (any, error) {
			sum := 0
			for _, name := range []string{"x", "y", "z"} {
				n, err := inv.Args.Int(name)
				if err != nil {
					return nil, err
				}
				sum += n
			}
			return sum, nil
		}, Required("x", "y"), Optional("z", 5)),

		New("docstring", func(_ context.Context, inv *Invocation) (any, error) {
			return inv.Args.String("a") + inv.Args.String("b") + inv.Args.String("c"), nil
		}, Required("a", "b"), Optional("c", "c"), Doc(`
			This function concatenates input strings.

			Params:
			  a: str
			  b: str
			  c: str = 'c'

			Returns:
			  concatenated: str
		`)),

		New("argparser", argparser, FreeForm(), WithName(), WithChannel()),
	}
}

func argparser(_ context.Context, inv *Invocation) (any, error) {
	ch := inv.Channel
	fs := NewFlagSet(inv.Name, ch)
	test := fs.BoolP("test", "t", false, "some test")
	list := fs.StringArrayP("list", "l", nil, "some list")
	if err := ParseFlags(fs, ch, inv.Raw); err != nil {
		return nil, err
	}

	value := "no"
	switch fs.NArg() {
	case 0:
	case 1:
		value = fs.Arg(0)
	default:
		fmt.Fprintf(ch, "%s: unrecognized arguments: %v\r\n", inv.Name, fs.Args()[1:])
		return nil, ErrExit
	}

	if _, err := fmt.Fprintf(ch, "test=%t list=%q value=%q\r\nChannel char: ", *test, *list, value); err != nil {
		return nil, err
	}
	var c [1]byte
	if _, err := io.ReadFull(ch, c[:]); err != nil {
		return nil, err
	}
	_, err := fmt.Fprintf(ch, "%s\r\n", c[:])
	return nil, err
}
