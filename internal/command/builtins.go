package command

import (
	"context"
	"fmt"
	"strings"

	"sshconsole/internal/metrics"
)

// Defaults returns the commands every console carries: quit, help and
// ping.
func Defaults() []*Command {
	return []*Command{
		New("quit", func(context.Context, *Invocation) (any, error) {
			return Quit, nil
		}, Doc("End the session.")),

		New("help", func(ctx context.Context, inv *Invocation) (any, error) {
			target := inv.Args.String("cmd")
			if target == "" {
				target = inv.Name
			}
			return nil, Help(ctx, inv.Registry, inv.Session, inv.Channel, target)
		}, Optional("cmd", nil), WithChannel(), WithSession(), WithName(),
			Doc("Show usage for a command.")),

		New("ping", func(context.Context, *Invocation) (any, error) {
			return nil, nil
		}),
	}
}

// Extras returns the session introspection commands: history and
// stats.
func Extras(m *metrics.Collector) []*Command {
	return []*Command{
		New("history", func(_ context.Context, inv *Invocation) (any, error) {
			var sb strings.Builder
			for i, line := range inv.Session.History() {
				fmt.Fprintf(&sb, "%5d  %s\n", i+1, line)
			}
			return strings.TrimSuffix(sb.String(), "\n"), nil
		}, WithSession(), Doc(`
			List the lines entered in this session, oldest first.

			The list is bounded by the server's --max-history setting.
		`)),

		New("stats", func(context.Context, *Invocation) (any, error) {
			return m.JSON(), nil
		}, Doc("Print server counters as JSON.")),
	}
}
