// Package cmd wires up the CLI flags and dispatches to the console
// core.
package cmd

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"sshconsole/config"
	"sshconsole/internal/command"
	"sshconsole/internal/core"
	"sshconsole/internal/metrics"
	"sshconsole/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X sshconsole/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected sshconsole mode.  Flags
// override SSHCONSOLE_* environment variables, which override the
// built-in defaults.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}
	fs := flag.NewFlagSet("sshconsole", flag.ContinueOnError)

	// ── server ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.BindAddress, "bind", "b", cfg.BindAddress, "Address to bind (empty = all interfaces)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port to listen on")
	fs.StringVar(&cfg.HostKeyPath, "host-key", cfg.HostKeyPath, "Host private key (PEM), generated if missing")
	noGenerate := !cfg.GenerateHostKey
	fs.BoolVar(&noGenerate, "no-generate-host-key", noGenerate, "Fail instead of generating a missing host key")
	fs.StringVar(&cfg.AuthMode, "auth", cfg.AuthMode, "Client authentication: none, password or publickey")
	fs.StringVar(&cfg.AuthorizedKeys, "authorized-keys", cfg.AuthorizedKeys, "authorized_keys file for --auth=publickey")
	fs.DurationVar(&cfg.ShellTimeout, "shell-timeout", cfg.ShellTimeout, "How long a client may take to request a shell")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "Deadline for the SSH handshake")
	fs.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "Concurrent session cap (0 = unlimited)")
	fs.Float64Var(&cfg.AcceptRate, "accept-rate", cfg.AcceptRate, "New connections per second (0 = unlimited)")
	fs.IntVar(&cfg.AcceptBurst, "accept-burst", cfg.AcceptBurst, "Connection burst allowed by --accept-rate")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")

	// ── console ──────────────────────────────────────────────────
	fs.IntVar(&cfg.MaxHistory, "max-history", cfg.MaxHistory, "Lines of history kept per session")
	fs.StringVar(&cfg.Banner, "banner", cfg.Banner, `Greeting line (default "Welcome to <hostname>!")`)
	fs.StringVar(&cfg.Prompt, "prompt", cfg.Prompt, "Prompt written before each line")
	fs.BoolVar(&cfg.Examples, "examples", cfg.Examples, "Register the example commands (params, docstring, argparser)")

	// ── modes ────────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Local, "local", "L", cfg.Local, "Run one console on this terminal instead of serving")
	fs.StringVarP(&cfg.ConnectSpec, "connect", "C", cfg.ConnectSpec, "Connect to a console at [user@]host[:port]")

	// ── client ───────────────────────────────────────────────────
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for the console password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify the server against known_hosts")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("sshconsole %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}
	cfg.GenerateHostKey = !noGenerate

	// ── connect spec ─────────────────────────────────────────────
	if cfg.ConnectSpec != "" {
		user, host, port, err := config.ParseConnectSpec(cfg.ConnectSpec)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if user == "" {
			user = os.Getenv("USER")
		}
		cfg.ConnectEnabled = true
		cfg.ConnectUser = user
		cfg.ConnectHost = host
		cfg.ConnectPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	collector := metrics.New()

	reg, err := buildRegistry(cfg, collector)
	if err != nil {
		return err
	}

	mode, err := core.Build(cfg, reg, logger, collector)
	if err != nil {
		return err
	}
	if dryRun {
		logger.Info("configuration OK: %T with %d commands", mode, reg.Len())
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// buildRegistry freezes the command set shared by every session.
func buildRegistry(cfg *config.Config, m *metrics.Collector) (*command.Registry, error) {
	b := command.NewBuilder()
	if err := b.Register(command.Defaults()...); err != nil {
		return nil, err
	}
	if err := b.Register(command.Extras(m)...); err != nil {
		return nil, err
	}
	if cfg.Examples {
		if err := b.Register(command.Examples()...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sshconsole – line-editing command console over SSH v%s

Serves a small command shell to any SSH client, with history, cursor
movement and per-command help.

Usage:
  sshconsole [options]                         Serve on :%d
  sshconsole -L [options]                      Console on this terminal
  sshconsole -C [user@]host[:port] [options]   Connect to a console

Options:
`, version, config.DefaultPort)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  Every option can also be set as %s<NAME>, e.g. %sPORT=2200.
  The password for --auth=password is read from %sPASSWORD only.

Examples:
  sshconsole -p 2200 --examples                Serve with the example commands
  sshconsole --auth publickey --authorized-keys ~/.ssh/authorized_keys
  sshconsole --metrics-addr 127.0.0.1:9102     Expose /metrics
  ssh -p 2222 localhost                        Open a session
  sshconsole -C ops@console.internal:2222      Same, without ssh(1)
`, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
}
