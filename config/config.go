// Package config defines the runtime configuration for sshconsole and
// provides helpers for parsing connect specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	conerr "sshconsole/internal/errors"
)

// Authentication modes accepted by the server.
const (
	AuthNone      = "none"
	AuthPassword  = "password"
	AuthPublicKey = "publickey"
)

// Config holds every tuneable for one sshconsole process.  Struct tags
// name the environment variables (without the SSHCONSOLE_ prefix).
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	BindAddress      string        `env:"BIND"`
	Port             int           `env:"PORT"`
	HostKeyPath      string        `env:"HOST_KEY"`
	GenerateHostKey  bool          `env:"GENERATE_HOST_KEY"`
	AuthMode         string        `env:"AUTH"`
	Password         string        `env:"PASSWORD"`
	AuthorizedKeys   string        `env:"AUTHORIZED_KEYS"`
	ShellTimeout     time.Duration `env:"SHELL_TIMEOUT"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT"`
	MaxSessions      int           `env:"MAX_SESSIONS"`
	AcceptRate       float64       `env:"ACCEPT_RATE"` // connections per second, 0 = unlimited
	AcceptBurst      int           `env:"ACCEPT_BURST"`
	MetricsAddr      string        `env:"METRICS_ADDR"`

	// ── Console ──────────────────────────────────────────────────────
	MaxHistory int    `env:"MAX_HISTORY"`
	Banner     string `env:"BANNER"` // empty → "Welcome to <hostname>!"
	Prompt     string `env:"PROMPT"`
	Examples   bool   `env:"EXAMPLES"`

	// ── Local mode ───────────────────────────────────────────────────
	Local bool `env:"LOCAL"`

	// ── Client mode ──────────────────────────────────────────────────
	ConnectSpec    string `env:"CONNECT"` // raw user@host[:port] from -C
	ConnectEnabled bool
	ConnectUser    string
	ConnectHost    string
	ConnectPort    int
	SSHKeyPath     string `env:"SSH_KEY"`
	SSHPassword    bool   `env:"SSH_PASSWORD"` // true → prompt interactively
	UseSSHAgent    bool   `env:"SSH_AGENT"`
	StrictHostKey  bool   `env:"STRICT_HOSTKEY"`
	KnownHostsPath string `env:"KNOWN_HOSTS"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose int `env:"VERBOSE"`
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		BindAddress:      DefaultBindAddress,
		Port:             DefaultPort,
		HostKeyPath:      DefaultHostKeyPath,
		GenerateHostKey:  true,
		AuthMode:         AuthNone,
		ShellTimeout:     DefaultShellTimeout,
		HandshakeTimeout: DefaultHandshakeTimeout,
		MaxSessions:      DefaultMaxSessions,
		AcceptBurst:      DefaultAcceptBurst,
		MaxHistory:       DefaultMaxHistory,
		Prompt:           DefaultPrompt,
	}
}

// ListenAddr returns the host:port the server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}

// ── Connect-spec parser ──────────────────────────────────────────────

// specRe matches [user@]host[:port].
var specRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseConnectSpec extracts user, host, and port from a string such as
// "ops@console.example.com:2222".  Port defaults to DefaultPort.
func ParseConnectSpec(spec string) (user, host string, port int, err error) {
	m := specRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid connect spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid connect port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("connect host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Local && c.ConnectEnabled {
		return fmt.Errorf("--local and --connect are mutually exclusive")
	}
	if c.MaxHistory < 1 {
		return &conerr.ConfigError{
			Field:   "max-history",
			Value:   c.MaxHistory,
			Message: "must be at least 1",
		}
	}
	if c.ConnectEnabled {
		if c.ConnectHost == "" {
			return fmt.Errorf("connect host is required")
		}
		return nil
	}
	if c.Local {
		return nil
	}

	if c.Port < 1 || c.Port > 65535 {
		return &conerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    "use a port between 1 and 65535",
		}
	}
	if c.HostKeyPath == "" {
		return &conerr.ConfigError{
			Field:   "host-key",
			Message: "a host key path is required",
			Hint:    "pass --host-key; it is generated when missing",
		}
	}

	switch c.AuthMode {
	case AuthNone:
	case AuthPassword:
		if c.Password == "" {
			return &conerr.ConfigError{
				Field:   "auth",
				Value:   c.AuthMode,
				Message: "password auth needs a password",
				Hint:    "set SSHCONSOLE_PASSWORD",
			}
		}
	case AuthPublicKey:
		if c.AuthorizedKeys == "" {
			return &conerr.ConfigError{
				Field:   "authorized-keys",
				Message: "required with --auth=publickey",
				Hint:    "point it at an OpenSSH authorized_keys file",
			}
		}
	default:
		return &conerr.ConfigError{
			Field:   "auth",
			Value:   c.AuthMode,
			Message: "unknown auth mode",
			Hint:    "use none, password or publickey",
		}
	}

	if c.MaxSessions < 0 {
		return &conerr.ConfigError{Field: "max-sessions", Value: c.MaxSessions, Message: "must not be negative"}
	}
	if c.AcceptRate < 0 {
		return &conerr.ConfigError{Field: "accept-rate", Value: c.AcceptRate, Message: "must not be negative"}
	}
	return nil
}
