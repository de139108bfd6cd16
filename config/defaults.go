package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is where the console server listens.
	DefaultPort = 2222

	// DefaultBindAddress binds every interface.
	DefaultBindAddress = ""

	// DefaultHostKeyPath is the server's PEM private key.
	DefaultHostKeyPath = "host.key"

	// DefaultMaxHistory bounds each session's history.
	DefaultMaxHistory = 64

	// DefaultPrompt is written before every line.
	DefaultPrompt = "> "

	// DefaultShellTimeout is how long a client has to request a shell
	// after opening its session channel.
	DefaultShellTimeout = 10 * time.Second

	// DefaultHandshakeTimeout bounds the SSH key exchange and auth.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultMaxSessions caps concurrent sessions (0 = unlimited).
	DefaultMaxSessions = 64

	// DefaultAcceptBurst is the token bucket size when --accept-rate is
	// set.
	DefaultAcceptBurst = 8

	// DefaultConnTimeout is the client's TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultGracePeriod is how long shutdown waits for sessions to end.
	DefaultGracePeriod = 5 * time.Second
)
