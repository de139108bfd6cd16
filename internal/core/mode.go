// Package core is the orchestration layer.  It composes the SSH
// transport, the console session and the command registry into
// complete operational modes and provides a builder that selects the
// right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  lineedit / command  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of sshconsole (serve,
// local, or connect).  Each mode owns its full lifecycle from
// connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
