package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable named in Config's tags.
const EnvPrefix = "SSHCONSOLE_"

// LoadFromEnv overlays environment variables onto cfg.  Unset variables
// leave the existing value alone.  Call it BEFORE defining CLI flags so
// the flags pick up the overlaid values as their defaults.
func LoadFromEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
