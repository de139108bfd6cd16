package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sshconsole/config"
	"sshconsole/internal/command"
	"sshconsole/internal/metrics"
)

func testRegistry(t *testing.T) *command.Registry {
	t.Helper()
	b := command.NewBuilder()
	require.NoError(t, b.Register(command.Defaults()...))
	return b.Build()
}

func TestBuild_Modes(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "host.key")

	tests := []struct {
		name  string
		tweak func(*config.Config)
		want  interface{}
	}{
		{
			name: "serve",
			tweak: func(c *config.Config) {
				c.HostKeyPath = keyPath
			},
			want: &ServeMode{},
		},
		{
			name:  "local",
			tweak: func(c *config.Config) { c.Local = true },
			want:  &LocalMode{},
		},
		{
			name: "connect",
			tweak: func(c *config.Config) {
				c.ConnectEnabled = true
				c.ConnectUser, c.ConnectHost, c.ConnectPort = "ops", "console.test", 2222
			},
			want: &ConnectMode{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.tweak(cfg)

			mode, err := Build(cfg, testRegistry(t), quietLogger(), metrics.New())
			require.NoError(t, err)
			assert.IsType(t, tt.want, mode)
		})
	}
}

func TestBuild_ServeWiresConfig(t *testing.T) {
	cfg := config.Default()
	cfg.HostKeyPath = filepath.Join(t.TempDir(), "host.key")
	cfg.BindAddress = "127.0.0.1"
	cfg.Port = 2200
	cfg.MaxSessions = 3
	cfg.AcceptRate = 2.5
	cfg.Banner = "Hello"
	cfg.MaxHistory = 5

	mode, err := Build(cfg, testRegistry(t), quietLogger(), metrics.New())
	require.NoError(t, err)

	s := mode.(*ServeMode)
	assert.Equal(t, "127.0.0.1:2200", s.Address)
	assert.Equal(t, 3, s.MaxSessions)
	assert.Equal(t, 2.5, s.AcceptRate)
	assert.Equal(t, "Hello", s.Settings.Banner)
	assert.Equal(t, 5, s.Settings.MaxHistory)
	assert.Equal(t, []string{"quit", "help", "ping"}, s.Dispatcher.Registry().Names())
	assert.FileExists(t, cfg.HostKeyPath)
}

func TestBuild_ServeErrors(t *testing.T) {
	t.Run("missing host key", func(t *testing.T) {
		cfg := config.Default()
		cfg.HostKeyPath = filepath.Join(t.TempDir(), "absent.key")
		cfg.GenerateHostKey = false
		_, err := Build(cfg, testRegistry(t), quietLogger(), nil)
		assert.Error(t, err)
	})

	t.Run("missing authorized keys", func(t *testing.T) {
		cfg := config.Default()
		cfg.HostKeyPath = filepath.Join(t.TempDir(), "host.key")
		cfg.AuthMode = config.AuthPublicKey
		cfg.AuthorizedKeys = filepath.Join(t.TempDir(), "authorized_keys")
		_, err := Build(cfg, testRegistry(t), quietLogger(), nil)
		assert.ErrorContains(t, err, "auth")
	})
}
