package core

import (
	"fmt"

	"golang.org/x/crypto/ssh"

	"sshconsole/config"
	"sshconsole/internal/command"
	"sshconsole/internal/metrics"
	"sshconsole/internal/session"
	"sshconsole/sshclient"
	"sshconsole/sshd"
	"sshconsole/util"
)

// Build constructs the appropriate Mode from the given configuration.
// reg is the frozen command set every session dispatches against.
func Build(cfg *config.Config, reg *command.Registry, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	switch {
	case cfg.ConnectEnabled:
		return buildConnect(cfg, logger), nil
	case cfg.Local:
		return buildLocal(cfg, reg, logger, m), nil
	default:
		return buildServe(cfg, reg, logger, m)
	}
}

// ── mode builders ────────────────────────────────────────────────────

func buildServe(cfg *config.Config, reg *command.Registry, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	hostKey, err := sshd.LoadHostKey(cfg.HostKeyPath, cfg.GenerateHostKey, logger)
	if err != nil {
		return nil, err
	}
	logger.Verbose("host key %s", ssh.FingerprintSHA256(hostKey.PublicKey()))

	sshCfg, err := sshd.NewServerConfig(sshd.AuthConfig{
		Mode:           cfg.AuthMode,
		Password:       cfg.Password,
		AuthorizedKeys: cfg.AuthorizedKeys,
	}, hostKey, logger)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	return &ServeMode{
		Address:          cfg.ListenAddr(),
		SSH:              sshCfg,
		ShellTimeout:     cfg.ShellTimeout,
		HandshakeTimeout: cfg.HandshakeTimeout,
		MaxSessions:      cfg.MaxSessions,
		AcceptRate:       cfg.AcceptRate,
		AcceptBurst:      cfg.AcceptBurst,
		MetricsAddr:      cfg.MetricsAddr,
		GracePeriod:      config.DefaultGracePeriod,
		Dispatcher:       command.NewDispatcher(reg, logger, m),
		Settings:         settings(cfg),
		Metrics:          m,
		Logger:           logger,
	}, nil
}

func buildLocal(cfg *config.Config, reg *command.Registry, logger *util.Logger, m *metrics.Collector) Mode {
	return &LocalMode{
		Dispatcher: command.NewDispatcher(reg, logger, m),
		Settings:   settings(cfg),
		Metrics:    m,
		Logger:     logger,
	}
}

func buildConnect(cfg *config.Config, logger *util.Logger) Mode {
	client := sshclient.New(&sshclient.Config{
		User:          cfg.ConnectUser,
		Host:          cfg.ConnectHost,
		Port:          cfg.ConnectPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   config.DefaultConnTimeout,
	}, logger)
	return &ConnectMode{Client: client, Logger: logger}
}

// ── shared helpers ───────────────────────────────────────────────────

func settings(cfg *config.Config) session.Settings {
	return session.Settings{
		MaxHistory: cfg.MaxHistory,
		Banner:     cfg.Banner,
		Prompt:     cfg.Prompt,
	}
}
