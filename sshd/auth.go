package sshd

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"sshconsole/config"
	conerr "sshconsole/internal/errors"
	"sshconsole/util"
)

// AuthConfig selects how clients authenticate.
type AuthConfig struct {
	Mode           string // config.AuthNone, AuthPassword or AuthPublicKey
	Password       string
	AuthorizedKeys string // path to an OpenSSH authorized_keys file
}

// NewServerConfig builds the server side of the SSH handshake.
func NewServerConfig(auth AuthConfig, hostKey ssh.Signer, logger *util.Logger) (*ssh.ServerConfig, error) {
	cfg := &ssh.ServerConfig{ServerVersion: "SSH-2.0-sshconsole"}

	switch auth.Mode {
	case config.AuthNone, "":
		cfg.NoClientAuth = true

	case config.AuthPassword:
		want := []byte(auth.Password)
		cfg.PasswordCallback = func(meta ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if subtle.ConstantTimeCompare(pass, want) == 1 {
				return nil, nil
			}
			logger.Warn("password rejected for %q from %s", meta.User(), meta.RemoteAddr())
			return nil, conerr.ErrAuthFailed
		}

	case config.AuthPublicKey:
		keys, err := LoadAuthorizedKeys(auth.AuthorizedKeys)
		if err != nil {
			return nil, err
		}
		cfg.PublicKeyCallback = func(meta ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			wire := key.Marshal()
			for _, k := range keys {
				if bytes.Equal(k.Marshal(), wire) {
					return &ssh.Permissions{
						Extensions: map[string]string{"pubkey-fp": ssh.FingerprintSHA256(key)},
					}, nil
				}
			}
			logger.Warn("public key %s rejected for %q from %s",
				ssh.FingerprintSHA256(key), meta.User(), meta.RemoteAddr())
			return nil, conerr.ErrAuthFailed
		}

	default:
		return nil, fmt.Errorf("unknown auth mode %q", auth.Mode)
	}

	cfg.AddHostKey(hostKey)
	return cfg, nil
}

// LoadAuthorizedKeys parses every key in an authorized_keys file.
func LoadAuthorizedKeys(path string) ([]ssh.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authorized keys: %w", err)
	}

	var keys []ssh.PublicKey
	for len(bytes.TrimSpace(data)) > 0 {
		key, _, _, rest, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			return nil, fmt.Errorf("authorized keys %s: %w", path, err)
		}
		keys = append(keys, key)
		data = rest
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("authorized keys %s: no keys found", path)
	}
	return keys, nil
}
