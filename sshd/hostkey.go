package sshd

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	conerr "sshconsole/internal/errors"
	"sshconsole/util"
)

// LoadHostKey reads a PEM private key from path.  When the file does
// not exist and generate is set, a fresh ed25519 key is written there
// (mode 0600) and returned.
func LoadHostKey(path string, generate bool, logger *util.Logger) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("host key %s: %w", path, err)
		}
		return signer, nil
	case !conerr.Is(err, fs.ErrNotExist) || !generate:
		return nil, fmt.Errorf("host key: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "sshconsole host key")
	if err != nil {
		return nil, fmt.Errorf("encoding host key: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("host key directory: %w", err)
		}
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, fmt.Errorf("writing host key: %w", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, err
	}
	logger.Info("generated host key %s (%s)", path, ssh.FingerprintSHA256(signer.PublicKey()))
	return signer, nil
}
