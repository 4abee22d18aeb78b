// Package credman protects tunnel credentials at rest. Passwords stored in
// the schedule store are sealed with a key kept in the OS keyring, or in a
// private key file when no keyring service is reachable.
package credman

import (
	"encoding/base64"
	"fmt"

	"github.com/warpdl/warpvpn/pkg/credman/encryption"
	"github.com/warpdl/warpvpn/pkg/credman/keyring"
	"github.com/warpdl/warpvpn/pkg/logger"
)

// PasswordSealer implements vpnsched.Sealer with AES-GCM.
type PasswordSealer struct {
	key []byte
}

// NewPasswordSealer creates a sealer over a 32 byte key.
func NewPasswordSealer(key []byte) (*PasswordSealer, error) {
	if len(key) != encryption.KeySize {
		return nil, encryption.ErrInvalidKey
	}
	return &PasswordSealer{key: append([]byte(nil), key...)}, nil
}

var (
	newKeyring      = func() keyring.KeyStore { return keyring.NewKeyring() }
	newFileKeyStore = func(dir string) keyring.KeyStore { return keyring.NewFileKeyStore(dir) }
)

// NewSealer loads (or creates) the sealing key, preferring the OS keyring
// and falling back to a key file in configDir.
func NewSealer(configDir string, l logger.Logger) (*PasswordSealer, error) {
	kr := newKeyring()
	key, from, err := keyring.LoadOrCreate(kr, newFileKeyStore(configDir))
	if err != nil {
		return nil, fmt.Errorf("credman: %w", err)
	}
	if from != kr {
		l.Warning("system keyring unavailable, credentials key kept in %s", configDir)
	}
	return NewPasswordSealer(key)
}

func (p *PasswordSealer) Seal(plain string) (string, error) {
	b, err := encryption.EncryptValue(plain, p.key, nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (p *PasswordSealer) Open(sealed string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("credman: malformed sealed value: %w", err)
	}
	plain, err := encryption.DecryptValue(b, p.key, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
