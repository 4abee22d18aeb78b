// Package keyring stores the credential sealing key in the operating
// system keyring, with a file-based fallback for headless hosts where no
// keyring service is running.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyFileName = "credentials.key"
	keyFileMode = 0600
)

// FileKeyStore keeps the key hex-encoded in a 0600 file under configDir.
type FileKeyStore struct {
	configDir string
}

var (
	fileRandRead  = rand.Read
	fileReadFile  = os.ReadFile
	fileRemove    = os.Remove
	fileRename    = os.Rename
	fileMkdirAll  = os.MkdirAll
	fileCreateTmp = os.CreateTemp
)

func NewFileKeyStore(configDir string) *FileKeyStore {
	return &FileKeyStore{configDir: configDir}
}

func (f *FileKeyStore) keyPath() string {
	return filepath.Join(f.configDir, keyFileName)
}

// SetKey generates a fresh key and replaces the key file atomically.
func (f *FileKeyStore) SetKey() ([]byte, error) {
	if err := fileMkdirAll(f.configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	key := make([]byte, 32)
	if _, err := fileRandRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	tmp, err := fileCreateTmp(f.configDir, "."+keyFileName+".tmp.*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func(err error) ([]byte, error) {
		tmp.Close()
		fileRemove(tmpPath)
		return nil, err
	}

	if err := tmp.Chmod(keyFileMode); err != nil {
		return cleanup(fmt.Errorf("set permissions: %w", err))
	}
	if _, err := tmp.WriteString(hex.EncodeToString(key)); err != nil {
		return cleanup(fmt.Errorf("write key: %w", err))
	}
	if err := tmp.Close(); err != nil {
		fileRemove(tmpPath)
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	if err := fileRename(tmpPath, f.keyPath()); err != nil {
		fileRemove(tmpPath)
		return nil, fmt.Errorf("rename key file: %w", err)
	}
	return key, nil
}

// GetKey reads and validates the stored key. A missing file yields an
// error satisfying os.IsNotExist.
func (f *FileKeyStore) GetKey() ([]byte, error) {
	data, err := fileReadFile(f.keyPath())
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: expected 32, got %d", len(key))
	}
	return key, nil
}

func (f *FileKeyStore) DeleteKey() error {
	return fileRemove(f.keyPath())
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

var (
	_ KeyStore = (*Keyring)(nil)
	_ KeyStore = (*FileKeyStore)(nil)
)
