// Package encryption seals short secrets with AES-256-GCM.
//
// A sealed value is "gcm1" | nonce | ciphertext+tag. The prefix leaves room
// for a future scheme without guessing at the format of stored values.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const gcmPrefix = "gcm1"

// KeySize is the required key length in bytes.
const KeySize = 32

var (
	ErrInvalidKey = errors.New("encryption: key must be 32 bytes")
	ErrUnsealed   = errors.New("encryption: value is not sealed")
)

var randReader io.Reader = rand.Reader

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptValue seals value under key. ad is authenticated but not stored;
// the same ad must be passed to DecryptValue.
func EncryptValue(value string, key, ad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(gcmPrefix)+len(nonce)+len(value)+gcm.Overhead())
	out = append(out, gcmPrefix...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, []byte(value), ad), nil
}

// DecryptValue opens a value produced by EncryptValue.
func DecryptValue(sealed []byte, key, ad []byte) ([]byte, error) {
	if len(sealed) < len(gcmPrefix) || string(sealed[:len(gcmPrefix)]) != gcmPrefix {
		return nil, ErrUnsealed
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed) < len(gcmPrefix)+nonceSize+gcm.Overhead() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := sealed[len(gcmPrefix) : len(gcmPrefix)+nonceSize]
	return gcm.Open(nil, nonce, sealed[len(gcmPrefix)+nonceSize:], ad)
}
