package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/zalando/go-keyring"
)

// KeyStore holds the single sealing key.
type KeyStore interface {
	SetKey() ([]byte, error)
	GetKey() ([]byte, error)
	DeleteKey() error
}

// Keyring stores the key in the operating system keyring.
type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  "warpvpn",
		KeyField: "credentials",
	}
}

func (k *Keyring) SetKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := randRead(key); err != nil {
		return nil, err
	}
	if err := keyringSet(k.AppName, k.KeyField, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *Keyring) GetKey() ([]byte, error) {
	keyHex, err := keyringGet(k.AppName, k.KeyField)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	return key, nil
}

func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}

// IsNotFound reports whether err means the store holds no key yet.
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrNotFound) || isNotExist(err)
}

// LoadOrCreate returns the key from the first store that yields one,
// creating a key in the first store that accepts it otherwise. The second
// return value is the store that served the key.
func LoadOrCreate(stores ...KeyStore) ([]byte, KeyStore, error) {
	var errs *multierror.Error
	for _, s := range stores {
		key, err := s.GetKey()
		if err == nil && len(key) == 32 {
			return key, s, nil
		}
		if err != nil && !IsNotFound(err) {
			errs = multierror.Append(errs, err)
			continue
		}
		key, err = s.SetKey()
		if err == nil {
			return key, s, nil
		}
		errs = multierror.Append(errs, err)
	}
	if errs == nil {
		return nil, nil, errors.New("no key store configured")
	}
	return nil, nil, fmt.Errorf("no usable key store: %w", errs)
}
