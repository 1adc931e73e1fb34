// Package credential stores the session token in the system keyring so
// "stay signed in" survives restarts without writing the token to disk
// in plain text.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "perfhub"
	tokenKey    = "session-token"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/perfhub/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("perfhub-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// SaveToken stores the session token in the system keyring.
func SaveToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  tokenKey,
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("saving session token: %w", err)
	}

	return nil
}

// LoadToken retrieves the stored session token. Use IsNotFound to
// distinguish a missing token from a keyring failure.
func LoadToken() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", err
		}
		return "", fmt.Errorf("loading session token: %w", err)
	}

	return string(item.Data), nil
}

// DeleteToken removes the stored session token. Deleting a token that
// was never saved is not an error.
func DeleteToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting session token: %w", err)
	}

	return nil
}

// IsNotFound reports whether err means no token has been stored.
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound)
}
