package config

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const keyringUser = "openai_api_key"

// ErrNoStoredKey is returned when the keyring holds no API key.
var ErrNoStoredKey = errors.New("no API key in keyring")

// KeyStore keeps the OpenAI API key outside the config file.
type KeyStore interface {
	APIKey() (string, error)
	SetAPIKey(key string) error
}

// Keyring stores the key in the system keyring (macOS Keychain, Windows
// Credential Manager, Linux Secret Service).
type Keyring struct{}

func (Keyring) APIKey() (string, error) {
	key, err := keyring.Get(ApplicationName, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoStoredKey
	}
	return key, err
}

func (Keyring) SetAPIKey(key string) error {
	return keyring.Set(ApplicationName, keyringUser, key)
}
