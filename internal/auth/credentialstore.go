package auth

import (
	"fmt"

	"github.com/99designs/keyring"

	"github.com/canonica-labs/dagplan/internal/errors"
)

// CredentialStore persists secrets the CLI and catalog clients need
// outside of plain-text configuration: catalog connection credentials
// (Glue access keys, Unity personal access tokens, Snowflake/BigQuery
// service credentials) and the CLI's own control-plane auth token. It
// wraps the OS-native keychain (macOS Keychain, Windows Credential
// Manager, Secret Service / libsecret on Linux) so secrets never land in
// a config file on disk.
type CredentialStore struct {
	ring keyring.Keyring
}

// ServiceName is the keyring service namespace canonic secrets are stored
// under.
const ServiceName = "canonic"

// NewCredentialStore opens the OS-native keyring under ServiceName.
func NewCredentialStore() (*CredentialStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	return &CredentialStore{ring: ring}, nil
}

// Set stores a secret under key (e.g. "catalog.glue.secretAccessKey",
// "catalog.unity.token").
func (s *CredentialStore) Set(key, secret string) error {
	return s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(secret),
		Label: "canonic: " + key,
	})
}

// Get retrieves a secret previously stored under key. A missing key
// returns MetadataUnavailable: the caller asked for a credential that was
// never configured, not a transient fetch failure.
func (s *CredentialStore) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if err == keyring.ErrKeyNotFound {
			return "", errors.NewMetadataUnavailable("", "", fmt.Errorf("no credential stored for %s", key))
		}
		return "", fmt.Errorf("reading credential %s: %w", key, err)
	}
	return string(item.Data), nil
}

// Delete removes a stored secret. Deleting a key that was never set is
// not an error.
func (s *CredentialStore) Delete(key string) error {
	err := s.ring.Remove(key)
	if err == keyring.ErrKeyNotFound {
		return nil
	}
	return err
}
