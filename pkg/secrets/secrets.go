// Package secrets stores upstream API credentials in the OS keychain.
package secrets

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "trustchain"

	// GitHubToken is the keychain entry for the GitHub API token.
	GitHubToken = "github_token"
	// ChainAPIKey is the keychain entry for the chain explorer API key.
	ChainAPIKey = "etherscan_api_key"
)

// Set stores value under name in the OS keychain.
func Set(name, value string) error {
	if name == "" {
		return errors.New("secret name required")
	}
	if err := keyring.Set(keyringService, name, value); err != nil {
		return fmt.Errorf("saving %s to keychain: %w", name, err)
	}
	return nil
}

// Get returns the value stored under name, or an empty string when the
// keychain has no entry or is unavailable.
func Get(name string) string {
	v, err := keyring.Get(keyringService, name)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("keychain unavailable", "name", name, "error", err)
		}
		return ""
	}
	return v
}

// Delete removes the entry stored under name. Missing entries are not an error.
func Delete(name string) error {
	if err := keyring.Delete(keyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting %s from keychain: %w", name, err)
	}
	return nil
}
