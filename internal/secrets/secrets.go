package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/Achi00/jobs-server/internal/config"
)

// KeyringService groups the server's entries in the OS keychain.
const KeyringService = "jobs-server"

var ErrNotFound = errors.New("secret not found")

// Kind names a secret the server knows how to store.
type Kind string

const (
	IMAPPassword Kind = "imap"
	EnrichAPIKey Kind = "enrich"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case IMAPPassword:
		return IMAPPassword, nil
	case EnrichAPIKey:
		return EnrichAPIKey, nil
	}
	return "", fmt.Errorf("unknown secret kind %q", s)
}

// Account returns the keyring account for kind under cfg.
func Account(kind Kind, cfg config.Config) string {
	switch kind {
	case IMAPPassword:
		return fmt.Sprintf("jobs-server:imap:%s@%s", cfg.Email.Username, cfg.Email.IMAPHost)
	case EnrichAPIKey:
		if a := strings.TrimSpace(cfg.Enrichment.KeyringAccount); a != "" {
			return a
		}
		return "jobs-server:enrich"
	}
	return ""
}

func envVar(kind Kind) string {
	switch kind {
	case IMAPPassword:
		return "IMAP_PASSWORD"
	case EnrichAPIKey:
		return "ENRICH_API_KEY"
	}
	return ""
}

// Get reads the keyring first and falls back to the environment.
func Get(kind Kind, account string) (string, error) {
	if strings.TrimSpace(account) != "" {
		v, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	if k := envVar(kind); k != "" {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s secret: %w (set it in keychain or via env)", kind, ErrNotFound)
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Has reports whether the keyring holds a value for account.
func Has(account string) bool {
	if strings.TrimSpace(account) == "" {
		return false
	}
	v, err := keyring.Get(KeyringService, account)
	return err == nil && v != ""
}

// Keyring adapts the package functions to an interface for the HTTP layer.
type Keyring struct{}

func (Keyring) Has(account string) bool         { return Has(account) }
func (Keyring) Set(account, value string) error { return Set(account, value) }
func (Keyring) Delete(account string) error     { return Delete(account) }
