package credstore

import (
	"strings"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"
)

const (
	// DefaultService and DefaultKey locate the Rancher token in the keychain
	DefaultService = "dg_cli_plugin_kube"
	DefaultKey     = "rancher_token"

	// TokenPrefix starts every Rancher API token
	TokenPrefix = "token-"

	keyringLabel = "OG-CLI Rancher API token"
)

var (
	// ErrTokenNotFound is returned when no token has been stored yet
	ErrTokenNotFound = errors.New("no Rancher API token found in credential store")
	// ErrInvalidToken is returned for tokens that do not look like Rancher tokens
	ErrInvalidToken = errors.Errorf("entered token format seems to be invalid, token must start with '%s'", TokenPrefix)
)

// Store keeps the Rancher API token in the OS credential store
type Store struct {
	key     string
	keyring keyring.Keyring
}

// New wraps an already opened keyring
func New(kr keyring.Keyring, key string) *Store {
	return &Store{key: key, keyring: kr}
}

// Open opens the platform keychain for service
func Open(service, key string) (*Store, error) {
	kr, err := keyring.Open(keyring.Config{
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
		},
		ServiceName:              service,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open credential store")
	}
	return New(kr, key), nil
}

// Get returns the stored token
func (s *Store) Get() (string, error) {
	item, err := s.keyring.Get(s.key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrTokenNotFound
		}
		return "", errors.Wrap(err, "failed to read from credential store")
	}
	return string(item.Data), nil
}

// Set validates and stores token, replacing any previous one
func (s *Store) Set(token string) error {
	if err := ValidateToken(token); err != nil {
		return err
	}

	err := s.keyring.Set(keyring.Item{
		Key:   s.key,
		Data:  []byte(token),
		Label: keyringLabel,
	})
	if err != nil {
		return errors.Wrap(err, "failed to write to credential store")
	}
	return nil
}

// ValidateToken checks the shape of a Rancher API token
func ValidateToken(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return ErrInvalidToken
	}
	return nil
}
