package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "coderelay_bot"
	// PassphraseKey ключ, под которым лежит парольная фраза хранилища
	PassphraseKey = "vault_passphrase"

	defaultFileDir      = "~/.config/coderelay_bot/keyring"
	defaultFilePassword = "coderelay_bot-file-key"
)

// ErrNoPassphrase парольной фразы нет ни в окружении, ни в keyring
var ErrNoPassphrase = errors.New("vault passphrase not configured")

// Options где и как открывать keyring
type Options struct {
	// Backend "file" или "auto" (системное хранилище с откатом на файл)
	Backend  string
	Dir      string
	Password string
}

// Store хранилище секретов поверх 99designs/keyring
type Store struct {
	ring keyring.Keyring
}

// Open открывает keyring
func Open(opts Options) (*Store, error) {
	dir := opts.Dir
	if dir == "" {
		dir = defaultFileDir
	}
	password := opts.Password
	if password == "" {
		password = defaultFilePassword
	}

	var backends []keyring.BackendType
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		backends = []keyring.BackendType{keyring.FileBackend}
	case "auto":
		backends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
	default:
		return nil, fmt.Errorf("unknown keyring backend %q", opts.Backend)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(password),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// Get значение по ключу; ErrNoPassphrase если его нет
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("credential %q: %w", key, ErrNoPassphrase)
		}
		return "", fmt.Errorf("get credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set сохраняет значение по ключу
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "coderelay_bot secret",
	})
	if err != nil {
		return fmt.Errorf("set credential %q: %w", key, err)
	}
	return nil
}

// Delete удаляет значение по ключу
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("delete credential %q: %w", key, err)
	}
	return nil
}

// LoadPassphrase парольная фраза хранилища: из окружения, иначе из keyring
func LoadPassphrase(fromEnv string, opts Options) (string, error) {
	if fromEnv != "" {
		return fromEnv, nil
	}

	store, err := Open(opts)
	if err != nil {
		return "", err
	}

	passphrase, err := store.Get(PassphraseKey)
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", ErrNoPassphrase
	}
	return passphrase, nil
}
