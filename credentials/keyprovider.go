package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
)

const (
	// EnvEncryptionKey holds a hex-encoded AES-256 key for CI and headless hosts.
	EnvEncryptionKey = "SPRINTCTL_ENCRYPTION_KEY"
	// EnvPassphrase is used to derive the key when no keyring exists.
	EnvPassphrase = "SPRINTCTL_PASSPHRASE"

	keyringService = "sprintctl"
	keyringUser    = "encryption-key"
	saltFile       = "credentials.salt"

	keyLength  = 32
	saltLength = 16

	// argon2id cost: one pass over 64 MiB on four lanes.
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// ErrKeyringUnavailable means the OS keyring could not be reached.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyProvider supplies the AES key that seals credentials.yaml.
type KeyProvider interface {
	GetKey() ([]byte, error)
	// Description names where the key lives, for `sprintctl auth status`.
	Description() string
}

// randomBytes returns n bytes from crypto/rand.
func randomBytes(n int, what string) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating %s: %w", what, err)
	}
	return b, nil
}

// decodeHex decodes s and checks it is exactly n bytes long.
func decodeHex(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("must be %d bytes, got %d", n, len(b))
	}
	return b, nil
}

// KeyringKeyProvider keeps a generated key in the OS keyring.
type KeyringKeyProvider struct {
	mu sync.Mutex
}

func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{}
}

// GetKey returns the stored key. A missing or malformed entry is replaced
// with a fresh random key.
func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, err := keyring.Get(keyringService, keyringUser)
	switch {
	case err == nil:
		if key, decErr := decodeHex(stored, keyLength); decErr == nil {
			return key, nil
		}
	case !errors.Is(err, keyring.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	key, err := randomBytes(keyLength, "random key")
	if err != nil {
		return nil, err
	}
	if err := keyring.Set(keyringService, keyringUser, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

func (p *KeyringKeyProvider) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// PassphraseKeyProvider derives the key with argon2id.
type PassphraseKeyProvider struct {
	passphrase string
	salt       []byte
}

// NewPassphraseKeyProvider pairs a passphrase with the salt from
// LoadOrCreateSalt; the same pair always yields the same key.
func NewPassphraseKeyProvider(passphrase string, salt []byte) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{passphrase: passphrase, salt: salt}
}

func (p *PassphraseKeyProvider) GetKey() ([]byte, error) {
	switch {
	case p.passphrase == "":
		return nil, errors.New("passphrase is required")
	case len(p.salt) == 0:
		return nil, errors.New("salt is required")
	}
	return argon2.IDKey([]byte(p.passphrase), p.salt, argon2Time, argon2Memory, argon2Threads, keyLength), nil
}

func (p *PassphraseKeyProvider) Description() string {
	return "Passphrase-derived key (Argon2id)"
}

// GenerateSalt returns a new random passphrase salt.
func GenerateSalt() ([]byte, error) {
	return randomBytes(saltLength, "salt")
}

// LoadOrCreateSalt reads dir/credentials.salt, writing a new one on first use.
func LoadOrCreateSalt(dir string) ([]byte, error) {
	path := filepath.Join(dir, saltFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		salt, decErr := decodeHex(string(data), saltLength)
		if decErr != nil {
			return nil, fmt.Errorf("%s is corrupt", path)
		}
		return salt, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading salt: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(salt)), 0o600); err != nil {
		return nil, fmt.Errorf("writing salt: %w", err)
	}
	return salt, nil
}

// EnvKeyProvider reads a hex key from an environment variable.
type EnvKeyProvider struct {
	envVar string
}

func NewEnvKeyProvider(envVar string) *EnvKeyProvider {
	return &EnvKeyProvider{envVar: envVar}
}

func (p *EnvKeyProvider) GetKey() ([]byte, error) {
	raw := os.Getenv(p.envVar)
	if raw == "" {
		return nil, fmt.Errorf("environment variable %s not set", p.envVar)
	}
	key, err := decodeHex(raw, keyLength)
	if err != nil {
		return nil, fmt.Errorf("invalid key in %s: %w", p.envVar, err)
	}
	return key, nil
}

func (p *EnvKeyProvider) Description() string {
	return fmt.Sprintf("Environment variable (%s)", p.envVar)
}

// GetDefaultKeyProvider picks, in order, SPRINTCTL_ENCRYPTION_KEY, the OS
// keyring, then SPRINTCTL_PASSPHRASE with its salt kept in dir.
func GetDefaultKeyProvider(dir string) (KeyProvider, error) {
	if os.Getenv(EnvEncryptionKey) != "" {
		return NewEnvKeyProvider(EnvEncryptionKey), nil
	}

	kr := NewKeyringKeyProvider()
	_, err := kr.GetKey()
	if err == nil {
		return kr, nil
	}
	if !errors.Is(err, ErrKeyringUnavailable) {
		return nil, err
	}

	passphrase := os.Getenv(EnvPassphrase)
	if passphrase == "" {
		return nil, fmt.Errorf("system keyring unavailable; set %s or %s: %w", EnvEncryptionKey, EnvPassphrase, err)
	}
	salt, err := LoadOrCreateSalt(dir)
	if err != nil {
		return nil, err
	}
	return NewPassphraseKeyProvider(passphrase, salt), nil
}
