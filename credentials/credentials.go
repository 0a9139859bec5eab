// Package credentials stores Google Sheets credentials for sprintctl in
// ~/.sprintctl/credentials.yaml, encrypted at rest with AES-256-GCM.
//
// The encryption key lives in the system keyring. On hosts without one, set
// SPRINTCTL_ENCRYPTION_KEY to a 64-character hex string, or
// SPRINTCTL_PASSPHRASE to derive a key with Argon2id.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential storage constants.
const (
	DefaultCredentialsDir  = ".sprintctl"
	DefaultCredentialsFile = "credentials.yaml"

	// AuthTypeAPIKey is a Google API key sent as ?key=.
	AuthTypeAPIKey = "api_key"
	// AuthTypeServiceAccount is a service account JSON key.
	AuthTypeServiceAccount = "service_account"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no credentials are stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrInvalidCredentials is returned when stored credentials are malformed.
	ErrInvalidCredentials = errors.New("invalid credentials format")
	// ErrEncryptionFailed is returned when encryption/decryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// Credentials holds the stored Sheets credentials.
type Credentials struct {
	AuthType string `yaml:"auth_type"`
	// APIKey is encrypted at rest.
	APIKey string `yaml:"api_key,omitempty"`
	// ServiceAccountJSON is encrypted at rest.
	ServiceAccountJSON string `yaml:"service_account_json,omitempty"`
	// ClientEmail identifies the service account in status output.
	ClientEmail string    `yaml:"client_email,omitempty"`
	LastUpdated time.Time `yaml:"last_updated"`
}

// Validate checks the credential matches its auth type.
func (c *Credentials) Validate() error {
	switch c.AuthType {
	case AuthTypeAPIKey:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: api key is empty", ErrInvalidCredentials)
		}
	case AuthTypeServiceAccount:
		if _, err := ServiceAccountEmail([]byte(c.ServiceAccountJSON)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown auth type %q", ErrInvalidCredentials, c.AuthType)
	}
	return nil
}

// ServiceAccountEmail extracts client_email from a service account key and
// checks it is the right kind of key.
func ServiceAccountEmail(data []byte) (string, error) {
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("%w: service account key is not JSON: %v", ErrInvalidCredentials, err)
	}
	if key.Type != "service_account" {
		return "", fmt.Errorf("%w: key type %q is not service_account", ErrInvalidCredentials, key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return "", fmt.Errorf("%w: service account key is missing client_email or private_key", ErrInvalidCredentials)
	}
	return key.ClientEmail, nil
}

// Store manages credential storage operations.
type Store struct {
	credentialsDir string
	encryptionKey  []byte
	keyProvider    KeyProvider
}

// NewStore creates a credential store in the default directory using the
// default key provider.
func NewStore() (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}

	keyProvider, err := GetDefaultKeyProvider(dir)
	if err != nil {
		return nil, fmt.Errorf("initializing key provider: %w", err)
	}

	return NewStoreWithKeyProvider(dir, keyProvider)
}

// NewStoreWithKeyProvider creates a credential store in dir with a custom
// key provider.
func NewStoreWithKeyProvider(dir string, keyProvider KeyProvider) (*Store, error) {
	key, err := keyProvider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}

	return &Store{
		credentialsDir: dir,
		encryptionKey:  key,
		keyProvider:    keyProvider,
	}, nil
}

// CredentialsDir returns the directory containing credentials.
// Uses $SPRINTCTL_CONFIG_DIR if set, otherwise ~/.sprintctl
func CredentialsDir() (string, error) {
	if dir := os.Getenv("SPRINTCTL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultCredentialsDir), nil
}

// Path returns the credentials file path.
func (s *Store) Path() string {
	return filepath.Join(s.credentialsDir, DefaultCredentialsFile)
}

// KeyDescription describes where the encryption key is kept.
func (s *Store) KeyDescription() string {
	return s.keyProvider.Description()
}

// Save validates and stores credentials.
func (s *Store) Save(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.credentialsDir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	stored := *creds
	stored.LastUpdated = time.Now().UTC()

	if stored.AuthType == AuthTypeServiceAccount {
		email, err := ServiceAccountEmail([]byte(stored.ServiceAccountJSON))
		if err != nil {
			return err
		}
		stored.ClientEmail = email
	}

	if stored.APIKey != "" {
		encrypted, err := s.encrypt(stored.APIKey)
		if err != nil {
			return fmt.Errorf("encrypting API key: %w", err)
		}
		stored.APIKey = encrypted
	}
	if stored.ServiceAccountJSON != "" {
		encrypted, err := s.encrypt(stored.ServiceAccountJSON)
		if err != nil {
			return fmt.Errorf("encrypting service account: %w", err)
		}
		stored.ServiceAccountJSON = encrypted
	}

	data, err := yaml.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

// Load reads and decrypts stored credentials.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if creds.APIKey != "" {
		decrypted, err := s.decrypt(creds.APIKey)
		if err != nil {
			return nil, fmt.Errorf("decrypting API key: %w", err)
		}
		creds.APIKey = decrypted
	}
	if creds.ServiceAccountJSON != "" {
		decrypted, err := s.decrypt(creds.ServiceAccountJSON)
		if err != nil {
			return nil, fmt.Errorf("decrypting service account: %w", err)
		}
		creds.ServiceAccountJSON = decrypted
	}

	return &creds, nil
}

// Delete removes stored credentials.
func (s *Store) Delete() error {
	if err := os.Remove(s.Path()); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}

// Exists checks if the credentials file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

func (s *Store) encrypt(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *Store) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", ErrEncryptionFailed, err)
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed: %v", ErrEncryptionFailed, err)
	}
	return string(plaintext), nil
}

func (s *Store) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}
	return gcm, nil
}

// MaskCredential returns a masked version of the credential for display.
func MaskCredential(cred string) string {
	if len(cred) <= 8 {
		return strings.Repeat("*", len(cred))
	}
	return cred[:4] + strings.Repeat("*", len(cred)-8) + cred[len(cred)-4:]
}
