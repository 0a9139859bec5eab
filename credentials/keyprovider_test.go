package credentials

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestEnvKeyProvider_GetKey(t *testing.T) {
	envVar := "TEST_SPRINTCTL_ENCRYPTION_KEY"

	t.Run("valid key", func(t *testing.T) {
		t.Setenv(envVar, testEncryptionKey)

		key, err := NewEnvKeyProvider(envVar).GetKey()
		if err != nil {
			t.Fatalf("GetKey() error = %v", err)
		}
		expected, _ := hex.DecodeString(testEncryptionKey)
		if !bytes.Equal(key, expected) {
			t.Errorf("GetKey() returned wrong key")
		}
	})

	tests := map[string]string{
		"missing env var": "",
		"invalid hex":     "not-valid-hex",
		"wrong length":    "0123456789abcdef",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(envVar, value)
			if _, err := NewEnvKeyProvider(envVar).GetKey(); err == nil {
				t.Error("GetKey() expected error")
			}
		})
	}
}

func TestEnvKeyProvider_Description(t *testing.T) {
	if got := NewEnvKeyProvider("X_KEY").Description(); got != "Environment variable (X_KEY)" {
		t.Errorf("Description() = %q", got)
	}
}

func TestPassphraseKeyProvider_GetKey(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}

	key1, err := NewPassphraseKeyProvider("correct horse", salt).GetKey()
	if err != nil {
		t.Fatalf("GetKey() error = %v", err)
	}
	if len(key1) != keyLength {
		t.Errorf("GetKey() returned %d bytes, want %d", len(key1), keyLength)
	}

	key2, _ := NewPassphraseKeyProvider("correct horse", salt).GetKey()
	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase and salt should produce the same key")
	}

	otherSalt, _ := GenerateSalt()
	key3, _ := NewPassphraseKeyProvider("correct horse", otherSalt).GetKey()
	if bytes.Equal(key1, key3) {
		t.Error("different salts should produce different keys")
	}

	if _, err := NewPassphraseKeyProvider("", salt).GetKey(); err == nil {
		t.Error("expected error for empty passphrase")
	}
	if _, err := NewPassphraseKeyProvider("p", nil).GetKey(); err == nil {
		t.Error("expected error for empty salt")
	}
}

func TestLoadOrCreateSalt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	salt, err := LoadOrCreateSalt(dir)
	if err != nil {
		t.Fatalf("LoadOrCreateSalt() error = %v", err)
	}
	if len(salt) != saltLength {
		t.Fatalf("salt length = %d", len(salt))
	}

	again, err := LoadOrCreateSalt(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(salt, again) {
		t.Error("salt should be stable once written")
	}

	info, err := os.Stat(filepath.Join(dir, saltFile))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("salt permissions = %o, want 0600", info.Mode().Perm())
	}

	if err := os.WriteFile(filepath.Join(dir, saltFile), []byte("zz"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreateSalt(dir); err == nil {
		t.Error("expected error for corrupt salt")
	}
}

func TestKeyringKeyProvider_Description(t *testing.T) {
	if NewKeyringKeyProvider().Description() == "" {
		t.Error("Description() should not be empty")
	}
}

func TestGetDefaultKeyProvider_WithEnvVar(t *testing.T) {
	t.Setenv(EnvEncryptionKey, testEncryptionKey)

	provider, err := GetDefaultKeyProvider(t.TempDir())
	if err != nil {
		t.Fatalf("GetDefaultKeyProvider() error = %v", err)
	}
	if _, ok := provider.(*EnvKeyProvider); !ok {
		t.Errorf("provider = %T, want *EnvKeyProvider", provider)
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		n       int
		wantErr bool
	}{
		{"exact length", testEncryptionKey, keyLength, false},
		{"short", "00ff", keyLength, true},
		{"not hex", "zz", 1, true},
		{"salt", "000102030405060708090a0b0c0d0e0f", saltLength, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := decodeHex(tt.in, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Errorf("decodeHex(%q) expected error", tt.in)
				}
				return
			}
			if err != nil || len(b) != tt.n {
				t.Errorf("decodeHex(%q) = %d bytes, %v", tt.in, len(b), err)
			}
		})
	}
}
