package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/credentials"
	"github.com/otherjamesbrown/sprintctl/pkg/tasks"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// isolateCredentials points the credential store at a temp dir with an
// environment-supplied key, so tests never touch the real keyring.
func isolateCredentials(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPRINTCTL_CONFIG_DIR", dir)
	t.Setenv(credentials.EnvEncryptionKey, testEncryptionKey)
	return dir
}

func TestTaskStoreConfig_SQLite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TaskStore.Backend = config.BackendSQLite
	cfg.TaskStore.SQLite.Path = filepath.Join(t.TempDir(), "tasks.db")

	got, err := taskStoreConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, tasks.BackendSQLite, got.Backend)
	assert.Equal(t, cfg.TaskStore.SQLite.Path, got.SQLite.Path)
}

func TestTaskStoreConfig_Postgres(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TaskStore.Backend = config.BackendPostgres

	_, err := taskStoreConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_store.postgres.dsn is required")

	cfg.TaskStore.Postgres.DSN = "postgres://u:p@db:5432/sprint"
	cfg.TaskStore.Postgres.Table = "tasks"
	got, err := taskStoreConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/sprint", got.Postgres.DB.DSN)
	assert.Equal(t, "tasks", got.Postgres.Table)
	assert.Equal(t, int32(4), got.Postgres.DB.MaxConns)
}

func TestTaskStoreConfig_SheetsAPIKeyFromConfig(t *testing.T) {
	isolateCredentials(t)
	cfg := config.DefaultConfig()
	cfg.TaskStore.Sheets.SpreadsheetID = "sheet-1"
	cfg.TaskStore.Sheets.APIKey = "configured-key"

	got, err := taskStoreConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", got.Sheets.SpreadsheetID)
	assert.Equal(t, "configured-key", got.Sheets.APIKey)
	assert.Equal(t, config.DefaultSheetsRange, got.Sheets.Range)
	assert.Empty(t, got.Sheets.ServiceAccountJSON)
}

func TestTaskStoreConfig_SheetsCredentialsFile(t *testing.T) {
	isolateCredentials(t)
	keyFile := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(keyFile, []byte(`{"type":"service_account"}`), 0o600))

	cfg := config.DefaultConfig()
	cfg.TaskStore.Sheets.SpreadsheetID = "sheet-1"
	cfg.TaskStore.Sheets.CredentialsFile = keyFile

	got, err := taskStoreConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(got.Sheets.ServiceAccountJSON))

	cfg.TaskStore.Sheets.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = taskStoreConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading service account file")
}

func TestTaskStoreConfig_SheetsStoredKey(t *testing.T) {
	isolateCredentials(t)

	store, err := credentials.NewStore()
	require.NoError(t, err)
	require.NoError(t, store.Save(&credentials.Credentials{
		AuthType: credentials.AuthTypeAPIKey,
		APIKey:   "stored-key",
	}))

	cfg := config.DefaultConfig()
	cfg.TaskStore.Sheets.SpreadsheetID = "sheet-1"

	got, err := taskStoreConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "stored-key", got.Sheets.APIKey)
}

func TestTaskStoreConfig_SheetsNothingStored(t *testing.T) {
	isolateCredentials(t)
	cfg := config.DefaultConfig()
	cfg.TaskStore.Sheets.SpreadsheetID = "sheet-1"

	got, err := taskStoreConfig(cfg)
	require.NoError(t, err)
	assert.Empty(t, got.Sheets.APIKey)

	// Opening then fails with the adapter's own message.
	_, err = openTaskStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "an API key or service account is required")
}

func TestOpenTaskStore_SQLite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TaskStore.Backend = config.BackendSQLite
	cfg.TaskStore.SQLite.Path = filepath.Join(t.TempDir(), "tasks.db")

	store, err := openTaskStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, tasks.BackendSQLite, store.Name())
	existing, err := store.FetchExistingTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, existing)
}
