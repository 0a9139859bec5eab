package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource_UnknownBackend(t *testing.T) {
	_, err := NewSource(context.Background(), Config{Backend: "excel"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown task store backend "excel"`)
}

func TestNewSource_SQLite(t *testing.T) {
	s, err := NewSource(context.Background(), Config{
		Backend: BackendSQLite,
		SQLite:  SQLiteConfig{Path: filepath.Join(t.TempDir(), "t.db")},
	})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, BackendSQLite, s.Name())
}

func TestNewSource_DefaultsToSheets(t *testing.T) {
	s, err := NewSource(context.Background(), Config{Sheets: SheetsConfig{SpreadsheetID: "s", APIKey: "k"}})
	require.NoError(t, err)
	assert.Equal(t, BackendSheets, s.Name())
}

func TestNormalize(t *testing.T) {
	got, ok := normalize(" 3 ", "  Do it ")
	assert.True(t, ok)
	assert.Equal(t, "3", got.ID)
	assert.Equal(t, "Do it", got.Description)

	_, ok = normalize(" ", "")
	assert.False(t, ok)
}
