package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

func openTestSQLite(t *testing.T) *SQLiteSource {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSource_EmptyStore(t *testing.T) {
	s := openTestSQLite(t)
	got, err := s.FetchExistingTasks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSQLiteSource_UpsertAndFetch(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	n, err := s.Upsert(ctx, []meeting.ExistingTask{
		{ID: "2", Description: "Second"},
		{ID: "1", Description: "First"},
		{ID: "", Description: "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Upsert(ctx, []meeting.ExistingTask{{ID: "2", Description: " Second, revised "}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.FetchExistingTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []meeting.ExistingTask{
		{ID: "1", Description: "First"},
		{ID: "2", Description: "Second, revised"},
	}, got)
}

func TestSQLiteSource_CreatesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, []meeting.ExistingTask{{ID: "7", Description: "Persisted"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FetchExistingTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []meeting.ExistingTask{{ID: "7", Description: "Persisted"}}, got)
	assert.Equal(t, BackendSQLite, reopened.Name())
}

func TestSQLiteSource_ClosedDBFails(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	got, err := s.FetchExistingTasks(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
