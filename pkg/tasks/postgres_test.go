package tasks

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/sprintctl/pkg/db"
)

type failingQuerier struct{ err error }

func (f failingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func TestPostgresSource_QueryError(t *testing.T) {
	s := NewPostgresSource(failingQuerier{err: errors.New("connection refused")}, "")
	got, err := s.FetchExistingTasks(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, `query action_log: connection refused`, err.Error())
	assert.Equal(t, BackendPostgres, s.Name())
	assert.NoError(t, s.Close())
}

func TestPostgresSource_Integration(t *testing.T) {
	dsn := os.Getenv("SPRINTCTL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SPRINTCTL_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.Connect(ctx, db.ConfigFromDSN(dsn))
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, `CREATE TEMP TABLE action_log_test (task_id TEXT PRIMARY KEY, task_description TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO action_log_test VALUES ('2', 'Second'), ('1', ' First ')`)
	require.NoError(t, err)

	got, err := NewPostgresSource(pool, "action_log_test").FetchExistingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "First", got[0].Description)
}
