package tasks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/sprintctl/pkg/db"
	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

// PostgresConfig configures the Postgres action log reader.
type PostgresConfig struct {
	DB    db.Config
	Table string
}

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads existing tasks from an action_log table.
type PostgresSource struct {
	q     Querier
	table string
	pool  *pgxpool.Pool
}

// NewPostgresSource wraps an existing querier. The caller owns its lifetime.
func NewPostgresSource(q Querier, table string) *PostgresSource {
	if table == "" {
		table = "action_log"
	}
	return &PostgresSource{q: q, table: table}
}

// OpenPostgres connects a pool and wraps it. Close releases the pool.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresSource, error) {
	pool, err := db.Connect(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}
	s := NewPostgresSource(pool, cfg.Table)
	s.pool = pool
	return s, nil
}

// Name identifies the backend.
func (s *PostgresSource) Name() string { return BackendPostgres }

// Pool returns the pool opened by OpenPostgres, or nil when the source
// wraps a caller-supplied Querier.
func (s *PostgresSource) Pool() *pgxpool.Pool { return s.pool }

// Close releases the pool when OpenPostgres created it.
func (s *PostgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// FetchExistingTasks lists every row in the action log table.
func (s *PostgresSource) FetchExistingTasks(ctx context.Context) ([]meeting.ExistingTask, error) {
	query := fmt.Sprintf(`SELECT task_id, task_description FROM %s ORDER BY task_id`,
		pgx.Identifier{s.table}.Sanitize())

	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	out := make([]meeting.ExistingTask, 0)
	for rows.Next() {
		var id, description string
		if err := rows.Scan(&id, &description); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		if t, ok := normalize(id, description); ok {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return out, nil
}
