package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

// SQLiteConfig configures the local action log cache.
type SQLiteConfig struct {
	Path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS action_log (
	task_id          TEXT PRIMARY KEY,
	task_description TEXT NOT NULL DEFAULT '',
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteSource is a local action log, useful offline or as a snapshot of
// the shared sheet.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	conn.SetMaxOpenConns(1)

	s := &SQLiteSource{db: conn}
	if err := s.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the action_log table.
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Name identifies the backend.
func (s *SQLiteSource) Name() string { return BackendSQLite }

// Close closes the database.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// Upsert inserts or replaces tasks by id inside one transaction and returns
// the number of rows written. Rows without an id are skipped.
func (s *SQLiteSource) Upsert(ctx context.Context, tasks []meeting.ExistingTask) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO action_log (task_id, task_description, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(task_id) DO UPDATE SET
			task_description = excluded.task_description,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, t := range tasks {
		t, ok := normalize(t.ID, t.Description)
		if !ok || t.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.Description); err != nil {
			return 0, fmt.Errorf("sqlite: upsert %s: %w", t.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// FetchExistingTasks lists every cached task ordered by id.
func (s *SQLiteSource) FetchExistingTasks(ctx context.Context) ([]meeting.ExistingTask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, task_description FROM action_log ORDER BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query action_log: %w", err)
	}
	defer rows.Close()

	out := make([]meeting.ExistingTask, 0)
	for rows.Next() {
		var t meeting.ExistingTask
		if err := rows.Scan(&t.ID, &t.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scan action_log: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate action_log: %w", err)
	}
	return out, nil
}
