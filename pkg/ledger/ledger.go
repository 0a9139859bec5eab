// Package ledger records CLI command executions in Postgres.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
)

// maxMessageLen bounds stored error messages and responses.
const maxMessageLen = 500

const schema = `
CREATE TABLE IF NOT EXISTS sprintctl_command_log (
	id            BIGSERIAL PRIMARY KEY,
	command       TEXT NOT NULL,
	args          TEXT[] NOT NULL DEFAULT '{}',
	full_command  TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	success       BOOLEAN NOT NULL,
	error_message TEXT,
	response      TEXT,
	run_id        TEXT,
	meeting_id    TEXT,
	hostname      TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Entry is one command execution.
type Entry struct {
	ID           int64     `json:"id"`
	Command      string    `json:"command"`
	Args         []string  `json:"args"`
	FullCommand  string    `json:"full_command"`
	DurationMs   int       `json:"duration_ms"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Response     string    `json:"response,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	MeetingID    string    `json:"meeting_id,omitempty"`
	Hostname     string    `json:"hostname,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ledger writes command entries.
type Ledger struct {
	db *sql.DB
}

// Open prepares a lib/pq connection pool for dsn. No connection is made
// until the first query.
func Open(dsn string) (*Ledger, error) {
	if dsn == "" {
		return nil, errors.New("ledger not configured")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Ledger{db: db}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Migrate creates the command log table.
func (l *Ledger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating command log: %w", err)
	}
	return nil
}

// Log records entry.
func (l *Ledger) Log(ctx context.Context, entry *Entry) error {
	hostname := entry.Hostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	args := entry.Args
	if args == nil {
		args = []string{}
	}

	query := `
		INSERT INTO sprintctl_command_log (
			command, args, full_command, duration_ms, success,
			error_message, response, run_id, meeting_id, hostname
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := l.db.ExecContext(ctx, query,
		entry.Command,
		pq.Array(args),
		entry.FullCommand,
		entry.DurationMs,
		entry.Success,
		nullIfEmpty(truncate(entry.ErrorMessage, maxMessageLen)),
		nullIfEmpty(truncate(entry.Response, maxMessageLen)),
		nullIfEmpty(entry.RunID),
		nullIfEmpty(entry.MeetingID),
		nullIfEmpty(hostname),
	)
	if err != nil {
		return fmt.Errorf("logging command: %w", err)
	}
	return nil
}

// History returns the most recent entries, newest first.
func (l *Ledger) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, command, args, full_command, duration_ms, success,
			error_message, response, run_id, meeting_id, hostname, created_at
		FROM sprintctl_command_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errorMsg, response, runID, meetingID, hostname sql.NullString
		err := rows.Scan(
			&e.ID,
			&e.Command,
			pq.Array(&e.Args),
			&e.FullCommand,
			&e.DurationMs,
			&e.Success,
			&errorMsg,
			&response,
			&runID,
			&meetingID,
			&hostname,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.ErrorMessage = errorMsg.String
		e.Response = response.String
		e.RunID = runID.String
		e.MeetingID = meetingID.String
		e.Hostname = hostname.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return entries, nil
}

// truncate cuts s to at most maxLen bytes on a rune boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
