// Package tasks provides adapters for the existing-task store that new
// meeting tasks are checked against. Every adapter normalizes its rows into
// meeting.ExistingTask and fails loudly instead of returning an empty list.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
)

// Backend names accepted by NewSource.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Store is a readable task store that holds resources until closed.
type Store interface {
	meeting.TaskSource
	io.Closer
	// Name identifies the backend in logs and output.
	Name() string
}

// Config selects and configures a backend.
type Config struct {
	Backend  string
	Sheets   SheetsConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// NewSource connects to the configured backend.
func NewSource(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSheets, "":
		return sheetsStore(ctx, cfg.Sheets)
	case BackendPostgres:
		return postgresStore(ctx, cfg.Postgres)
	case BackendSQLite:
		return sqliteStore(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown task store backend %q (want sheets, postgres or sqlite)", cfg.Backend)
	}
}

func sheetsStore(ctx context.Context, cfg SheetsConfig) (Store, error) {
	s, err := NewSheetsSource(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func postgresStore(ctx context.Context, cfg PostgresConfig) (Store, error) {
	s, err := OpenPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func sqliteStore(ctx context.Context, cfg SQLiteConfig) (Store, error) {
	s, err := OpenSQLite(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// normalize trims a raw row into the canonical shape. Rows with neither an
// id nor a description are dropped.
func normalize(id, description string) (meeting.ExistingTask, bool) {
	t := meeting.ExistingTask{ID: trim(id), Description: trim(description)}
	return t, t.ID != "" || t.Description != ""
}
