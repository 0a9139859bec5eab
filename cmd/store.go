package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/credentials"
	"github.com/otherjamesbrown/sprintctl/pkg/db"
	"github.com/otherjamesbrown/sprintctl/pkg/tasks"
)

// openTaskStore opens the configured existing-task store.
func openTaskStore(ctx context.Context, cfg *config.CLIConfig) (tasks.Store, error) {
	storeCfg, err := taskStoreConfig(cfg)
	if err != nil {
		return nil, err
	}
	return tasks.NewSource(ctx, storeCfg)
}

// taskStoreConfig maps CLI configuration onto the tasks package. Sheets
// credentials come from config first, then the credentials file, then the
// encrypted credential store.
func taskStoreConfig(cfg *config.CLIConfig) (tasks.Config, error) {
	ts := cfg.TaskStore
	out := tasks.Config{
		Backend: ts.Backend,
		Sheets: tasks.SheetsConfig{
			SpreadsheetID: ts.Sheets.SpreadsheetID,
			Range:         ts.Sheets.Range,
			APIKey:        ts.Sheets.APIKey,
			BaseURL:       ts.Sheets.BaseURL,
		},
		Postgres: tasks.PostgresConfig{Table: ts.Postgres.Table},
	}

	switch ts.Backend {
	case config.BackendPostgres:
		if ts.Postgres.DSN == "" {
			return out, fmt.Errorf("task_store.postgres.dsn is required for the postgres backend")
		}
		out.Postgres.DB = *db.ConfigFromDSN(ts.Postgres.DSN)
	case config.BackendSQLite:
		path, err := cfg.SQLitePath()
		if err != nil {
			return out, err
		}
		out.SQLite.Path = path
	default:
		if err := loadSheetsCredentials(&out.Sheets, ts.Sheets.CredentialsFile); err != nil {
			return out, err
		}
	}
	return out, nil
}

func loadSheetsCredentials(sc *tasks.SheetsConfig, credentialsFile string) error {
	if credentialsFile != "" {
		path, err := config.ExpandPath(credentialsFile)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading service account file: %w", err)
		}
		sc.ServiceAccountJSON = data
		return nil
	}
	if sc.APIKey != "" {
		return nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		// No usable key provider means nothing can have been stored.
		return nil
	}
	creds, err := store.Load()
	if err != nil {
		if errors.Is(err, credentials.ErrNoCredentials) {
			return nil
		}
		return fmt.Errorf("loading stored credentials: %w", err)
	}
	sc.APIKey = creds.APIKey
	if creds.ServiceAccountJSON != "" {
		sc.ServiceAccountJSON = []byte(creds.ServiceAccountJSON)
	}
	return nil
}
