package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
	"github.com/otherjamesbrown/sprintctl/pkg/tasks"
)

// TasksCommandDeps holds the dependencies for tasks commands.
type TasksCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	OpenStore  StoreOpener
	OpenSQLite func(ctx context.Context, path string) (*tasks.SQLiteSource, error)
}

// DefaultTasksDeps returns the default dependencies for production use.
func DefaultTasksDeps() *TasksCommandDeps {
	return &TasksCommandDeps{
		LoadConfig: config.LoadConfig,
		OpenStore:  openTaskStore,
		OpenSQLite: tasks.OpenSQLite,
	}
}

func (d *TasksCommandDeps) config() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

// NewTasksCommand creates the tasks command with its subcommands.
func NewTasksCommand(deps *TasksCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultTasksDeps()
	}

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect the existing-task store used for duplicate detection",
		Long: `Inspect and populate the existing-task store.

New tasks extracted from a transcript are compared against this snapshot.
The backend is chosen by task_store.backend in config.yaml (sheets, postgres
or sqlite).

Examples:
  sprintctl tasks list
  sprintctl tasks list --output json
  sprintctl tasks import action-log.yaml`,
	}

	cmd.AddCommand(newTasksListCommand(deps))
	cmd.AddCommand(newTasksImportCommand(deps))

	return cmd
}

func newTasksListCommand(deps *TasksCommandDeps) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List existing tasks from the configured store",
		Long: `List every task in the configured store, as the duplicate checker sees it.

Examples:
  sprintctl tasks list
  sprintctl tasks list --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasksList(cmd.Context(), deps, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}

func newTasksImportCommand(deps *TasksCommandDeps) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Load tasks into the local SQLite store",
		Long: `Load tasks from a YAML (or JSON) list into the local SQLite action log.

The file holds a list of records with task_id and task_description keys:

  - task_id: T-2025-01-03-01
    task_description: Finalize the SOW deliverables

Existing task ids are updated in place. Select the store for duplicate
detection with task_store.backend: sqlite.

Examples:
  sprintctl tasks import action-log.yaml
  sprintctl tasks import action-log.yaml --db ./tasks.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasksImport(cmd.Context(), deps, args[0], dbPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: task_store.sqlite.path)")
	return cmd
}

func runTasksList(ctx context.Context, deps *TasksCommandDeps, output string, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}
	format, err := outputFormat(cfg, output)
	if err != nil {
		return err
	}

	store, err := deps.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening task store: %w", err)
	}
	defer store.Close()

	existing, err := store.FetchExistingTasks(ctx)
	if err != nil {
		return fmt.Errorf("fetching tasks from %s: %w", store.Name(), err)
	}

	switch format {
	case config.OutputFormatJSON:
		return outputJSON(out, existing)
	case config.OutputFormatYAML:
		return outputYAML(out, existing)
	}

	if len(existing) == 0 {
		fmt.Fprintf(out, "No tasks in %s store.\n", store.Name())
		return nil
	}

	rows := make([]table.Row, 0, len(existing))
	for _, t := range existing {
		rows = append(rows, table.Row{t.ID, truncateString(t.Description, 70)})
	}
	renderTable(out, table.Row{"Task ID", "Description"}, rows)
	fmt.Fprintf(out, "\n%d tasks from %s\n", len(existing), store.Name())
	return nil
}

func runTasksImport(ctx context.Context, deps *TasksCommandDeps, file, dbPath string, out io.Writer) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	var records []meeting.ExistingTask
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}

	if dbPath == "" {
		cfg, err := deps.config()
		if err != nil {
			return err
		}
		if dbPath, err = cfg.SQLitePath(); err != nil {
			return err
		}
	}

	store, err := deps.OpenSQLite(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Upsert(ctx, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d tasks into %s\n", n, dbPath)
	if skipped := len(records) - n; skipped > 0 {
		fmt.Fprintf(out, "Skipped %d records without a task_id\n", skipped)
	}
	return nil
}
