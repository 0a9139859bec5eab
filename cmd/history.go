package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/pkg/ledger"
)

// CommandHistory reads recent ledger entries.
type CommandHistory interface {
	History(ctx context.Context, limit int) ([]ledger.Entry, error)
	Close() error
}

// HistoryCommandDeps holds the dependencies for the history command.
type HistoryCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	OpenLedger func(dsn string) (CommandHistory, error)
}

// DefaultHistoryDeps returns the default dependencies for production use.
func DefaultHistoryDeps() *HistoryCommandDeps {
	return &HistoryCommandDeps{
		LoadConfig: config.LoadConfig,
		OpenLedger: func(dsn string) (CommandHistory, error) {
			l, err := ledger.Open(dsn)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(deps *HistoryCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultHistoryDeps()
	}
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent commands from the command ledger",
		Long: `Show recent sprintctl invocations recorded in the command ledger.

Requires ledger.dsn in config.yaml (or SPRINTCTL_LEDGER_DSN).

Examples:
  sprintctl history
  sprintctl history --limit 50 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), deps, limit, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}

func runHistory(ctx context.Context, deps *HistoryCommandDeps, limit int, output string, out io.Writer) error {
	cfg := deps.Config
	if cfg == nil {
		var err error
		if cfg, err = deps.LoadConfig(); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if cfg.Ledger == nil || !cfg.Ledger.IsConfigured() {
		return errors.New("command ledger not configured (set ledger.dsn)")
	}

	format, err := outputFormat(cfg, output)
	if err != nil {
		return err
	}

	l, err := deps.OpenLedger(cfg.Ledger.DSN)
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.History(ctx, limit)
	if err != nil {
		return err
	}

	switch format {
	case config.OutputFormatJSON:
		return outputJSON(out, entries)
	case config.OutputFormatYAML:
		return outputYAML(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No commands recorded.")
		return nil
	}

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		rows = append(rows, table.Row{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Command,
			truncateString(strings.Join(e.Args, " "), 40),
			fmt.Sprintf("%dms", e.DurationMs),
			status,
			e.MeetingID,
		})
	}
	renderTable(out, table.Row{"When", "Command", "Args", "Duration", "Status", "Meeting"}, rows)
	return nil
}
