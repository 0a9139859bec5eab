// Package main provides the sprintctl CLI entry point.
// sprintctl turns weekly sprint review transcripts into pending review documents.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/sprintctl/cmd"
	"github.com/otherjamesbrown/sprintctl/config"
	scerrors "github.com/otherjamesbrown/sprintctl/pkg/errors"
	"github.com/otherjamesbrown/sprintctl/pkg/ledger"
	"github.com/otherjamesbrown/sprintctl/pkg/logging"
)

// Global flags and state.
var (
	envFile   string
	outputDir string
	logFormat string
	timeout   time.Duration
	debug     bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig

	// Command logging state.
	cmdStartTime  time.Time
	cmdOutputBuf  *bytes.Buffer
	outputCapture *outputTee
)

// outputTee captures output while still writing to the original destination.
type outputTee struct {
	writer io.Writer
	buffer *bytes.Buffer
}

func (t *outputTee) Write(p []byte) (n int, err error) {
	t.buffer.Write(p)
	return t.writer.Write(p)
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sprintctl",
	Short: "Weekly sprint review transcript processor",
	Long: `sprintctl extracts decisions, tasks, parking-lot ideas and risks from
weekly sprint review transcripts and writes a pending review document.

New tasks are checked against the existing action log (Google Sheets,
Postgres or a local SQLite store) and likely duplicates are flagged for the
reviewer. Nothing is committed: every extracted record is a candidate.

COMMON WORKFLOWS:
  Process a meeting:   sprintctl process transcript.txt --date 2025-01-15
  Watch an inbox:      sprintctl watch ~/transcripts
  Check the task store: sprintctl tasks list
  Store a Sheets key:  sprintctl auth set-key

CONFIGURATION:
  ~/.sprintctl/config.yaml, overridden by SPRINTCTL_* environment variables.
  A .env file in the working directory is loaded first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Record start time for command logging.
		cmdStartTime = time.Now()

		// Set up output capture for command logging.
		cmdOutputBuf = &bytes.Buffer{}
		outputCapture = &outputTee{writer: os.Stdout, buffer: cmdOutputBuf}

		// Skip initialization for commands that don't need it.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}
		if timeout != 0 {
			cfg.Timeout = timeout
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		if debug {
			cfg.Debug = true
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		initLogger(cfg)

		// Capture output for the ledger only when it will be recorded.
		if cfg.Ledger != nil && cfg.Ledger.IsConfigured() {
			cmd.SetOut(outputCapture)
		}

		return nil
	},
}

// initLogger installs the global logger for cfg.
func initLogger(cfg *config.CLIConfig) {
	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}
	logCfg.JSONFormat = cfg.LogFormat == config.LogFormatJSON
	logging.SetGlobal(logging.NewLogger(logCfg))
}

// currentConfig hands commands the configuration loaded by PersistentPreRunE,
// including flag overrides.
func currentConfig() (*config.CLIConfig, error) {
	if cfg == nil {
		return config.LoadConfig()
	}
	return cfg, nil
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default is ./.env)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for review documents")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "processing timeout (e.g., 30s, 2m)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console, json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "meetings", Title: "Meetings:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	// Meetings
	processDeps := cmd.DefaultProcessDeps()
	processDeps.LoadConfig = currentConfig
	processCmd := cmd.NewProcessCommand(processDeps)
	processCmd.GroupID = "meetings"
	rootCmd.AddCommand(processCmd)

	watchDeps := cmd.DefaultWatchDeps()
	watchDeps.LoadConfig = currentConfig
	watchCmd := cmd.NewWatchCommand(watchDeps)
	watchCmd.GroupID = "meetings"
	rootCmd.AddCommand(watchCmd)

	// Operations
	tasksDeps := cmd.DefaultTasksDeps()
	tasksDeps.LoadConfig = currentConfig
	tasksCmd := cmd.NewTasksCommand(tasksDeps)
	tasksCmd.GroupID = "ops"
	rootCmd.AddCommand(tasksCmd)

	historyDeps := cmd.DefaultHistoryDeps()
	historyDeps.LoadConfig = currentConfig
	historyCmd := cmd.NewHistoryCommand(historyDeps)
	historyCmd.GroupID = "ops"
	rootCmd.AddCommand(historyCmd)

	// Setup
	authCmd := cmd.NewAuthCommand(nil)
	authCmd.GroupID = "setup"
	rootCmd.AddCommand(authCmd)

	versionCmd := cmd.NewVersionCommand()
	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetHelpCommandGroupID("setup")
	rootCmd.SetCompletionCommandGroupID("setup")
}

func main() {
	// Cancel in-flight work on interrupt; watch returns cleanly, process
	// reports a cancelled run.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Execute root command and capture the error for logging.
	cmdErr := rootCmd.ExecuteContext(ctx)

	// Log the command to the ledger (called here to capture both success and failure).
	logCommandExecution(os.Args, cmdErr)

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		if hint := scerrors.SuggestedAction(cmdErr); hint != "" && cfg != nil && cfg.Debug {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		stop()
		os.Exit(1)
	}
}

// logCommandExecution records the CLI command in the ledger.
// This is best-effort - errors are logged to stderr but don't affect the command result.
func logCommandExecution(args []string, cmdErr error) {
	// Skip if config not loaded or the ledger is not configured.
	if cfg == nil || cfg.Ledger == nil || !cfg.Ledger.IsConfigured() {
		return
	}

	// Skip logging for certain commands.
	if len(args) > 1 {
		name := args[1]
		if name == "version" || name == "help" || name == "completion" || name == "history" {
			return
		}
	}

	hostname, _ := os.Hostname()
	runID, meetingID := cmd.LastRun()

	entry := &ledger.Entry{
		Command:     getCommandName(args),
		Args:        getCommandArgs(args),
		FullCommand: strings.Join(args, " "),
		DurationMs:  int(time.Since(cmdStartTime).Milliseconds()),
		Success:     cmdErr == nil,
		RunID:       runID,
		MeetingID:   meetingID,
		Hostname:    hostname,
	}

	// Capture error message if command failed.
	if cmdErr != nil {
		entry.ErrorMessage = cmdErr.Error()
	}

	// Capture response output.
	if cmdOutputBuf != nil {
		entry.Response = cmdOutputBuf.String()
	}

	l, err := ledger.Open(cfg.Ledger.DSN)
	if err != nil {
		if cfg.Debug {
			fmt.Fprintf(os.Stderr, "Warning: failed to open command ledger: %v\n", err)
		}
		return
	}
	defer l.Close()

	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.Migrate(logCtx); err != nil {
		if cfg.Debug {
			fmt.Fprintf(os.Stderr, "Warning: failed to prepare command ledger: %v\n", err)
		}
		return
	}
	if err := l.Log(logCtx, entry); err != nil {
		if cfg.Debug {
			fmt.Fprintf(os.Stderr, "Warning: failed to log command to ledger: %v\n", err)
		}
	}
}

// getCommandName extracts the command name from args (e.g., "process" from ["sprintctl", "process", "t.txt"]).
func getCommandName(args []string) string {
	if len(args) < 2 {
		return "sprintctl"
	}
	// Find the first non-flag argument after "sprintctl".
	for i := 1; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return "sprintctl"
}

// getCommandArgs extracts the arguments after the command name.
func getCommandArgs(args []string) []string {
	if len(args) < 3 {
		return nil
	}
	// Find the command name index and return everything after it.
	for i := 1; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return args[i+1:]
		}
	}
	return nil
}
