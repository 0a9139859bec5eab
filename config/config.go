// Package config provides CLI configuration management for sprintctl.
// It supports loading configuration from YAML files, a .env file,
// environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Task store backends.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Default configuration values.
const (
	DefaultOutputDir    = "output/meeting-reviews"
	DefaultTimeout      = 2 * time.Minute
	DefaultOutputFormat = OutputFormatText
	DefaultLogFormat    = LogFormatConsole
	DefaultReviewer     = "Glen"
	DefaultMeetingType  = "Weekly Sprint Review"
	DefaultBackend      = BackendSheets
	DefaultSheetsRange  = "Action Log!A:Z"
	DefaultRedisChannel = "events.meeting.extracted"
	DefaultConfigDir    = ".sprintctl"
	DefaultConfigFile   = "config.yaml"
	DefaultSQLiteFile   = "tasks.db"
	DefaultDotEnvFile   = ".env"
)

// DefaultAttendees is the roster matched against transcripts.
var DefaultAttendees = []string{"Glen", "Ed", "Shelly", "Ken"}

// SheetsConfig locates the shared action log spreadsheet.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id,omitempty"`
	Range         string `yaml:"range,omitempty"`
	// APIKey is better kept in the credential store; see `sprintctl auth`.
	APIKey string `yaml:"api_key,omitempty"`
	// CredentialsFile is a service account JSON key file.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
}

// PostgresConfig holds the Postgres task store connection.
type PostgresConfig struct {
	DSN   string `yaml:"dsn,omitempty"`
	Table string `yaml:"table,omitempty"`
}

// SQLiteConfig holds the local task store path.
type SQLiteConfig struct {
	Path string `yaml:"path,omitempty"`
}

// TaskStoreConfig selects where existing tasks are read from.
type TaskStoreConfig struct {
	Backend  string         `yaml:"backend"`
	Sheets   SheetsConfig   `yaml:"sheets,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
}

// RedisConfig holds the event publisher settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// IsConfigured returns true when an address is set.
func (c *RedisConfig) IsConfigured() bool {
	return c != nil && c.Addr != ""
}

// GetChannel returns the channel, or the default.
func (c *RedisConfig) GetChannel() string {
	if c == nil || c.Channel == "" {
		return DefaultRedisChannel
	}
	return c.Channel
}

// LedgerConfig holds the command ledger database.
type LedgerConfig struct {
	DSN string `yaml:"dsn"`
}

// IsConfigured returns true when a DSN is set.
func (c *LedgerConfig) IsConfigured() bool {
	return c != nil && c.DSN != ""
}

// ArchiveConfig controls transcript archiving.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// OutputDir is where review documents are written.
	OutputDir string `yaml:"output_dir"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// LogFormat is console or json.
	LogFormat string `yaml:"log_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Attendees is the roster detected in transcripts, in reporting order.
	Attendees []string `yaml:"attendees"`

	// Reviewer names the person in the review actions header.
	Reviewer string `yaml:"reviewer"`

	// MeetingType is used when --type is not given.
	MeetingType string `yaml:"meeting_type"`

	// Timeout bounds a single pipeline run including the task store fetch.
	Timeout time.Duration `yaml:"timeout"`

	TaskStore TaskStoreConfig `yaml:"task_store"`

	// Redis enables extraction events when set.
	Redis *RedisConfig `yaml:"redis,omitempty"`

	// Ledger enables command logging when set.
	Ledger *LedgerConfig `yaml:"ledger,omitempty"`

	Archive ArchiveConfig `yaml:"archive"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		OutputDir:    DefaultOutputDir,
		OutputFormat: DefaultOutputFormat,
		LogFormat:    DefaultLogFormat,
		Attendees:    append([]string(nil), DefaultAttendees...),
		Reviewer:     DefaultReviewer,
		MeetingType:  DefaultMeetingType,
		Timeout:      DefaultTimeout,
		TaskStore: TaskStoreConfig{
			Backend: DefaultBackend,
			Sheets:  SheetsConfig{Range: DefaultSheetsRange},
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $SPRINTCTL_CONFIG_DIR if set, otherwise ~/.sprintctl
func ConfigDir() (string, error) {
	if dir := os.Getenv("SPRINTCTL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.sprintctl/config.yaml or $SPRINTCTL_CONFIG_DIR/config.yaml)
// 3. Environment variables (SPRINTCTL_*)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors CLIConfig with the timeout as a duration string.
type configFile struct {
	OutputDir    string          `yaml:"output_dir,omitempty"`
	OutputFormat OutputFormat    `yaml:"output_format,omitempty"`
	LogFormat    string          `yaml:"log_format,omitempty"`
	Debug        bool            `yaml:"debug,omitempty"`
	Attendees    []string        `yaml:"attendees,omitempty"`
	Reviewer     string          `yaml:"reviewer,omitempty"`
	MeetingType  string          `yaml:"meeting_type,omitempty"`
	Timeout      string          `yaml:"timeout,omitempty"`
	TaskStore    TaskStoreConfig `yaml:"task_store"`
	Redis        *RedisConfig    `yaml:"redis,omitempty"`
	Ledger       *LedgerConfig   `yaml:"ledger,omitempty"`
	Archive      ArchiveConfig   `yaml:"archive"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.OutputDir != "" {
		cfg.OutputDir = fileCfg.OutputDir
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.LogFormat != "" {
		cfg.LogFormat = fileCfg.LogFormat
	}
	if len(fileCfg.Attendees) > 0 {
		cfg.Attendees = fileCfg.Attendees
	}
	if fileCfg.Reviewer != "" {
		cfg.Reviewer = fileCfg.Reviewer
	}
	if fileCfg.MeetingType != "" {
		cfg.MeetingType = fileCfg.MeetingType
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}

	ts := fileCfg.TaskStore
	if ts.Backend != "" {
		cfg.TaskStore.Backend = ts.Backend
	}
	if ts.Sheets.Range == "" {
		ts.Sheets.Range = cfg.TaskStore.Sheets.Range
	}
	cfg.TaskStore.Sheets = ts.Sheets
	cfg.TaskStore.Postgres = ts.Postgres
	cfg.TaskStore.SQLite = ts.SQLite

	if fileCfg.Redis != nil {
		cfg.Redis = fileCfg.Redis
	}
	if fileCfg.Ledger != nil {
		cfg.Ledger = fileCfg.Ledger
	}
	cfg.Debug = fileCfg.Debug
	cfg.Archive = fileCfg.Archive

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) error {
	if v := os.Getenv("SPRINTCTL_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SPRINTCTL_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("SPRINTCTL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("SPRINTCTL_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("SPRINTCTL_ATTENDEES"); v != "" {
		cfg.Attendees = splitList(v)
	}
	if v := os.Getenv("SPRINTCTL_REVIEWER"); v != "" {
		cfg.Reviewer = v
	}
	if v := os.Getenv("SPRINTCTL_MEETING_TYPE"); v != "" {
		cfg.MeetingType = v
	}
	if v := os.Getenv("SPRINTCTL_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SPRINTCTL_TIMEOUT: %w", err)
		}
		cfg.Timeout = timeout
	}
	if v := os.Getenv("SPRINTCTL_ARCHIVE"); v != "" {
		cfg.Archive.Enabled = v == "true" || v == "1"
	}

	loadTaskStoreFromEnv(&cfg.TaskStore)

	if v := os.Getenv("SPRINTCTL_REDIS_ADDR"); v != "" {
		if cfg.Redis == nil {
			cfg.Redis = &RedisConfig{}
		}
		cfg.Redis.Addr = v
	}
	if cfg.Redis != nil {
		if v := os.Getenv("SPRINTCTL_REDIS_PASSWORD"); v != "" {
			cfg.Redis.Password = v
		}
		if v := os.Getenv("SPRINTCTL_REDIS_DB"); v != "" {
			db, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("SPRINTCTL_REDIS_DB: %w", err)
			}
			cfg.Redis.DB = db
		}
		if v := os.Getenv("SPRINTCTL_REDIS_CHANNEL"); v != "" {
			cfg.Redis.Channel = v
		}
	}

	if v := os.Getenv("SPRINTCTL_LEDGER_DSN"); v != "" {
		cfg.Ledger = &LedgerConfig{DSN: v}
	}
	return nil
}

// loadTaskStoreFromEnv reads the task store overlay. The VITE_* names are the
// ones used by the web dashboard's .env, so one file can serve both.
func loadTaskStoreFromEnv(ts *TaskStoreConfig) {
	if v := os.Getenv("SPRINTCTL_TASK_STORE"); v != "" {
		ts.Backend = v
	}
	if v := firstEnv("SPRINTCTL_SHEETS_SPREADSHEET_ID", "VITE_SPREADSHEET_ID"); v != "" {
		ts.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("SPRINTCTL_SHEETS_RANGE"); v != "" {
		ts.Sheets.Range = v
	}
	if v := firstEnv("SPRINTCTL_SHEETS_API_KEY", "VITE_GOOGLE_API_KEY"); v != "" {
		ts.Sheets.APIKey = v
	}
	if v := firstEnv("SPRINTCTL_SHEETS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		ts.Sheets.CredentialsFile = v
	}
	if v := os.Getenv("SPRINTCTL_SHEETS_BASE_URL"); v != "" {
		ts.Sheets.BaseURL = v
	}
	if v := os.Getenv("SPRINTCTL_POSTGRES_DSN"); v != "" {
		ts.Postgres.DSN = v
	}
	if v := os.Getenv("SPRINTCTL_SQLITE_PATH"); v != "" {
		ts.SQLite.Path = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log_format: %q (must be console or json)", c.LogFormat)
	}

	if len(c.Attendees) == 0 {
		return fmt.Errorf("attendees must list at least one name")
	}

	switch c.TaskStore.Backend {
	case BackendSheets, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("invalid task_store.backend: %q (must be sheets, postgres, or sqlite)", c.TaskStore.Backend)
	}

	if c.Redis != nil && c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}

	return nil
}

// SQLitePath returns the configured sqlite path, defaulting to
// <config dir>/tasks.db.
func (c *CLIConfig) SQLitePath() (string, error) {
	if c.TaskStore.SQLite.Path != "" {
		return ExpandPath(c.TaskStore.SQLite.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultSQLiteFile), nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	fileCfg := configFile{
		OutputDir:    cfg.OutputDir,
		OutputFormat: cfg.OutputFormat,
		LogFormat:    cfg.LogFormat,
		Debug:        cfg.Debug,
		Attendees:    cfg.Attendees,
		Reviewer:     cfg.Reviewer,
		MeetingType:  cfg.MeetingType,
		Timeout:      cfg.Timeout.String(),
		TaskStore:    cfg.TaskStore,
		Redis:        cfg.Redis,
		Ledger:       cfg.Ledger,
		Archive:      cfg.Archive,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
