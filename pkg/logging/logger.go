// Package logging is the structured logger shared by every sprintctl
// command. Logs go to stderr, as JSON for automation or as zerolog's console
// format for people, so stdout stays reserved for command output.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ContextKey types the context values this package reads.
type ContextKey string

const (
	RunIDKey     ContextKey = "run_id"
	MeetingIDKey ContextKey = "meeting_id"
)

// Level is a minimum log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config holds logger configuration.
type Config struct {
	Level Level

	// ServiceName is stamped on JSON entries.
	ServiceName string

	JSONFormat bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the interactive defaults: info level, console
// format, stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:       LevelInfo,
		ServiceName: "sprintctl",
		Output:      os.Stderr,
	}
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a Logger that adds fields to every entry.
	With(fields ...Field) Logger

	// WithContext returns a Logger tagged with the run and meeting ids
	// carried by ctx.
	WithContext(ctx context.Context) Logger

	Zerolog() zerolog.Logger
}

// Field is one key/value pair on a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates the conventional "error" field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

type logger struct {
	zl zerolog.Logger
}

// NewLogger builds a Logger from cfg; a nil cfg means DefaultConfig.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var zl zerolog.Logger
	if cfg.JSONFormat {
		zl = zerolog.New(out).With().Timestamp().Str("service_name", cfg.ServiceName).Logger()
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(out),
		}).With().Timestamp().Logger()
	}
	return &logger{zl: zl.Level(parseLevel(cfg.Level))}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// parseLevel maps l onto zerolog, falling back to info.
func parseLevel(l Level) zerolog.Level {
	lvl, err := zerolog.ParseLevel(string(l))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// keyvals flattens fields into zerolog's ordered key/value form.
func keyvals(fields []Field) []interface{} {
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (l *logger) log(ev *zerolog.Event, msg string, fields []Field) {
	if len(fields) > 0 {
		ev = ev.Fields(keyvals(fields))
	}
	ev.Msg(msg)
}

func (l *logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.log(l.zl.Info(), msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.log(l.zl.Warn(), msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.log(l.zl.Error(), msg, fields) }

func (l *logger) With(fields ...Field) Logger {
	return &logger{zl: l.zl.With().Fields(keyvals(fields)).Logger()}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	c := l.zl.With()
	if id := RunIDFromContext(ctx); id != "" {
		c = c.Str(string(RunIDKey), id)
	}
	if id, _ := ctx.Value(MeetingIDKey).(string); id != "" {
		c = c.Str(string(MeetingIDKey), id)
	}
	return &logger{zl: c.Logger()}
}

func (l *logger) Zerolog() zerolog.Logger {
	return l.zl
}

// ContextWithRunID returns a copy of ctx carrying runID.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// ContextWithMeetingID returns a copy of ctx carrying meetingID.
func ContextWithMeetingID(ctx context.Context, meetingID string) context.Context {
	return context.WithValue(ctx, MeetingIDKey, meetingID)
}

// RunIDFromContext returns the run id stored in ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RunIDKey).(string)
	return id
}

var global Logger

// SetGlobal installs the process-wide logger.
func SetGlobal(l Logger) {
	global = l
}

// MustGlobal returns the process-wide logger, creating a default one if
// SetGlobal was never called.
func MustGlobal() Logger {
	if global == nil {
		global = NewLogger(DefaultConfig())
	}
	return global
}

type nopLogger struct{}

func (n *nopLogger) Debug(string, ...Field)              {}
func (n *nopLogger) Info(string, ...Field)               {}
func (n *nopLogger) Warn(string, ...Field)               {}
func (n *nopLogger) Error(string, ...Field)              {}
func (n *nopLogger) With(...Field) Logger                { return n }
func (n *nopLogger) WithContext(context.Context) Logger { return n }
func (n *nopLogger) Zerolog() zerolog.Logger             { return zerolog.Nop() }

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &nopLogger{}
}
