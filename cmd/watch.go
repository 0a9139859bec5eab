package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/sprintctl/pkg/logging"
	"github.com/otherjamesbrown/sprintctl/pkg/reviewfile"
	"github.com/otherjamesbrown/sprintctl/pkg/textenc"
	"github.com/otherjamesbrown/sprintctl/pkg/transcript"
)

// DefaultSettleDelay is how long a transcript must stay unchanged before it
// is processed.
const DefaultSettleDelay = 500 * time.Millisecond

// WatchCommandDeps holds the dependencies for the watch command.
type WatchCommandDeps struct {
	*ProcessCommandDeps
	SettleDelay time.Duration
}

// DefaultWatchDeps returns the default dependencies for production use.
func DefaultWatchDeps() *WatchCommandDeps {
	return &WatchCommandDeps{
		ProcessCommandDeps: DefaultProcessDeps(),
		SettleDelay:        DefaultSettleDelay,
	}
}

type watchOptions struct {
	encoding    string
	meetingType string
	archive     bool
	metricsFile string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(deps *WatchCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultWatchDeps()
	}
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Process transcripts as they land in a directory",
		Long: `Watch a directory and process each new transcript dropped into it.

Every .txt or .vtt file created in the directory is processed once it has stopped
changing. Review documents (PENDING_REVIEW_*.txt) and hidden files are
ignored, so the output directory may sit inside the watched one.

A leading YYYY-MM-DD in the file name sets the meeting date; otherwise
today's date is used. Failures are reported and the watch continues.
Press Ctrl+C to stop.

Examples:
  sprintctl watch ~/Downloads/transcripts
  sprintctl watch ./inbox --archive --encoding windows-1252`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), deps, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.encoding, "encoding", textenc.UTF8, "Transcript file encoding: "+strings.Join(textenc.Names, ", "))
	cmd.Flags().StringVar(&opts.meetingType, "type", "", "Meeting type (default from config)")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Archive each transcript next to its review document")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write metrics for each run in Prometheus textfile format")

	return cmd
}

func runWatch(ctx context.Context, deps *WatchCommandDeps, opts *watchOptions, dir string, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}
	if _, err := textenc.Canonical(opts.encoding); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory: %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.MustGlobal()
	}
	logger = logger.With(logging.F("component", "watch"), logging.F("dir", dir))
	runner := newPipelineRunner(cfg, deps.OpenStore, deps.Now, logger)

	fmt.Fprintf(out, "Watching %s for transcripts (Ctrl+C to stop)\n", dir)

	handle := func(path string) {
		processWatchedFile(ctx, deps.ProcessCommandDeps, runner, opts, path, out, logger)
	}

	settle := deps.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	watchLoop(ctx, watcher.Events, watcher.Errors, settle, logger, handle)
	return nil
}

// watchLoop debounces create and write events for transcript files and
// calls handle once per settled file, serially. It returns when ctx is done
// or the event channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, settle time.Duration, logger logging.Logger, handle func(path string)) {
	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !isTranscriptFile(ev.Name) {
				continue
			}
			path := ev.Name
			if t, ok := pending[path]; ok {
				t.Reset(settle)
				continue
			}
			pending[path] = time.AfterFunc(settle, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
		case path := <-ready:
			if _, ok := pending[path]; !ok {
				continue
			}
			delete(pending, path)
			handle(path)
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("Watcher error", logging.Err(err))
		}
	}
}

// isTranscriptFile reports whether path names a transcript to process.
func isTranscriptFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(base), ".txt") && !transcript.IsCaptionFile(base) {
		return false
	}
	return !reviewfile.IsReviewFile(base)
}

var leadingDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// dateFromFilename returns the YYYY-MM-DD prefix of the file name, if it is
// a real calendar date.
func dateFromFilename(path string) (string, bool) {
	m := leadingDate.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", m[1]); err != nil {
		return "", false
	}
	return m[1], true
}

func processWatchedFile(ctx context.Context, deps *ProcessCommandDeps, runner *pipelineRunner, opts *watchOptions, path string, out io.Writer, logger logging.Logger) {
	name := filepath.Base(path)
	log := logger.With(logging.F("file", name))

	text, err := readTranscript(&processOptions{encoding: opts.encoding}, []string{path})
	if err != nil {
		log.Error("Reading transcript failed", logging.Err(err))
		fmt.Fprintf(out, "✗ %s: %v\n", name, err)
		return
	}

	meetingDate, ok := dateFromFilename(path)
	if !ok {
		meetingDate = deps.now().UTC().Format("2006-01-02")
	}

	outcome, err := runner.Run(ctx, pipelineInput{
		Transcript:  text,
		MeetingDate: meetingDate,
		MeetingType: opts.meetingType,
		Archive:     opts.archive,
		MetricsFile: opts.metricsFile,
	})
	if err != nil {
		log.Error("Processing transcript failed", logging.Err(err))
		fmt.Fprintf(out, "✗ %s: %v\n", name, err)
		return
	}

	result := outcome.Result
	fmt.Fprintf(out, "✓ %s → %s (%d decisions, %d tasks, %d duplicates)\n",
		name, outcome.ReviewPath, len(result.Decisions), len(result.Tasks), len(result.Duplicates()))
}
