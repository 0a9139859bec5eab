package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/sprintctl/config"
	scerrors "github.com/otherjamesbrown/sprintctl/pkg/errors"
	"github.com/otherjamesbrown/sprintctl/pkg/logging"
	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
	"github.com/otherjamesbrown/sprintctl/pkg/textenc"
	"github.com/otherjamesbrown/sprintctl/pkg/transcript"
)

// ProcessCommandDeps holds the dependencies for the process command.
type ProcessCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	OpenStore  StoreOpener
	Now        func() time.Time
	Logger     logging.Logger
}

// DefaultProcessDeps returns the default dependencies for production use.
func DefaultProcessDeps() *ProcessCommandDeps {
	return &ProcessCommandDeps{
		LoadConfig: config.LoadConfig,
		OpenStore:  openTaskStore,
		Now:        time.Now,
	}
}

func (d *ProcessCommandDeps) config() (*config.CLIConfig, error) {
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

func (d *ProcessCommandDeps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// processOptions are the process command flags.
type processOptions struct {
	inline      string
	date        string
	link        string
	meetingType string
	encoding    string
	archive     bool
	metricsFile string
	output      string
}

// NewProcessCommand creates the process command.
func NewProcessCommand(deps *ProcessCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultProcessDeps()
	}
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process [transcript-file]",
		Short: "Extract decisions, tasks and risks from a meeting transcript",
		Long: `Process a meeting transcript into a pending review document.

The transcript is split into the six standing sections of the weekly sprint
review. Decisions, tasks, parking-lot ideas and risks are extracted from each
section, and new tasks are checked against the existing action log for likely
duplicates. The review document is saved as PENDING_REVIEW_<meeting-id>.txt
in the configured output directory.

WebVTT caption exports (.vtt) are flattened to "Speaker: text" lines first.

Nothing is committed anywhere: the document is a set of candidates for a
human reviewer to approve.

Examples:
  # Process a transcript file
  sprintctl process transcripts/2025-01-15.txt --date 2025-01-15

  # Process a Zoom caption export
  sprintctl process recordings/2025-01-15.vtt --date 2025-01-15

  # Process inline text
  sprintctl process --inline "We decided to ship on Friday..."

  # Windows-1252 export, archived, as JSON
  sprintctl process notes.txt --encoding windows-1252 --archive --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), deps, opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.inline, "inline", "", "Transcript text instead of a file")
	cmd.Flags().StringVar(&opts.date, "date", "", "Meeting date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.link, "link", "", "Recording link stored in the metadata")
	cmd.Flags().StringVar(&opts.meetingType, "type", "", "Meeting type (default from config)")
	cmd.Flags().StringVar(&opts.encoding, "encoding", textenc.UTF8, "Transcript file encoding: "+strings.Join(textenc.Names, ", "))
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Archive the transcript next to the review document")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runProcess(ctx context.Context, deps *ProcessCommandDeps, opts *processOptions, args []string, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}

	format, err := outputFormat(cfg, opts.output)
	if err != nil {
		return err
	}

	text, err := readTranscript(opts, args)
	if err != nil {
		return err
	}

	meetingDate := opts.date
	if meetingDate == "" {
		meetingDate = deps.now().UTC().Format("2006-01-02")
	}

	if format == config.OutputFormatText {
		printProcessHeader(out, meetingDate, text)
	}

	runner := newPipelineRunner(cfg, deps.OpenStore, deps.Now, deps.Logger)
	outcome, err := runner.Run(ctx, pipelineInput{
		Transcript:  text,
		MeetingDate: meetingDate,
		FathomLink:  opts.link,
		MeetingType: opts.meetingType,
		Archive:     opts.archive,
		MetricsFile: opts.metricsFile,
	})
	if err != nil {
		return err
	}

	switch format {
	case config.OutputFormatJSON:
		return outputJSON(out, outcome)
	case config.OutputFormatYAML:
		return outputYAML(out, outcome)
	default:
		printProcessSummary(out, outcome)
		return nil
	}
}

// readTranscript returns the transcript from the file argument or --inline.
func readTranscript(opts *processOptions, args []string) (string, error) {
	if len(args) > 0 && opts.inline != "" {
		return "", fmt.Errorf("%w: pass a transcript file or --inline, not both", scerrors.ErrValidation)
	}
	if len(args) == 0 {
		if opts.inline == "" {
			return "", fmt.Errorf("%w: no transcript provided (pass a file or --inline)", scerrors.ErrValidation)
		}
		return opts.inline, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	text, err := textenc.Decode(data, opts.encoding)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scerrors.ErrValidation, err)
	}
	if transcript.IsCaptionFile(args[0]) {
		text, err = transcript.FromVTT(text)
		if err != nil {
			return "", fmt.Errorf("%w: %v", scerrors.ErrValidation, err)
		}
	}
	return text, nil
}

func printProcessHeader(w io.Writer, meetingDate, text string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "MEETING PROCESSOR")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Meeting Date: %s\n", meetingDate)
	fmt.Fprintf(w, "Transcript Length: %d characters\n", len([]rune(text)))
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w)
}

func printProcessSummary(w io.Writer, outcome *pipelineOutcome) {
	result := outcome.Result
	md := result.Metadata
	duplicates := result.Duplicates()

	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "✓ EXTRACTION COMPLETE")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Meeting ID: %s\n", md.MeetingID)
	fmt.Fprintf(w, "Date: %s\n", md.MeetingDate)
	fmt.Fprintf(w, "Attendees: %s\n", strings.Join(md.Attendees, ", "))
	fmt.Fprintf(w, "Transcript: %d words\n", md.WordCount)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extracted:")
	fmt.Fprintf(w, "✓ %d decisions identified\n", len(result.Decisions))
	fmt.Fprintf(w, "✓ %d tasks identified\n", len(result.Tasks))
	fmt.Fprintf(w, "✓ %d potential duplicates flagged\n", len(duplicates))
	fmt.Fprintf(w, "✓ %d parking lot items\n", len(result.ParkingLot))
	fmt.Fprintf(w, "✓ %d risks/blockers\n", len(result.Risks))
	fmt.Fprintln(w)

	if len(result.Tasks) > 0 {
		renderTable(w, table.Row{"Task", "Description", "Priority", "Category", "Duplicate Of"}, taskRows(result))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Review document saved to:")
	fmt.Fprintf(w, "📄 %s\n", outcome.ReviewPath)
	if outcome.ArchivePath != "" {
		fmt.Fprintf(w, "🗄  %s\n", outcome.ArchivePath)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w)

	if len(duplicates) > 0 {
		fmt.Fprintln(w, "⚠️  DUPLICATE WARNINGS:")
		for _, dup := range duplicates {
			fmt.Fprintf(w, "   Task %s is %d%% similar to %s\n", dup.TaskID, meeting.Percent(dup.Similarity), dup.SimilarTo)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Next Steps:")
	fmt.Fprintln(w, "1. Review the document above")
	fmt.Fprintln(w, "2. Resolve duplicate flags")
	fmt.Fprintln(w, "3. Assign task owners")
	fmt.Fprintln(w, "4. Check APPROVED box")
	fmt.Fprintln(w, "5. Run: /commit-meeting-changes <doc-link>")
	fmt.Fprintln(w)
}

func taskRows(result *meeting.ExtractionResult) []table.Row {
	similar := make(map[string]string, len(result.DuplicateChecks))
	for _, dc := range result.DuplicateChecks {
		if dc.IsDuplicate {
			similar[dc.TaskID] = dc.SimilarTo
		}
	}

	rows := make([]table.Row, 0, len(result.Tasks))
	for _, t := range result.Tasks {
		rows = append(rows, table.Row{
			t.ID,
			truncateString(t.Description, 50),
			string(t.Priority),
			t.Category,
			similar[t.ID],
		})
	}
	return rows
}
