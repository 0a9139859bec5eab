package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/pkg/archive"
	"github.com/otherjamesbrown/sprintctl/pkg/db"
	"github.com/otherjamesbrown/sprintctl/pkg/events"
	"github.com/otherjamesbrown/sprintctl/pkg/logging"
	"github.com/otherjamesbrown/sprintctl/pkg/meeting"
	"github.com/otherjamesbrown/sprintctl/pkg/observability"
	"github.com/otherjamesbrown/sprintctl/pkg/reviewfile"
	"github.com/otherjamesbrown/sprintctl/pkg/tasks"
)

// StoreOpener opens the existing-task store for a run.
type StoreOpener func(ctx context.Context, cfg *config.CLIConfig) (tasks.Store, error)

// pipelineInput is one transcript plus the per-run output options.
type pipelineInput struct {
	Transcript  string
	MeetingDate string
	FathomLink  string
	MeetingType string
	Archive     bool
	MetricsFile string
}

// pipelineOutcome is what a successful run produced.
type pipelineOutcome struct {
	RunID       string                    `json:"run_id" yaml:"run_id"`
	ReviewPath  string                    `json:"review_path" yaml:"review_path"`
	ArchivePath string                    `json:"archive_path,omitempty" yaml:"archive_path,omitempty"`
	Result      *meeting.ExtractionResult `json:"result" yaml:"result"`
}

var (
	lastRunMu sync.Mutex
	lastRun   struct{ runID, meetingID string }
)

// LastRun returns the run and meeting ids of the most recent successful
// run in this process, for the command ledger.
func LastRun() (runID, meetingID string) {
	lastRunMu.Lock()
	defer lastRunMu.Unlock()
	return lastRun.runID, lastRun.meetingID
}

func recordRun(runID, meetingID string) {
	lastRunMu.Lock()
	lastRun.runID, lastRun.meetingID = runID, meetingID
	lastRunMu.Unlock()
}

// pipelineRunner processes a transcript end to end: extraction, the review
// document, and the optional archive, event and metrics outputs.
type pipelineRunner struct {
	cfg       *config.CLIConfig
	openStore StoreOpener
	now       func() time.Time
	logger    logging.Logger
}

func newPipelineRunner(cfg *config.CLIConfig, openStore StoreOpener, now func() time.Time, logger logging.Logger) *pipelineRunner {
	if openStore == nil {
		openStore = openTaskStore
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.MustGlobal()
	}
	return &pipelineRunner{cfg: cfg, openStore: openStore, now: now, logger: logger}
}

// Run processes in. Nothing is written to the review directory when the
// pipeline fails.
func (r *pipelineRunner) Run(ctx context.Context, in pipelineInput) (*pipelineOutcome, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := r.logger.WithContext(ctx)

	reg, metrics := observability.NewRegistry()

	// The store is opened on first fetch so input errors surface before any
	// backend is contacted.
	var store tasks.Store
	defer func() {
		if store != nil {
			if err := store.Close(); err != nil {
				log.Warn("Closing task store failed", logging.Err(err))
			}
		}
	}()
	defer r.writeMetrics(log, in.MetricsFile, reg)

	source := meeting.TaskSourceFunc(func(ctx context.Context) ([]meeting.ExistingTask, error) {
		s, err := r.openStore(ctx, r.cfg)
		if err != nil {
			return nil, fmt.Errorf("opening task store: %w", err)
		}
		store = s
		r.registerPoolStats(log, s, reg)
		return s.FetchExistingTasks(ctx)
	})

	processor := meeting.NewProcessor(source,
		meeting.WithLogger(r.logger),
		meeting.WithMetrics(metrics),
		meeting.WithRoster(r.cfg.Attendees),
		meeting.WithClock(r.now),
	)

	meetingType := in.MeetingType
	if meetingType == "" {
		meetingType = r.cfg.MeetingType
	}

	result, err := processor.Process(ctx, meeting.Request{
		Transcript:  in.Transcript,
		MeetingDate: in.MeetingDate,
		FathomLink:  in.FathomLink,
		MeetingType: meetingType,
	})
	if err != nil {
		return nil, err
	}

	// A failed run leaves neither the archive nor the review document.
	var archivePath string
	if in.Archive || r.cfg.Archive.Enabled {
		archivePath, err = archive.Write(r.cfg.OutputDir, result.Metadata.MeetingID, in.Transcript)
		if err != nil {
			return nil, fmt.Errorf("archiving transcript: %w", err)
		}
		log.Debug("Transcript archived", logging.F("path", archivePath))
	}

	doc := meeting.ReviewRenderer{Reviewer: r.cfg.Reviewer}.Render(result)
	reviewPath, err := reviewfile.NewWriter(r.cfg.OutputDir).Write(ctx, result.Metadata.MeetingID, doc)
	if err != nil {
		if archivePath != "" {
			if rmErr := os.Remove(archivePath); rmErr != nil {
				log.Warn("Removing archive after failed save", logging.Err(rmErr), logging.F("path", archivePath))
			}
		}
		return nil, fmt.Errorf("saving review document: %w", err)
	}
	log.Info("Review document saved", logging.F("path", reviewPath))

	outcome := &pipelineOutcome{RunID: runID, ReviewPath: reviewPath, ArchivePath: archivePath, Result: result}

	r.publish(ctx, log, outcome)
	recordRun(runID, result.Metadata.MeetingID)
	return outcome, nil
}

// publish announces the run on Redis when configured. The review document
// is already on disk, so failures are logged rather than returned.
func (r *pipelineRunner) publish(ctx context.Context, log logging.Logger, outcome *pipelineOutcome) {
	rc := r.cfg.Redis
	if rc == nil || !rc.IsConfigured() {
		return
	}

	pub, err := events.NewPublisherFromConfig(ctx, events.PublisherConfig{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
		Channel:  rc.GetChannel(),
	}, r.logger)
	if err != nil {
		log.Warn("Event publisher unavailable", logging.Err(err))
		return
	}
	defer pub.Close()

	if err := pub.PublishMeetingExtracted(ctx, outcome.RunID, outcome.ReviewPath, outcome.Result); err != nil {
		log.Warn("Publishing extraction event failed", logging.Err(err))
	}
}

func (r *pipelineRunner) registerPoolStats(log logging.Logger, s tasks.Store, reg prometheus.Registerer) {
	ps, ok := s.(*tasks.PostgresSource)
	if !ok || ps.Pool() == nil {
		return
	}
	if _, err := db.RegisterPoolStatsCollector(ps.Pool(), "sprintctl", "tasks", reg); err != nil {
		log.Warn("Registering pool stats collector failed", logging.Err(err))
	}
}

func (r *pipelineRunner) writeMetrics(log logging.Logger, path string, g prometheus.Gatherer) {
	if path == "" {
		return
	}
	if err := observability.WriteTextfile(path, g); err != nil {
		log.Warn("Writing metrics file failed", logging.Err(err), logging.F("path", path))
	}
}
