package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	scerrors "github.com/otherjamesbrown/sprintctl/pkg/errors"
	"github.com/otherjamesbrown/sprintctl/pkg/logging"
	"github.com/otherjamesbrown/sprintctl/pkg/observability"
)

// TaskSource supplies the existing-task snapshot used for duplicate
// detection. Implementations must return an error, never an empty list,
// when the store cannot be read.
type TaskSource interface {
	FetchExistingTasks(ctx context.Context) ([]ExistingTask, error)
}

// TaskSourceFunc adapts a function to TaskSource.
type TaskSourceFunc func(ctx context.Context) ([]ExistingTask, error)

// FetchExistingTasks calls f.
func (f TaskSourceFunc) FetchExistingTasks(ctx context.Context) ([]ExistingTask, error) {
	return f(ctx)
}

// Request is one transcript to process.
type Request struct {
	Transcript  string
	MeetingDate string `validate:"required,datetime=2006-01-02"`
	FathomLink  string
	MeetingType string
}

// Processor runs the extraction pipeline:
// metadata, segment, extract, aggregate, dedup.
type Processor struct {
	source   TaskSource
	logger   logging.Logger
	metrics  *observability.ProcessingMetrics
	tracer   *observability.Tracer
	now      func() time.Time
	roster   []string
	validate *validator.Validate
}

// Option configures the processor.
type Option func(*Processor)

// WithLogger sets a custom logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *observability.ProcessingMetrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(t *observability.Tracer) Option {
	return func(p *Processor) {
		p.tracer = t
	}
}

// WithClock sets the clock used for the processing date.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// WithRoster sets the attendee names looked for in transcripts.
func WithRoster(names []string) Option {
	return func(p *Processor) {
		if len(names) > 0 {
			p.roster = append([]string(nil), names...)
		}
	}
}

// NewProcessor creates a processor that reads existing tasks from source.
func NewProcessor(source TaskSource, opts ...Option) *Processor {
	p := &Processor{
		source:   source,
		logger:   logging.MustGlobal(),
		tracer:   observability.NewTracer(),
		now:      time.Now,
		roster:   DefaultRoster,
		validate: validator.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With(logging.F("component", "meeting_processor"))
	return p
}

// Process extracts a complete result from one transcript. It either returns
// the whole result or a *errors.PipelineError; there is no partial output.
func (p *Processor) Process(ctx context.Context, req Request) (*ExtractionResult, error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = logging.ContextWithRunID(ctx, runID)
	}

	ctx, span := p.tracer.StartProcessSpan(ctx, runID, len(req.Transcript))
	defer span.End()
	spanHelper := observability.NewSpanHelper(span)

	result, err := p.process(ctx, req)
	if err != nil {
		pe := scerrors.ClassifyError(err, "")
		spanHelper.SetError(pe, string(pe.Code))
		p.metrics.RecordRun(string(pe.Code))
		p.logger.WithContext(ctx).Error("Transcript processing failed",
			logging.F("code", string(pe.Code)),
			logging.F("stage", pe.Stage),
			logging.Err(err))
		return nil, pe
	}

	duplicates := len(result.Duplicates())
	spanHelper.SetMeeting(result.Metadata.MeetingID)
	spanHelper.SetCounts(len(result.Decisions), len(result.Tasks), duplicates)
	spanHelper.SetSuccess()
	p.metrics.RecordRun("")
	p.metrics.AddRecords(observability.KindDecision, len(result.Decisions))
	p.metrics.AddRecords(observability.KindTask, len(result.Tasks))
	p.metrics.AddRecords(observability.KindParkingLot, len(result.ParkingLot))
	p.metrics.AddRecords(observability.KindRisk, len(result.Risks))
	p.metrics.AddDuplicates(duplicates)

	return result, nil
}

func (p *Processor) process(ctx context.Context, req Request) (*ExtractionResult, error) {
	if err := p.validateRequest(req); err != nil {
		return nil, scerrors.ClassifyError(err, "validate")
	}

	log := p.logger.WithContext(ctx)
	log.Info("Starting transcript processing",
		logging.F("meeting_date", req.MeetingDate),
		logging.F("characters", len(req.Transcript)))

	var metadata Metadata
	p.stage(ctx, observability.StageMetadata, func(context.Context) error {
		metadata = BuildMetadata(req.Transcript, req.MeetingDate, req.FathomLink, req.MeetingType, p.roster, p.now())
		return nil
	})
	ctx = logging.ContextWithMeetingID(ctx, metadata.MeetingID)
	log = p.logger.WithContext(ctx)

	var segments []string
	p.stage(ctx, observability.StageSegment, func(context.Context) error {
		segments = Segment(req.Transcript)
		return nil
	})

	extracted := make([]SectionData, 0, SectionCount)
	p.stage(ctx, observability.StageExtract, func(context.Context) error {
		for i, text := range segments {
			extracted = append(extracted, ExtractSection(text, i+1, metadata.MeetingID))
		}
		return nil
	})

	result := &ExtractionResult{Metadata: metadata}
	p.stage(ctx, observability.StageAggregate, func(context.Context) error {
		aggregate(result, extracted)
		return nil
	})

	err := p.stage(ctx, observability.StageDedup, func(ctx context.Context) error {
		existing, err := p.source.FetchExistingTasks(ctx)
		if err != nil {
			return fmt.Errorf("%w: fetching existing tasks: %w", scerrors.ErrUpstream, err)
		}
		p.metrics.SetExistingTasks(len(existing))
		result.DuplicateChecks = CheckDuplicates(result.Tasks, existing)
		log.Debug("Checked tasks against existing store",
			logging.F("existing_tasks", len(existing)),
			logging.F("tasks", len(result.Tasks)))
		return nil
	})
	if err != nil {
		return nil, scerrors.ClassifyError(err, observability.StageDedup)
	}

	log.Info("Extraction complete",
		logging.F("decisions", len(result.Decisions)),
		logging.F("tasks", len(result.Tasks)),
		logging.F("parking_lot", len(result.ParkingLot)),
		logging.F("risks", len(result.Risks)),
		logging.F("duplicates", len(result.Duplicates())))

	return result, nil
}

// stage runs fn inside a stage span and records its duration.
func (p *Processor) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.StartStageSpan(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.ObserveStage(name, time.Since(start).Seconds())

	if err != nil {
		observability.NewSpanHelper(span).SetError(err, string(scerrors.CodeOf(err)))
		return err
	}
	return nil
}

func aggregate(result *ExtractionResult, extracted []SectionData) {
	result.Sections = make([]Section, 0, len(extracted))
	result.Decisions = []Decision{}
	result.Tasks = []Task{}
	result.ParkingLot = []ParkingLotItem{}
	result.Risks = []RiskBlocker{}
	for _, data := range extracted {
		result.Sections = append(result.Sections, data.Section)
		result.Decisions = append(result.Decisions, data.Decisions...)
		result.Tasks = append(result.Tasks, data.Tasks...)
		result.ParkingLot = append(result.ParkingLot, data.ParkingLot...)
		result.Risks = append(result.Risks, data.Risks...)
	}
}

func (p *Processor) validateRequest(req Request) error {
	if strings.TrimSpace(req.Transcript) == "" {
		return fmt.Errorf("%w: no transcript provided", scerrors.ErrValidation)
	}

	if err := p.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", scerrors.ErrValidation, err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return fmt.Errorf("%w: %s", scerrors.ErrValidation, strings.Join(msgs, "; "))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "MeetingDate":
		if fe.Tag() == "required" {
			return "meeting date is required"
		}
		return fmt.Sprintf("meeting date %q must be YYYY-MM-DD", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
