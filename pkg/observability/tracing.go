package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for transcript processing.
	TracerName = "sprintctl"
)

// Span attribute keys
const (
	AttrRunID      = "run_id"
	AttrMeetingID  = "meeting_id"
	AttrStage      = "stage"
	AttrSection    = "section"
	AttrCharacters = "transcript_characters"
	AttrDecisions  = "decisions"
	AttrTasks      = "tasks"
	AttrDuplicates = "duplicates"
	AttrErrorCode  = "error_code"
)

// SpanProcess is the root span name for one transcript run.
const SpanProcess = "meeting.process"

// Tracer provides distributed tracing for transcript processing.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global OpenTelemetry provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// NewTracerWithProvider creates a tracer from an explicit provider.
func NewTracerWithProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartProcessSpan starts the root span for processing one transcript.
func (t *Tracer) StartProcessSpan(ctx context.Context, runID string, characters int) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, SpanProcess,
		trace.WithAttributes(
			attribute.Int(AttrCharacters, characters),
		),
	)
	if runID != "" {
		span.SetAttributes(attribute.String(AttrRunID, runID))
	}
	return ctx, span
}

// StartStageSpan starts a span for a processing stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("meeting.stage.%s", stage),
		trace.WithAttributes(
			attribute.String(AttrStage, stage),
		),
	)
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetMeeting sets the meeting id attribute.
func (h *SpanHelper) SetMeeting(meetingID string) {
	h.span.SetAttributes(attribute.String(AttrMeetingID, meetingID))
}

// SetCounts sets the extraction count attributes.
func (h *SpanHelper) SetCounts(decisions, tasks, duplicates int) {
	h.span.SetAttributes(
		attribute.Int(AttrDecisions, decisions),
		attribute.Int(AttrTasks, tasks),
		attribute.Int(AttrDuplicates, duplicates),
	)
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, code string) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(attribute.String(AttrErrorCode, code))
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}
