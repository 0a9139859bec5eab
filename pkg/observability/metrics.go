// Package observability provides metrics and tracing for the transcript
// extraction pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names, in the order the processor runs them.
const (
	StageMetadata  = "metadata"
	StageSegment   = "segment"
	StageExtract   = "extract"
	StageAggregate = "aggregate"
	StageDedup     = "dedup"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Record kinds counted by RecordsExtractedTotal.
const (
	KindDecision   = "decision"
	KindTask       = "task"
	KindParkingLot = "parking_lot"
	KindRisk       = "risk"
)

// ProcessingMetrics holds the Prometheus metrics for transcript processing.
type ProcessingMetrics struct {
	RunsTotal             *prometheus.CounterVec
	StageSeconds          *prometheus.HistogramVec
	RecordsExtractedTotal *prometheus.CounterVec
	DuplicatesFlagged     prometheus.Counter
	ExistingTasksFetched  prometheus.Gauge
}

// NewProcessingMetrics creates the processing metrics and registers them with reg.
func NewProcessingMetrics(reg prometheus.Registerer) *ProcessingMetrics {
	factory := promauto.With(reg)

	return &ProcessingMetrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sprintctl_runs_total",
				Help: "Total transcript processing runs by status",
			},
			[]string{"status", "error_code"},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sprintctl_stage_seconds",
				Help:    "Latency of each processing stage",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"stage"},
		),
		RecordsExtractedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sprintctl_records_extracted_total",
				Help: "Total records extracted from transcripts by kind",
			},
			[]string{"kind"},
		),
		DuplicatesFlagged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sprintctl_duplicates_flagged_total",
				Help: "Total extracted tasks flagged as likely duplicates",
			},
		),
		ExistingTasksFetched: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sprintctl_existing_tasks",
				Help: "Size of the existing-task snapshot used by the last run",
			},
		),
	}
}

// NewRegistry returns a fresh registry with the processing metrics registered.
func NewRegistry() (*prometheus.Registry, *ProcessingMetrics) {
	reg := prometheus.NewRegistry()
	return reg, NewProcessingMetrics(reg)
}

// RecordRun counts a finished run. errorCode is empty on success and is
// recorded as "none".
func (m *ProcessingMetrics) RecordRun(errorCode string) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if errorCode != "" {
		status = StatusFailed
	} else {
		errorCode = "none"
	}
	m.RunsTotal.WithLabelValues(status, errorCode).Inc()
}

// ObserveStage records how long a stage took.
func (m *ProcessingMetrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageSeconds.WithLabelValues(stage).Observe(seconds)
}

// AddRecords adds n extracted records of the given kind.
func (m *ProcessingMetrics) AddRecords(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsExtractedTotal.WithLabelValues(kind).Add(float64(n))
}

// AddDuplicates adds n flagged duplicates.
func (m *ProcessingMetrics) AddDuplicates(n int) {
	if m == nil || n == 0 {
		return
	}
	m.DuplicatesFlagged.Add(float64(n))
}

// SetExistingTasks records the size of the fetched task snapshot.
func (m *ProcessingMetrics) SetExistingTasks(n int) {
	if m == nil {
		return
	}
	m.ExistingTasksFetched.Set(float64(n))
}
