package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError_Nil(t *testing.T) {
	if result := ClassifyError(nil, "dedup"); result != nil {
		t.Errorf("Expected nil for nil error, got %v", result)
	}
}

func TestClassifyError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"cancelled", fmt.Errorf("fetch: %w", context.Canceled), ErrCodeContextCancelled},
		{"upstream", fmt.Errorf("%w: sheets returned 503", ErrUpstream), ErrCodeUpstreamUnavailable},
		{"empty transcript", fmt.Errorf("%w: transcript is empty", ErrValidation), ErrCodeEmptyContent},
		{"bad date", fmt.Errorf("%w: meeting date must be YYYY-MM-DD", ErrValidation), ErrCodeInvalidInput},
		{"unknown", errors.New("boom"), ErrCodeProcessingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ClassifyError(tt.err, "stage")
			if pe.Code != tt.want {
				t.Errorf("Code = %s, want %s", pe.Code, tt.want)
			}
			if !errors.Is(pe, tt.err) {
				t.Error("classified error should unwrap to the original")
			}
		})
	}
}

func TestClassifyError_KeepsExistingPipelineError(t *testing.T) {
	inner := &PipelineError{Code: ErrCodeUpstreamUnavailable, Stage: "dedup", Message: "down"}
	wrapped := fmt.Errorf("process: %w", inner)

	if got := ClassifyError(wrapped, "other"); got != inner {
		t.Errorf("expected existing PipelineError to be returned, got %v", got)
	}
}

func TestPipelineError_Error(t *testing.T) {
	pe := &PipelineError{Code: ErrCodeEmptyContent, Stage: "validate", Message: "transcript is empty"}
	if got := pe.Error(); got != "empty_content: validate: transcript is empty" {
		t.Errorf("Error() = %q", got)
	}

	pe.Stage = ""
	if got := pe.Error(); got != "empty_content: transcript is empty" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSuggestedAction(t *testing.T) {
	if got := SuggestedAction(fmt.Errorf("%w: x", ErrUpstream)); got == "" {
		t.Error("expected a suggestion for upstream errors")
	}
	if got := SuggestedAction(nil); got != "" {
		t.Errorf("expected no suggestion for nil, got %q", got)
	}
}
