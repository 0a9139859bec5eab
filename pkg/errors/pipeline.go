package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a classified pipeline error.
type ErrorCode string

const (
	ErrCodeEmptyContent        ErrorCode = "empty_content"
	ErrCodeInvalidInput        ErrorCode = "invalid_input"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeContextCancelled    ErrorCode = "context_cancelled"
	ErrCodeTimeout             ErrorCode = "timeout"
	ErrCodeProcessingError     ErrorCode = "processing_error"
)

// PipelineError is a structured error for extraction pipeline failures.
type PipelineError struct {
	Code    ErrorCode
	Stage   string
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ClassifyError inspects an error and returns a *PipelineError with the appropriate code.
// If the error doesn't match any known pattern, it returns a PipelineError with ErrCodeProcessingError.
func ClassifyError(err error, stage string) *PipelineError {
	if err == nil {
		return nil
	}

	var existing *PipelineError
	if errors.As(err, &existing) {
		return existing
	}

	pe := &PipelineError{
		Stage:   stage,
		Cause:   err,
		Message: err.Error(),
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Code = ErrCodeTimeout
		pe.Message = "operation timed out"
	case errors.Is(err, context.Canceled):
		pe.Code = ErrCodeContextCancelled
		pe.Message = "operation cancelled"
	case errors.Is(err, ErrUpstream):
		pe.Code = ErrCodeUpstreamUnavailable
	case errors.Is(err, ErrValidation):
		lower := strings.ToLower(err.Error())
		if strings.Contains(lower, "empty") || strings.Contains(lower, "no transcript") {
			pe.Code = ErrCodeEmptyContent
		} else {
			pe.Code = ErrCodeInvalidInput
		}
	default:
		pe.Code = ErrCodeProcessingError
	}

	return pe
}

// CodeOf returns the classified code of err, or "" for a nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return ClassifyError(err, "").Code
}
