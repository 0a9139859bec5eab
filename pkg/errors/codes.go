package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
// None of these are retried; the pipeline aborts on the first failure.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrCodeEmptyContent: {
		Code:            ErrCodeEmptyContent,
		Description:     "Transcript is empty or missing",
		SuggestedAction: "Pass a transcript file or --inline \"text\"",
	},
	ErrCodeInvalidInput: {
		Code:            ErrCodeInvalidInput,
		Description:     "Request failed validation",
		SuggestedAction: "Check --date is YYYY-MM-DD",
	},
	ErrCodeUpstreamUnavailable: {
		Code:            ErrCodeUpstreamUnavailable,
		Description:     "Existing task store could not be read for duplicate detection",
		SuggestedAction: "Verify task_store settings: sprintctl tasks list",
	},
	ErrCodeContextCancelled: {
		Code:            ErrCodeContextCancelled,
		Description:     "Operation cancelled by user or system",
		SuggestedAction: "Re-run the command",
	},
	ErrCodeTimeout: {
		Code:            ErrCodeTimeout,
		Description:     "Operation exceeded time limit",
		SuggestedAction: "Raise timeout in config.yaml or SPRINTCTL_TIMEOUT",
	},
	ErrCodeProcessingError: {
		Code:            ErrCodeProcessingError,
		Description:     "Unclassified processing failure",
		SuggestedAction: "Re-run with --debug for details",
	},
}

// SuggestedAction returns the registered suggestion for err's code, if any.
func SuggestedAction(err error) string {
	info, ok := ErrorCodeRegistry[CodeOf(err)]
	if !ok {
		return ""
	}
	return info.SuggestedAction
}
