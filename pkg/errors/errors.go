// Package errors provides common domain error types for sprintctl.
//
// This package defines sentinel errors for the conditions the extraction pipeline
// distinguishes: bad input, an unreachable task store, and the usual lookup
// failures. Using typed errors enables consistent handling with errors.Is() checks.
//
// Usage:
//
//	import scerrors "github.com/otherjamesbrown/sprintctl/pkg/errors"
//
//	// Return a domain error
//	return nil, fmt.Errorf("%w: transcript is empty", scerrors.ErrValidation)
//
//	// Check for domain errors
//	if scerrors.IsValidation(err) {
//	    // report and exit non-zero
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrValidation indicates invalid input (missing or empty transcript, bad date).
	ErrValidation = errors.New("validation error")

	// ErrUpstream indicates the existing-task store could not be read.
	ErrUpstream = errors.New("upstream unavailable")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., a locked review file).
	ErrConflict = errors.New("conflict")
)

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUpstream reports whether any error in err's chain is ErrUpstream.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
