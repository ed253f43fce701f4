// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates malformed or out-of-range input (e.g. non-positive water volume).
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the requested entity does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates a draft state-machine precondition was violated.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a unique constraint violation (e.g., name taken).
	ErrConflict = errors.New("conflict")

	// ErrNoInputProvided indicates the analyzer was called with neither images nor text.
	ErrNoInputProvided = errors.New("no input provided")

	// ErrAnalysisEmpty indicates the analyzer returned nothing usable.
	ErrAnalysisEmpty = errors.New("analysis empty")

	// ErrAnalyzerUnavailable indicates the external analysis provider failed.
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")

	// ErrStorage indicates a storage failure; partial writes were rolled back.
	ErrStorage = errors.New("storage error")
)

// Validation wraps a human-readable reason into ErrValidation.
func Validation(reason string) error {
	return &reasonError{kind: ErrValidation, reason: reason}
}

type reasonError struct {
	kind   error
	reason string
}

func (e *reasonError) Error() string { return e.kind.Error() + ": " + e.reason }
func (e *reasonError) Unwrap() error { return e.kind }

// IsDomain reports whether err carries one of the sentinels above other than ErrStorage.
func IsDomain(err error) bool {
	for _, s := range []error{
		ErrValidation, ErrNotFound, ErrInvalidState, ErrUnauthorized, ErrRateLimited,
		ErrConflict, ErrNoInputProvided, ErrAnalysisEmpty, ErrAnalyzerUnavailable,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
