package extractor

import (
	"errors"
	"fmt"
)

// ValidationError reports rejected input. No model call is made for
// input that fails validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ExtractionError reports a failed extraction: the provider was
// unavailable, the model call errored, or the output could not be
// parsed. No record is created for a failed extraction.
type ExtractionError struct {
	Provider string
	Stage    string // "provider", "call", or "parse"
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("extraction %s failed (provider %s): %v", e.Stage, e.Provider, e.Err)
	}
	return fmt.Sprintf("extraction %s failed: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsExtractionError checks if an error is an ExtractionError.
func IsExtractionError(err error) (*ExtractionError, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
