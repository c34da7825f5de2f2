package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a malformed caller request (e.g. missing prompt).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDataUnavailable signals that the dataset was never loaded or could not be prepared.
	ErrDataUnavailable = errors.New("tree data unavailable")
	// ErrTranslationFailed signals an absent or malformed translator response.
	ErrTranslationFailed = errors.New("filter criteria translation failed")
	// ErrMalformedCriteria signals a criteria payload that is not a well-formed criteria set.
	ErrMalformedCriteria = errors.New("malformed criteria")
	// ErrTranslatorProviderError signals a failure of the upstream language model API.
	ErrTranslatorProviderError = errors.New("translator provider error")
	// ErrTranslationQuotaExceeded signals an exhausted translator token budget.
	ErrTranslationQuotaExceeded = errors.New("translation quota exceeded")
)

// SourceError wraps a dataset preparation failure with the source it came from.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: prepare %s: %v", ErrDataUnavailable.Error(), e.Source, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *SourceError) Unwrap() []error { return []error{ErrDataUnavailable, e.Err} }

// NewSourceError creates a dataset preparation error for source.
func NewSourceError(source string, err error) error {
	return &SourceError{Source: source, Err: err}
}
