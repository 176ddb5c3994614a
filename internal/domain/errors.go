package domain

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable signals that the durable history store cannot be
// used in the current environment. The application degrades to in-memory
// operation with a visible notice instead of failing outright.
var ErrStorageUnavailable = errors.New("history storage unavailable")

// ErrEmptyPrompt rejects completion requests with a blank prompt.
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// UnknownModelError reports a selection or completion request that names a
// model outside the fixed descriptor set. User-correctable; surfaced verbatim.
type UnknownModelError struct {
	ID string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %q", e.ID)
}

// ProviderError reports an upstream completion call that failed outright or
// dropped mid-stream. Partial text already streamed stays in the transient
// view but is never persisted.
type ProviderError struct {
	Provider string
	Status   int
	Cause    error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0 && e.Cause != nil:
		return fmt.Sprintf("%s: upstream returned %d: %v", e.Provider, e.Status, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s: upstream returned %d", e.Provider, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Cause)
	default:
		return fmt.Sprintf("%s: provider error", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ModelUnavailableError reports that the local model artifact could not be
// made ready after bootstrap retries. Kept distinct from ProviderError so
// the view can suggest retrying later rather than treating it as a one-off
// network blip.
type ModelUnavailableError struct {
	Model string
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model %q unavailable: %v", e.Model, e.Cause)
	}
	return fmt.Sprintf("model %q unavailable", e.Model)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Cause }

// DuplicateKeyError reports a history write whose timestamp key already
// exists. Indicates a programming or race defect under single-writer use;
// logged for investigation, never silently dropped.
type DuplicateKeyError struct {
	Timestamp int64
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("history entry %d already exists", e.Timestamp)
}

// IsUnknownModel reports whether err is an UnknownModelError.
func IsUnknownModel(err error) bool {
	var target *UnknownModelError
	return errors.As(err, &target)
}

// IsModelUnavailable reports whether err is a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}

// IsDuplicateKey reports whether err is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}
