package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-questionnaire/pkg/remote"
)

var (
	// ErrLoadFailure matches every LoadError.
	ErrLoadFailure = errors.New("session: load failed")
	// ErrPersistFailure matches every PersistError.
	ErrPersistFailure = errors.New("session: persist failed")
	// ErrValidationFailure matches every ValidationError.
	ErrValidationFailure = errors.New("session: submit rejected")

	// ErrSubmitDisallowed is returned without a remote call while a submit is
	// in flight or once the form is submitted.
	ErrSubmitDisallowed = errors.New("session: submit not allowed")
	// ErrNotLoaded is returned by operations that need a snapshot.
	ErrNotLoaded = errors.New("session: payload not loaded")
	// ErrUnknownQuestion is returned for codes absent from the snapshot.
	ErrUnknownQuestion = errors.New("session: unknown question")
	// ErrNotTable is returned by Table for non-table questions.
	ErrNotTable = errors.New("session: question is not a table")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
)

// LoadError reports a failed fetch. It preempts rendering of the form.
type LoadError struct {
	FormID string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("session: load form %q: %v", e.FormID, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailure, e.Err}
}

// PersistError reports a failed answer write. The snapshot is unchanged.
type PersistError struct {
	Code string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("session: persist %q: %v", e.Code, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistFailure, e.Err}
}

// ValidationError reports a submit rejected by the service.
type ValidationError struct {
	Missing remote.MissingRequired
}

// Description returns the missing-required description shown to the user:
// the count of missing answers.
func (e *ValidationError) Description() string {
	return strconv.Itoa(e.Missing.Count())
}

func (e *ValidationError) Error() string {
	return "session: submit rejected: missing required answers: " + e.Description()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailure
}
