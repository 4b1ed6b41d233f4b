// Package answersync implements persist-then-commit for single answers: the
// remote write happens first and the local snapshot changes only after it
// succeeded.
package answersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
)

// ErrInvalidValue is returned before any remote call when the value does not
// match the question type.
var ErrInvalidValue = errors.New("answersync: invalid value")

// CommitFunc applies a persisted value to the local snapshot.
type CommitFunc func(code string, value any)

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracker shares an existing state tracker.
func WithTracker(tracker *Tracker) Option {
	return func(s *Syncer) {
		if tracker != nil {
			s.tracker = tracker
		}
	}
}

// Syncer persists answers of one form.
type Syncer struct {
	writer  remote.AnswerWriter
	formID  string
	commit  CommitFunc
	tracker *Tracker
	logger  *slog.Logger
}

// New creates a Syncer writing through writer and committing through commit.
func New(writer remote.AnswerWriter, formID string, commit CommitFunc, options ...Option) *Syncer {
	s := &Syncer{
		writer:  writer,
		formID:  formID,
		commit:  commit,
		tracker: NewTracker(),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Tracker exposes the per-field sync states.
func (s *Syncer) Tracker() *Tracker {
	return s.tracker
}

// Persist writes value for code and commits it locally once the remote call
// succeeded. On failure nothing local changes; the field is marked Failed and
// the remote error is returned wrapped. No retry is attempted.
func (s *Syncer) Persist(ctx context.Context, code string, kind model.QuestionType, value any) error {
	if err := model.ValidateAnswer(kind, value); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidValue, code, err)
	}

	s.tracker.Begin(code)
	s.logger.Debug("persisting answer", "form_id", s.formID, "code", code)

	if err := s.writer.UpsertAnswer(ctx, s.formID, code, value); err != nil {
		s.tracker.Fail(code, err)
		s.logger.Warn("persist answer failed", "form_id", s.formID, "code", code, "error", err)
		return fmt.Errorf("answersync: persist %q: %w", code, err)
	}

	if s.commit != nil {
		s.commit(code, value)
	}
	s.tracker.Succeed(code)
	return nil
}
