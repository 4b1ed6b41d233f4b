// Package session owns one loaded form: the current payload snapshot, the
// answer sync protocol, the table editors, and the submit action.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-questionnaire/pkg/answersync"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/tableedit"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger overrides the logger passed down to the syncer and editors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SubmitOutcome describes a submit call that reached the service.
type SubmitOutcome struct {
	Submitted bool
	Missing   remote.MissingRequired
}

// Status is a point-in-time view of the session.
type Status struct {
	FormID     string
	Lang       string
	Payload    *model.Payload
	Loading    bool
	Submitting bool
	Closed     bool
	Err        error
	Fields     map[string]answersync.FieldState
	// Unsent holds values whose persist failed; widgets keep showing them.
	Unsent map[string]any
}

// CanSubmit reports whether the submit action should be enabled.
func (s Status) CanSubmit() bool {
	if s.Closed || s.Submitting || s.Loading || s.Err != nil || s.Payload == nil {
		return false
	}
	return !s.Payload.Form.Submitted()
}

// Session is the controller for one form. Its mutex is never held across a
// remote call, so edits of the same question may be in flight together and
// commit in completion order.
type Session struct {
	mu         sync.Mutex
	client     remote.Client
	formID     string
	lang       string
	logger     *slog.Logger
	syncer     *answersync.Syncer
	payload    *model.Payload
	generation uint64
	loading    bool
	submitting bool
	closed     bool
	loadErr    error
	unsent     map[string]any
	tables     map[string]*tableedit.Editor
}

// New creates a session for formID. Nothing is fetched until Load.
func New(client remote.Client, formID, lang string, options ...Option) *Session {
	s := &Session{
		client: client,
		formID: formID,
		lang:   lang,
		logger: slog.Default(),
		unsent: make(map[string]any),
		tables: make(map[string]*tableedit.Editor),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.logger = s.logger.With("form_id", formID)
	s.syncer = answersync.New(client, formID, s.commit, answersync.WithLogger(s.logger))
	return s
}

// FormID returns the form the session was opened for.
func (s *Session) FormID() string {
	return s.formID
}

// Lang returns the language tag sent with every fetch.
func (s *Session) Lang() string {
	return s.lang
}

// Load fetches the payload and replaces the snapshot. On failure the previous
// snapshot is dropped and a LoadError is recorded; renderers show only that
// error until a later Load succeeds.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loading = true
	s.mu.Unlock()

	payload, err := s.client.FetchPayload(ctx, s.formID, s.lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.closed {
		return ErrClosed
	}
	if err != nil {
		s.loadErr = &LoadError{FormID: s.formID, Err: err}
		s.payload = nil
		s.logger.Error("load payload failed", "error", err)
		return s.loadErr
	}
	if payload == nil {
		payload = &model.Payload{}
	}

	s.generation++
	s.payload = payload.WithGeneration(s.generation)
	s.loadErr = nil
	for code := range s.unsent {
		if state := s.syncer.Tracker().Get(code); state.State != answersync.Failed {
			delete(s.unsent, code)
		}
	}
	s.syncer.Tracker().ResetSettled()
	for _, editor := range s.tables {
		editor.Attach(s.payload)
	}
	s.logger.Debug("payload loaded", "questions", len(s.payload.Questions), "status", s.payload.Form.Status)
	return nil
}

// Payload returns the current snapshot, nil before the first successful load.
func (s *Session) Payload() *model.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload
}

// MutateAnswer replaces the answer of code in a new snapshot and returns it.
// Unknown codes leave the snapshot untouched and return the same pointer.
func (s *Session) MutateAnswer(code string, value any) *model.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return nil
	}
	if next, ok := s.payload.WithAnswer(code, value); ok {
		s.payload = next
	}
	return s.payload
}

func (s *Session) commit(code string, value any) {
	s.MutateAnswer(code, value)
	s.mu.Lock()
	delete(s.unsent, code)
	s.mu.Unlock()
}

// PersistAnswer writes value for code and commits it to the snapshot once the
// service acknowledged it. A failure returns a PersistError and keeps value
// as the field's unsent edit; other questions are unaffected.
func (s *Session) PersistAnswer(ctx context.Context, code string, value any) error {
	question, err := s.question(code)
	if err != nil {
		return err
	}
	if err := s.syncer.Persist(ctx, code, question.Type, value); err != nil {
		s.mu.Lock()
		s.unsent[code] = value
		s.mu.Unlock()
		return &PersistError{Code: code, Err: err}
	}
	return nil
}

// Table returns the editor for a table question, creating it on first use.
func (s *Session) Table(code string) (*tableedit.Editor, error) {
	question, err := s.question(code)
	if err != nil {
		return nil, err
	}
	if question.Type != model.TypeTable {
		return nil, fmt.Errorf("%w: %q", ErrNotTable, code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	editor, ok := s.tables[code]
	if !ok {
		editor = tableedit.New(s.client, s.formID, code, tableedit.WithLogger(s.logger))
		s.tables[code] = editor
	}
	editor.Attach(s.payload)
	return editor, nil
}

// Submit runs the remote submit action. It is refused without a remote call
// while another submit is in flight or when the form is already submitted. A
// rejected submit returns a ValidationError and leaves the snapshot alone; an
// accepted one reloads the payload.
func (s *Session) Submit(ctx context.Context) (SubmitOutcome, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return SubmitOutcome{}, ErrClosed
	case s.payload == nil:
		s.mu.Unlock()
		return SubmitOutcome{}, ErrNotLoaded
	case s.submitting || s.payload.Form.Submitted():
		s.mu.Unlock()
		return SubmitOutcome{}, ErrSubmitDisallowed
	}
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	result, err := s.client.SubmitForm(ctx, s.formID)
	if err != nil {
		s.logger.Error("submit failed", "error", err)
		return SubmitOutcome{}, fmt.Errorf("session: submit: %w", err)
	}
	if !result.OK {
		s.logger.Info("submit rejected", "missing_required", result.MissingRequired.Count())
		return SubmitOutcome{Missing: result.MissingRequired}, &ValidationError{Missing: result.MissingRequired}
	}

	if err := s.Load(ctx); err != nil {
		return SubmitOutcome{Submitted: true}, err
	}
	return SubmitOutcome{Submitted: true}, nil
}

// View returns a consistent view of the session state.
func (s *Session) View() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsent := make(map[string]any, len(s.unsent))
	for code, value := range s.unsent {
		unsent[code] = value
	}
	return Status{
		FormID:     s.formID,
		Lang:       s.lang,
		Payload:    s.payload,
		Loading:    s.loading,
		Submitting: s.submitting,
		Closed:     s.closed,
		Err:        s.loadErr,
		Fields:     s.syncer.Tracker().Snapshot(),
		Unsent:     unsent,
	}
}

// Close tears the session down. Later calls return ErrClosed; calls already
// in flight finish but their results are discarded by Load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.tables = make(map[string]*tableedit.Editor)
	s.logger.Debug("session closed")
}

func (s *Session) question(code string) (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Question{}, ErrClosed
	}
	if s.payload == nil {
		return model.Question{}, ErrNotLoaded
	}
	question, ok := s.payload.Question(code)
	if !ok {
		return model.Question{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, code)
	}
	return question, nil
}
