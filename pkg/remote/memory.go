package remote

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// Hook runs before every Memory call; a non-nil error fails the call. Tests
// use it to inject failures or hold calls in flight.
type Hook func(ctx context.Context, op string) error

// Seed describes one form held by the Memory backend.
type Seed struct {
	Payload  model.Payload
	Required []string
}

// Memory is an in-process Client backed by maps. It is safe for concurrent
// use and copies every payload it hands out.
type Memory struct {
	mu     sync.Mutex
	forms  map[string]*Seed
	hook   Hook
	calls  map[string]int
	failed map[string][]error
}

var _ Client = (*Memory)(nil)

// NewMemory creates a backend holding the provided seeds.
func NewMemory(seeds ...Seed) *Memory {
	m := &Memory{
		forms:  make(map[string]*Seed),
		calls:  make(map[string]int),
		failed: make(map[string][]error),
	}
	for _, seed := range seeds {
		m.Put(seed)
	}
	return m
}

// Put stores or replaces a form.
func (m *Memory) Put(seed Seed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := Seed{Payload: *clonePayload(&seed.Payload), Required: append([]string(nil), seed.Required...)}
	m.forms[seed.Payload.Form.ID] = &clone
}

// SetHook installs a hook invoked before every call.
func (m *Memory) SetHook(hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// FailNext queues err as the result of the next call to op.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[op] = append(m.failed[op], err)
}

// Calls reports how many times op was invoked, failed calls included.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Snapshot returns a copy of the stored payload for formID.
func (m *Memory) Snapshot(formID string) (*model.Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seed, ok := m.forms[formID]
	if !ok {
		return nil, false
	}
	return clonePayload(&seed.Payload), true
}

// FetchPayload implements PayloadFetcher.
func (m *Memory) FetchPayload(ctx context.Context, formID, lang string) (*model.Payload, error) {
	if err := m.before(ctx, CallFetchPayload); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seed, ok := m.forms[formID]
	if !ok {
		return nil, NewError(CallFetchPayload, "not_found", fmt.Sprintf("form %q not found", formID))
	}
	return clonePayload(&seed.Payload), nil
}

// UpsertAnswer implements AnswerWriter.
func (m *Memory) UpsertAnswer(ctx context.Context, formID, code string, value any) error {
	if err := m.before(ctx, CallUpsertAnswer); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	question, err := m.writableQuestion(CallUpsertAnswer, formID, code)
	if err != nil {
		return err
	}
	if err := model.ValidateAnswer(question.Type, value); err != nil {
		return NewError(CallUpsertAnswer, "invalid_value", err.Error())
	}
	question.Answer = value
	return nil
}

// UpsertTableRow implements RowWriter.
func (m *Memory) UpsertTableRow(ctx context.Context, formID, code string, rowIndex int, row map[string]any) error {
	if err := m.before(ctx, CallUpsertTableRow); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	question, err := m.writableQuestion(CallUpsertTableRow, formID, code)
	if err != nil {
		return err
	}
	if question.Type != model.TypeTable {
		return NewError(CallUpsertTableRow, "invalid_question", fmt.Sprintf("question %q is not a table", code))
	}
	if rowIndex < 0 {
		return NewError(CallUpsertTableRow, "invalid_row", "row index must be non-negative")
	}

	stored := model.TableRow{RowIndex: rowIndex, Row: row}.Clone()
	rows := append([]model.TableRow(nil), question.TableRows...)
	replaced := false
	for idx := range rows {
		if rows[idx].RowIndex == rowIndex {
			rows[idx] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, stored)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].RowIndex < rows[j].RowIndex })
	}
	question.TableRows = rows
	return nil
}

// SubmitForm implements Submitter. Required questions without an answer are
// reported as missing; otherwise the form flips to submitted.
func (m *Memory) SubmitForm(ctx context.Context, formID string) (SubmitResult, error) {
	if err := m.before(ctx, CallSubmitForm); err != nil {
		return SubmitResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seed, ok := m.forms[formID]
	if !ok {
		return SubmitResult{}, NewError(CallSubmitForm, "not_found", fmt.Sprintf("form %q not found", formID))
	}
	if seed.Payload.Form.Submitted() {
		return SubmitResult{}, NewError(CallSubmitForm, "already_submitted", "form already submitted")
	}

	var missing []string
	for _, code := range seed.Required {
		question, ok := seed.Payload.Question(code)
		if !ok || isBlank(question) {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return SubmitResult{OK: false, MissingRequired: MissingRequired{Total: len(missing), Codes: missing}}, nil
	}

	seed.Payload.Form.Status = model.StatusSubmitted
	return SubmitResult{OK: true}, nil
}

func (m *Memory) before(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	hook := m.hook
	var queued error
	if pending := m.failed[op]; len(pending) > 0 {
		queued = pending[0]
		m.failed[op] = pending[1:]
	}
	m.mu.Unlock()

	if queued != nil {
		return queued
	}
	if hook != nil {
		if err := hook(ctx, op); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (m *Memory) writableQuestion(op, formID, code string) (*model.Question, error) {
	seed, ok := m.forms[formID]
	if !ok {
		return nil, NewError(op, "not_found", fmt.Sprintf("form %q not found", formID))
	}
	if seed.Payload.Form.Submitted() {
		return nil, NewError(op, "form_locked", "form already submitted")
	}
	for idx := range seed.Payload.Questions {
		if seed.Payload.Questions[idx].Code == code {
			return &seed.Payload.Questions[idx], nil
		}
	}
	return nil, NewError(op, "not_found", fmt.Sprintf("question %q not found", code))
}

func isBlank(question model.Question) bool {
	switch value := question.Answer.(type) {
	case nil:
		return question.Type != model.TypeTable || len(question.TableRows) == 0
	case string:
		return strings.TrimSpace(value) == ""
	case []string:
		return len(value) == 0
	default:
		return false
	}
}

// clonePayload copies questions, options, rows and row maps so callers never
// share mutable state with the backend.
func clonePayload(src *model.Payload) *model.Payload {
	out := &model.Payload{Form: src.Form, Generation: src.Generation}
	if src.Form.Company != nil {
		company := *src.Form.Company
		out.Form.Company = &company
	}
	out.Questions = make([]model.Question, len(src.Questions))
	for idx, question := range src.Questions {
		clone := question
		clone.Options = append([]model.Option(nil), question.Options...)
		if values, ok := question.Answer.([]string); ok {
			clone.Answer = append([]string{}, values...)
		}
		if question.TableRows != nil {
			clone.TableRows = make([]model.TableRow, len(question.TableRows))
			for rowIdx, row := range question.TableRows {
				clone.TableRows[rowIdx] = row.Clone()
			}
		}
		out.Questions[idx] = clone
	}
	return out
}

type seedFile struct {
	Forms []struct {
		Required []string       `yaml:"required" json:"-"`
		Form     map[string]any `yaml:"form" json:"form"`
		Items    []any          `yaml:"questions" json:"questions"`
	} `yaml:"forms"`
}

// LoadSeeds decodes a YAML (or JSON) seed document:
//
//	forms:
//	  - form: {id: f-1, status: draft, company: Acme}
//	    required: [has_site]
//	    questions:
//	      - {code: has_site, type: boolean, label: "Has a website?"}
func LoadSeeds(r io.Reader) ([]Seed, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("remote: decode seeds: %w", err)
	}

	seeds := make([]Seed, 0, len(doc.Forms))
	for idx, entry := range doc.Forms {
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("remote: seed %d: %w", idx, err)
		}
		var payload model.Payload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("remote: seed %d: %w", idx, err)
		}
		if strings.TrimSpace(payload.Form.ID) == "" {
			return nil, fmt.Errorf("remote: seed %d: form id is required", idx)
		}
		if payload.Form.Status == "" {
			payload.Form.Status = model.StatusDraft
		}
		seeds = append(seeds, Seed{Payload: payload, Required: entry.Required})
	}
	return seeds, nil
}
