// Package tableedit edits the repeating rows of a table question. Rows are
// drafted locally and written one at a time; the draft is rebuilt whenever the
// session loads a new payload.
package tableedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
)

// ErrRowNotFound is returned for row indices missing from the draft.
var ErrRowNotFound = errors.New("tableedit: row not found")

// Option configures an Editor.
type Option func(*Editor)

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Editor owns the draft rows of one table question.
type Editor struct {
	mu         sync.Mutex
	writer     remote.RowWriter
	formID     string
	code       string
	label      string
	columns    []model.Column
	rows       []model.TableRow
	generation uint64
	attached   bool
	logger     *slog.Logger
}

// New creates an editor for the table question identified by code. Call
// Attach to initialize the draft.
func New(writer remote.RowWriter, formID, code string, options ...Option) *Editor {
	e := &Editor{
		writer: writer,
		formID: formID,
		code:   code,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Attach rebuilds the draft from payload when its generation differs from
// the one the draft was built from. It reports whether the draft changed.
// Answer commits keep the generation, so they never reset local edits.
func (e *Editor) Attach(payload *model.Payload) bool {
	if payload == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attached && payload.Generation == e.generation {
		return false
	}
	question, _ := payload.Question(e.code)
	e.label = question.Label
	e.columns = question.Columns()
	e.rows = cloneRows(question.TableRows)
	sort.SliceStable(e.rows, func(i, j int) bool { return e.rows[i].RowIndex < e.rows[j].RowIndex })
	e.generation = payload.Generation
	e.attached = true
	return true
}

// Code returns the table question code.
func (e *Editor) Code() string {
	return e.code
}

// Label returns the question label captured on the last Attach.
func (e *Editor) Label() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.label
}

// Columns returns the declared row fields; empty when config has none.
func (e *Editor) Columns() []model.Column {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Column(nil), e.columns...)
}

// Rows returns a deep copy of the draft.
func (e *Editor) Rows() []model.TableRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRows(e.rows)
}

// Row returns a copy of the draft row with the given index.
func (e *Editor) Row(index int) (model.TableRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pos := e.position(index); pos >= 0 {
		return e.rows[pos].Clone(), true
	}
	return model.TableRow{}, false
}

// AddRow persists an empty row at the next index and appends it to the draft
// once the write succeeded. A failed write is logged and leaves the draft
// untouched; the caller only learns about it through the false return.
func (e *Editor) AddRow(ctx context.Context) (model.TableRow, bool) {
	e.mu.Lock()
	index := model.NextRowIndex(e.rows)
	e.mu.Unlock()

	if err := e.writer.UpsertTableRow(ctx, e.formID, e.code, index, map[string]any{}); err != nil {
		e.logger.Warn("add table row failed", "form_id", e.formID, "code", e.code, "row_index", index, "error", err)
		return model.TableRow{}, false
	}

	row := model.TableRow{RowIndex: index, Row: map[string]any{}}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.position(index) < 0 {
		e.rows = append(e.rows, row)
	}
	return row.Clone(), true
}

// UpdateField sets key on the draft row. Nothing is persisted until SaveRow.
func (e *Editor) UpdateField(index int, key string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.position(index)
	if pos < 0 {
		return fmt.Errorf("%w: %d", ErrRowNotFound, index)
	}
	if e.rows[pos].Row == nil {
		e.rows[pos].Row = map[string]any{}
	}
	e.rows[pos].Row[key] = value
	return nil
}

// SaveRow writes the current draft of the row. The draft is left as is
// whether the write succeeds or not.
func (e *Editor) SaveRow(ctx context.Context, index int) error {
	row, ok := e.Row(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrRowNotFound, index)
	}
	if err := e.writer.UpsertTableRow(ctx, e.formID, e.code, row.RowIndex, row.Row); err != nil {
		e.logger.Warn("save table row failed", "form_id", e.formID, "code", e.code, "row_index", index, "error", err)
		return fmt.Errorf("tableedit: save row %d: %w", index, err)
	}
	return nil
}

func (e *Editor) position(index int) int {
	for pos := range e.rows {
		if e.rows[pos].RowIndex == index {
			return pos
		}
	}
	return -1
}

func cloneRows(rows []model.TableRow) []model.TableRow {
	out := make([]model.TableRow, len(rows))
	for idx, row := range rows {
		out[idx] = row.Clone()
	}
	return out
}
