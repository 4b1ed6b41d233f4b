// Package remote is the boundary to the persistence service that owns forms,
// questions and answers. The engine only relies on the Client contract; the
// HTTP client, the in-memory backend and the stub handler in this package are
// interchangeable implementations of it.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// RPC call names shared by the HTTP client and the stub handler.
const (
	CallFetchPayload   = "get_form_payload"
	CallUpsertAnswer   = "upsert_answer"
	CallUpsertTableRow = "upsert_table_row"
	CallSubmitForm     = "submit_form"
)

// PayloadFetcher loads the full form payload.
type PayloadFetcher interface {
	FetchPayload(ctx context.Context, formID, lang string) (*model.Payload, error)
}

// AnswerWriter persists one question's answer.
type AnswerWriter interface {
	UpsertAnswer(ctx context.Context, formID, code string, value any) error
}

// RowWriter persists one table row.
type RowWriter interface {
	UpsertTableRow(ctx context.Context, formID, code string, rowIndex int, row map[string]any) error
}

// Submitter runs the remote submit action.
type Submitter interface {
	SubmitForm(ctx context.Context, formID string) (SubmitResult, error)
}

// Client is the four-call request/response boundary.
type Client interface {
	PayloadFetcher
	AnswerWriter
	RowWriter
	Submitter
}

// SubmitResult is the structured outcome of a submit call.
type SubmitResult struct {
	OK              bool            `json:"ok"`
	MissingRequired MissingRequired `json:"missing_required,omitempty"`
}

// MissingRequired describes unmet requirements. The service may report a bare
// count or the list of question codes.
type MissingRequired struct {
	Total int
	Codes []string
}

// Count returns the number of missing required answers.
func (m MissingRequired) Count() int {
	if m.Total > len(m.Codes) {
		return m.Total
	}
	return len(m.Codes)
}

// MarshalJSON emits the code list when known, the count otherwise.
func (m MissingRequired) MarshalJSON() ([]byte, error) {
	if len(m.Codes) > 0 {
		return json.Marshal(m.Codes)
	}
	return json.Marshal(m.Total)
}

// UnmarshalJSON accepts a number, a list of codes, or a list of objects with a
// "code" member.
func (m *MissingRequired) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*m = MissingRequired{}
		return nil
	}

	var total int
	if err := json.Unmarshal(data, &total); err == nil {
		*m = MissingRequired{Total: total}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("remote: missing_required: %w", err)
	}
	out := MissingRequired{Total: len(items)}
	for _, item := range items {
		var code string
		if err := json.Unmarshal(item, &code); err == nil {
			out.Codes = append(out.Codes, code)
			continue
		}
		var entry struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(item, &entry); err == nil && entry.Code != "" {
			out.Codes = append(out.Codes, entry.Code)
		}
	}
	*m = out
	return nil
}

// ErrRemote is matched by every *Error.
var ErrRemote = errors.New("remote: call failed")

// Error is the structured error message returned by a failed call.
type Error struct {
	Op      string `json:"-"`
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	cause   error
}

// NewError builds a structured error for op.
func NewError(op, code, message string) *Error {
	return &Error{Op: op, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return "(*remote.Error)(nil)"
	}
	var builder strings.Builder
	builder.WriteString("remote: ")
	builder.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&builder, " (status %d)", e.Status)
	}
	if e.Code != "" {
		builder.WriteString(" [")
		builder.WriteString(e.Code)
		builder.WriteString("]")
	}
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}
	if e.cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.cause.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrRemote}
	}
	return []error{ErrRemote, e.cause}
}
