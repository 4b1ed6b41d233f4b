package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// QuestionType is the variant tag carried by every question.
type QuestionType string

const (
	TypeBoolean      QuestionType = "boolean"
	TypeSingleSelect QuestionType = "single_select"
	TypeMultiSelect  QuestionType = "multi_select"
	TypeDate         QuestionType = "date"
	TypeCurrency     QuestionType = "currency"
	TypeText         QuestionType = "text"
	TypeNumber       QuestionType = "number"
	TypeAttachment   QuestionType = "attachment"
	TypeTable        QuestionType = "table"
)

// Known reports whether the tag belongs to the supported variant set.
func (t QuestionType) Known() bool {
	switch t {
	case TypeBoolean, TypeSingleSelect, TypeMultiSelect, TypeDate, TypeCurrency,
		TypeText, TypeNumber, TypeAttachment, TypeTable:
		return true
	default:
		return false
	}
}

// FormStatus tracks the one-way draft -> submitted lifecycle owned by the
// remote service.
type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusSubmitted FormStatus = "submitted"
)

// Form carries the metadata returned alongside the questions.
type Form struct {
	ID      string          `json:"id"`
	Status  FormStatus      `json:"status"`
	Company *string         `json:"company,omitempty"`
	Contact json.RawMessage `json:"contact,omitempty"`
}

// CompanyName returns the company label or an empty string.
func (f Form) CompanyName() string {
	if f.Company == nil {
		return ""
	}
	return *f.Company
}

// Submitted reports whether the remote side already flipped the status.
func (f Form) Submitted() bool {
	return f.Status == StatusSubmitted
}

// Option is one selectable value of a choice question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// TableRow is one entry of a table question's repeating collection.
type TableRow struct {
	RowIndex int            `json:"row_index"`
	Row      map[string]any `json:"row"`
}

// Clone returns a row whose field map can be mutated without touching the
// receiver.
func (r TableRow) Clone() TableRow {
	out := TableRow{RowIndex: r.RowIndex, Row: make(map[string]any, len(r.Row))}
	for key, value := range r.Row {
		out.Row[key] = value
	}
	return out
}

// NextRowIndex returns max(index)+1, or 0 for an empty collection. Indices are
// never reused.
func NextRowIndex(rows []TableRow) int {
	next := 0
	for _, row := range rows {
		if row.RowIndex >= next {
			next = row.RowIndex + 1
		}
	}
	return next
}

// Currency is the canonical persisted shape of currency answers.
type Currency struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// Column describes one field of a table question's rows, read from
// config["columns"].
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Question is one schema-defined item. Answer holds the canonical Go value for
// the variant: bool, string, []string, Currency, float64, or nil.
type Question struct {
	Code      string         `json:"code"`
	Type      QuestionType   `json:"type"`
	Label     string         `json:"label"`
	Help      string         `json:"help,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
	Options   []Option       `json:"options,omitempty"`
	Answer    any            `json:"answer"`
	TableRows []TableRow     `json:"table_rows,omitempty"`
}

// SortedOptions returns the options ordered by Order, keeping the payload
// order for ties.
func (q Question) SortedOptions() []Option {
	if len(q.Options) == 0 {
		return nil
	}
	out := append([]Option(nil), q.Options...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// HasOption reports whether value is one of the question's option values.
func (q Question) HasOption(value string) bool {
	for _, option := range q.Options {
		if option.Value == value {
			return true
		}
	}
	return false
}

// ConfigString reads a string setting from Config.
func (q Question) ConfigString(key string) string {
	if q.Config == nil {
		return ""
	}
	if value, ok := q.Config[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// Columns decodes config["columns"]. Malformed entries are skipped.
func (q Question) Columns() []Column {
	raw, ok := q.Config["columns"].([]any)
	if !ok {
		return nil
	}
	out := make([]Column, 0, len(raw))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, _ := item["key"].(string)
		if strings.TrimSpace(key) == "" {
			continue
		}
		label, _ := item["label"].(string)
		kind, _ := item["type"].(string)
		if label == "" {
			label = key
		}
		if kind == "" {
			kind = "text"
		}
		out = append(out, Column{Key: key, Label: label, Type: kind})
	}
	return out
}

// UnmarshalJSON normalizes the raw answer according to the question type so
// Answer always satisfies ValidateAnswer.
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	var raw struct {
		alias
		Answer json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question(raw.alias)
	answer, err := DecodeAnswer(q.Type, raw.Answer)
	if err != nil {
		return fmt.Errorf("model: question %q: %w", q.Code, err)
	}
	q.Answer = answer
	return nil
}

// Payload is the aggregate returned by a full fetch. Generation is assigned by
// the session on every load so table editors can tell a reload apart from an
// answer commit.
type Payload struct {
	Form       Form       `json:"form"`
	Questions  []Question `json:"questions"`
	Generation uint64     `json:"-"`
}

// Question looks a question up by code.
func (p *Payload) Question(code string) (Question, bool) {
	if idx := p.indexOf(code); idx >= 0 {
		return p.Questions[idx], true
	}
	return Question{}, false
}

func (p *Payload) indexOf(code string) int {
	if p == nil {
		return -1
	}
	for idx := range p.Questions {
		if p.Questions[idx].Code == code {
			return idx
		}
	}
	return -1
}
