package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

const payloadJSON = `{
  "form": {"id": "f-1", "status": "draft", "company": "Acme"},
  "questions": [
    {"code": "has_site", "type": "boolean", "label": "Has site?", "answer": null},
    {"code": "revenue", "type": "currency", "label": "Revenue", "answer": {"amount_cents": 1250, "currency": "BRL"}},
    {"code": "channels", "type": "multi_select", "label": "Channels",
     "options": [{"value": "b", "label": "B", "order": 2}, {"value": "a", "label": "A", "order": 1}],
     "answer": ["a", "b"]},
    {"code": "headcount", "type": "number", "label": "Headcount", "answer": 12},
    {"code": "suppliers", "type": "table", "label": "Suppliers",
     "table_rows": [{"row_index": 0, "row": {"name": "Acme"}}]},
    {"code": "mystery", "type": "hologram", "label": "???", "answer": {"x": 1}}
  ]
}`

func TestPayloadUnmarshalNormalizesAnswers(t *testing.T) {
	var payload model.Payload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if got := payload.Form.CompanyName(); got != "Acme" {
		t.Fatalf("expected company Acme, got %q", got)
	}

	want := map[string]any{
		"has_site":  nil,
		"revenue":   model.Currency{AmountCents: 1250, Currency: "BRL"},
		"channels":  []string{"a", "b"},
		"headcount": float64(12),
		"suppliers": nil,
		"mystery":   map[string]any{"x": float64(1)},
	}
	if diff := cmp.Diff(want, payload.Answers()); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}

	suppliers, ok := payload.Question("suppliers")
	if !ok {
		t.Fatalf("expected suppliers question")
	}
	if len(suppliers.TableRows) != 1 || suppliers.TableRows[0].Row["name"] != "Acme" {
		t.Fatalf("unexpected table rows: %#v", suppliers.TableRows)
	}
}

func TestQuestionUnmarshalRejectsMismatchedShape(t *testing.T) {
	var q model.Question
	err := json.Unmarshal([]byte(`{"code": "x", "type": "boolean", "answer": "yes"}`), &q)
	if !errors.Is(err, model.ErrAnswerShape) {
		t.Fatalf("expected ErrAnswerShape, got %v", err)
	}
}

func TestWithAnswerSharesUntouchedQuestions(t *testing.T) {
	var payload model.Payload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	before := &payload

	next, ok := before.WithAnswer("has_site", true)
	if !ok {
		t.Fatalf("expected question to be found")
	}
	if next == before {
		t.Fatalf("expected a new snapshot")
	}
	if before.Questions[0].Answer != nil {
		t.Fatalf("previous snapshot was mutated: %#v", before.Questions[0].Answer)
	}
	if next.Questions[0].Answer != true {
		t.Fatalf("expected committed answer true, got %#v", next.Questions[0].Answer)
	}
	if &next.Questions[4].TableRows[0] != &before.Questions[4].TableRows[0] {
		t.Fatalf("expected table rows to be shared between snapshots")
	}

	same, ok := before.WithAnswer("missing", "x")
	if ok || same != before {
		t.Fatalf("expected unchanged snapshot for unknown code")
	}
}

func TestNextRowIndex(t *testing.T) {
	cases := []struct {
		name string
		rows []model.TableRow
		want int
	}{
		{name: "empty", rows: nil, want: 0},
		{name: "dense", rows: []model.TableRow{{RowIndex: 0}, {RowIndex: 1}}, want: 2},
		{name: "gap", rows: []model.TableRow{{RowIndex: 0}, {RowIndex: 1}, {RowIndex: 3}}, want: 4},
		{name: "unordered", rows: []model.TableRow{{RowIndex: 5}, {RowIndex: 2}}, want: 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := model.NextRowIndex(tc.rows); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestSortedOptionsIsStable(t *testing.T) {
	q := model.Question{Options: []model.Option{
		{Value: "c", Order: 2},
		{Value: "a", Order: 1},
		{Value: "b", Order: 1},
	}}
	var got []string
	for _, option := range q.SortedOptions() {
		got = append(got, option.Value)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("option order mismatch (-want +got):\n%s", diff)
	}
}

type tagVisitor struct{}

func (tagVisitor) Boolean(model.Question) string      { return "boolean" }
func (tagVisitor) SingleSelect(model.Question) string { return "single" }
func (tagVisitor) MultiSelect(model.Question) string  { return "multi" }
func (tagVisitor) Date(model.Question) string         { return "date" }
func (tagVisitor) Currency(model.Question) string     { return "currency" }
func (tagVisitor) Text(model.Question) string         { return "text" }
func (tagVisitor) Number(model.Question) string       { return "number" }
func (tagVisitor) Attachment(model.Question) string   { return "attachment" }
func (tagVisitor) Table(model.Question) string        { return "table" }
func (tagVisitor) Unsupported(model.Question) string  { return "unsupported" }

func TestDispatchRoutesUnknownTagsToUnsupported(t *testing.T) {
	if got := model.Dispatch[string](model.Question{Type: model.TypeTable}, tagVisitor{}); got != "table" {
		t.Fatalf("expected table arm, got %q", got)
	}
	if got := model.Dispatch[string](model.Question{Type: "hologram"}, tagVisitor{}); got != "unsupported" {
		t.Fatalf("expected unsupported arm, got %q", got)
	}
}

func TestColumnsSkipsMalformedEntries(t *testing.T) {
	q := model.Question{Config: map[string]any{
		"columns": []any{
			map[string]any{"key": "name", "label": "Nome"},
			map[string]any{"label": "no key"},
			"junk",
			map[string]any{"key": "active", "type": "boolean"},
		},
	}}
	want := []model.Column{
		{Key: "name", Label: "Nome", Type: "text"},
		{Key: "active", Label: "active", Type: "boolean"},
	}
	if diff := cmp.Diff(want, q.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}
