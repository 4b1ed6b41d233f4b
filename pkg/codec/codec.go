// Package codec translates between the display values a widget edits and the
// canonical answers persisted for each question variant. Every function is
// pure.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

var (
	// ErrInvalidBoolean is returned when a boolean selection is neither true
	// nor false.
	ErrInvalidBoolean = errors.New("codec: invalid boolean selection")
	// ErrInvalidNumber is returned for non-empty input that does not parse.
	ErrInvalidNumber = errors.New("codec: invalid number")
	// ErrUnknownOption is returned when a choice is not in the option list.
	ErrUnknownOption = errors.New("codec: unknown option")
	// ErrNoPersistPath marks variants that render without a persistence path.
	ErrNoPersistPath = errors.New("codec: variant has no persistence path")
	// ErrTableVariant signals that table answers are owned by the table editor.
	ErrTableVariant = errors.New("codec: table answers are edited row by row")
	// ErrUnsupported is returned for unknown type tags.
	ErrUnsupported = errors.New("codec: unsupported question type")
)

// DefaultCurrency applies when a currency question has no config["currency"].
const DefaultCurrency = "BRL"

// Toggle flips a single option of a multi-select question.
type Toggle struct {
	Value   string
	Checked bool
}

// Input is one user edit as captured by a widget. Text carries the raw display
// string; Values replaces a multi-select selection; Toggle flips one option of
// the current selection.
type Input struct {
	Text   string
	Values []string
	Toggle *Toggle
}

// TextInput wraps a raw display string.
func TextInput(text string) Input {
	return Input{Text: text}
}

// Display is the widget-facing state of a question's answer.
type Display struct {
	Text     string
	Selected []string
	Bool     *bool
}

// IsSelected reports whether value is part of the selection.
func (d Display) IsSelected(value string) bool {
	for _, selected := range d.Selected {
		if selected == value {
			return true
		}
	}
	return false
}

// Encode normalizes a widget edit into the persisted value for q.
func Encode(q model.Question, in Input) (any, error) {
	result := model.Dispatch[encoded](q, encoder{in: in})
	return result.value, result.err
}

// Decode derives the display state from q's current answer.
func Decode(q model.Question) Display {
	return model.Dispatch[Display](q, decoder{})
}

type encoded struct {
	value any
	err   error
}

type encoder struct {
	in Input
}

func (e encoder) Boolean(model.Question) encoded {
	value, err := ParseBoolean(e.in.Text)
	return encoded{value: value, err: err}
}

func (e encoder) SingleSelect(q model.Question) encoded {
	if !q.HasOption(e.in.Text) {
		return encoded{err: fmt.Errorf("%w: %q", ErrUnknownOption, e.in.Text)}
	}
	return encoded{value: e.in.Text}
}

func (e encoder) MultiSelect(q model.Question) encoded {
	if e.in.Toggle != nil {
		current, _ := q.Answer.([]string)
		return encoded{value: ToggleOption(q, current, e.in.Toggle.Value, e.in.Toggle.Checked)}
	}
	for _, value := range e.in.Values {
		if !q.HasOption(value) {
			return encoded{err: fmt.Errorf("%w: %q", ErrUnknownOption, value)}
		}
	}
	return encoded{value: OrderSelection(q, e.in.Values)}
}

func (e encoder) Date(model.Question) encoded {
	return encoded{value: e.in.Text}
}

func (e encoder) Currency(q model.Question) encoded {
	return encoded{value: EncodeCurrency(q, e.in.Text)}
}

func (e encoder) Text(model.Question) encoded {
	return encoded{value: e.in.Text}
}

func (e encoder) Number(model.Question) encoded {
	value, err := ParseNumber(e.in.Text)
	if err != nil {
		return encoded{err: err}
	}
	if value == nil {
		return encoded{}
	}
	return encoded{value: *value}
}

func (e encoder) Attachment(model.Question) encoded {
	return encoded{err: ErrNoPersistPath}
}

func (e encoder) Table(model.Question) encoded {
	return encoded{err: ErrTableVariant}
}

func (e encoder) Unsupported(q model.Question) encoded {
	return encoded{err: fmt.Errorf("%w: %q", ErrUnsupported, q.Type)}
}

type decoder struct{}

func (decoder) Boolean(q model.Question) Display {
	value, ok := q.Answer.(bool)
	if !ok {
		return Display{}
	}
	return Display{Bool: &value, Text: strconv.FormatBool(value)}
}

func (decoder) SingleSelect(q model.Question) Display {
	value, _ := q.Answer.(string)
	if value == "" {
		return Display{}
	}
	return Display{Text: value, Selected: []string{value}}
}

func (decoder) MultiSelect(q model.Question) Display {
	values, _ := q.Answer.([]string)
	return Display{Selected: OrderSelection(q, values)}
}

func (decoder) Date(q model.Question) Display {
	value, _ := q.Answer.(string)
	return Display{Text: value}
}

func (decoder) Currency(q model.Question) Display {
	value, ok := q.Answer.(model.Currency)
	if !ok {
		return Display{}
	}
	return Display{Text: FormatCurrency(value.AmountCents)}
}

func (decoder) Text(q model.Question) Display {
	value, _ := q.Answer.(string)
	return Display{Text: value}
}

func (decoder) Number(q model.Question) Display {
	value, ok := q.Answer.(float64)
	if !ok {
		return Display{}
	}
	return Display{Text: FormatNumber(value)}
}

func (decoder) Attachment(q model.Question) Display {
	if q.Answer == nil {
		return Display{}
	}
	return Display{Text: fmt.Sprint(q.Answer)}
}

func (decoder) Table(model.Question) Display {
	return Display{}
}

func (decoder) Unsupported(q model.Question) Display {
	if q.Answer == nil {
		return Display{}
	}
	return Display{Text: fmt.Sprint(q.Answer)}
}

// ParseBoolean accepts true/false plus the yes/no words used by the
// front-ends.
func ParseBoolean(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "sim", "yes", "s", "y":
		return true, nil
	case "false", "não", "nao", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBoolean, raw)
	}
}

// ParseNumber returns nil for empty input and the parsed value otherwise.
func ParseNumber(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return &value, nil
}

// FormatNumber renders a number answer without trailing zeros.
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
