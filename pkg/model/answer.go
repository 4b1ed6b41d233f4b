package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAnswerShape is returned when a value does not match what the question
// type prescribes.
var ErrAnswerShape = errors.New("model: answer shape does not match question type")

// DecodeAnswer converts a raw JSON answer into the canonical Go value for t.
// Unknown variants keep the generic decoded value so the fallback renderer can
// still show something.
func DecodeAnswer(t QuestionType, raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch t {
	case TypeBoolean:
		var out bool
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean", ErrAnswerShape, t)
		}
		return out, nil
	case TypeSingleSelect, TypeDate, TypeText:
		var out string
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %s expects a string", ErrAnswerShape, t)
		}
		return out, nil
	case TypeMultiSelect:
		var out []string
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %s expects a list of strings", ErrAnswerShape, t)
		}
		return out, nil
	case TypeCurrency:
		var out Currency
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %s expects {amount_cents, currency}", ErrAnswerShape, t)
		}
		return out, nil
	case TypeNumber:
		var out float64
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %s expects a number", ErrAnswerShape, t)
		}
		return out, nil
	default:
		var out any
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// ValidateAnswer checks that value matches the shape prescribed by t. Nil is
// valid for every variant.
func ValidateAnswer(t QuestionType, value any) error {
	if value == nil {
		return nil
	}
	ok := false
	switch t {
	case TypeBoolean:
		_, ok = value.(bool)
	case TypeSingleSelect, TypeDate, TypeText:
		_, ok = value.(string)
	case TypeMultiSelect:
		_, ok = value.([]string)
	case TypeCurrency:
		_, ok = value.(Currency)
	case TypeNumber:
		_, ok = value.(float64)
	case TypeAttachment, TypeTable:
		ok = false
	default:
		ok = false
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot hold %T", ErrAnswerShape, t, value)
	}
	return nil
}
