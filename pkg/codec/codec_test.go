package codec_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
)

func channelsQuestion(answer []string) model.Question {
	return model.Question{
		Code: "channels",
		Type: model.TypeMultiSelect,
		Options: []model.Option{
			{Value: "web", Label: "Web", Order: 1},
			{Value: "store", Label: "Store", Order: 2},
			{Value: "phone", Label: "Phone", Order: 3},
			{Value: "mail", Label: "Mail", Order: 4},
		},
		Answer: answer,
	}
}

func TestCurrencyRoundTrip(t *testing.T) {
	q := model.Question{Code: "revenue", Type: model.TypeCurrency}

	value, err := codec.Encode(q, codec.TextInput("12,50"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := model.Currency{AmountCents: 1250, Currency: "BRL"}
	if diff := cmp.Diff(want, value); diff != "" {
		t.Fatalf("persisted mismatch (-want +got):\n%s", diff)
	}

	q.Answer = value
	if got := codec.Decode(q).Text; got != "12,50" {
		t.Fatalf("expected display 12,50, got %q", got)
	}
}

func TestEncodeCurrencyParsing(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		config map[string]any
		want   model.Currency
	}{
		{name: "grouping removed first", input: "1.234,56", want: model.Currency{AmountCents: 123456, Currency: "BRL"}},
		{name: "integer", input: "10", want: model.Currency{AmountCents: 1000, Currency: "BRL"}},
		{name: "empty", input: "", want: model.Currency{AmountCents: 0, Currency: "BRL"}},
		{name: "garbage", input: "abc", want: model.Currency{AmountCents: 0, Currency: "BRL"}},
		{name: "rounding", input: "0,005", want: model.Currency{AmountCents: 1, Currency: "BRL"}},
		{name: "configured currency", input: "3,10", config: map[string]any{"currency": "USD"}, want: model.Currency{AmountCents: 310, Currency: "USD"}},
		{name: "beyond int64 cents", input: "99.999.999.999.999.999.999,00", want: model.Currency{AmountCents: 0, Currency: "BRL"}},
		{name: "exponent overflow", input: "1e30", want: model.Currency{AmountCents: 0, Currency: "BRL"}},
		{name: "negative overflow", input: "-1e30", want: model.Currency{AmountCents: 0, Currency: "BRL"}},
		{name: "largest kept", input: "90.000.000.000.000.000,00", want: model.Currency{AmountCents: 9000000000000000000, Currency: "BRL"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := model.Question{Type: model.TypeCurrency, Config: tc.config}
			got := codec.EncodeCurrency(q, tc.input)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("currency mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "0,00"},
		{cents: 5, want: "0,05"},
		{cents: 1250, want: "12,50"},
		{cents: 123456, want: "1.234,56"},
		{cents: 100000000, want: "1.000.000,00"},
		{cents: -123456789, want: "-1.234.567,89"},
		{cents: math.MaxInt64, want: "92.233.720.368.547.758,07"},
		{cents: math.MinInt64, want: "-92.233.720.368.547.758,08"},
	}
	for _, tc := range cases {
		if got := codec.FormatCurrency(tc.cents); got != tc.want {
			t.Fatalf("FormatCurrency(%d): want %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestRoundTripPerVariant(t *testing.T) {
	cases := []model.Question{
		{Code: "b", Type: model.TypeBoolean, Answer: true},
		{Code: "b2", Type: model.TypeBoolean, Answer: false},
		{Code: "s", Type: model.TypeSingleSelect, Options: []model.Option{{Value: "x"}, {Value: "y"}}, Answer: "y"},
		{Code: "d", Type: model.TypeDate, Answer: "2024-02-29"},
		{Code: "c", Type: model.TypeCurrency, Answer: model.Currency{AmountCents: 987654, Currency: "BRL"}},
		{Code: "t", Type: model.TypeText, Answer: "  keep my spaces "},
		{Code: "n", Type: model.TypeNumber, Answer: 3.25},
	}
	for _, q := range cases {
		t.Run(q.Code, func(t *testing.T) {
			display := codec.Decode(q)
			got, err := codec.Encode(q, codec.TextInput(display.Text))
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if diff := cmp.Diff(q.Answer, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}

	multi := channelsQuestion([]string{"store", "web"})
	display := codec.Decode(multi)
	got, err := codec.Encode(multi, codec.Input{Values: display.Selected})
	if err != nil {
		t.Fatalf("encode multi: %v", err)
	}
	if diff := cmp.Diff([]string{"web", "store"}, got); diff != "" {
		t.Fatalf("multi round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNumberEncoding(t *testing.T) {
	q := model.Question{Type: model.TypeNumber}

	value, err := codec.Encode(q, codec.TextInput("   "))
	if err != nil || value != nil {
		t.Fatalf("expected nil for empty input, got %#v (%v)", value, err)
	}

	value, err = codec.Encode(q, codec.TextInput("42.5"))
	if err != nil || value != 42.5 {
		t.Fatalf("expected 42.5, got %#v (%v)", value, err)
	}

	if _, err := codec.Encode(q, codec.TextInput("forty")); !errors.Is(err, codec.ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestToggleKeepsOtherSelections(t *testing.T) {
	q := channelsQuestion([]string{"mail", "web", "phone"})

	value, err := codec.Encode(q, codec.Input{Toggle: &codec.Toggle{Value: "store", Checked: true}})
	if err != nil {
		t.Fatalf("encode toggle: %v", err)
	}
	if diff := cmp.Diff([]string{"web", "store", "phone", "mail"}, value); diff != "" {
		t.Fatalf("toggle on mismatch (-want +got):\n%s", diff)
	}

	value, err = codec.Encode(q, codec.Input{Toggle: &codec.Toggle{Value: "web", Checked: false}})
	if err != nil {
		t.Fatalf("encode toggle: %v", err)
	}
	if diff := cmp.Diff([]string{"phone", "mail"}, value); diff != "" {
		t.Fatalf("toggle off mismatch (-want +got):\n%s", diff)
	}

	got := codec.ToggleOption(q, []string{"legacy", "web"}, "phone", true)
	if diff := cmp.Diff([]string{"web", "phone", "legacy"}, got); diff != "" {
		t.Fatalf("unknown values should trail known ones (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		q    model.Question
		in   codec.Input
		want error
	}{
		{name: "boolean", q: model.Question{Type: model.TypeBoolean}, in: codec.TextInput("maybe"), want: codec.ErrInvalidBoolean},
		{name: "single option", q: model.Question{Type: model.TypeSingleSelect, Options: []model.Option{{Value: "a"}}}, in: codec.TextInput("z"), want: codec.ErrUnknownOption},
		{name: "multi option", q: channelsQuestion(nil), in: codec.Input{Values: []string{"fax"}}, want: codec.ErrUnknownOption},
		{name: "attachment", q: model.Question{Type: model.TypeAttachment}, want: codec.ErrNoPersistPath},
		{name: "table", q: model.Question{Type: model.TypeTable}, want: codec.ErrTableVariant},
		{name: "unknown tag", q: model.Question{Type: "hologram"}, want: codec.ErrUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Encode(tc.q, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTextIsNotTrimmed(t *testing.T) {
	value, err := codec.Encode(model.Question{Type: model.TypeText}, codec.TextInput("  padded  "))
	if err != nil || value != "  padded  " {
		t.Fatalf("expected verbatim text, got %#v (%v)", value, err)
	}
}

func TestBooleanDisplay(t *testing.T) {
	display := codec.Decode(model.Question{Type: model.TypeBoolean})
	if display.Bool != nil {
		t.Fatalf("expected no selection for nil answer")
	}
	display = codec.Decode(model.Question{Type: model.TypeBoolean, Answer: false})
	if display.Bool == nil || *display.Bool {
		t.Fatalf("expected false selection, got %#v", display.Bool)
	}
}
