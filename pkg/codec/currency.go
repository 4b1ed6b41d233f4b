package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// ParseDecimal reads a localized decimal string ("1.234,56"): grouping dots
// are removed before the decimal comma becomes a dot. Empty or non-numeric
// input yields 0.
func ParseDecimal(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// EncodeCurrency converts a display string into minor units, taking the
// currency code from config["currency"] or DefaultCurrency. Amounts whose
// minor units do not fit an int64 count as non-numeric.
func EncodeCurrency(q model.Question, raw string) model.Currency {
	code := q.ConfigString("currency")
	if code == "" {
		code = DefaultCurrency
	}
	return model.Currency{AmountCents: toCents(ParseDecimal(raw)), Currency: code}
}

func toCents(value float64) int64 {
	cents := math.Round(value * 100)
	if math.Abs(cents) >= math.MaxInt64 {
		return 0
	}
	return int64(cents)
}

// FormatCurrency renders minor units as "1.234,56".
func FormatCurrency(cents int64) string {
	negative := cents < 0
	magnitude := uint64(cents)
	if negative {
		magnitude = uint64(-(cents + 1)) + 1
	}
	units := strconv.FormatUint(magnitude/100, 10)
	fraction := magnitude % 100

	var builder strings.Builder
	if negative {
		builder.WriteByte('-')
	}
	for idx, digit := range units {
		if idx > 0 && (len(units)-idx)%3 == 0 {
			builder.WriteByte('.')
		}
		builder.WriteRune(digit)
	}
	builder.WriteByte(',')
	if fraction < 10 {
		builder.WriteByte('0')
	}
	builder.WriteString(strconv.FormatUint(fraction, 10))
	return builder.String()
}
