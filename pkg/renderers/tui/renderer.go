package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/answersync"
	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
)

// TextName is the registry name of the plain-text renderer.
const TextName = "text"

// Renderer prints a plain-text summary of the form. The runner shows it
// before every menu and it also serves non-interactive callers.
type Renderer struct {
	theme Theme
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer constructs the summary renderer.
func NewRenderer(theme Theme) *Renderer {
	return &Renderer{theme: theme}
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return TextName
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render writes the summary. A load error replaces the question list.
func (r *Renderer) Render(ctx context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locale := options.LocaleFor(view)

	var b strings.Builder
	b.WriteString(options.T(locale, "form.title"))
	b.WriteByte('\n')
	if !view.Notice.Empty() {
		prefix := r.theme.InfoPrefix
		if view.Notice.Level == render.NoticeError {
			prefix = r.theme.ErrorPrefix
		}
		fmt.Fprintf(&b, "%s%s\n", prefix, view.Notice.Text(options, locale))
	}
	if view.Err != nil {
		fmt.Fprintf(&b, "%s%s\n", r.theme.ErrorPrefix, options.T(locale, "form.load_error"))
		return []byte(b.String()), nil
	}
	if company := view.Company(); company != "" {
		fmt.Fprintf(&b, "%s: %s\n", options.T(locale, "company.label"), company)
	}
	if view.Submitted() {
		b.WriteString(options.T(locale, "form.status_submitted"))
		b.WriteByte('\n')
	}

	summary := summarizer{view: view, options: options, locale: locale}
	for idx, question := range view.Questions() {
		fmt.Fprintf(&b, "\n%d. %s", idx+1, question.Label)
		if label := stateLabel(view, question.Code, options, locale); label != "" {
			fmt.Fprintf(&b, " [%s]", label)
		}
		b.WriteByte('\n')
		for _, line := range model.Dispatch[[]string](question, summary) {
			fmt.Fprintf(&b, "   %s\n", line)
		}
	}
	return []byte(b.String()), nil
}

func stateLabel(view render.View, code string, options render.RenderOptions, locale string) string {
	switch state := view.FieldState(code).State; state {
	case answersync.Pending, answersync.Committed, answersync.Failed:
		return options.T(locale, "state."+state.String())
	default:
		return ""
	}
}

// summarizer describes each variant's answer in display form.
type summarizer struct {
	view    render.View
	options render.RenderOptions
	locale  string
}

func (s summarizer) Boolean(q model.Question) []string {
	display := codec.Decode(q)
	if display.Bool == nil {
		return nil
	}
	return []string{s.options.T(s.locale, fmt.Sprintf("boolean.%t", *display.Bool))}
}

func (s summarizer) SingleSelect(q model.Question) []string {
	return s.selection(q)
}

func (s summarizer) MultiSelect(q model.Question) []string {
	return s.selection(q)
}

func (s summarizer) Date(q model.Question) []string {
	return textLine(codec.Decode(q).Text)
}

func (s summarizer) Currency(q model.Question) []string {
	text := codec.Decode(q).Text
	if text == "" {
		return nil
	}
	currency := q.ConfigString("currency")
	if currency == "" {
		currency = codec.DefaultCurrency
	}
	return []string{text + " " + currency}
}

func (s summarizer) Text(q model.Question) []string {
	return textLine(codec.Decode(q).Text)
}

func (s summarizer) Number(q model.Question) []string {
	return textLine(codec.Decode(q).Text)
}

func (s summarizer) Attachment(q model.Question) []string {
	lines := textLine(codec.Decode(q).Text)
	return append(lines, s.options.T(s.locale, "question.attachment"))
}

func (s summarizer) Table(q model.Question) []string {
	draft := s.view.Table(q)
	if len(draft.Rows) == 0 {
		return []string{s.options.T(s.locale, "table.empty")}
	}
	lines := make([]string, 0, len(draft.Rows))
	for _, row := range draft.Rows {
		lines = append(lines, s.options.T(s.locale, "table.row", row.RowIndex)+": "+rowSummary(draft.Columns, row))
	}
	return lines
}

func (s summarizer) Unsupported(q model.Question) []string {
	return []string{s.options.T(s.locale, "question.unsupported", string(q.Type))}
}

func (s summarizer) selection(q model.Question) []string {
	display := codec.Decode(q)
	if len(display.Selected) == 0 {
		return nil
	}
	labels := make([]string, 0, len(display.Selected))
	for _, option := range q.SortedOptions() {
		if display.IsSelected(option.Value) {
			labels = append(labels, optionLabel(option))
		}
	}
	return []string{strings.Join(labels, ", ")}
}

func textLine(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

func optionLabel(option model.Option) string {
	if strings.TrimSpace(option.Label) == "" {
		return option.Value
	}
	return option.Label
}

func rowSummary(columns []model.Column, row model.TableRow) string {
	keys := rowKeys(columns, row)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value, ok := row.Row[key]
		if !ok || value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return strings.Join(parts, ", ")
}

// rowKeys lists the declared columns, or the row's own keys for free-form
// tables.
func rowKeys(columns []model.Column, row model.TableRow) []string {
	if len(columns) > 0 {
		keys := make([]string, 0, len(columns))
		for _, column := range columns {
			keys = append(keys, column.Key)
		}
		return keys
	}
	keys := make([]string, 0, len(row.Row))
	for key := range row.Row {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
