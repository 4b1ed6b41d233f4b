// Package html renders a questionnaire view as a server-side HTML page. Every
// question becomes a small form posting back to the web front-end, so the
// page works without client-side scripting.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/answersync"
	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
	rendertemplate "github.com/goliatone/go-questionnaire/pkg/render/template"
	"github.com/goliatone/go-questionnaire/pkg/render/template/pongo"
)

// Name is the registry name of the renderer.
const Name = "html"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templatesDir     string
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers a directory on disk over the bundled templates.
// It mirrors the bundle layout (templates/page.tpl, templates/widgets/*.tpl);
// files it lacks come from the bundle.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = path
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer implements render.Renderer for browsers.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(pongo.WithFS(cfg.templateFS), pongo.WithBaseDir(cfg.templatesDir))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the full page. A load error replaces the whole form.
func (r *Renderer) Render(_ context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	locale := options.LocaleFor(view)
	page := map[string]any{
		"lang":   locale,
		"title":  options.T(locale, "form.title"),
		"notice": noticeData(view.Notice, options, locale),
	}
	for name, fn := range render.TemplateFuncs(options, locale) {
		page[name] = fn
	}

	if view.Err != nil {
		page["load_error"] = options.T(locale, "form.load_error")
		return r.page(page)
	}

	hidden := render.SortedHiddenFields(options.Hidden)
	widgets := make([]string, 0, len(view.Questions()))
	for _, question := range view.Questions() {
		markup, err := r.renderQuestion(view, options, locale, hidden, question)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, markup)
	}

	page["company"] = view.Company()
	page["submitted"] = view.Submitted()
	page["questions"] = widgets
	page["can_submit"] = view.CanSubmit
	page["submit_action"] = options.ActionBase + "/submit"
	page["hidden"] = hidden
	return r.page(page)
}

func (r *Renderer) page(data map[string]any) ([]byte, error) {
	result, err := r.templates.RenderTemplate("templates/page", data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render page: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) renderQuestion(view render.View, options render.RenderOptions, locale string, hidden []render.HiddenField, q model.Question) (string, error) {
	w := model.Dispatch[widget](q, widgetBuilder{view: view, options: options, locale: locale})

	state := view.FieldState(q.Code)
	w.data["code"] = q.Code
	w.data["label"] = q.Label
	w.data["help"] = sanitizeHelp(q.Help)
	w.data["action"] = options.ActionBase + "/answers/" + url.PathEscape(q.Code)
	w.data["hidden"] = hidden
	w.data["state"] = state.State.String()
	w.data["state_label"] = stateLabel(state, options, locale)
	w.data["translate"] = render.TemplateFuncs(options, locale)["translate"]

	result, err := r.templates.RenderTemplate("templates/widgets/"+w.template, w.data)
	if err != nil {
		return "", fmt.Errorf("html renderer: render %s widget for %q: %w", w.template, q.Code, err)
	}
	return result, nil
}

func stateLabel(state answersync.FieldState, options render.RenderOptions, locale string) string {
	switch state.State {
	case answersync.Pending:
		return options.T(locale, "state.pending")
	case answersync.Committed:
		return options.T(locale, "state.committed")
	case answersync.Failed:
		return options.T(locale, "state.failed")
	default:
		return ""
	}
}

func noticeData(notice render.Notice, options render.RenderOptions, locale string) map[string]any {
	if notice.Empty() {
		return nil
	}
	return map[string]any{
		"level": string(notice.Level),
		"text":  notice.Text(options, locale),
	}
}

type widget struct {
	template string
	data     map[string]any
}

// widgetBuilder maps each question variant to its template and data.
type widgetBuilder struct {
	view    render.View
	options render.RenderOptions
	locale  string
}

func (b widgetBuilder) Boolean(q model.Question) widget {
	display := codec.Decode(q)
	options := make([]map[string]any, 0, 2)
	for _, value := range []bool{true, false} {
		options = append(options, map[string]any{
			"value":   strconv.FormatBool(value),
			"label":   b.options.T(b.locale, "boolean."+strconv.FormatBool(value)),
			"checked": display.Bool != nil && *display.Bool == value,
		})
	}
	return widget{template: "boolean", data: map[string]any{"options": options, "save": b.options.T(b.locale, "question.save")}}
}

func (b widgetBuilder) SingleSelect(q model.Question) widget {
	display := codec.Decode(q)
	return widget{template: "single_select", data: map[string]any{
		"options":       optionData(q, display),
		"has_selection": len(display.Selected) > 0,
		"placeholder":   b.options.T(b.locale, "question.select_placeholder"),
		"save":          b.options.T(b.locale, "question.save"),
	}}
}

func (b widgetBuilder) MultiSelect(q model.Question) widget {
	display := codec.Decode(q)
	return widget{template: "multi_select", data: map[string]any{
		"options": optionData(q, display),
		"save":    b.options.T(b.locale, "question.save"),
	}}
}

func (b widgetBuilder) Date(q model.Question) widget {
	return b.input(q, "date")
}

func (b widgetBuilder) Currency(q model.Question) widget {
	w := b.input(q, "text")
	currency := q.ConfigString("currency")
	if currency == "" {
		currency = codec.DefaultCurrency
	}
	w.data["suffix"] = currency
	w.data["inputmode"] = "decimal"
	return w
}

func (b widgetBuilder) Text(q model.Question) widget {
	return widget{template: "text", data: map[string]any{
		"value": codec.Decode(q).Text,
		"save":  b.options.T(b.locale, "question.save"),
	}}
}

func (b widgetBuilder) Number(q model.Question) widget {
	w := b.input(q, "number")
	w.data["step"] = "any"
	return w
}

func (b widgetBuilder) Attachment(q model.Question) widget {
	return widget{template: "attachment", data: map[string]any{
		"value": codec.Decode(q).Text,
		"note":  b.options.T(b.locale, "question.attachment"),
	}}
}

func (b widgetBuilder) Table(q model.Question) widget {
	draft := b.view.Table(q)
	base := b.options.ActionBase + "/tables/" + url.PathEscape(q.Code) + "/rows"

	rows := make([]map[string]any, 0, len(draft.Rows))
	for _, row := range draft.Rows {
		rows = append(rows, map[string]any{
			"index":  row.RowIndex,
			"title":  b.options.T(b.locale, "table.row", row.RowIndex),
			"action": base + "/" + strconv.Itoa(row.RowIndex),
			"cells":  cellData(draft.Columns, row, b.options, b.locale),
		})
	}
	columns := make([]map[string]any, 0, len(draft.Columns))
	for _, column := range draft.Columns {
		columns = append(columns, map[string]any{"key": column.Key, "label": column.Label})
	}
	return widget{template: "table", data: map[string]any{
		"columns":    columns,
		"free_form":  len(draft.Columns) == 0,
		"rows":       rows,
		"add_action": base,
		"add_label":  b.options.T(b.locale, "table.add_row"),
		"save_label": b.options.T(b.locale, "table.save_row"),
		"empty":      b.options.T(b.locale, "table.empty"),
		"key_label":  b.options.T(b.locale, "table.key"),
		"val_label":  b.options.T(b.locale, "table.value"),
	}}
}

func (b widgetBuilder) Unsupported(q model.Question) widget {
	return widget{template: "unsupported", data: map[string]any{
		"kind":    string(q.Type),
		"message": b.options.T(b.locale, "question.unsupported", string(q.Type)),
		"value":   codec.Decode(q).Text,
	}}
}

func (b widgetBuilder) input(q model.Question, kind string) widget {
	return widget{template: "input", data: map[string]any{
		"type":  kind,
		"value": codec.Decode(q).Text,
		"save":  b.options.T(b.locale, "question.save"),
	}}
}

func optionData(q model.Question, display codec.Display) []map[string]any {
	sorted := q.SortedOptions()
	out := make([]map[string]any, 0, len(sorted))
	for _, option := range sorted {
		label := option.Label
		if strings.TrimSpace(label) == "" {
			label = option.Value
		}
		out = append(out, map[string]any{
			"value":    option.Value,
			"label":    label,
			"selected": display.IsSelected(option.Value),
		})
	}
	return out
}

func cellData(columns []model.Column, row model.TableRow, options render.RenderOptions, locale string) []map[string]any {
	if len(columns) == 0 {
		keys := make([]string, 0, len(row.Row))
		for key := range row.Row {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			columns = append(columns, model.Column{Key: key, Label: key, Type: "text"})
		}
	}

	out := make([]map[string]any, 0, len(columns))
	for _, column := range columns {
		value := row.Row[column.Key]
		cell := map[string]any{
			"key":   column.Key,
			"label": column.Label,
			"type":  column.Type,
			"name":  "field." + column.Key,
		}
		if column.Type == "boolean" {
			checked, _ := value.(bool)
			cell["checked"] = checked
			cell["yes"] = options.T(locale, "boolean.true")
		} else if value != nil {
			cell["value"] = fmt.Sprint(value)
		} else {
			cell["value"] = ""
		}
		out = append(out, cell)
	}
	return out
}
