// Package tui drives a questionnaire session from the terminal. The runner
// prints a text summary, offers a menu and routes every edit through the same
// encode-then-persist path the web front-end uses.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/tableedit"
)

type action int

const (
	actionEdit action = iota
	actionTable
	actionSubmit
	actionReload
	actionQuit
)

var actionKeys = map[action]string{
	actionEdit:   "tui.edit",
	actionTable:  "tui.table",
	actionSubmit: "tui.submit",
	actionReload: "tui.reload",
	actionQuit:   "tui.quit",
}

// Runner is the interactive terminal loop over one session.
type Runner struct {
	sess    *session.Session
	driver  PromptDriver
	summary *Renderer
	options render.RenderOptions
	theme   Theme
	logger  *slog.Logger
}

// NewRunner builds a runner. The survey driver and the embedded catalog are
// used unless overridden.
func NewRunner(sess *session.Session, options ...Option) (*Runner, error) {
	if sess == nil {
		return nil, ErrNoSession
	}
	r := &Runner{
		sess:    sess,
		summary: NewRenderer(Theme{}),
		options: render.RenderOptions{Translator: render.DefaultCatalog()},
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Run loads the form and loops until the user quits. Driver failures such as
// ErrAborted end the loop and are returned; operation failures become notices.
func (r *Runner) Run(ctx context.Context) error {
	if r.sess.Payload() == nil {
		if err := r.sess.Load(ctx); err != nil {
			r.logger.Warn("initial load failed", "form", r.sess.FormID(), "error", err)
		}
	}

	var notice render.Notice
	for {
		view := render.NewView(r.sess).WithNotice(notice)
		notice = render.Notice{}

		out, err := r.summary.Render(ctx, view, r.options)
		if err != nil {
			return err
		}
		if err := r.driver.Info(ctx, strings.TrimRight(string(out), "\n")); err != nil {
			return err
		}

		actions := r.actions(view)
		labels := make([]string, len(actions))
		for idx, act := range actions {
			labels[idx] = r.t(view, actionKeys[act])
		}
		choice, err := r.driver.Select(ctx, SelectConfig{Message: r.prompt(view, "tui.menu"), Options: labels})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(actions) {
			continue
		}

		switch actions[choice] {
		case actionEdit:
			notice, err = r.editQuestion(ctx, view)
		case actionTable:
			notice, err = r.editTable(ctx, view)
		case actionSubmit:
			notice, err = r.submit(ctx, view)
		case actionReload:
			if loadErr := r.sess.Load(ctx); loadErr != nil {
				r.logger.Warn("reload failed", "form", r.sess.FormID(), "error", loadErr)
			}
		case actionQuit:
			r.sess.Close()
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (r *Runner) actions(view render.View) []action {
	if view.Err != nil || view.Payload == nil {
		return []action{actionReload, actionQuit}
	}
	var out []action
	if !view.Submitted() {
		if len(editableQuestions(view)) > 0 {
			out = append(out, actionEdit)
		}
		if len(tableQuestions(view)) > 0 {
			out = append(out, actionTable)
		}
	}
	if view.CanSubmit {
		out = append(out, actionSubmit)
	}
	return append(out, actionReload, actionQuit)
}

func (r *Runner) editQuestion(ctx context.Context, view render.View) (render.Notice, error) {
	questions := editableQuestions(view)
	if len(questions) == 0 {
		return render.Notice{}, nil
	}
	labels := make([]string, len(questions))
	for idx, q := range questions {
		labels[idx] = q.Label
	}
	choice, err := r.driver.Select(ctx, SelectConfig{Message: r.prompt(view, "tui.pick_question"), Options: labels})
	if err != nil {
		return render.Notice{}, err
	}
	if choice < 0 || choice >= len(questions) {
		return render.Notice{}, nil
	}

	q := questions[choice]
	ask := model.Dispatch[promptFunc](q, prompter{runner: r, view: view})
	input, err := ask(ctx)
	if err != nil {
		return render.Notice{}, err
	}
	if err := render.Edit(ctx, r.sess, q, input); err != nil {
		r.logger.Debug("edit rejected", "code", q.Code, "error", err)
		return render.NoticeFor(err), nil
	}
	return render.Notice{}, nil
}

func (r *Runner) editTable(ctx context.Context, view render.View) (render.Notice, error) {
	tables := tableQuestions(view)
	if len(tables) == 0 {
		return render.Notice{}, nil
	}
	choice := 0
	if len(tables) > 1 {
		labels := make([]string, len(tables))
		for idx, q := range tables {
			labels[idx] = q.Label
		}
		var err error
		choice, err = r.driver.Select(ctx, SelectConfig{Message: r.prompt(view, "tui.pick_question"), Options: labels})
		if err != nil {
			return render.Notice{}, err
		}
		if choice < 0 || choice >= len(tables) {
			return render.Notice{}, nil
		}
	}

	editor, err := r.sess.Table(tables[choice].Code)
	if err != nil {
		return render.NoticeFor(err), nil
	}
	return r.tableLoop(ctx, view, editor)
}

func (r *Runner) tableLoop(ctx context.Context, view render.View, editor *tableedit.Editor) (render.Notice, error) {
	menu := []string{
		r.t(view, "tui.add_row"),
		r.t(view, "tui.edit_field"),
		r.t(view, "tui.save_row"),
		r.t(view, "tui.done"),
	}
	var notice render.Notice
	for {
		if !notice.Empty() {
			if err := r.driver.Info(ctx, r.noticeLine(view, notice)); err != nil {
				return render.Notice{}, err
			}
			notice = render.Notice{}
		}
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message: r.prompt(view, "tui.table_menu", editor.Label()),
			Options: menu,
		})
		if err != nil {
			return render.Notice{}, err
		}

		switch choice {
		case 0:
			// Failures are logged by the editor and leave the rows untouched.
			editor.AddRow(ctx)
		case 1:
			notice, err = r.editField(ctx, view, editor)
			if err != nil {
				return render.Notice{}, err
			}
		case 2:
			index, ok, err := r.pickRow(ctx, view, editor)
			if err != nil {
				return render.Notice{}, err
			}
			if !ok {
				continue
			}
			if saveErr := editor.SaveRow(ctx, index); saveErr != nil {
				if errors.Is(saveErr, tableedit.ErrRowNotFound) {
					notice = render.ErrorNotice("notice.row_not_found")
				} else {
					notice = render.ErrorNotice("notice.row_save_failed")
				}
				continue
			}
			notice = render.InfoNotice("notice.row_saved")
		default:
			return render.Notice{}, nil
		}
	}
}

func (r *Runner) editField(ctx context.Context, view render.View, editor *tableedit.Editor) (render.Notice, error) {
	index, ok, err := r.pickRow(ctx, view, editor)
	if err != nil || !ok {
		return render.Notice{}, err
	}
	row, _ := editor.Row(index)

	columns := editor.Columns()
	if len(columns) == 0 {
		for _, key := range rowKeys(nil, row) {
			columns = append(columns, model.Column{Key: key, Label: key, Type: "text"})
		}
	}
	labels := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		labels = append(labels, column.Label)
	}
	freeForm := len(editor.Columns()) == 0
	if freeForm {
		labels = append(labels, r.t(view, "table.key")+"…")
	}

	choice, err := r.driver.Select(ctx, SelectConfig{Message: r.prompt(view, "tui.pick_field"), Options: labels})
	if err != nil {
		return render.Notice{}, err
	}
	var column model.Column
	switch {
	case choice >= 0 && choice < len(columns):
		column = columns[choice]
	case freeForm && choice == len(columns):
		key, err := r.driver.Input(ctx, InputConfig{Message: r.prompt(view, "table.key")})
		if err != nil {
			return render.Notice{}, err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return render.Notice{}, nil
		}
		column = model.Column{Key: key, Label: key, Type: "text"}
	default:
		return render.Notice{}, nil
	}

	value, err := r.askCell(ctx, view, column, row.Row[column.Key])
	if err != nil {
		var invalid *cellError
		if errors.As(err, &invalid) {
			return render.ErrorNotice("notice.invalid_input", column.Label), nil
		}
		return render.Notice{}, err
	}
	if err := editor.UpdateField(index, column.Key, value); err != nil {
		return render.NoticeFor(err), nil
	}
	return render.Notice{}, nil
}

type cellError struct {
	err error
}

func (e *cellError) Error() string { return e.err.Error() }
func (e *cellError) Unwrap() error { return e.err }

func (r *Runner) askCell(ctx context.Context, view render.View, column model.Column, current any) (any, error) {
	message := r.prompt(view, "tui.field_value") + " (" + column.Label + ")"
	switch column.Type {
	case "boolean":
		checked, _ := current.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: checked})
	case "number", "integer":
		def := ""
		if number, ok := current.(float64); ok {
			def = codec.FormatNumber(number)
		}
		text, err := r.driver.Input(ctx, InputConfig{Message: message, Default: def})
		if err != nil {
			return nil, err
		}
		number, err := codec.ParseNumber(text)
		if err != nil {
			return nil, &cellError{err: err}
		}
		if number == nil {
			return nil, nil
		}
		return *number, nil
	default:
		def := ""
		if current != nil {
			def = fmt.Sprint(current)
		}
		return r.driver.Input(ctx, InputConfig{Message: message, Default: def})
	}
}

func (r *Runner) pickRow(ctx context.Context, view render.View, editor *tableedit.Editor) (int, bool, error) {
	rows := editor.Rows()
	if len(rows) == 0 {
		return 0, false, r.driver.Info(ctx, r.t(view, "table.empty"))
	}
	labels := make([]string, len(rows))
	for idx, row := range rows {
		labels[idx] = r.t(view, "table.row", row.RowIndex)
	}
	choice, err := r.driver.Select(ctx, SelectConfig{Message: r.prompt(view, "tui.pick_row"), Options: labels})
	if err != nil {
		return 0, false, err
	}
	if choice < 0 || choice >= len(rows) {
		return 0, false, nil
	}
	return rows[choice].RowIndex, true, nil
}

func (r *Runner) submit(ctx context.Context, view render.View) (render.Notice, error) {
	ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: r.prompt(view, "tui.confirm_submit")})
	if err != nil || !ok {
		return render.Notice{}, err
	}
	outcome, err := r.sess.Submit(ctx)
	if err != nil {
		r.logger.Info("submit rejected", "form", r.sess.FormID(), "error", err)
		return render.NoticeFor(err), nil
	}
	if outcome.Submitted {
		return render.InfoNotice("notice.submitted"), nil
	}
	return render.Notice{}, nil
}

func (r *Runner) t(view render.View, key string, args ...any) string {
	return r.options.T(r.options.LocaleFor(view), key, args...)
}

func (r *Runner) prompt(view render.View, key string, args ...any) string {
	return r.theme.PromptPrefix + r.t(view, key, args...)
}

func (r *Runner) noticeLine(view render.View, notice render.Notice) string {
	prefix := r.theme.InfoPrefix
	if notice.Level == render.NoticeError {
		prefix = r.theme.ErrorPrefix
	}
	return prefix + notice.Text(r.options, r.options.LocaleFor(view))
}

func editableQuestions(view render.View) []model.Question {
	var out []model.Question
	for _, q := range view.Questions() {
		if model.Dispatch[promptFunc](q, prompter{}) != nil {
			out = append(out, q)
		}
	}
	return out
}

func tableQuestions(view render.View) []model.Question {
	var out []model.Question
	for _, q := range view.Questions() {
		if q.Type == model.TypeTable {
			out = append(out, q)
		}
	}
	return out
}

// promptFunc asks for one edit. A nil promptFunc marks a variant that is not
// edited through the question menu.
type promptFunc func(ctx context.Context) (codec.Input, error)

type prompter struct {
	runner *Runner
	view   render.View
}

func (p prompter) Boolean(q model.Question) promptFunc {
	return func(ctx context.Context) (codec.Input, error) {
		display := codec.Decode(q)
		def := 0
		if display.Bool != nil && !*display.Bool {
			def = 1
		}
		choice, err := p.runner.driver.Select(ctx, SelectConfig{
			Message:      p.runner.theme.PromptPrefix + q.Label,
			Help:         q.Help,
			Options:      []string{p.runner.t(p.view, "boolean.true"), p.runner.t(p.view, "boolean.false")},
			DefaultIndex: def,
		})
		if err != nil {
			return codec.Input{}, err
		}
		return codec.TextInput(strconv.FormatBool(choice == 0)), nil
	}
}

func (p prompter) SingleSelect(q model.Question) promptFunc {
	return func(ctx context.Context) (codec.Input, error) {
		options := q.SortedOptions()
		display := codec.Decode(q)
		labels := make([]string, len(options))
		def := 0
		for idx, option := range options {
			labels[idx] = optionLabel(option)
			if display.IsSelected(option.Value) {
				def = idx
			}
		}
		choice, err := p.runner.driver.Select(ctx, SelectConfig{
			Message:      p.runner.theme.PromptPrefix + q.Label,
			Help:         q.Help,
			Options:      labels,
			DefaultIndex: def,
		})
		if err != nil {
			return codec.Input{}, err
		}
		if choice < 0 || choice >= len(options) {
			return codec.TextInput(""), nil
		}
		return codec.TextInput(options[choice].Value), nil
	}
}

func (p prompter) MultiSelect(q model.Question) promptFunc {
	return func(ctx context.Context) (codec.Input, error) {
		options := q.SortedOptions()
		display := codec.Decode(q)
		labels := make([]string, len(options))
		var defaults []int
		for idx, option := range options {
			labels[idx] = optionLabel(option)
			if display.IsSelected(option.Value) {
				defaults = append(defaults, idx)
			}
		}
		chosen, err := p.runner.driver.MultiSelect(ctx, SelectConfig{
			Message:  p.runner.theme.PromptPrefix + q.Label,
			Help:     q.Help,
			Options:  labels,
			Defaults: defaults,
		})
		if err != nil {
			return codec.Input{}, err
		}
		values := make([]string, 0, len(chosen))
		for _, idx := range chosen {
			if idx >= 0 && idx < len(options) {
				values = append(values, options[idx].Value)
			}
		}
		return codec.Input{Values: values}, nil
	}
}

func (p prompter) Date(q model.Question) promptFunc {
	return p.input(q, "YYYY-MM-DD")
}

func (p prompter) Currency(q model.Question) promptFunc {
	currency := q.ConfigString("currency")
	if currency == "" {
		currency = codec.DefaultCurrency
	}
	return p.input(q, currency)
}

func (p prompter) Text(q model.Question) promptFunc {
	return func(ctx context.Context) (codec.Input, error) {
		text, err := p.runner.driver.TextArea(ctx, TextAreaConfig{
			Message: p.runner.theme.PromptPrefix + q.Label,
			Default: codec.Decode(q).Text,
			Help:    q.Help,
		})
		if err != nil {
			return codec.Input{}, err
		}
		return codec.TextInput(text), nil
	}
}

func (p prompter) Number(q model.Question) promptFunc {
	return p.input(q, "")
}

func (prompter) Attachment(model.Question) promptFunc  { return nil }
func (prompter) Table(model.Question) promptFunc       { return nil }
func (prompter) Unsupported(model.Question) promptFunc { return nil }

func (p prompter) input(q model.Question, hint string) promptFunc {
	return func(ctx context.Context) (codec.Input, error) {
		message := p.runner.theme.PromptPrefix + q.Label
		if hint != "" {
			message += " (" + hint + ")"
		}
		text, err := p.runner.driver.Input(ctx, InputConfig{
			Message: message,
			Default: codec.Decode(q).Text,
			Help:    q.Help,
		})
		if err != nil {
			return codec.Input{}, err
		}
		return codec.TextInput(text), nil
	}
}
