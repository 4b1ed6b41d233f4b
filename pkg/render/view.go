package render

import (
	"github.com/goliatone/go-questionnaire/pkg/answersync"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

// TableDraft is the editable state of one table question.
type TableDraft struct {
	Columns []model.Column
	Rows    []model.TableRow
}

// View is everything a renderer needs for one pass over the form.
type View struct {
	FormID     string
	Lang       string
	Payload    *model.Payload
	Fields     map[string]answersync.FieldState
	Unsent     map[string]any
	Tables     map[string]TableDraft
	Err        error
	Loading    bool
	Submitting bool
	CanSubmit  bool
	Notice     Notice
}

// NewView snapshots sess. Table drafts are collected for every table
// question so renderers never reach back into the session.
func NewView(sess *session.Session) View {
	status := sess.View()
	view := View{
		FormID:     status.FormID,
		Lang:       status.Lang,
		Payload:    status.Payload,
		Fields:     status.Fields,
		Unsent:     status.Unsent,
		Err:        status.Err,
		Loading:    status.Loading,
		Submitting: status.Submitting,
		CanSubmit:  status.CanSubmit(),
	}
	if status.Payload == nil {
		return view
	}
	for _, question := range status.Payload.Questions {
		if question.Type != model.TypeTable {
			continue
		}
		editor, err := sess.Table(question.Code)
		if err != nil {
			continue
		}
		if view.Tables == nil {
			view.Tables = make(map[string]TableDraft)
		}
		view.Tables[question.Code] = TableDraft{Columns: editor.Columns(), Rows: editor.Rows()}
	}
	return view
}

// WithNotice returns a copy of the view carrying notice.
func (v View) WithNotice(notice Notice) View {
	v.Notice = notice
	return v
}

// Questions returns the questions in fetch order. A field whose last persist
// failed shows the unsent value instead of the stored answer.
func (v View) Questions() []model.Question {
	if v.Payload == nil {
		return nil
	}
	out := make([]model.Question, len(v.Payload.Questions))
	copy(out, v.Payload.Questions)
	for idx := range out {
		if value, ok := v.Unsent[out[idx].Code]; ok {
			out[idx].Answer = value
		}
	}
	return out
}

// Question returns code as displayed, unsent value included.
func (v View) Question(code string) (model.Question, bool) {
	for _, question := range v.Questions() {
		if question.Code == code {
			return question, true
		}
	}
	return model.Question{}, false
}

// Company returns the read-only company label.
func (v View) Company() string {
	if v.Payload == nil {
		return ""
	}
	return v.Payload.Form.CompanyName()
}

// Submitted reports whether the loaded form is already submitted.
func (v View) Submitted() bool {
	return v.Payload != nil && v.Payload.Form.Submitted()
}

// FieldState returns the sync state of code.
func (v View) FieldState(code string) answersync.FieldState {
	return v.Fields[code]
}

// Table returns the draft of a table question, falling back to the rows in
// the payload when no editor was attached.
func (v View) Table(q model.Question) TableDraft {
	if draft, ok := v.Tables[q.Code]; ok {
		return draft
	}
	return TableDraft{Columns: q.Columns(), Rows: q.TableRows}
}
