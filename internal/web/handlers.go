package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/tableedit"
)

const fieldPrefix = "field."

// show opens or reuses the browser's session and renders the form. A lang
// different from the live session's starts a fresh session; a session whose
// load failed retries on every visit.
func (s *Server) show(c *gin.Context) {
	browserID := s.browserID(c)
	formID := c.Param("formID")
	lang := s.lang(c.Query("lang"))

	sess, ok := s.store.Get(browserID, formID)
	if !ok || sess.Lang() != lang {
		sess = session.New(s.client, formID, lang, session.WithLogger(s.logger.With("form", formID, "browser", browserID)))
		s.store.Put(browserID, formID, sess)
	}
	if sess.Payload() == nil {
		if err := sess.Load(c.Request.Context()); err != nil {
			s.logger.Warn("load failed", "form", formID, "request_id", RequestID(c.Request.Context()), "error", err)
		}
	}

	view := render.NewView(sess).WithNotice(s.store.TakeNotice(browserID, formID))
	out, err := s.renderer.Render(c.Request.Context(), view, render.RenderOptions{
		Locale:     lang,
		Translator: s.translator,
		ActionBase: "/forms/" + url.PathEscape(formID),
		Hidden:     map[string]string{"lang": lang},
	})
	if err != nil {
		s.logger.Error("render failed", "form", formID, "error", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	status := http.StatusOK
	if view.Err != nil {
		status = http.StatusBadGateway
	}
	c.Data(status, s.renderer.ContentType(), out)
}

// answer encodes the posted edit and persists it. Fields: value, or
// values with mode=values, or toggle with checked.
func (s *Server) answer(c *gin.Context) {
	sess, ok := s.live(c)
	if !ok {
		return
	}
	code := c.Param("code")
	// Edits build on what the page shows, so a toggle after a failed
	// persist keeps the unsent selection.
	question, found := render.NewView(sess).Question(code)
	if !found {
		s.finish(c, render.ErrorNotice("notice.unknown_question"))
		return
	}

	var notice render.Notice
	if err := render.Edit(c.Request.Context(), sess, question, postedInput(c)); err != nil {
		s.logger.Info("edit rejected", "form", sess.FormID(), "code", code, "error", err)
		notice = render.NoticeFor(err)
	}
	s.finish(c, notice)
}

func postedInput(c *gin.Context) codec.Input {
	if toggle, ok := c.GetPostForm("toggle"); ok {
		return codec.Input{Toggle: &codec.Toggle{Value: toggle, Checked: c.PostForm("checked") == "true"}}
	}
	if c.PostForm("mode") == "values" {
		return codec.Input{Values: c.PostFormArray("values")}
	}
	return codec.TextInput(c.PostForm("value"))
}

func (s *Server) addRow(c *gin.Context) {
	sess, ok := s.live(c)
	if !ok {
		return
	}
	editor, err := sess.Table(c.Param("code"))
	if err != nil {
		s.finish(c, render.NoticeFor(err))
		return
	}
	// A failed append only logs; the table is left as it was.
	editor.AddRow(c.Request.Context())
	s.finish(c, render.Notice{})
}

// saveRow applies every posted field.<key> (plus new_key/new_value on
// free-form tables) to the draft and then persists the row.
func (s *Server) saveRow(c *gin.Context) {
	sess, ok := s.live(c)
	if !ok {
		return
	}
	editor, err := sess.Table(c.Param("code"))
	if err != nil {
		s.finish(c, render.NoticeFor(err))
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		s.finish(c, render.ErrorNotice("notice.row_not_found"))
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		s.finish(c, render.ErrorNotice("notice.row_save_failed"))
		return
	}
	columns := make(map[string]model.Column)
	for _, column := range editor.Columns() {
		columns[column.Key] = column
	}
	for name, values := range c.Request.PostForm {
		if !strings.HasPrefix(name, fieldPrefix) || len(values) == 0 {
			continue
		}
		key := strings.TrimPrefix(name, fieldPrefix)
		value, convErr := cellValue(columns[key], values)
		if convErr != nil {
			s.finish(c, render.ErrorNotice("notice.invalid_input", key))
			return
		}
		if err := editor.UpdateField(index, key, value); err != nil {
			s.finish(c, render.NoticeFor(err))
			return
		}
	}
	if key := strings.TrimSpace(c.PostForm("new_key")); key != "" {
		if err := editor.UpdateField(index, key, c.PostForm("new_value")); err != nil {
			s.finish(c, render.NoticeFor(err))
			return
		}
	}

	if err := editor.SaveRow(c.Request.Context(), index); err != nil {
		s.logger.Info("row save failed", "form", sess.FormID(), "code", editor.Code(), "row", index, "error", err)
		if errors.Is(err, tableedit.ErrRowNotFound) {
			s.finish(c, render.ErrorNotice("notice.row_not_found"))
			return
		}
		s.finish(c, render.ErrorNotice("notice.row_save_failed"))
		return
	}
	s.finish(c, render.InfoNotice("notice.row_saved"))
}

// cellValue converts posted strings by column type. Checkboxes post a hidden
// "false" followed by "true" when ticked, so the last value wins.
func cellValue(column model.Column, values []string) (any, error) {
	last := values[len(values)-1]
	switch column.Type {
	case "boolean":
		return codec.ParseBoolean(last)
	case "number", "integer":
		number, err := codec.ParseNumber(last)
		if err != nil || number == nil {
			return nil, err
		}
		return *number, nil
	default:
		return last, nil
	}
}

func (s *Server) submit(c *gin.Context) {
	sess, ok := s.live(c)
	if !ok {
		return
	}
	outcome, err := sess.Submit(c.Request.Context())
	switch {
	case err != nil:
		s.logger.Info("submit rejected", "form", sess.FormID(), "error", err)
		s.finish(c, render.NoticeFor(err))
	case outcome.Submitted:
		s.finish(c, render.InfoNotice("notice.submitted"))
	default:
		s.finish(c, render.Notice{})
	}
}

func (s *Server) close(c *gin.Context) {
	s.store.Close(s.browserID(c), c.Param("formID"))
	c.Redirect(http.StatusSeeOther, s.formURL(c))
}

// live returns the session a post refers to. Without one the browser is sent
// back to the form, which opens a new session.
func (s *Server) live(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.store.Get(s.browserID(c), c.Param("formID"))
	if !ok || sess.Payload() == nil {
		c.Redirect(http.StatusSeeOther, s.formURL(c))
		return nil, false
	}
	return sess, true
}

func (s *Server) finish(c *gin.Context, notice render.Notice) {
	if !notice.Empty() {
		s.store.SetNotice(s.browserID(c), c.Param("formID"), notice)
	}
	c.Redirect(http.StatusSeeOther, s.formURL(c))
}

func (s *Server) formURL(c *gin.Context) string {
	target := "/forms/" + url.PathEscape(c.Param("formID"))
	if lang := c.PostForm("lang"); lang != "" {
		target += "?lang=" + url.QueryEscape(s.lang(lang))
	}
	return target
}

func (s *Server) browserID(c *gin.Context) string {
	if id, ok := c.Get(CookieName); ok {
		return id.(string)
	}
	id, err := c.Cookie(CookieName)
	if err != nil || strings.TrimSpace(id) == "" {
		id = s.newID()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, id, 0, "/", "", s.secure, true)
	}
	c.Set(CookieName, id)
	return id
}

func (s *Server) lang(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return s.defaultLang
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return s.defaultLang
	}
	return tag.String()
}
