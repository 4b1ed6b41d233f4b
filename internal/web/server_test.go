package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type browser struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	if fresh := rec.Result().Cookies(); len(fresh) > 0 {
		b.cookies = fresh
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func newTestServer(t *testing.T, memory *remote.Memory) (*Server, *browser) {
	t.Helper()
	server, err := New(memory, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	ids := 0
	server.newID = func() string {
		ids++
		return "browser-" + string(rune('0'+ids))
	}
	return server, &browser{t: t, handler: server.Handler()}
}

func sampleMemory() *remote.Memory {
	return remote.NewMemory(remote.Seed{
		Payload: model.Payload{
			Form: model.Form{ID: "f-1", Status: model.StatusDraft},
			Questions: []model.Question{
				{Code: "has_site", Type: model.TypeBoolean, Label: "Possui site?"},
				{Code: "staff", Type: model.TypeNumber, Label: "Funcionários"},
				{Code: "channels", Type: model.TypeMultiSelect, Label: "Canais", Options: []model.Option{
					{Value: "web", Label: "Web", Order: 1},
					{Value: "store", Label: "Loja", Order: 2},
				}},
				{Code: "branches", Type: model.TypeTable, Label: "Filiais", Config: map[string]any{
					"columns": []any{
						map[string]any{"key": "city", "label": "Cidade"},
						map[string]any{"key": "hq", "label": "Matriz", "type": "boolean"},
					},
				}},
			},
		},
		Required: []string{"has_site"},
	})
}

func TestShowOpensSessionAndSetsCookie(t *testing.T) {
	server, b := newTestServer(t, sampleMemory())

	rec := b.get("/forms/f-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Possui site?")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Len(t, b.cookies, 1)
	assert.Equal(t, CookieName, b.cookies[0].Name)
	assert.Equal(t, 1, server.Store().Len())

	b.get("/forms/f-1")
	assert.Equal(t, 1, server.Store().Len(), "second visit reuses the session")
}

func TestAnswerPersistsAndRedirects(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)
	b.get("/forms/f-1")

	rec := b.post("/forms/f-1/answers/has_site", url.Values{"value": {"true"}, "lang": {"pt-BR"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/forms/f-1?lang=pt-BR", rec.Header().Get("Location"))

	snapshot, _ := memory.Snapshot("f-1")
	assert.Equal(t, true, snapshot.Questions[0].Answer)

	page := b.get("/forms/f-1?lang=pt-BR").Body.String()
	assert.Contains(t, page, `value="true" checked> Sim`)
	assert.Contains(t, page, `value="false"> Não`)
}

func TestMultiSelectValues(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)
	b.get("/forms/f-1")

	b.post("/forms/f-1/answers/channels", url.Values{"mode": {"values"}, "values": {"store", "web"}})
	snapshot, _ := memory.Snapshot("f-1")
	assert.Equal(t, []string{"web", "store"}, snapshot.Questions[2].Answer)

	b.post("/forms/f-1/answers/channels", url.Values{"toggle": {"web"}, "checked": {"false"}})
	snapshot, _ = memory.Snapshot("f-1")
	assert.Equal(t, []string{"store"}, snapshot.Questions[2].Answer)
}

func TestToggleAfterFailedPersistKeepsUnsentSelection(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)
	b.get("/forms/f-1")

	memory.FailNext(remote.CallUpsertAnswer, errors.New("boom"))
	b.post("/forms/f-1/answers/channels", url.Values{"mode": {"values"}, "values": {"web"}})
	snapshot, _ := memory.Snapshot("f-1")
	require.Nil(t, snapshot.Questions[2].Answer)

	b.post("/forms/f-1/answers/channels", url.Values{"toggle": {"store"}, "checked": {"true"}})
	snapshot, _ = memory.Snapshot("f-1")
	assert.Equal(t, []string{"web", "store"}, snapshot.Questions[2].Answer)
}

func TestEscapedQuestionCodeRoutes(t *testing.T) {
	memory := remote.NewMemory(remote.Seed{Payload: model.Payload{
		Form:      model.Form{ID: "f-1", Status: model.StatusDraft},
		Questions: []model.Question{{Code: "notes/extra", Type: model.TypeText, Label: "Notas"}},
	}})
	_, b := newTestServer(t, memory)
	page := b.get("/forms/f-1").Body.String()
	require.Contains(t, page, `action="/forms/f-1/answers/notes%2Fextra"`)

	rec := b.post("/forms/f-1/answers/notes%2Fextra", url.Values{"value": {"ok"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	snapshot, _ := memory.Snapshot("f-1")
	assert.Equal(t, "ok", snapshot.Questions[0].Answer)
}

func TestInvalidInputShowsNoticeOnce(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)
	b.get("/forms/f-1")

	b.post("/forms/f-1/answers/staff", url.Values{"value": {"muitos"}})
	assert.Zero(t, memory.Calls(remote.CallUpsertAnswer))

	assert.Contains(t, b.get("/forms/f-1").Body.String(), "Valor inválido para")
	assert.NotContains(t, b.get("/forms/f-1").Body.String(), "Valor inválido para")
}

func TestSubmitReportsMissingCount(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)
	b.get("/forms/f-1")

	rec := b.post("/forms/f-1/submit", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/forms/f-1").Body.String(), "Faltam 1 respostas obrigatórias.")

	b.post("/forms/f-1/answers/has_site", url.Values{"value": {"false"}})
	b.post("/forms/f-1/submit", nil)
	page := b.get("/forms/f-1").Body.String()
	assert.Contains(t, page, "Formulário enviado com sucesso.")
	assert.Contains(t, page, `<button type="submit" disabled>`)

	snapshot, _ := memory.Snapshot("f-1")
	assert.Equal(t, model.StatusSubmitted, snapshot.Form.Status)
}

func TestTableRows(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)
	b.get("/forms/f-1")

	b.post("/forms/f-1/tables/branches/rows", nil)
	rec := b.post("/forms/f-1/tables/branches/rows/0", url.Values{
		"field.city": {"Recife"},
		"field.hq":   {"false", "true"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	snapshot, _ := memory.Snapshot("f-1")
	rows := snapshot.Questions[3].TableRows
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].RowIndex)
	assert.Equal(t, map[string]any{"city": "Recife", "hq": true}, rows[0].Row)

	page := b.get("/forms/f-1").Body.String()
	assert.Contains(t, page, "Linha salva.")
	assert.Contains(t, page, `name="field.city" value="Recife"`)
}

func TestSaveUnknownRow(t *testing.T) {
	_, b := newTestServer(t, sampleMemory())
	b.get("/forms/f-1")

	b.post("/forms/f-1/tables/branches/rows/7", url.Values{"field.city": {"Natal"}})
	assert.Contains(t, b.get("/forms/f-1").Body.String(), "Linha não encontrada.")
}

func TestLoadFailureRendersPageError(t *testing.T) {
	_, b := newTestServer(t, remote.NewMemory())

	rec := b.get("/forms/missing")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Não foi possível carregar o formulário.")
	assert.NotContains(t, rec.Body.String(), "<form")
}

func TestLanguageSwitch(t *testing.T) {
	_, b := newTestServer(t, sampleMemory())

	assert.Contains(t, b.get("/forms/f-1?lang=en").Body.String(), "> Yes")
	assert.Contains(t, b.get("/forms/f-1?lang=pt-BR").Body.String(), "> Sim")
}

func TestPostWithoutSessionRedirects(t *testing.T) {
	memory := sampleMemory()
	_, b := newTestServer(t, memory)

	rec := b.post("/forms/f-1/answers/has_site", url.Values{"value": {"true"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, memory.Calls(remote.CallUpsertAnswer))
}

func TestCloseDropsSession(t *testing.T) {
	server, b := newTestServer(t, sampleMemory())
	b.get("/forms/f-1")
	require.Equal(t, 1, server.Store().Len())

	rec := b.post("/forms/f-1/close", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, server.Store().Len())
}

func TestRequestIDAndHealth(t *testing.T) {
	_, b := newTestServer(t, sampleMemory())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	rec := b.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())

	rec = b.get("/healthz")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}
