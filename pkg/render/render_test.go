package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

type recordingCommitter struct {
	codes  []string
	values []any
	err    error
}

func (c *recordingCommitter) PersistAnswer(_ context.Context, code string, value any) error {
	c.codes = append(c.codes, code)
	c.values = append(c.values, value)
	return c.err
}

func TestEditEncodesThenPersists(t *testing.T) {
	committer := &recordingCommitter{}
	q := model.Question{Code: "revenue", Type: model.TypeCurrency}

	if err := render.Edit(context.Background(), committer, q, codec.TextInput("1.234,50")); err != nil {
		t.Fatalf("edit: %v", err)
	}
	want := []any{model.Currency{AmountCents: 123450, Currency: "BRL"}}
	if diff := cmp.Diff(want, committer.values); diff != "" {
		t.Fatalf("persisted values mismatch (-want +got):\n%s", diff)
	}
}

func TestEditNeverCoalesces(t *testing.T) {
	committer := &recordingCommitter{}
	q := model.Question{Code: "notes", Type: model.TypeText}
	for _, text := range []string{"a", "ab", "abc"} {
		if err := render.Edit(context.Background(), committer, q, codec.TextInput(text)); err != nil {
			t.Fatalf("edit: %v", err)
		}
	}
	if len(committer.values) != 3 {
		t.Fatalf("expected one persist per edit, got %d", len(committer.values))
	}
}

func TestEditCodecFailureSkipsPersist(t *testing.T) {
	committer := &recordingCommitter{}
	q := model.Question{Code: "count", Type: model.TypeNumber}

	err := render.Edit(context.Background(), committer, q, codec.TextInput("many"))
	var editErr *render.EditError
	if !errors.As(err, &editErr) || editErr.Code != "count" || !errors.Is(err, codec.ErrInvalidNumber) {
		t.Fatalf("expected EditError wrapping ErrInvalidNumber, got %v", err)
	}
	if len(committer.codes) != 0 {
		t.Fatalf("expected no persist call")
	}
}

func TestNoticeForMapsErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want render.Notice
	}{
		{
			name: "missing required count",
			err:  &session.ValidationError{Missing: remote.MissingRequired{Total: 2}},
			want: render.ErrorNotice("notice.missing_required", "2"),
		},
		{
			name: "persist failure",
			err:  &session.PersistError{Code: "notes", Err: errors.New("down")},
			want: render.ErrorNotice("notice.persist_failed", "notes"),
		},
		{
			name: "invalid input",
			err:  &render.EditError{Code: "count", Err: codec.ErrInvalidNumber},
			want: render.ErrorNotice("notice.invalid_input", "count"),
		},
		{
			name: "submit disallowed",
			err:  session.ErrSubmitDisallowed,
			want: render.ErrorNotice("notice.submit_disallowed"),
		},
		{
			name: "nil",
			want: render.Notice{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, render.NoticeFor(tc.err)); diff != "" {
				t.Fatalf("notice mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingRequiredNoticeTextCarriesCount(t *testing.T) {
	options := render.RenderOptions{Translator: render.DefaultCatalog()}
	notice := render.NoticeFor(&session.ValidationError{Missing: remote.MissingRequired{Total: 2}})

	if got := notice.Text(options, "pt-BR"); got != "Faltam 2 respostas obrigatórias." {
		t.Fatalf("unexpected pt-BR text %q", got)
	}
	if got := notice.Text(options, "en-US"); got != "2 required answers are missing." {
		t.Fatalf("unexpected en text %q", got)
	}
}

func TestCatalogMatchingAndFallback(t *testing.T) {
	catalog := render.DefaultCatalog()

	if diff := cmp.Diff([]string{"en", "pt-BR"}, catalog.Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	cases := map[string]string{
		"pt-BR": "Sim",
		"pt":    "Sim",
		"en-GB": "Yes",
		"de":    "Sim",
		"":      "Sim",
	}
	for locale, want := range cases {
		got, err := catalog.Translate(locale, "boolean.true")
		if err != nil || got != want {
			t.Fatalf("Translate(%q): want %q, got %q (%v)", locale, want, got, err)
		}
	}

	if _, err := catalog.Translate("en", "no.such.key"); !errors.Is(err, render.ErrMissingTranslation) {
		t.Fatalf("expected ErrMissingTranslation, got %v", err)
	}
	if err := catalog.LoadYAML("en", []byte("extra:\n  key: Extra\n")); err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if got, _ := catalog.Translate("en", "extra.key"); got != "Extra" {
		t.Fatalf("expected merged key, got %q", got)
	}
}

func TestOptionsTFallsBackToKey(t *testing.T) {
	var options render.RenderOptions
	if got := options.T("en", "submit.label"); got != "submit.label" {
		t.Fatalf("expected key without translator, got %q", got)
	}
	options.OnMissing = func(_, key string, _ []any, err error) string {
		if !errors.Is(err, render.ErrMissingTranslator) {
			t.Fatalf("expected ErrMissingTranslator, got %v", err)
		}
		return "[" + key + "]"
	}
	if got := options.T("en", "submit.label"); got != "[submit.label]" {
		t.Fatalf("expected custom missing handler, got %q", got)
	}
}

func TestViewShowsUnsentValues(t *testing.T) {
	view := render.View{
		Payload: &model.Payload{
			Form: model.Form{ID: "f-1", Status: model.StatusDraft},
			Questions: []model.Question{
				{Code: "notes", Type: model.TypeText, Answer: "stored"},
				{Code: "other", Type: model.TypeText, Answer: "kept"},
			},
		},
		Unsent: map[string]any{"notes": "typed"},
	}
	questions := view.Questions()
	if questions[0].Answer != "typed" || questions[1].Answer != "kept" {
		t.Fatalf("unexpected answers %#v / %#v", questions[0].Answer, questions[1].Answer)
	}
	if view.Payload.Questions[0].Answer != "stored" {
		t.Fatalf("view must not mutate the snapshot")
	}
}

func TestNewViewCollectsTables(t *testing.T) {
	memory := remote.NewMemory(remote.Seed{Payload: model.Payload{
		Form: model.Form{ID: "f-1", Status: model.StatusDraft},
		Questions: []model.Question{
			{Code: "branches", Type: model.TypeTable, TableRows: []model.TableRow{{RowIndex: 2, Row: map[string]any{"city": "Natal"}}}},
		},
	}})
	sess := session.New(memory, "f-1", "pt-BR")
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	view := render.NewView(sess)
	if !view.CanSubmit || view.Lang != "pt-BR" {
		t.Fatalf("unexpected view flags %+v", view)
	}
	want := []model.TableRow{{RowIndex: 2, Row: map[string]any{"city": "Natal"}}}
	if diff := cmp.Diff(want, view.Tables["branches"].Rows); diff != "" {
		t.Fatalf("table draft mismatch (-want +got):\n%s", diff)
	}
}

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, render.View, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	registry, err := render.NewRegistry(namedRenderer("text"), namedRenderer("html"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if diff := cmp.Diff([]string{"html", "text"}, registry.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if err := registry.Register(namedRenderer("html")); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if _, err := registry.Get("pdf"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
}

func TestHiddenFields(t *testing.T) {
	merged := render.MergeHiddenFields(map[string]string{"lang": "en", " ": "x"}, render.Hidden("lang", "pt-BR"), render.Hidden("token", 42))
	want := []render.HiddenField{{Name: "lang", Value: "pt-BR"}, {Name: "token", Value: "42"}}
	if diff := cmp.Diff(want, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
}
