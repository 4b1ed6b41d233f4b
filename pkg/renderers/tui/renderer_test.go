package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

// stubDriver replays scripted answers and reports ErrAborted once a script
// runs out.
type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	selectMsgs   []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", ErrAborted
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, ErrAborted
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectMsgs = append(s.selectMsgs, cfg.Message)
	if s.selectPos >= len(s.selectIdx) {
		return -1, ErrAborted
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, ErrAborted
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", ErrAborted
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) saw(fragment string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func newRunner(t *testing.T, memory *remote.Memory, driver *stubDriver) (*Runner, *session.Session) {
	t.Helper()
	sess := session.New(memory, "f-1", "pt-BR")
	runner, err := NewRunner(sess, WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return runner, sess
}

func seeded(required []string, questions ...model.Question) *remote.Memory {
	return remote.NewMemory(remote.Seed{
		Payload:  model.Payload{Form: model.Form{ID: "f-1", Status: model.StatusDraft}, Questions: questions},
		Required: required,
	})
}

func TestSummaryRendersVariants(t *testing.T) {
	memory := seeded(nil,
		model.Question{Code: "has_site", Type: model.TypeBoolean, Label: "Possui site?", Answer: false},
		model.Question{Code: "holo", Type: "hologram", Label: "Holo"},
		model.Question{
			Code:      "branches",
			Type:      model.TypeTable,
			Label:     "Filiais",
			TableRows: []model.TableRow{{RowIndex: 1, Row: map[string]any{"city": "Natal"}}},
		},
	)
	sess := session.New(memory, "f-1", "pt-BR")
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	out, err := NewRenderer(Theme{}).Render(context.Background(), render.NewView(sess), render.RenderOptions{Translator: render.DefaultCatalog()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)
	for _, want := range []string{
		"1. Possui site?\n   Não",
		"Tipo de pergunta não suportado: hologram",
		"Linha 1: city=Natal",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestRunnerEditsBoolean(t *testing.T) {
	memory := seeded(nil, model.Question{Code: "has_site", Type: model.TypeBoolean, Label: "Possui site?"})
	// menu: edit, submit, reload, quit
	driver := &stubDriver{selectIdx: []int{0, 0, 0, 3}}
	runner, _ := newRunner(t, memory, driver)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	snapshot, _ := memory.Snapshot("f-1")
	if snapshot.Questions[0].Answer != true {
		t.Fatalf("expected persisted true, got %#v", snapshot.Questions[0].Answer)
	}
	if !driver.saw("Possui site? [Salvo]\n   Sim") {
		t.Fatalf("expected committed summary, got %v", driver.infoMessages)
	}
}

func TestRunnerSubmitReportsMissingCount(t *testing.T) {
	memory := seeded([]string{"has_site", "notes"},
		model.Question{Code: "has_site", Type: model.TypeBoolean, Label: "Possui site?"},
		model.Question{Code: "notes", Type: model.TypeText, Label: "Notas"},
	)
	driver := &stubDriver{selectIdx: []int{1, 3}, confirm: []bool{true}}
	runner, _ := newRunner(t, memory, driver)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.saw("! Faltam 2 respostas obrigatórias.") {
		t.Fatalf("expected missing-required notice, got %v", driver.infoMessages)
	}
	snapshot, _ := memory.Snapshot("f-1")
	if snapshot.Form.Status != model.StatusDraft {
		t.Fatalf("form must stay draft, got %s", snapshot.Form.Status)
	}
}

func TestRunnerTableFlow(t *testing.T) {
	memory := seeded(nil, model.Question{
		Code:   "branches",
		Type:   model.TypeTable,
		Label:  "Filiais",
		Config: map[string]any{"columns": []any{map[string]any{"key": "city", "label": "Cidade"}}},
	})
	// table menu, add row, edit field on row 0 (city), save row 0, done, quit
	script := []int{0, 0, 1, 0, 0, 2, 0, 3, 3}
	driver := &stubDriver{selectIdx: script, inputs: []string{"Recife"}}
	runner, _ := newRunner(t, memory, driver)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	snapshot, _ := memory.Snapshot("f-1")
	rows := snapshot.Questions[0].TableRows
	if len(rows) != 1 || rows[0].RowIndex != 0 || rows[0].Row["city"] != "Recife" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if !driver.saw("Linha salva.") {
		t.Fatalf("expected row saved notice, got %v", driver.infoMessages)
	}
	if memory.Calls(remote.CallUpsertTableRow) != 2 {
		t.Fatalf("expected add and save upserts, got %d", memory.Calls(remote.CallUpsertTableRow))
	}
}

func TestRunnerLoadFailureOffersReloadAndQuit(t *testing.T) {
	memory := remote.NewMemory()
	driver := &stubDriver{selectIdx: []int{1}}
	runner, sess := newRunner(t, memory, driver)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.saw("! Não foi possível carregar o formulário.") {
		t.Fatalf("expected load error, got %v", driver.infoMessages)
	}
	if !sess.View().Closed {
		t.Fatalf("quit should close the session")
	}
}

func TestRunnerAbortIsReturned(t *testing.T) {
	memory := seeded(nil, model.Question{Code: "notes", Type: model.TypeText, Label: "Notas"})
	driver := &stubDriver{}
	runner, _ := newRunner(t, memory, driver)

	if err := runner.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRunnerInvalidNumberBecomesNotice(t *testing.T) {
	memory := seeded(nil, model.Question{Code: "staff", Type: model.TypeNumber, Label: "Funcionários"})
	driver := &stubDriver{selectIdx: []int{0, 0, 3}, inputs: []string{"muitos"}}
	runner, _ := newRunner(t, memory, driver)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.saw(`! Valor inválido para "staff".`) {
		t.Fatalf("expected invalid input notice, got %v", driver.infoMessages)
	}
	if memory.Calls(remote.CallUpsertAnswer) != 0 {
		t.Fatalf("invalid input must not reach the remote")
	}
}

func TestNewRunnerRequiresSession(t *testing.T) {
	if _, err := NewRunner(nil); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
