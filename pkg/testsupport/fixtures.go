package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
)

// SampleFormID identifies the payload returned by SampleSeed.
const SampleFormID = "sample"

// SampleSeed returns a draft form with one question of every variant, an
// unknown type included. Only has_site is required.
func SampleSeed() remote.Seed {
	company := "Acme Ltda"
	return remote.Seed{
		Payload: model.Payload{
			Form: model.Form{ID: SampleFormID, Status: model.StatusDraft, Company: &company},
			Questions: []model.Question{
				{Code: "has_site", Type: model.TypeBoolean, Label: "Possui site?"},
				{Code: "size", Type: model.TypeSingleSelect, Label: "Porte", Options: []model.Option{
					{Value: "s", Label: "Pequeno", Order: 1},
					{Value: "l", Label: "Grande", Order: 2},
				}},
				{Code: "channels", Type: model.TypeMultiSelect, Label: "Canais", Options: []model.Option{
					{Value: "web", Label: "Web", Order: 1},
					{Value: "store", Label: "Loja", Order: 2},
				}},
				{Code: "founded", Type: model.TypeDate, Label: "Fundação"},
				{Code: "revenue", Type: model.TypeCurrency, Label: "Receita", Config: map[string]any{"currency": "BRL"}},
				{Code: "notes", Type: model.TypeText, Label: "Notas", Help: "<b>Opcional</b>"},
				{Code: "staff", Type: model.TypeNumber, Label: "Funcionários"},
				{Code: "contract", Type: model.TypeAttachment, Label: "Contrato"},
				{Code: "branches", Type: model.TypeTable, Label: "Filiais", Config: map[string]any{
					"columns": []any{map[string]any{"key": "city", "label": "Cidade"}},
				}},
				{Code: "holo", Type: "hologram", Label: "Holograma"},
			},
		},
		Required: []string{"has_site"},
	}
}

// LoadSeeds reads a YAML seed file.
func LoadSeeds(t *testing.T, path string) []remote.Seed {
	t.Helper()

	seeds, err := LoadSeedsFromPath(path)
	if err != nil {
		t.Fatalf("load seeds: %v", err)
	}
	return seeds
}

// LoadSeedsFromPath returns the seeds without requiring testing.T.
func LoadSeedsFromPath(path string) ([]remote.Seed, error) {
	if path == "" {
		return nil, errors.New("testsupport: seed path is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: open seeds: %w", err)
	}
	defer file.Close()

	seeds, err := remote.LoadSeeds(file)
	if err != nil {
		return nil, fmt.Errorf("testsupport: parse seeds: %w", err)
	}
	return seeds, nil
}

// NewMemory returns an in-memory remote seeded from path, or with SampleSeed
// when path is empty.
func NewMemory(t *testing.T, path string) *remote.Memory {
	t.Helper()
	if path == "" {
		return remote.NewMemory(SampleSeed())
	}
	return remote.NewMemory(LoadSeeds(t, path)...)
}

// Diff returns a cmp diff between want and got, empty when equal.
func Diff(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
