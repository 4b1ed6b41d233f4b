// Package pongo implements the template seam on top of pongo2 template sets.
package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-questionnaire/pkg/render/template"
)

// Extension is appended to template names that lack it.
const Extension = ".tpl"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
}

// WithBaseDir layers a directory on disk over the fs.FS templates. A file
// found there shadows the bundled template with the same path; anything
// missing falls back to the bundle.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// Engine is a pongo2 template set with a compiled-template cache.
type Engine struct {
	mu          sync.Mutex
	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var files fs.FS
	switch {
	case cfg.baseDir != "" && cfg.templates != nil:
		files = overlayFS{top: os.DirFS(cfg.baseDir), base: cfg.templates}
	case cfg.baseDir != "":
		files = os.DirFS(cfg.baseDir)
	case cfg.templates != nil:
		files = cfg.templates
	default:
		return nil, errors.New("pongo: need to provide either base dir or fs.FS")
	}

	return &Engine{
		templateSet: pongo2.NewSet("questionnaire", pongo2.NewFSLoader(files)),
		templates:   make(map[string]*pongo2.Template),
	}, nil
}

// RenderTemplate executes the named template, appending Extension when
// missing. Includes resolve relative to the including template.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}

	tmpl, err := e.template(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

func (e *Engine) template(name string) (*pongo2.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", name, err)
	}
	e.templates[name] = tmpl
	return tmpl, nil
}

// overlayFS opens from top first and falls back to base when the file is
// missing there.
type overlayFS struct {
	top  fs.FS
	base fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	file, err := o.top.Open(name)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}
