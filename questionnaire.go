// Package questionnaire wires the engine's parts together for callers that
// just want a session against a remote service and a renderer to show it.
package questionnaire

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/renderers/html"
	"github.com/goliatone/go-questionnaire/pkg/renderers/tui"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

// Payload aliases model.Payload for callers that only import the root.
type Payload = model.Payload

// Question aliases model.Question.
type Question = model.Question

// RenderOptions aliases render.RenderOptions.
type RenderOptions = render.RenderOptions

// NewHTTPRemote returns the JSON-over-HTTP client for the remote data service.
func NewHTTPRemote(baseURL string, options ...remote.HTTPOption) *remote.HTTPClient {
	return remote.NewHTTPClient(baseURL, options...)
}

// NewSession opens a session for formID. Call Load before rendering.
func NewSession(client remote.Client, formID, lang string, options ...session.Option) *session.Session {
	return session.New(client, formID, lang, options...)
}

// DefaultRenderers registers the HTML page renderer and the plain-text
// summary renderer.
func DefaultRenderers(options ...html.Option) (*render.Registry, error) {
	page, err := html.New(options...)
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(page, tui.NewRenderer(tui.Theme{}))
}

// defaultRegistry is built on first use and shared by Render.
var defaultRegistry = sync.OnceValues(func() (*render.Registry, error) {
	return DefaultRenderers()
})

// Render snapshots sess and renders it with the named default renderer. A
// nil Translator falls back to the embedded catalog.
func Render(ctx context.Context, sess *session.Session, rendererName string, options RenderOptions) ([]byte, error) {
	registry, err := defaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("questionnaire: renderers: %w", err)
	}
	return RenderWith(ctx, registry, sess, rendererName, options)
}

// RenderWith is Render over a caller-built registry.
func RenderWith(ctx context.Context, registry *render.Registry, sess *session.Session, rendererName string, options RenderOptions) ([]byte, error) {
	if registry == nil {
		return nil, fmt.Errorf("questionnaire: registry is required")
	}
	renderer, err := registry.Get(rendererName)
	if err != nil {
		return nil, err
	}
	if options.Translator == nil {
		options.Translator = render.DefaultCatalog()
	}
	return renderer.Render(ctx, render.NewView(sess), options)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
