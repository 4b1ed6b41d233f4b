// Package render holds the front-end agnostic pieces of question rendering:
// the Renderer contract, the View handed to renderers, the single edit path
// shared by every front-end, and the translation catalog.
package render

import (
	"context"
)

// Renderer converts a View into a byte representation (HTML, plain text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}
