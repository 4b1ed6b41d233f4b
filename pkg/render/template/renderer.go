package template

// TemplateRenderer is the engine contract renderers rely on.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any) (string, error)
}
