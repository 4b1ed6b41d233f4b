package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl templates/widgets/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle so callers can copy and
// override individual widgets.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
