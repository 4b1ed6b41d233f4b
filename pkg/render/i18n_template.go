package render

import (
	"strings"
)

// TemplateFuncs returns helpers for template engines:
//
//	translate(key, ...args) string
//	current_locale() string
//
// Both are bound to locale, so templates never deal with locale resolution.
func TemplateFuncs(options RenderOptions, locale string) map[string]any {
	return map[string]any{
		"translate": func(key string, args ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			return options.T(locale, key, args...)
		},
		"current_locale": func() string {
			return locale
		},
	}
}
