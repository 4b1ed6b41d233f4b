package tui

import (
	"log/slog"

	"github.com/goliatone/go-questionnaire/pkg/render"
)

// Theme captures optional prefixes the runner applies when printing
// messages. Keep minimal to avoid coupling runner logic to ANSI specifics.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// Option configures the runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
		r.summary.theme = theme
	}
}

// WithTranslator sets the catalog used for prompts and notices.
func WithTranslator(translator render.Translator) Option {
	return func(r *Runner) {
		if translator != nil {
			r.options.Translator = translator
		}
	}
}

// WithLocale forces a locale instead of the session language.
func WithLocale(locale string) Option {
	return func(r *Runner) {
		r.options.Locale = locale
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
