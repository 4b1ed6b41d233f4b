package render

// RenderOptions describe per-request data that renderers use to customise
// their output without touching the session.
type RenderOptions struct {
	// Locale selects translations; empty falls back to the view language.
	Locale string
	// Translator resolves UI strings such as boolean labels and notices.
	Translator Translator
	// OnMissing decides what to show when a key has no translation.
	OnMissing MissingTranslationHandler
	// ActionBase prefixes the URLs of generated form actions, e.g.
	// "/forms/f-1".
	ActionBase string
	// Hidden is emitted as hidden inputs on every generated form.
	Hidden map[string]string
}

// LocaleFor returns the options locale or the view language.
func (o RenderOptions) LocaleFor(view View) string {
	if o.Locale != "" {
		return o.Locale
	}
	return view.Lang
}

// T translates key for locale, routing failures through OnMissing.
func (o RenderOptions) T(locale, key string, args ...any) string {
	onMissing := o.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	if o.Translator == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	msg, err := o.Translator.Translate(locale, key, args...)
	if err != nil || msg == "" {
		return onMissing(locale, key, args, err)
	}
	return msg
}
