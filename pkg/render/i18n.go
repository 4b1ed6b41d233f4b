package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingTranslator is reported when no translator was configured.
	ErrMissingTranslator = errors.New("render: translator is required")
	// ErrMissingTranslation is reported for keys absent from every matching
	// catalog.
	ErrMissingTranslation = errors.New("render: missing translation")
)

// Translator resolves a key for a locale. Args are applied with fmt verbs
// present in the message.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler returns the string shown when key could not be
// translated.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if values, ok := arg.(map[string]any); ok {
			if fallback, ok := values["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog is a YAML backed Translator. Locales are matched with
// golang.org/x/text/language so "pt" and "pt-PT" resolve to "pt-BR" when that
// is the closest catalog.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	tags     []language.Tag
	names    []string
	fallback string
	matcher  language.Matcher
}

// NewCatalog creates an empty catalog whose unmatched locales fall back to
// fallback.
func NewCatalog(fallback string) *Catalog {
	return &Catalog{messages: make(map[string]map[string]string), fallback: fallback}
}

// DefaultCatalog returns the built-in pt-BR and en catalogs with pt-BR as the
// fallback.
func DefaultCatalog() *Catalog {
	catalog := NewCatalog("pt-BR")
	if err := catalog.LoadFS(embeddedLocales, "locales"); err != nil {
		panic(fmt.Sprintf("render: load embedded locales: %v", err))
	}
	return catalog
}

// LoadFS reads every *.yaml file in dir; the file name is the locale.
// Nested YAML maps are flattened into dotted keys.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("render: read locales: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("render: read %s: %w", name, err)
		}
		if err := c.LoadYAML(strings.TrimSuffix(name, ".yaml"), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAML merges the messages in data into locale.
func (c *Catalog) LoadYAML(locale string, data []byte) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("render: locale %q: %w", locale, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("render: decode %s catalog: %w", locale, err)
	}

	flat := make(map[string]string)
	flatten("", raw, flat)

	c.mu.Lock()
	defer c.mu.Unlock()
	name := tag.String()
	if _, ok := c.messages[name]; !ok {
		c.messages[name] = make(map[string]string)
		c.names = append(c.names, name)
		sort.Strings(c.names)
		c.rebuildMatcher()
	}
	for key, msg := range flat {
		c.messages[name][key] = msg
	}
	return nil
}

// Locales lists the loaded locale names.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...)
}

// Match returns the loaded locale closest to locale.
func (c *Catalog) Match(locale string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.match(locale)
}

// Translate implements Translator, falling back to the catalog fallback
// locale when the matched one lacks key.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range []string{c.match(locale), c.fallback} {
		msg, ok := c.messages[candidate][key]
		if !ok {
			continue
		}
		if params := formatArgs(args); len(params) > 0 {
			return fmt.Sprintf(msg, params...), nil
		}
		return msg, nil
	}
	return "", fmt.Errorf("%w: %s [%s]", ErrMissingTranslation, key, locale)
}

func (c *Catalog) match(locale string) string {
	if c.matcher == nil {
		return c.fallback
	}
	desired, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(desired) == 0 {
		return c.fallback
	}
	_, idx, confidence := c.matcher.Match(desired...)
	if confidence == language.No {
		return c.fallback
	}
	return c.names[idx]
}

func (c *Catalog) rebuildMatcher() {
	c.tags = c.tags[:0]
	for _, name := range c.names {
		c.tags = append(c.tags, language.MustParse(name))
	}
	c.matcher = language.NewMatcher(c.tags)
}

// formatArgs drops the map[string]any{"default": ...} hints used by
// missing-translation handlers.
func formatArgs(args []any) []any {
	out := make([]any, 0, len(args))
	for _, arg := range args {
		if _, ok := arg.(map[string]any); ok {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
