package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Translator serves messages from per-locale YAML catalogs. Nested catalog
// keys are flattened to dot-separated paths ("auth.magic_link.subject").
type Translator struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
	def      string
}

// NewTranslatorFromFS loads every *.yml / *.yaml file in the filesystem
// root; the file name (without extension) is the locale code.
func NewTranslatorFromFS(fsys fs.FS, defaultLocale string) (*Translator, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Join(ErrNoCatalogs, err)
	}

	t := &Translator{
		catalogs: make(map[string]map[string]string),
		def:      defaultLocale,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !strings.EqualFold(ext, ".yml") && !strings.EqualFold(ext, ".yaml") {
			continue
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}

		var nested map[string]any
		if err := yaml.Unmarshal(content, &nested); err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}

		locale := strings.TrimSuffix(entry.Name(), ext)
		flat := make(map[string]string)
		flatten("", nested, flat)
		t.catalogs[locale] = flat
	}

	if len(t.catalogs) == 0 {
		return nil, ErrNoCatalogs
	}

	return t, nil
}

// T returns the message for the key in the given locale, falling back to the
// default locale and finally to the key itself. Arguments are interpolated
// with fmt.Sprintf when present.
func (t *Translator) T(locale, key string, args ...any) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	msg, ok := t.lookup(locale, key)
	if !ok {
		msg, ok = t.lookup(t.def, key)
	}
	if !ok {
		return key
	}

	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// SupportedLocales returns the locales that have catalogs loaded.
func (t *Translator) SupportedLocales() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	locales := make([]string, 0, len(t.catalogs))
	for locale := range t.catalogs {
		locales = append(locales, locale)
	}
	return locales
}

func (t *Translator) lookup(locale, key string) (string, bool) {
	catalog, ok := t.catalogs[locale]
	if !ok {
		return "", false
	}
	msg, ok := catalog[key]
	return msg, ok
}

func flatten(prefix string, nested map[string]any, out map[string]string) {
	for key, value := range nested {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprintf("%v", v)
		}
	}
}
