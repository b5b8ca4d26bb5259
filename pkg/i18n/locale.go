// Package i18n resolves request locales against a closed allow-list and
// translates messages from YAML catalogs.
package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
)

// LocaleCookieName is the cookie persisting the visitor's locale choice.
const LocaleCookieName = "i18next"

// LocaleCookieMaxAge keeps the locale choice for a year.
const LocaleCookieMaxAge = 365 * 24 * 60 * 60

// Locales is the closed set of locales the application serves. Anything
// outside the set silently collapses to the default.
type Locales struct {
	canonical []string
	lower     map[string]string
	def       string
	matcher   language.Matcher
}

// NewLocales builds the allow-list. The default locale must be part of the
// supported set.
func NewLocales(defaultLocale string, supported ...string) (*Locales, error) {
	if len(supported) == 0 {
		return nil, ErrNoLocales
	}

	l := &Locales{
		canonical: make([]string, 0, len(supported)),
		lower:     make(map[string]string, len(supported)),
	}

	tags := make([]language.Tag, 0, len(supported))
	for _, code := range supported {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			return nil, errors.Join(ErrInvalidLocale, err)
		}
		l.canonical = append(l.canonical, code)
		l.lower[strings.ToLower(code)] = code
		tags = append(tags, tag)
	}

	def, ok := l.lower[strings.ToLower(defaultLocale)]
	if !ok {
		return nil, ErrDefaultNotSupported
	}
	l.def = def
	l.matcher = language.NewMatcher(tags)

	return l, nil
}

// Default returns the configured default locale.
func (l *Locales) Default() string { return l.def }

// Supported returns the canonical locale codes in configuration order.
func (l *Locales) Supported() []string { return l.canonical }

// Canonical returns the canonical form of an allow-listed locale code and
// whether the code is in the set. Matching is case-insensitive.
func (l *Locales) Canonical(code string) (string, bool) {
	canonical, ok := l.lower[strings.ToLower(code)]
	return canonical, ok
}

// Match returns the best supported locale for an Accept-Language header,
// falling back to the default.
func (l *Locales) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return l.def
	}

	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return l.def
	}

	_, index, conf := l.matcher.Match(desired...)
	if conf == language.No {
		return l.def
	}
	return l.canonical[index]
}

// SplitPath resolves the locale prefix of a URL path. It returns the
// resolved locale and the path with the prefix removed.
//
// An allow-listed first segment resolves to its canonical locale. A segment
// that is locale-shaped (language-region, e.g. "xx-XX") but not allow-listed
// is stripped and collapses to the default locale. Paths without a
// locale-shaped prefix, API paths included, resolve to the default locale
// unchanged.
func (l *Locales) SplitPath(path string) (locale, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, remainder, _ := strings.Cut(trimmed, "/")
	if segment == "" {
		return l.def, normalizePath(remainder)
	}

	if canonical, ok := l.Canonical(segment); ok {
		return canonical, normalizePath(remainder)
	}

	if isLocaleShaped(segment) {
		return l.def, normalizePath(remainder)
	}

	return l.def, normalizePath(trimmed)
}

func normalizePath(rest string) string {
	if rest == "" {
		return "/"
	}
	return "/" + rest
}

// isLocaleShaped reports whether the segment is a well-formed BCP 47
// language-region tag, even if the language itself is unknown. A region
// subtag is required: bare segments like "api" or "en" parse as language
// tags but are regular path segments here, not locale prefixes.
func isLocaleShaped(segment string) bool {
	if len(segment) > 35 { // RFC 5646 length bound
		return false
	}
	if !strings.Contains(segment, "-") {
		return false
	}
	_, err := language.Parse(segment)
	if err == nil {
		return true
	}
	var valueErr language.ValueError
	return errors.As(err, &valueErr)
}
