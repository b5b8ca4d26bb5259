package i18n

import "errors"

var (
	ErrNoLocales           = errors.New("i18n: no supported locales configured")
	ErrInvalidLocale       = errors.New("i18n: invalid locale code")
	ErrDefaultNotSupported = errors.New("i18n: default locale is not in the supported set")
	ErrNoCatalogs          = errors.New("i18n: no message catalogs found")
	ErrInvalidCatalog      = errors.New("i18n: failed to parse message catalog")
)
