// Package csrf implements double-submit CSRF protection: a random token
// lives in a client-readable cookie and must be echoed back on every
// state-changing request.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"slices"

	"github.com/wanderkit/wanderkit/pkg/cookie"
)

const (
	tokenBytes = 32

	defaultCookieName = "csrf_token"
	defaultHeaderName = "X-CSRF-Token"

	// Tokens are long-lived; one token stays valid per client until the
	// cookie expires or is cleared.
	defaultMaxAge = 365 * 24 * 60 * 60
)

// Guard issues and validates anti-forgery tokens.
type Guard struct {
	cookies    *cookie.Manager
	cookieName string
	headerName string
	maxAge     int
	secure     bool
	exempt     []string
}

// Option configures a Guard.
type Option func(*Guard)

func WithCookieName(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.cookieName = name
		}
	}
}

func WithHeaderName(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.headerName = name
		}
	}
}

func WithMaxAge(seconds int) Option {
	return func(g *Guard) {
		if seconds > 0 {
			g.maxAge = seconds
		}
	}
}

func WithSecureCookies(secure bool) Option {
	return func(g *Guard) { g.secure = secure }
}

// WithExemptPaths excludes exact paths from the check, e.g. the magic-link
// request endpoint that runs before any session exists.
func WithExemptPaths(paths ...string) Option {
	return func(g *Guard) {
		g.exempt = append(g.exempt, paths...)
	}
}

// New creates a CSRF guard using the cookie manager for transport.
func New(cookies *cookie.Manager, opts ...Option) *Guard {
	g := &Guard{
		cookies:    cookies,
		cookieName: defaultCookieName,
		headerName: defaultHeaderName,
		maxAge:     defaultMaxAge,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CookieName returns the name of the token cookie.
func (g *Guard) CookieName() string { return g.cookieName }

// EnsureToken returns the client's current token, minting and storing a new
// one only when the cookie is absent or malformed. Issuance is idempotent:
// repeated calls within one session yield the same token.
//
// The cookie is intentionally not HttpOnly: the client must read it to echo
// the token in the request header.
func (g *Guard) EnsureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if existing, err := g.cookies.Get(r, g.cookieName); err == nil && wellFormed(existing) {
		return existing, nil
	}

	token, err := mintToken()
	if err != nil {
		return "", err
	}

	g.cookies.Set(w, g.cookieName, token,
		cookie.WithMaxAge(g.maxAge),
		cookie.WithHTTPOnly(false),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithSecure(g.secure),
	)

	return token, nil
}

// Check validates the request against the stored token. Safe methods and
// exempt paths pass; state-changing requests must echo the cookie token in
// the header. The check never touches the request body, so the payload
// stays intact for the downstream handler. The comparison is constant-time.
func (g *Guard) Check(r *http.Request) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}

	if slices.Contains(g.exempt, r.URL.Path) {
		return nil
	}

	stored, err := g.cookies.Get(r, g.cookieName)
	if err != nil || !wellFormed(stored) {
		return ErrTokenMissing
	}

	supplied := r.Header.Get(g.headerName)
	if supplied == "" {
		return ErrTokenMissing
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return ErrTokenMismatch
	}

	return nil
}

func mintToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// wellFormed reports whether the value decodes to the expected token length.
func wellFormed(value string) bool {
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	return err == nil && len(decoded) == tokenBytes
}
