// Package session resolves request authentication cookies to verified user
// identities via the external auth provider. Identity is never inferred from
// cookie presence alone: every request performs a server-side verification
// round trip.
package session

// Cookie names used by the auth provider's session transport.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// PostLoginRedirectCookie carries the locale-stripped path an anonymous
// visitor was heading to when redirected to login. The value is signed so
// the restored redirect target cannot be tampered with client-side.
const PostLoginRedirectCookie = "post_login_redirect"

// PostLoginRedirectMaxAge bounds how long a pending redirect survives.
const PostLoginRedirectMaxAge = 10 * 60

// Identity is a verified user identity, resolved once per request and
// immutable afterwards.
type Identity struct {
	UserID string
	Email  string
}
