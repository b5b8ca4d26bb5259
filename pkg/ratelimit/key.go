package ratelimit

import (
	"net/http"

	"github.com/wanderkit/wanderkit/pkg/clientip"
	"github.com/wanderkit/wanderkit/pkg/session"
)

// KeyFunc extracts a unique client identifier from an HTTP request.
type KeyFunc func(*http.Request) string

// ByClientIP keys the budget on the originating client IP.
func ByClientIP(r *http.Request) string {
	return "ip:" + clientip.GetIP(r)
}

// ByIdentity keys the budget on the authenticated user, falling back to the
// client IP for anonymous requests. Mount it after the middleware that
// attaches the identity, otherwise every request keys by IP.
func ByIdentity(r *http.Request) string {
	if identity, ok := session.IdentityFromContext(r.Context()); ok {
		return "user:" + identity.UserID
	}
	return ByClientIP(r)
}
