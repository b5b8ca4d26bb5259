package session

import (
	"net/http"

	"github.com/wanderkit/wanderkit/core"
)

// RequireIdentity guards API routes: it validates the session and rejects
// unauthenticated requests with a 401 structured error. The verified
// identity is attached to the request context for handlers.
func (v *Validator) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := v.Validate(r.Context(), r)
		if err != nil || identity == nil {
			_ = core.JSONError(core.ErrUnauthorized).Render(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
