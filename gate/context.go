package gate

import (
	"net/http"

	"github.com/wanderkit/wanderkit/pkg/session"
)

// RequestContext carries the state resolved by the pipeline for a single
// request: the resolved locale, the locale-stripped path, and the verified
// identity once the session stage has run.
type RequestContext struct {
	Request *http.Request

	// Locale is the resolved allow-listed locale.
	Locale string

	// Path is the request path with the locale prefix removed. Routing and
	// protection rules match against this path.
	Path string

	// Identity is the verified user identity, nil until (and unless) the
	// session stage affirms one.
	Identity *session.Identity
}

// StrippedRequest returns a shallow clone of the request whose URL path is
// the locale-stripped path, for components that match on r.URL.Path.
func (rc *RequestContext) StrippedRequest() *http.Request {
	r := rc.Request.Clone(rc.Request.Context())
	r.URL.Path = rc.Path
	return r
}
