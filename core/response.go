// Package core defines the response contract shared by the request gate and
// route handlers: every branch of request processing resolves to a Response
// that knows how to render itself.
package core

import "net/http"

// Response renders itself to the HTTP response writer.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}
