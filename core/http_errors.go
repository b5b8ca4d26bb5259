package core

import "net/http"

// HTTPError represents an HTTP error with a status and a stable machine
// readable code consumed by API clients.
type HTTPError struct {
	Status  int    // HTTP status code
	Code    string // stable error code (e.g. "UNAUTHORIZED")
	Message string // human readable message; defaults to the status text
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

var (
	ErrBadRequest         = HTTPError{Status: http.StatusBadRequest, Code: "BAD_REQUEST"}
	ErrUnauthorized       = HTTPError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrForbidden          = HTTPError{Status: http.StatusForbidden, Code: "FORBIDDEN"}
	ErrNotFound           = HTTPError{Status: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrConflict           = HTTPError{Status: http.StatusConflict, Code: "CONFLICT"}
	ErrTooManyRequests    = HTTPError{Status: http.StatusTooManyRequests, Code: "RATE_LIMIT_EXCEEDED"}
	ErrInternalServer     = HTTPError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrCsrfTokenInvalid   = HTTPError{Status: http.StatusForbidden, Code: "CSRF_TOKEN_INVALID", Message: "missing or invalid CSRF token"}
	ErrServiceUnavailable = HTTPError{Status: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

// NewHTTPError creates a custom HTTP error.
func NewHTTPError(status int, code, message string) HTTPError {
	return HTTPError{Status: status, Code: code, Message: message}
}
