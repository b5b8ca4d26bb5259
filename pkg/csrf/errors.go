package csrf

import "errors"

var (
	ErrTokenMissing  = errors.New("csrf: token missing")
	ErrTokenMismatch = errors.New("csrf: token mismatch")
)
