package account

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrTokenInvalid = errors.New("magic link token is invalid")
	ErrTokenExpired = errors.New("magic link token has expired")
)
