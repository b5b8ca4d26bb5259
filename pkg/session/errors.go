package session

import "errors"

var (
	// ErrSessionInvalid marks expected verification failures: missing,
	// expired or tampered tokens. Callers treat it as "not signed in".
	ErrSessionInvalid = errors.New("session: invalid or expired")

	// ErrProviderUnavailable marks transport-level faults reaching the auth
	// provider. Validation fails closed but the fault stays distinguishable
	// for logging and alerting.
	ErrProviderUnavailable = errors.New("session: auth provider unavailable")
)
