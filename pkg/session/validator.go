package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/wanderkit/wanderkit/pkg/logger"
)

const defaultVerifyTimeout = 5 * time.Second

// Validator resolves a request's auth cookie to a verified identity.
type Validator struct {
	provider Provider
	timeout  time.Duration
	log      *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTimeout bounds the provider round trip. A verification that outlives
// the timeout fails closed as unauthenticated.
func WithTimeout(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the validator.
func WithLogger(log *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if log != nil {
			v.log = log
		}
	}
}

// NewValidator creates a session validator backed by the given provider.
func NewValidator(provider Provider, opts ...ValidatorOption) *Validator {
	v := &Validator{
		provider: provider,
		timeout:  defaultVerifyTimeout,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate resolves the request's access token to a verified identity.
// Missing, expired or tampered tokens return (nil, nil). Transport faults
// return (nil, ErrProviderUnavailable) so callers can log them while still
// treating the request as unauthenticated.
func (v *Validator) Validate(ctx context.Context, r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	identity, err := v.provider.VerifyToken(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			return nil, nil
		}

		v.log.WarnContext(ctx, "session verification failed, treating as unauthenticated",
			logger.Error(err),
			logger.Component("session"),
		)
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	return identity, nil
}
