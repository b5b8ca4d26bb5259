package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/mailer"
	"github.com/wanderkit/wanderkit/pkg/sanitizer"
	"github.com/wanderkit/wanderkit/pkg/token"
	"github.com/wanderkit/wanderkit/pkg/validator"
)

const subjectMagicLink = "magic_link"

// magicLinkPayload is the data encoded in magic link tokens.
type magicLinkPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Subject  string `json:"sub"`
	ExpireAt int64  `json:"exp"`
}

// Service handles passwordless authentication via magic links.
type Service struct {
	storage     Storage
	mail        mailer.Mailer
	translator  *i18n.Translator
	tokenSecret string
	baseURL     string
	linkTTL     time.Duration
	log         *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithLinkTTL overrides how long a magic link stays valid.
func WithLinkTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.linkTTL = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the magic link service. baseURL is the externally
// reachable origin used to build verification links.
func NewService(
	storage Storage,
	mail mailer.Mailer,
	translator *i18n.Translator,
	tokenSecret, baseURL string,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		storage:     storage,
		mail:        mail,
		translator:  translator,
		tokenSecret: tokenSecret,
		baseURL:     baseURL,
		// Short TTL keeps the window small without single-use tracking.
		linkTTL: 15 * time.Minute,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestMagicLink generates a signed sign-in link for the email and sends
// it. Unknown emails are auto-registered to keep onboarding to a single step.
func (s *Service) RequestMagicLink(ctx context.Context, email, locale string) error {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
	); err != nil {
		return err
	}

	if _, err := s.storage.GetUserByEmail(ctx, email); err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("lookup user: %w", err)
		}

		user := &User{
			ID:        uuid.New(),
			Email:     email,
			CreatedAt: time.Now(),
		}
		if err := s.storage.CreateUser(ctx, user); err != nil && !errors.Is(err, ErrEmailTaken) {
			return fmt.Errorf("create user: %w", err)
		}
	}

	expiresAt := time.Now().Add(s.linkTTL)
	payload := magicLinkPayload{
		ID:       uuid.New().String(),
		Email:    email,
		Subject:  subjectMagicLink,
		ExpireAt: expiresAt.Unix(),
	}

	tokenStr, err := token.Generate(payload, s.tokenSecret)
	if err != nil {
		return fmt.Errorf("generate magic link token: %w", err)
	}

	link := s.baseURL + "/auth/verify?token=" + url.QueryEscape(tokenStr)
	msg := mailer.Message{
		To:       email,
		Subject:  s.translator.T(locale, "email.magic_link.subject"),
		BodyHTML: s.translator.T(locale, "email.magic_link.body", int(s.linkTTL.Minutes()), link),
		Tag:      subjectMagicLink,
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("send magic link email: %w", err)
	}

	s.log.InfoContext(ctx, "magic link sent",
		slog.String("email", email),
		logger.Component("account"),
	)

	return nil
}

// VerifyMagicLink validates a token and returns the account it signs in.
// First successful verification marks the user verified.
func (s *Service) VerifyMagicLink(ctx context.Context, tokenStr string) (*User, error) {
	payload, err := token.Parse[magicLinkPayload](tokenStr, s.tokenSecret)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if payload.Subject != subjectMagicLink {
		return nil, ErrTokenInvalid
	}

	if time.Now().Unix() > payload.ExpireAt {
		return nil, ErrTokenExpired
	}

	user, err := s.storage.GetUserByEmail(ctx, payload.Email)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if !user.IsVerified {
		if err := s.storage.SetUserVerified(ctx, user.ID, true); err != nil {
			s.log.ErrorContext(ctx, "failed to mark user verified",
				logger.UserID(user.ID.String()),
				logger.Error(err),
				logger.Component("account"),
			)
		}
		user.IsVerified = true
	}

	return user, nil
}
