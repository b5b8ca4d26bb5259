package account_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderkit/wanderkit/modules/account"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/mailer"
	"github.com/wanderkit/wanderkit/pkg/validator"
	"github.com/wanderkit/wanderkit/translations"
)

const testSecret = "account-test-secret"

type fakeStorage struct {
	users map[string]*account.User
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{users: make(map[string]*account.User)}
}

func (s *fakeStorage) GetUserByEmail(ctx context.Context, email string) (*account.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, account.ErrUserNotFound
}

func (s *fakeStorage) CreateUser(ctx context.Context, user *account.User) error {
	if _, ok := s.users[user.Email]; ok {
		return account.ErrEmailTaken
	}
	clone := *user
	s.users[user.Email] = &clone
	return nil
}

func (s *fakeStorage) SetUserVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	for _, user := range s.users {
		if user.ID == id {
			user.IsVerified = verified
			return nil
		}
	}
	return account.ErrUserNotFound
}

type capturingMailer struct {
	sent []mailer.Message
}

func (m *capturingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newTestService(t *testing.T, storage account.Storage, mail mailer.Mailer, opts ...account.ServiceOption) *account.Service {
	t.Helper()

	translator, err := i18n.NewTranslatorFromFS(translations.FS, "en-US")
	require.NoError(t, err)

	return account.NewService(storage, mail, translator, testSecret, "https://wanderkit.example.com", opts...)
}

func TestRequestMagicLink(t *testing.T) {
	t.Parallel()

	t.Run("sends link and auto-registers new user", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		mail := &capturingMailer{}
		svc := newTestService(t, storage, mail)

		err := svc.RequestMagicLink(context.Background(), "Anna@Example.COM", "en-US")
		require.NoError(t, err)

		// Email is normalized before registration.
		_, ok := storage.users["anna@example.com"]
		assert.True(t, ok)

		require.Len(t, mail.sent, 1)
		assert.Equal(t, "anna@example.com", mail.sent[0].To)
		assert.Contains(t, mail.sent[0].BodyHTML, "https://wanderkit.example.com/auth/verify?token=")
	})

	t.Run("existing user is not duplicated", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		require.NoError(t, storage.CreateUser(context.Background(), &account.User{
			ID:    uuid.New(),
			Email: "anna@example.com",
		}))
		mail := &capturingMailer{}
		svc := newTestService(t, storage, mail)

		require.NoError(t, svc.RequestMagicLink(context.Background(), "anna@example.com", "en-US"))
		assert.Len(t, storage.users, 1)
		assert.Len(t, mail.sent, 1)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, newFakeStorage(), &capturingMailer{})

		err := svc.RequestMagicLink(context.Background(), "not-an-email", "en-US")
		require.Error(t, err)
		assert.NotNil(t, validator.ExtractValidationErrors(err))
	})

	t.Run("uses localized subject", func(t *testing.T) {
		t.Parallel()

		mail := &capturingMailer{}
		svc := newTestService(t, newFakeStorage(), mail)

		require.NoError(t, svc.RequestMagicLink(context.Background(), "jan@example.com", "pl-PL"))
		require.Len(t, mail.sent, 1)
		assert.Equal(t, "Zaloguj się do Wanderkit", mail.sent[0].Subject)
	})
}

func TestVerifyMagicLink(t *testing.T) {
	t.Parallel()

	issueToken := func(t *testing.T, svc *account.Service, mail *capturingMailer, email string) string {
		t.Helper()

		require.NoError(t, svc.RequestMagicLink(context.Background(), email, "en-US"))
		require.NotEmpty(t, mail.sent)

		body := mail.sent[len(mail.sent)-1].BodyHTML
		_, after, ok := strings.Cut(body, "token=")
		require.True(t, ok)
		tokenStr, _, _ := strings.Cut(after, `"`)
		return tokenStr
	}

	t.Run("valid token signs in and verifies user", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		mail := &capturingMailer{}
		svc := newTestService(t, storage, mail)
		tokenStr := issueToken(t, svc, mail, "anna@example.com")

		user, err := svc.VerifyMagicLink(context.Background(), tokenStr)
		require.NoError(t, err)
		assert.Equal(t, "anna@example.com", user.Email)
		assert.True(t, user.IsVerified)
		assert.True(t, storage.users["anna@example.com"].IsVerified)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, newFakeStorage(), &capturingMailer{})

		_, err := svc.VerifyMagicLink(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, account.ErrTokenInvalid)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		mail := &capturingMailer{}
		svc := newTestService(t, storage, mail, account.WithLinkTTL(time.Nanosecond))
		tokenStr := issueToken(t, svc, mail, "anna@example.com")

		// Expiry has second granularity.
		time.Sleep(1100 * time.Millisecond)

		_, err := svc.VerifyMagicLink(context.Background(), tokenStr)
		assert.ErrorIs(t, err, account.ErrTokenExpired)
	})

	t.Run("token for deleted user rejected", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		mail := &capturingMailer{}
		svc := newTestService(t, storage, mail)
		tokenStr := issueToken(t, svc, mail, "anna@example.com")

		delete(storage.users, "anna@example.com")

		_, err := svc.VerifyMagicLink(context.Background(), tokenStr)
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})
}
