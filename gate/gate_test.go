package gate_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderkit/wanderkit/gate"
	"github.com/wanderkit/wanderkit/pkg/cookie"
	"github.com/wanderkit/wanderkit/pkg/csrf"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/session"
)

type scriptedProvider struct {
	identity *session.Identity
	err      error
}

func (p *scriptedProvider) VerifyToken(ctx context.Context, accessToken string) (*session.Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.identity == nil {
		return nil, session.ErrSessionInvalid
	}
	return p.identity, nil
}

func (p *scriptedProvider) IssueSession(ctx context.Context, userID, email string) (string, string, error) {
	return "access", "refresh", nil
}

type fixture struct {
	gate    *gate.Gate
	guard   *csrf.Guard
	cookies *cookie.Manager
	next    *spyHandler
}

type spyHandler struct {
	called   bool
	path     string
	locale   string
	body     string
	identity *session.Identity
}

func (s *spyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.called = true
	s.path = r.URL.Path
	s.locale = i18n.GetLocale(r.Context())
	s.identity, _ = session.IdentityFromContext(r.Context())
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		s.body = string(b)
	}
	w.WriteHeader(http.StatusOK)
}

func newFixture(t *testing.T, provider session.Provider) *fixture {
	t.Helper()

	locales, err := i18n.NewLocales("en-US", "en-US", "pl-PL")
	require.NoError(t, err)

	cookies, err := cookie.New([]string{"test-secret-key-that-is-long-enough!"})
	require.NoError(t, err)

	guard := csrf.New(cookies, csrf.WithExemptPaths("/api/auth/magic-link"))
	validator := session.NewValidator(provider)

	return &fixture{
		gate:    gate.New(locales, cookies, guard, validator, gate.DefaultConfig()),
		guard:   guard,
		cookies: cookies,
		next:    &spyHandler{},
	}
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.gate.Middleware(f.next).ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: session.AccessTokenCookie, Value: "tok"})
	return req
}

// csrfPair returns a matching cookie+header token for API requests.
func csrfPair(t *testing.T, f *fixture) (*http.Cookie, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	token, err := f.guard.EnsureToken(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0], token
}

func TestGatePageRoutes(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated protected page redirects to login", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/en-US/tours", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/en-US/login?redirect=%2Ftours", rec.Header().Get("Location"))
		assert.False(t, f.next.called)

		// The destination is stashed in a signed cookie for post-login
		// restore.
		followup := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			followup.AddCookie(c)
		}
		path, err := f.cookies.GetSigned(followup, session.PostLoginRedirectCookie)
		require.NoError(t, err)
		assert.Equal(t, "/tours", path)
	})

	t.Run("authenticated protected page forwards with identity", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{identity: &session.Identity{UserID: "u1", Email: "anna@example.com"}})
		rec := f.serve(withSession(httptest.NewRequest(http.MethodGet, "/en-US/tours", nil)))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, f.next.called)
		assert.Equal(t, "/tours", f.next.path)
		assert.Equal(t, "en-US", f.next.locale)
		require.NotNil(t, f.next.identity)
		assert.Equal(t, "u1", f.next.identity.UserID)
	})

	t.Run("authenticated login page redirects home", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{identity: &session.Identity{UserID: "u1"}})
		rec := f.serve(withSession(httptest.NewRequest(http.MethodGet, "/en-US/login", nil)))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/en-US/", rec.Header().Get("Location"))
		assert.False(t, f.next.called)
	})

	t.Run("unauthenticated login page forwards", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/en-US/login", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.next.called)
	})

	t.Run("root path protected by exact match", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/en-US/", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/en-US/login?redirect=%2F", rec.Header().Get("Location"))
	})

	t.Run("unknown locale collapses to default", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/xx-XX/tours", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/en-US/login?redirect=%2Ftours", rec.Header().Get("Location"))
	})

	t.Run("polish locale preserved in redirect", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/pl-PL/tours", nil))

		assert.Equal(t, "/pl-PL/login?redirect=%2Ftours", rec.Header().Get("Location"))
	})

	t.Run("provider outage fails closed to login", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{err: session.ErrProviderUnavailable})
		rec := f.serve(withSession(httptest.NewRequest(http.MethodGet, "/en-US/tours", nil)))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/en-US/login?redirect=%2Ftours", rec.Header().Get("Location"))
	})

	t.Run("locale cookie persisted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/pl-PL/login", nil))

		var localeCookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == i18n.LocaleCookieName {
				localeCookie = c
			}
		}
		require.NotNil(t, localeCookie)
		assert.Equal(t, "pl-PL", localeCookie.Value)
		assert.Equal(t, i18n.LocaleCookieMaxAge, localeCookie.MaxAge)
	})
}

func TestGateAPIRoutes(t *testing.T) {
	t.Parallel()

	t.Run("post without csrf token rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodPost, "/api/tours", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"CSRF_TOKEN_INVALID"`)
		assert.False(t, f.next.called)
	})

	t.Run("post with echoed token forwards with body intact", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		c, token := csrfPair(t, f)

		req := httptest.NewRequest(http.MethodPost, "/api/tours", strings.NewReader(`{"title":"Alps"}`))
		req.AddCookie(c)
		req.Header.Set("X-CSRF-Token", token)
		req.Header.Set("Content-Type", "application/json")

		rec := f.serve(req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, f.next.called)
		assert.Equal(t, `{"title":"Alps"}`, f.next.body)
	})

	t.Run("api get passes without token and without session check", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{err: session.ErrProviderUnavailable})
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/api/tours", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.next.called)
		assert.Nil(t, f.next.identity)
	})

	t.Run("exempt auth endpoint passes without token", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodPost, "/api/auth/magic-link", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.next.called)
	})

	t.Run("locale prefix stripped before api matching", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &scriptedProvider{})
		rec := f.serve(httptest.NewRequest(http.MethodPost, "/en-US/api/tours", nil))

		// Still an API route after locale stripping: CSRF applies.
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGateIssuesCsrfToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &scriptedProvider{})
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/en-US/login", nil))

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == f.guard.CookieName() {
			found = true
			assert.NotEmpty(t, c.Value)
			assert.False(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "gate must mint a csrf token cookie")
}

func TestGateRecoversPanics(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &scriptedProvider{})
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	f.gate.Middleware(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en-US/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"INTERNAL_ERROR"`)
}
