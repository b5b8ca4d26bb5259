package gate

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/wanderkit/wanderkit/core"
	"github.com/wanderkit/wanderkit/pkg/cookie"
	"github.com/wanderkit/wanderkit/pkg/csrf"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/session"
)

// Stage is one policy step of the pipeline. Stages run in fixed order and
// each resolves to an Action.
type Stage interface {
	Name() string
	Process(w http.ResponseWriter, rc *RequestContext) Action
}

// localeStage resolves the locale prefix of the path against the allow-list
// and persists the choice in the locale cookie.
type localeStage struct {
	locales *i18n.Locales
	cookies *cookie.Manager
}

func (s *localeStage) Name() string { return "locale" }

func (s *localeStage) Process(w http.ResponseWriter, rc *RequestContext) Action {
	locale, rest := s.locales.SplitPath(rc.Request.URL.Path)
	rc.Locale = locale
	rc.Path = rest

	if current, err := s.cookies.Get(rc.Request, i18n.LocaleCookieName); err != nil || current != locale {
		s.cookies.Set(w, i18n.LocaleCookieName, locale,
			cookie.WithMaxAge(i18n.LocaleCookieMaxAge),
			cookie.WithHTTPOnly(false),
		)
	}

	return Continue()
}

// csrfStage guarantees a token cookie exists and, for API paths, enforces
// the double-submit check before the request reaches any handler.
type csrfStage struct {
	guard     *csrf.Guard
	apiPrefix string
}

func (s *csrfStage) Name() string { return "csrf" }

func (s *csrfStage) Process(w http.ResponseWriter, rc *RequestContext) Action {
	if _, err := s.guard.EnsureToken(w, rc.Request); err != nil {
		return Reject(core.JSONError(core.ErrInternalServer))
	}

	if !strings.HasPrefix(rc.Path, s.apiPrefix) {
		return Continue()
	}

	if err := s.guard.Check(rc.StrippedRequest()); err != nil {
		return Reject(core.JSONError(core.ErrCsrfTokenInvalid))
	}

	return Continue()
}

// sessionStage validates the session on page routes and applies the
// protection rules: authenticated users leave guest-only pages, anonymous
// users leave protected ones.
type sessionStage struct {
	validator *session.Validator
	cookies   *cookie.Manager
	apiPrefix string

	protectedPrefixes []string
	guestOnlyPaths    []string
	loginPath         string

	log *slog.Logger
}

func (s *sessionStage) Name() string { return "session" }

func (s *sessionStage) Process(w http.ResponseWriter, rc *RequestContext) Action {
	// API handlers perform their own authorization.
	if strings.HasPrefix(rc.Path, s.apiPrefix) {
		return Continue()
	}

	identity, err := s.validator.Validate(rc.Request.Context(), rc.Request)
	if err != nil {
		// Transport fault: fail closed, continue as unauthenticated.
		s.log.WarnContext(rc.Request.Context(), "session validation degraded",
			logger.Error(err),
			logger.Component("gate"),
		)
	}

	if identity != nil {
		rc.Identity = identity

		if slices.Contains(s.guestOnlyPaths, rc.Path) {
			return Redirect("/"+rc.Locale+"/", http.StatusSeeOther)
		}
		return Continue()
	}

	if s.isProtected(rc.Path) {
		// Remember where the visitor was heading; the verify handler
		// restores it after sign-in.
		s.cookies.SetSigned(w, session.PostLoginRedirectCookie, rc.Path,
			cookie.WithMaxAge(session.PostLoginRedirectMaxAge),
		)
		target := "/" + rc.Locale + s.loginPath + "?redirect=" + url.QueryEscape(rc.Path)
		return Redirect(target, http.StatusSeeOther)
	}

	return Continue()
}

// isProtected matches the path against the protected prefixes. The root
// path must match exactly so "/" does not shadow every route.
func (s *sessionStage) isProtected(path string) bool {
	for _, prefix := range s.protectedPrefixes {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
