package account

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wanderkit/wanderkit/core"
	"github.com/wanderkit/wanderkit/pkg/cookie"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/session"
)

const (
	accessTokenMaxAge  = 60 * 60          // 1 hour
	refreshTokenMaxAge = 30 * 24 * 60 * 60 // 30 days
)

// Handler exposes the account HTTP endpoints.
type Handler struct {
	service  *Service
	sessions session.Provider
	cookies  *cookie.Manager
	locales  *i18n.Locales
	secure   bool
	log      *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithSecureCookies marks session cookies Secure; enable outside local dev.
func WithSecureCookies(secure bool) HandlerOption {
	return func(h *Handler) { h.secure = secure }
}

// WithHandlerLogger sets a custom logger for the handler.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates the account HTTP handler.
func NewHandler(
	service *Service,
	sessions session.Provider,
	cookies *cookie.Manager,
	locales *i18n.Locales,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		service:  service,
		sessions: sessions,
		cookies:  cookies,
		locales:  locales,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// HandleRequestMagicLink accepts an email and sends a sign-in link. The
// response is 202 regardless of whether the account existed before.
func (h *Handler) HandleRequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	locale := h.locale(r)
	if err := h.service.RequestMagicLink(r.Context(), req.Email, locale); err != nil {
		h.render(w, r, core.JSONError(err))
		return
	}

	h.render(w, r, core.JSON(http.StatusAccepted, map[string]string{"status": "sent"}))
}

// HandleVerify completes the magic link flow: the token signs the user in,
// session cookies are set and the browser lands on the page it was heading
// to before login, falling back to the localized home page.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r)

	user, err := h.service.VerifyMagicLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.render(w, r, core.Redirect("/"+locale+"/login"))
		return
	}

	accessToken, refreshToken, err := h.sessions.IssueSession(r.Context(), user.ID.String(), user.Email)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to issue session",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("account"),
		)
		h.render(w, r, core.Redirect("/"+locale+"/login"))
		return
	}

	h.cookies.Set(w, session.AccessTokenCookie, accessToken,
		cookie.WithMaxAge(accessTokenMaxAge),
		cookie.WithSecure(h.secure),
	)
	h.cookies.Set(w, session.RefreshTokenCookie, refreshToken,
		cookie.WithMaxAge(refreshTokenMaxAge),
		cookie.WithSecure(h.secure),
	)

	target := "/" + locale + "/"
	if path, err := h.cookies.GetSigned(r, session.PostLoginRedirectCookie); err == nil && safeRedirectPath(path) {
		target = "/" + locale + path
	}
	h.cookies.Delete(w, session.PostLoginRedirectCookie)

	h.render(w, r, core.Redirect(target))
}

// safeRedirectPath accepts only site-relative paths, ruling out
// protocol-relative targets like "//evil.example".
func safeRedirectPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//")
}

// HandleLogout clears the session cookies.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Delete(w, session.AccessTokenCookie)
	h.cookies.Delete(w, session.RefreshTokenCookie)

	h.render(w, r, core.JSON(http.StatusOK, map[string]string{"status": "signed_out"}))
}

func (h *Handler) locale(r *http.Request) string {
	if locale := i18n.GetLocale(r.Context()); locale != "" {
		return locale
	}
	return h.locales.Default()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, resp core.Response) {
	if err := resp.Render(w, r); err != nil {
		h.log.ErrorContext(r.Context(), "failed to render response",
			logger.Error(err),
			logger.Component("account"),
		)
	}
}
