// Package gate is the request-gating pipeline every inbound request passes
// through: locale resolution, CSRF protection, and session validation run in
// fixed order, and every branch resolves to an explicit response or to
// forwarding — nothing escapes to the transport layer.
package gate

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/wanderkit/wanderkit/core"
	"github.com/wanderkit/wanderkit/pkg/cookie"
	"github.com/wanderkit/wanderkit/pkg/csrf"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/session"
)

// Config holds the routing policy of the gate.
type Config struct {
	// APIPrefix marks paths handled as API routes (CSRF-checked, no
	// session redirect).
	APIPrefix string

	// ProtectedPrefixes lists page route prefixes requiring a session.
	// The root path "/" is matched exactly, all others by prefix.
	ProtectedPrefixes []string

	// GuestOnlyPaths lists pages that authenticated users are redirected
	// away from, e.g. the login page.
	GuestOnlyPaths []string

	// LoginPath is the locale-relative login page used as redirect target.
	LoginPath string
}

// DefaultConfig returns the application's standard routing policy.
func DefaultConfig() Config {
	return Config{
		APIPrefix:         "/api",
		ProtectedPrefixes: []string{"/", "/tours", "/profile"},
		GuestOnlyPaths:    []string{"/login"},
		LoginPath:         "/login",
	}
}

// Gate runs the stage pipeline as HTTP middleware.
type Gate struct {
	stages []Stage
	log    *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate's logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// New wires the standard pipeline: locale, CSRF, session.
func New(
	locales *i18n.Locales,
	cookies *cookie.Manager,
	guard *csrf.Guard,
	validator *session.Validator,
	cfg Config,
	opts ...Option,
) *Gate {
	g := &Gate{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.stages = []Stage{
		&localeStage{locales: locales, cookies: cookies},
		&csrfStage{guard: guard, apiPrefix: cfg.APIPrefix},
		&sessionStage{
			validator:         validator,
			cookies:           cookies,
			apiPrefix:         cfg.APIPrefix,
			protectedPrefixes: cfg.ProtectedPrefixes,
			guestOnlyPaths:    cfg.GuestOnlyPaths,
			loginPath:         cfg.LoginPath,
			log:               g.log,
		},
	}

	return g
}

// Middleware runs the pipeline for every request. On Continue the request is
// forwarded with the locale-stripped path and the resolved locale and
// identity in context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				g.log.ErrorContext(r.Context(), "panic in request gate",
					slog.Any("panic", rec),
					logger.Component("gate"),
				)
				_ = core.JSONError(core.ErrInternalServer).Render(w, r)
			}
		}()

		rc := &RequestContext{Request: r}

		for _, stage := range g.stages {
			action := stage.Process(w, rc)
			switch action.kind {
			case actionRedirect:
				http.Redirect(w, r, action.url, action.code)
				return
			case actionReject:
				if err := action.resp.Render(w, r); err != nil {
					g.log.ErrorContext(r.Context(), "failed to render gate response",
						logger.Error(err),
						logger.Component("gate"),
					)
				}
				return
			}
		}

		ctx := i18n.SetLocale(r.Context(), rc.Locale)
		if rc.Identity != nil {
			ctx = session.WithIdentity(ctx, rc.Identity)
		}

		forwarded := r.Clone(ctx)
		forwarded.URL.Path = rc.Path

		next.ServeHTTP(w, forwarded)
	})
}
