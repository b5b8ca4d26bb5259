// Command server runs the Wanderkit HTTP server: the request gate in front
// of the page routes and the tours/account APIs behind it.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/wanderkit/wanderkit/gate"
	"github.com/wanderkit/wanderkit/migrations"
	"github.com/wanderkit/wanderkit/modules/account"
	"github.com/wanderkit/wanderkit/modules/tours"
	"github.com/wanderkit/wanderkit/pkg/config"
	"github.com/wanderkit/wanderkit/pkg/cookie"
	"github.com/wanderkit/wanderkit/pkg/csrf"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/mailer"
	"github.com/wanderkit/wanderkit/pkg/pg"
	"github.com/wanderkit/wanderkit/pkg/ratelimit"
	"github.com/wanderkit/wanderkit/pkg/redis"
	"github.com/wanderkit/wanderkit/pkg/session"
	"github.com/wanderkit/wanderkit/translations"
)

type appConfig struct {
	Port             int      `env:"PORT" envDefault:"8080"`
	Env              string   `env:"APP_ENV" envDefault:"development"`
	BaseURL          string   `env:"BASE_URL" envDefault:"http://localhost:8080"`
	CookieSecrets    []string `env:"COOKIE_SECRETS,required"`
	TokenSecret      string   `env:"TOKEN_SECRET,required"`
	SecureCookies    bool     `env:"SECURE_COOKIES" envDefault:"false"`
	DefaultLocale    string   `env:"DEFAULT_LOCALE" envDefault:"en-US"`
	SupportedLocales []string `env:"SUPPORTED_LOCALES" envDefault:"en-US,pl-PL"`
	RatelimitRedis   bool     `env:"RATELIMIT_REDIS" envDefault:"false"`
	MailDevDir       string   `env:"MAIL_DEV_DIR" envDefault:"./tmp/mail"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

const magicLinkPath = "/api/auth/magic-link"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttr(slog.String("app", "wanderkit")))

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var cfg appConfig
	config.MustLoad(&cfg)

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cookies, err := cookie.New(cfg.CookieSecrets)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}

	locales, err := i18n.NewLocales(cfg.DefaultLocale, cfg.SupportedLocales...)
	if err != nil {
		return fmt.Errorf("locales: %w", err)
	}

	translator, err := i18n.NewTranslatorFromFS(translations.FS, cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("translator: %w", err)
	}

	// Redis keeps rate limit windows shared across replicas; a single
	// instance can run on the in-memory store.
	var store ratelimit.Store
	if cfg.RatelimitRedis {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = client.Close() }()

		store = ratelimit.NewRedisStore(client)
	} else {
		memStore := ratelimit.NewMemoryStore()
		defer func() { _ = memStore.Close() }()
		store = memStore
	}

	apiLimiter, err := ratelimit.NewFixedWindow(store, ratelimit.PresetAPI)
	if err != nil {
		return fmt.Errorf("api limiter: %w", err)
	}

	// Magic-link sending gets a token bucket: the tight auth budget refills
	// continuously instead of resetting at window edges. Process-local by
	// construction, so the budget applies per instance.
	authLimiter, err := ratelimit.NewTokenBucket(ratelimit.PresetAuth, 0)
	if err != nil {
		return fmt.Errorf("auth limiter: %w", err)
	}
	defer func() { _ = authLimiter.Close() }()

	guard := csrf.New(cookies,
		csrf.WithSecureCookies(cfg.SecureCookies),
		csrf.WithExemptPaths(magicLinkPath),
	)

	var providerCfg session.HTTPProviderConfig
	config.MustLoad(&providerCfg)
	provider := session.NewHTTPProvider(providerCfg, &http.Client{Timeout: 10 * time.Second})
	validator := session.NewValidator(provider, session.WithLogger(log))

	var mail mailer.Mailer
	if cfg.Env == "production" {
		var mailCfg mailer.Config
		config.MustLoad(&mailCfg)
		mail, err = mailer.NewPostmark(mailCfg)
		if err != nil {
			return fmt.Errorf("mailer: %w", err)
		}
	} else {
		mail = mailer.NewDev(cfg.MailDevDir)
	}

	userStorage := account.NewPgStorage(pool)
	accountService := account.NewService(userStorage, mail, translator, cfg.TokenSecret, cfg.BaseURL,
		account.WithLogger(log))
	accountHandler := account.NewHandler(accountService, provider, cookies, locales,
		account.WithSecureCookies(cfg.SecureCookies),
		account.WithHandlerLogger(log))

	tourRepo := tours.NewPgRepository(pool)
	notifier := tours.NewMailNotifier(mail, translator, cfg.BaseURL,
		func(ctx context.Context, userID uuid.UUID) (string, error) {
			user, err := userStorage.GetUserByID(ctx, userID)
			if err != nil {
				return "", err
			}
			return user.Email, nil
		})
	tourService := tours.NewService(tourRepo,
		tours.WithNotifier(notifier),
		tours.WithLogger(log))
	tourHandler := tours.NewHandler(tourService, tours.WithHandlerLogger(log))

	requestGate := gate.New(locales, cookies, guard, validator, gate.DefaultConfig(),
		gate.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestGate.Middleware)

	r.Route("/api", func(r chi.Router) {
		// Anonymous auth endpoints key by client IP.
		r.Route("/auth", func(r chi.Router) {
			r.With(ratelimit.Middleware(authLimiter, ratelimit.ByClientIP)).
				Post("/magic-link", accountHandler.HandleRequestMagicLink)
			r.With(ratelimit.Middleware(apiLimiter, ratelimit.ByClientIP)).
				Post("/logout", accountHandler.HandleLogout)
		})

		// RequireIdentity runs before the limiter so ByIdentity sees the
		// resolved user and keys the budget per account, not per IP.
		r.With(
			validator.RequireIdentity,
			ratelimit.Middleware(apiLimiter, ratelimit.ByIdentity),
		).Mount("/tours", tourHandler.Router())
	})

	r.Get("/auth/verify", accountHandler.HandleVerify)

	r.Get("/healthz", healthHandler(pg.Healthcheck(pool)))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	log.InfoContext(shutdownCtx, "shutting down")
	return server.Shutdown(shutdownCtx)
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
