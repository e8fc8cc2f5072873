package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/middleware"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Logger        *slog.Logger
	Authenticator middleware.Authenticator
	Metrics       metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	// Limiter backs the distributed rate limits. Nil disables them.
	Limiter           middleware.Limiter
	AuthRatePerMinute int
	AuthBurst         int
	APIRatePerMinute  int
	APIBurst          int
	// ObjectLimiter guards public object reads. Nil disables it.
	ObjectLimiter *middleware.LocalLimiter

	CORS        middleware.CORSConfig
	Security    middleware.SecurityConfig
	MaxBodySize int64

	Health  *HealthHandler
	Auth    *AuthHandler
	Tasks   *TaskHandler
	Profile *ProfileHandler
	Storage *StorageHandler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Instrument(cfg.Metrics))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	authMW := middleware.Auth(middleware.AuthConfig{
		Logger:        cfg.Logger,
		Authenticator: cfg.Authenticator,
	})
	ipLimit := passthrough
	userLimit := passthrough
	if cfg.Limiter != nil {
		ipLimit = middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:        cfg.Logger,
			Limiter:       cfg.Limiter,
			RatePerMinute: cfg.AuthRatePerMinute,
			Burst:         cfg.AuthBurst,
		})
		userLimit = middleware.RateLimitUser(middleware.RateLimitConfig{
			Logger:        cfg.Logger,
			Limiter:       cfg.Limiter,
			RatePerMinute: cfg.APIRatePerMinute,
			Burst:         cfg.APIBurst,
		})
	}

	r.Route("/auth/v1", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
		r.Use(middleware.RequireJSON)

		r.Group(func(r chi.Router) {
			r.Use(ipLimit)
			r.Post("/signup", cfg.Auth.SignUp)
			r.Post("/signin", cfg.Auth.SignIn)
			r.Post("/refresh", cfg.Auth.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Post("/signout", cfg.Auth.SignOut)
			r.Get("/user", cfg.Auth.User)
		})
	})

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Use(userLimit)
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
		r.Use(middleware.RequireJSON)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", cfg.Tasks.List)
			r.Post("/", cfg.Tasks.Create)
			r.Get("/counts", cfg.Tasks.Counts)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.ValidateUUIDParam("id"))
				r.Get("/", cfg.Tasks.Get)
				r.Patch("/", cfg.Tasks.Update)
				r.Delete("/", cfg.Tasks.Delete)
				r.Post("/toggle", cfg.Tasks.Toggle)
			})
		})

		r.Get("/profile", cfg.Profile.Get)
		r.Put("/profile", cfg.Profile.Upsert)
	})

	r.Route("/storage/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Use(userLimit)
			r.Post("/avatars", cfg.Storage.UploadAvatar)
		})

		r.Group(func(r chi.Router) {
			if cfg.ObjectLimiter != nil {
				r.Use(cfg.ObjectLimiter.Middleware())
			}
			r.Get("/object/public/avatars/*", cfg.Storage.ServeAvatar)
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
