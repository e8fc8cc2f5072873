// Package main is the entrypoint for the taskdeck API server.
//
// Usage:
//
//	api           run the HTTP server
//	api migrate   apply pending database migrations and exit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/database"
	"github.com/taskdeck/taskdeck/internal/handler"
	"github.com/taskdeck/taskdeck/internal/memstore"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/repository"
	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := runMigrate(cfg, logger); err != nil {
				logger.Error("migration failed", "error", err)
				os.Exit(1)
			}
			return
		default:
			logger.Error("unknown command", "command", os.Args[1])
			os.Exit(2)
		}
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// backend is a store that holds tasks, profiles, users and sessions.
type backend interface {
	access.Backend
	auth.Store
	handler.HealthChecker
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv := server.New(nil, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Initialize database
	var (
		store  backend
		dbPing handler.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := runMigrate(cfg, logger); err != nil {
				return err
			}
		}
		repo, err := repository.New(ctx, cfg.DatabaseURL, repository.WithAppRole(cfg.DatabaseAppRole))
		if err != nil {
			return fmt.Errorf("connect to database %s: %w", config.RedactURL(cfg.DatabaseURL), err)
		}
		srv.OnShutdown("postgres", func(context.Context) error {
			repo.Close()
			return nil
		})
		logger.Info("connected to database", "database_url", config.RedactURL(cfg.DatabaseURL))
		store, dbPing = repo, repo
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = memstore.New()
	}

	// Initialize cache
	var (
		cacheClient *cache.Cache
		cachePing   handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cache.Config{URL: cfg.RedisURL, KeyPrefix: cfg.RedisKeyPrefix})
		if err != nil {
			return fmt.Errorf("connect to Redis %s: %w", config.RedactURL(cfg.RedisURL), err)
		}
		srv.OnShutdown("redis", func(context.Context) error { return c.Close() })
		logger.Info("connected to Redis", "redis_url", config.RedactURL(cfg.RedisURL))
		cacheClient, cachePing = c, c
	} else {
		logger.Warn("REDIS_URL not set, revocation marks, count caching and rate limits are off")
	}

	// Initialize object storage
	var objects storage.ObjectStore
	var objectsPing handler.HealthChecker
	if cfg.NATSURL != "" {
		js, err := storage.NewJetStreamStore(cfg.NATSURL, cfg.AvatarBucket)
		if err != nil {
			return err
		}
		if err := js.Init(ctx); err != nil {
			js.Close()
			return err
		}
		srv.OnShutdown("nats", func(context.Context) error { return js.Close() })
		logger.Info("object store ready", "bucket", cfg.AvatarBucket)
		objects, objectsPing = js, js
	} else {
		logger.Warn("NATS_URL not set, avatars are kept in memory")
		mem := storage.NewMemoryStore()
		objects, objectsPing = mem, mem
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(reg)

	// Identity provider
	var providerOpts []auth.ProviderOption
	if cacheClient != nil {
		providerOpts = append(providerOpts, auth.WithRevocations(cacheClient))
	}
	provider := auth.NewProvider(
		store,
		auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL),
		auth.NewPasswordHasher(auth.DefaultArgon2Params),
		cfg.RefreshTokenTTL,
		providerOpts...,
	)

	// Initialize services
	guard := access.New(store)
	var counts service.CountsCache
	if cacheClient != nil {
		counts = cacheClient
	}
	taskService := service.NewTaskService(guard, counts, recorder, logger)
	profileService := service.NewProfileService(guard, recorder, logger)
	avatarService, err := service.NewAvatarService(guard, objects, cfg.PublicBaseURL, recorder, logger)
	if err != nil {
		return err
	}

	objectLimiter := middleware.NewLocalLimiter(middleware.LocalLimiterConfig{
		RPS:   cfg.PublicObjectRPS,
		Burst: cfg.PublicObjectBurst,
	})
	srv.OnShutdown("object-limiter", func(context.Context) error {
		objectLimiter.Stop()
		return nil
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	routerCfg := handler.RouterConfig{
		Logger:            logger,
		Authenticator:     provider,
		Metrics:           recorder,
		MetricsHandler:    metrics.Handler(reg),
		AuthRatePerMinute: cfg.AuthRateLimitPerMinute,
		AuthBurst:         cfg.AuthRateLimitBurst,
		APIRatePerMinute:  cfg.APIRateLimitPerMinute,
		APIBurst:          cfg.APIRateLimitBurst,
		ObjectLimiter:     objectLimiter,
		CORS:              corsCfg,
		Security:          middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodySize:       cfg.MaxRequestBodySize,
		Health:            handler.NewHealthHandler(dbPing, cachePing, objectsPing),
		Auth:              handler.NewAuthHandler(provider, recorder, logger),
		Tasks:             handler.NewTaskHandler(taskService, cfg.DefaultPageSize, logger),
		Profile:           handler.NewProfileHandler(profileService, logger),
		Storage:           handler.NewStorageHandler(avatarService, logger),
	}
	if cacheClient != nil {
		routerCfg.Limiter = cacheClient
	}
	srv.SetHandler(handler.NewRouter(routerCfg))

	logger.Info("starting server",
		"port", cfg.AppPort,
		"public_base_url", cfg.PublicBaseURL,
		"env", cfg.AppEnv,
	)
	return srv.Run()
}

func runMigrate(cfg *config.Config, logger *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required to migrate")
	}
	version, err := database.Migrate(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", "version", version)
	return nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "taskdeck-api")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
