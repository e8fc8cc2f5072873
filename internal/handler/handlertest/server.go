// Package handlertest runs the full HTTP surface in-process over the memory
// backends, for handler and client tests.
package handlertest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/handler"
	"github.com/taskdeck/taskdeck/internal/memstore"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/storage"
)

// Secret signs access tokens issued by the test server.
const Secret = "handlertest-secret-0123456789abcdef"

// Server is a running API backed by memory stores.
type Server struct {
	*httptest.Server
	Store    *memstore.Store
	Objects  *storage.MemoryStore
	Metrics  *metrics.InMemoryRecorder
	Provider *auth.Provider
}

// New starts a Server and registers its shutdown with t.
// AppOrigin is the browser origin the test router admits.
const AppOrigin = "https://app.taskdeck.test"

func New(t testing.TB) *Server {
	t.Helper()

	var router http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	objects := storage.NewMemoryStore()
	recorder := metrics.NewInMemory()

	hasher := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	provider := auth.NewProvider(store, auth.NewTokenManager(Secret, 15*time.Minute), hasher, time.Hour)

	guard := access.New(store)
	avatars, err := service.NewAvatarService(guard, objects, ts.URL, recorder, logger)
	if err != nil {
		t.Fatalf("NewAvatarService: %v", err)
	}

	objectLimiter := middleware.NewLocalLimiter(middleware.LocalLimiterConfig{RPS: 1000, Burst: 1000})
	t.Cleanup(objectLimiter.Stop)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{AppOrigin}

	router = handler.NewRouter(handler.RouterConfig{
		Logger:        logger,
		Authenticator: provider,
		Metrics:       recorder,
		ObjectLimiter: objectLimiter,
		CORS:          cors,
		Security:      middleware.SecurityConfig{IsDevelopment: true},
		Health:        handler.NewHealthHandler(store, nil, objects),
		Auth:          handler.NewAuthHandler(provider, recorder, logger),
		Tasks:         handler.NewTaskHandler(service.NewTaskService(guard, nil, recorder, logger), 10, logger),
		Profile:       handler.NewProfileHandler(service.NewProfileService(guard, recorder, logger), logger),
		Storage:       handler.NewStorageHandler(avatars, logger),
	})

	return &Server{
		Server:   ts,
		Store:    store,
		Objects:  objects,
		Metrics:  recorder,
		Provider: provider,
	}
}
