package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/cache"
)

// Limiter checks distributed token buckets. *cache.Cache implements it.
type Limiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger        *slog.Logger
	Limiter       Limiter
	RatePerMinute int // zero disables the limit
	Burst         int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Used on the unauthenticated identity endpoints.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return rateLimit(cfg, "ip", func(r *http.Request) (string, bool) {
		return getClientIP(r), true
	}, cfg.Limiter.CheckIPRateLimit)
}

// RateLimitUser returns middleware that rate limits requests per signed-in
// user. Must be applied after Auth.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return rateLimit(cfg, "user", func(r *http.Request) (string, bool) {
		id := auth.UserIDFromContext(r.Context())
		return id, id != ""
	}, cfg.Limiter.CheckUserRateLimit)
}

type checkFunc func(ctx context.Context, key string, ratePerMinute, burst int) (*cache.RateLimitResult, error)

func rateLimit(cfg RateLimitConfig, kind string, keyOf func(*http.Request) (string, bool), check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := keyOf(r)
			if cfg.RatePerMinute == 0 || !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, err := check(r.Context(), key, cfg.RatePerMinute, cfg.Burst)
			if err != nil {
				// Fail open.
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("type", kind),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.RatePerMinute, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("type", kind),
					slog.String("ip", getClientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", retryAfterSeconds(result.RetryAfter)),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LocalLimiterConfig configures the in-process per-IP limiter.
type LocalLimiterConfig struct {
	RPS             int
	Burst           int
	CleanupInterval time.Duration
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalLimiter rate limits per client IP inside one process. It guards the
// public object route, which must keep working without Redis.
type LocalLimiter struct {
	cfg      LocalLimiterConfig
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLocalLimiter starts a LocalLimiter and its cleanup loop.
func NewLocalLimiter(cfg LocalLimiterConfig) *LocalLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	l := &LocalLimiter{
		cfg:      cfg,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Stop ends the cleanup loop.
func (l *LocalLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Middleware returns the limiting middleware. A zero RPS disables it.
func (l *LocalLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.cfg.RPS <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if !l.get(getClientIP(r)).Allow() {
				wait := time.Duration(math.Ceil(float64(time.Second) / float64(l.cfg.RPS)))
				writeRateLimitError(w, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Len returns the number of tracked clients.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LocalLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

func (l *LocalLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

// cleanup drops limiters idle for two cleanup intervals.
func (l *LocalLimiter) cleanup(now time.Time) {
	ttl := l.cfg.CleanupInterval * 2

	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(l.limiters, ip)
		}
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	secs := retryAfterSeconds(retryAfter)
	w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", secs))
}

// retryAfterSeconds rounds up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int64 {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers for proxied requests.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
