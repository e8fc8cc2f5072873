package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	// AllowedOrigins lists exact origins ("https://app.example.com") or
	// subdomain patterns ("https://*.example.com"). Empty denies every
	// cross-origin caller except on public objects.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration

	// PublicPrefix paths are readable by any origin with GET or HEAD.
	// Defaults to PublicObjectPrefix.
	PublicPrefix string
}

// DefaultCORSConfig covers the /auth/v1, /rest/v1 and /storage/v1 routes.
// Callers authenticate with bearer tokens, so credentials are never allowed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{
			RequestIDHeader,
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge:       10 * time.Minute,
		PublicPrefix: PublicObjectPrefix,
	}
}

type originPattern struct {
	scheme string
	host   string // exact host, or ".example.com" for a subdomain pattern
	port   string
}

func parseOrigin(raw string) (originPattern, bool) {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" || u.RawQuery != "" {
		return originPattern{}, false
	}
	return originPattern{scheme: u.Scheme, host: u.Hostname(), port: u.Port()}, true
}

func (p originPattern) matches(o originPattern) bool {
	if p.scheme != o.scheme || p.port != o.port {
		return false
	}
	if strings.HasPrefix(p.host, ".") {
		return strings.HasSuffix(o.host, p.host) && len(o.host) > len(p.host)
	}
	return p.host == o.host
}

// CORS answers preflights and decorates responses for allowed origins.
// A preflight from a disallowed origin gets a 403 envelope; a simple request
// from one is served without CORS headers and the browser withholds it.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	patterns := make([]originPattern, 0, len(cfg.AllowedOrigins))
	for _, raw := range cfg.AllowedOrigins {
		p, ok := parseOrigin(strings.Replace(strings.TrimSuffix(raw, "/"), "://*.", "://.", 1))
		if !ok {
			continue
		}
		patterns = append(patterns, p)
	}

	publicPrefix := cfg.PublicPrefix
	if publicPrefix == "" {
		publicPrefix = PublicObjectPrefix
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge / time.Second))
	}

	allowed := func(origin string) bool {
		o, ok := parseOrigin(origin)
		if !ok {
			return false
		}
		for _, p := range patterns {
			if p.matches(o) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if strings.HasPrefix(r.URL.Path, publicPrefix) {
				h.Set("Access-Control-Allow-Origin", "*")
				if preflight {
					h.Set("Access-Control-Allow-Methods", "GET, HEAD")
					if maxAge != "" {
						h.Set("Access-Control-Max-Age", maxAge)
					}
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !allowed(origin) {
				if preflight {
					writeError(w, http.StatusForbidden, "ORIGIN_NOT_ALLOWED", "origin not allowed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}
			if preflight {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if maxAge != "" {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
