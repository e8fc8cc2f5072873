package middleware

import (
	"net/http"
	"strings"
)

// PublicObjectPrefix is where avatar images are served without auth.
const PublicObjectPrefix = "/storage/v1/object/public/"

// SecurityConfig controls response hardening headers.
type SecurityConfig struct {
	IsDevelopment bool // no HSTS over plain HTTP

	// ObjectPrefix overrides PublicObjectPrefix.
	ObjectPrefix string
}

const (
	apiCSP    = "default-src 'none'; frame-ancestors 'none'"
	objectCSP = "default-src 'none'; img-src 'self'; sandbox"
	hsts      = "max-age=31536000; includeSubDomains"
)

// Security sets hardening headers. JSON API responses carry tokens and
// private rows: they are never cached and only readable same-origin.
// Public avatar objects are user-uploaded bytes: they may be embedded from
// any origin but are sandboxed and never sniffed into another type. Cache
// headers on objects are left to the object handler.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	prefix := cfg.ObjectPrefix
	if prefix == "" {
		prefix = PublicObjectPrefix
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			if !cfg.IsDevelopment {
				h.Set("Strict-Transport-Security", hsts)
			}

			if strings.HasPrefix(r.URL.Path, prefix) {
				h.Set("Content-Security-Policy", objectCSP)
				h.Set("Cross-Origin-Resource-Policy", "cross-origin")
			} else {
				h.Set("Content-Security-Policy", apiCSP)
				h.Set("Cross-Origin-Resource-Policy", "same-origin")
				h.Set("Cache-Control", "no-store")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize rejects bodies larger than maxBytes with PAYLOAD_TOO_LARGE.
// A declared Content-Length is refused up front; chunked bodies are cut off
// by http.MaxBytesReader and surface as a decode error in the handler.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
