package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const avatarPath = "/storage/v1/object/public/avatars/0190c3f6-1b7e-7a4c-9f3e-2d1c0b9a8e7f/avatar.png"

func corsHandler(origins ...string) http.Handler {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = origins
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		path       string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{
			name:       "app origin lists tasks",
			origins:    []string{"https://app.taskdeck.dev"},
			method:     http.MethodGet,
			path:       "/rest/v1/tasks",
			origin:     "https://app.taskdeck.dev",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.taskdeck.dev",
		},
		{
			name:       "no origins configured leaves rest undecorated",
			method:     http.MethodGet,
			path:       "/rest/v1/tasks",
			origin:     "https://app.taskdeck.dev",
			wantStatus: http.StatusOK,
		},
		{
			name:       "subdomain pattern admits preview deploys",
			origins:    []string{"https://*.taskdeck.dev"},
			method:     http.MethodPost,
			path:       "/auth/v1/signin",
			origin:     "https://pr-12.taskdeck.dev",
			wantStatus: http.StatusOK,
			wantOrigin: "https://pr-12.taskdeck.dev",
		},
		{
			name:       "subdomain pattern rejects lookalike host",
			origins:    []string{"https://*.taskdeck.dev"},
			method:     http.MethodGet,
			path:       "/rest/v1/profile",
			origin:     "https://eviltaskdeck.dev",
			wantStatus: http.StatusOK,
		},
		{
			name:       "scheme must match",
			origins:    []string{"https://app.taskdeck.dev"},
			method:     http.MethodGet,
			path:       "/rest/v1/tasks",
			origin:     "http://app.taskdeck.dev",
			wantStatus: http.StatusOK,
		},
		{
			name:       "origin match ignores case and trailing slash in config",
			origins:    []string{"HTTPS://App.Taskdeck.dev/"},
			method:     http.MethodGet,
			path:       "/rest/v1/tasks",
			origin:     "https://app.taskdeck.dev",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.taskdeck.dev",
		},
		{
			name:       "preflight on task update",
			origins:    []string{"https://app.taskdeck.dev"},
			method:     http.MethodOptions,
			path:       "/rest/v1/tasks/0190c3f6-1b7e-7a4c-9f3e-2d1c0b9a8e7f",
			origin:     "https://app.taskdeck.dev",
			preflight:  true,
			wantStatus: http.StatusNoContent,
			wantOrigin: "https://app.taskdeck.dev",
		},
		{
			name:       "preflight from unknown origin is refused",
			origins:    []string{"https://app.taskdeck.dev"},
			method:     http.MethodOptions,
			path:       "/rest/v1/tasks",
			origin:     "https://evil.example",
			preflight:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "public avatar readable from any origin",
			method:     http.MethodGet,
			path:       avatarPath,
			origin:     "https://blog.example",
			wantStatus: http.StatusOK,
			wantOrigin: "*",
		},
		{
			name:       "public avatar preflight from any origin",
			method:     http.MethodOptions,
			path:       avatarPath,
			origin:     "https://blog.example",
			preflight:  true,
			wantStatus: http.StatusNoContent,
			wantOrigin: "*",
		},
		{
			name:       "avatar upload is not public",
			origins:    []string{"https://app.taskdeck.dev"},
			method:     http.MethodOptions,
			path:       "/storage/v1/avatars",
			origin:     "https://blog.example",
			preflight:  true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "same-origin request is untouched",
			origins:    []string{"https://app.taskdeck.dev"},
			method:     http.MethodGet,
			path:       "/rest/v1/tasks",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			rec := httptest.NewRecorder()

			corsHandler(tt.origins...).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORS_PreflightAdvertisesRESTSurface(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/rest/v1/tasks", nil)
	req.Header.Set("Origin", "https://app.taskdeck.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	corsHandler("https://app.taskdeck.dev").ServeHTTP(rec, req)

	methods := rec.Header().Get("Access-Control-Allow-Methods")
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		if !strings.Contains(methods, m) {
			t.Errorf("Access-Control-Allow-Methods = %q, missing %s", methods, m)
		}
	}
	headers := rec.Header().Get("Access-Control-Allow-Headers")
	for _, h := range []string{"Authorization", "Content-Type", RequestIDHeader} {
		if !strings.Contains(headers, h) {
			t.Errorf("Access-Control-Allow-Headers = %q, missing %s", headers, h)
		}
	}
	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{RequestIDHeader, "Retry-After", "X-RateLimit-Remaining"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("Access-Control-Expose-Headers = %q, missing %s", exposed, h)
		}
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Access-Control-Max-Age = %q, want 600", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want unset", got)
	}
}

func TestCORS_PublicPreflightIsReadOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, avatarPath, nil)
	req.Header.Set("Origin", "https://blog.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	corsHandler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, HEAD" {
		t.Errorf("Access-Control-Allow-Methods = %q, want GET, HEAD", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "" {
		t.Errorf("Access-Control-Allow-Headers = %q, want unset", got)
	}
}

func TestCORS_RefusedPreflightIsEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/rest/v1/tasks", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()

	RequestID(corsHandler("https://app.taskdeck.dev")).ServeHTTP(rec, req)

	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "ORIGIN_NOT_ALLOWED" {
		t.Errorf("code = %q, want ORIGIN_NOT_ALLOWED", body.Error.Code)
	}
	if body.Error.RequestID == "" || body.Error.RequestID != rec.Header().Get(RequestIDHeader) {
		t.Errorf("request_id = %q, header = %q", body.Error.RequestID, rec.Header().Get(RequestIDHeader))
	}
}
