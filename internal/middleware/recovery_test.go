package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRecoverer_WritesEnvelopeAndLogsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Get("/rest/v1/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		panic("nil task")
	})

	req := httptest.NewRequest(http.MethodGet, "/rest/v1/tasks/0190c3f6-1b7e-7a4c-9f3e-2d1c0b9a8e7f", nil)
	req.Header.Set(RequestIDHeader, "req-panic")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INTERNAL" || body.Error.RequestID != "req-panic" {
		t.Errorf("error = %+v", body.Error)
	}

	var event map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err == nil && entry["event"] == "panic_recovered" {
			event = entry
		}
	}
	if event == nil {
		t.Fatalf("no panic_recovered event in log: %s", buf.String())
	}
	if event["route"] != "/rest/v1/tasks/{id}" {
		t.Errorf("route = %v, want pattern", event["route"])
	}
	if event["request_id"] != "req-panic" {
		t.Errorf("request_id = %v", event["request_id"])
	}
	if event["panic"] != "nil task" {
		t.Errorf("panic = %v", event["panic"])
	}
}

func TestRecoverer_KeepsStartedResponse(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	handler := Logger(logger)(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		panic("object stream failed")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, avatarPath, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the already written 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "INTERNAL") {
		t.Errorf("envelope appended to a started body: %q", rec.Body.String())
	}
}
