package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := New(handler, Config{ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second}, testLogger())

	var order []string
	srv.OnShutdown("redis", func(context.Context) error {
		order = append(order, "redis")
		return nil
	})
	srv.OnShutdown("nats", func(context.Context) error {
		order = append(order, "nats")
		return errors.New("drain timeout")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err == nil || err.Error() != "nats: drain timeout" {
			t.Fatalf("Serve() error = %v, want the nats shutdown error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if len(order) != 2 || order[0] != "nats" || order[1] != "redis" {
		t.Errorf("shutdown order = %v, want [nats redis]", order)
	}
}

func TestServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close()

	srv := New(http.NotFoundHandler(), Config{ShutdownTimeout: time.Second}, testLogger())
	if err := srv.Serve(context.Background(), ln); err == nil {
		t.Fatal("Serve() on a closed listener should fail")
	}
}
