package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-gateway-go/internal/config"
)

func testConfig(timeoutSeconds int) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			TimeoutSeconds: timeoutSeconds,
			MaxRetries:     3,
			PoolSize:       10,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDo_BuffersResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("X-Test = %q, want %q", got, "yes")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("body = %q, want %q", body, "payload")
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer upstream.Close()

	c := NewUpstreamClient(testConfig(10), discardLogger(), nil)
	header := http.Header{"X-Test": {"yes"}}

	resp, err := c.Do(context.Background(), "tasks", http.MethodPost, upstream.URL+"/x", header, []byte("payload"))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if string(resp.Body) != "created" {
		t.Errorf("Body = %q, want %q", resp.Body, "created")
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain" {
		t.Errorf("Content-Type = %q, want %q", got, "text/plain")
	}
}

func TestDo_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("moved"))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	c := NewUpstreamClient(testConfig(10), discardLogger(), nil)

	resp, err := c.Do(context.Background(), "auth", http.MethodGet, upstream.URL+"/old", nil, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d (redirect not followed)", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != "moved" {
		t.Errorf("Body = %q, want %q", resp.Body, "moved")
	}
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()

	c := NewUpstreamClient(testConfig(1), discardLogger(), nil)

	start := time.Now()
	_, err := c.Do(context.Background(), "tasks", http.MethodGet, upstream.URL, nil, nil)
	if err == nil {
		t.Fatal("Do() expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Do() took %v, timeout did not apply", elapsed)
	}
}

func TestGet_ExplicitTimeoutOverridesDefault(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()

	// Configured timeout is long; the explicit Get timeout must win.
	c := NewUpstreamClient(testConfig(30), discardLogger(), nil)

	start := time.Now()
	_, err := c.Get(context.Background(), "auth", upstream.URL, 500*time.Millisecond)
	if err == nil {
		t.Fatal("Get() expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Get() took %v, explicit timeout did not apply", elapsed)
	}
}

func TestDo_CanceledContext(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	c := NewUpstreamClient(testConfig(30), discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, "tasks", http.MethodGet, upstream.URL, nil, nil)
	if err == nil {
		t.Fatal("Do() expected error for canceled context, got nil")
	}
}
