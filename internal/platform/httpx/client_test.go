package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersAndJSONBody(t *testing.T) {
	var gotAuth, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(
		WithBaseURL(srv.URL),
		WithHeader("Authorization", "Bearer tok"),
		WithRateLimit(100),
	)

	resp, err := c.POST(context.Background(), "/v1/things", map[string]string{"name": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected auth header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected json content type, got %q", gotContentType)
	}
	if gotBody != `{"name":"x"}` {
		t.Errorf("unexpected body %q", gotBody)
	}

	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := resp.ParseJSON(&parsed); err != nil || !parsed.OK {
		t.Errorf("failed to parse response: %v", err)
	}
}

func TestErrorStatusReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(100))

	_, err := c.GET(context.Background(), "/missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", se.StatusCode)
	}
}

func TestCancelledContextAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GET(ctx, "/"); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestParseJSONFailure(t *testing.T) {
	r := &Response{Body: []byte("not-json")}
	var v map[string]any
	if err := r.ParseJSON(&v); err == nil {
		t.Error("expected parse error")
	}
}
