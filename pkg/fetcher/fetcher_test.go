package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/text":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("the cat sat"))
		case "/moved":
			http.Redirect(w, r, "/text", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	t.Run("ok", func(t *testing.T) {
		resp, err := f.Get(context.Background(), srv.URL+"/text")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(resp.Body) != "the cat sat" {
			t.Errorf("Body = %q", resp.Body)
		}
		if !strings.HasPrefix(resp.ContentType, "text/plain") {
			t.Errorf("ContentType = %q", resp.ContentType)
		}
	})

	t.Run("redirect records final URL", func(t *testing.T) {
		resp, err := f.Get(context.Background(), srv.URL+"/moved")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if resp.FinalURL != srv.URL+"/text" {
			t.Errorf("FinalURL = %q, want %q", resp.FinalURL, srv.URL+"/text")
		}
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		if _, err := f.Get(context.Background(), srv.URL+"/missing"); err == nil {
			t.Error("Get() expected error for 404")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := f.Get(ctx, srv.URL+"/text"); err == nil {
			t.Error("Get() expected error for cancelled context")
		}
	})
}

func TestGet_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		switch r.URL.Path {
		case "/exact":
			_, _ = w.Write([]byte(strings.Repeat("a", 16)))
		case "/over":
			_, _ = w.Write([]byte(strings.Repeat("a", 17)))
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	f.maxBodyBytes = 16

	resp, err := f.Get(context.Background(), srv.URL+"/exact")
	if err != nil {
		t.Fatalf("Get(exact) error = %v", err)
	}
	if len(resp.Body) != 16 {
		t.Errorf("len(Body) = %d, want 16", len(resp.Body))
	}

	resp, err = f.Get(context.Background(), srv.URL+"/over")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Get(over) error = %v, want ErrBodyTooLarge", err)
	}
	if resp != nil {
		t.Errorf("Get(over) returned a partial response of %d bytes", len(resp.Body))
	}
}
