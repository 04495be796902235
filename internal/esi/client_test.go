package esi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

func TestJumps(t *testing.T) {
	var gotPath, gotFlag string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFlag = r.URL.Query().Get("flag")
		switch r.URL.Path {
		case "/route/30000142/30002187/":
			_, _ = w.Write([]byte(`[30000142, 30000144, 30000139, 30002188, 30002187]`))
		case "/route/1/2/":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"No route found"}`))
		case "/route/3/4/":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/route/5/6/":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[5,6]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil, "therawatch-test")

	t.Run("path length minus one", func(t *testing.T) {
		n, err := c.Jumps(context.Background(), 30000142, 30002187, domain.PreferSecure)
		if err != nil {
			t.Fatalf("Jumps() error = %v", err)
		}
		if n != 4 {
			t.Errorf("Jumps() = %d, want 4", n)
		}
		if gotPath != "/route/30000142/30002187/" || gotFlag != "secure" {
			t.Errorf("request = %s?flag=%s, want preference forwarded", gotPath, gotFlag)
		}
	})

	t.Run("404 is no route", func(t *testing.T) {
		_, err := c.Jumps(context.Background(), 1, 2, domain.PreferShortest)
		if !errors.Is(err, domain.ErrNoRoute) {
			t.Errorf("Jumps() error = %v, want ErrNoRoute", err)
		}
		if errors.Is(err, domain.ErrTransientUpstream) {
			t.Errorf("Jumps() error = %v, no route must not be transient", err)
		}
	})

	t.Run("5xx is transient", func(t *testing.T) {
		_, err := c.Jumps(context.Background(), 3, 4, domain.PreferShortest)
		if !errors.Is(err, domain.ErrTransientUpstream) {
			t.Errorf("Jumps() error = %v, want ErrTransientUpstream", err)
		}
	})

	t.Run("deadline is transient", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.Jumps(ctx, 5, 6, domain.PreferShortest)
		if !errors.Is(err, domain.ErrTransientUpstream) {
			t.Errorf("Jumps() error = %v, want ErrTransientUpstream", err)
		}
	})

	t.Run("same system is zero", func(t *testing.T) {
		n, err := c.Jumps(context.Background(), 7, 7, domain.PreferShortest)
		if err != nil || n != 0 {
			t.Errorf("Jumps() = %d, %v, want 0, nil", n, err)
		}
	})
}
