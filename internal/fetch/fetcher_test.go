package fetch

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fastStrategies mirrors the default ladder with zero delays so tests
// do not sleep.
func fastStrategies() []Strategy {
	return []Strategy{
		{Name: "Standard"},
		{Name: "Slow"},
		{Name: "Mobile", Mobile: true},
	}
}

func htmlPage(filler int) string {
	return "<html><body>" + strings.Repeat("x", filler) + "</body></html>"
}

func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns the body on a clean 200", func(t *testing.T) {
		t.Parallel()

		page := htmlPage(300)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") == "" {
				t.Error("request carried no User-Agent header")
			}
			if r.Header.Get("Accept-Language") == "" {
				t.Error("request carried no Accept-Language header")
			}
			_, _ = w.Write([]byte(page))
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithStrategies(fastStrategies()))
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != page {
			t.Errorf("body length = %d, want %d", len(body), len(page))
		}
	})

	t.Run("retries until a later attempt succeeds", func(t *testing.T) {
		t.Parallel()

		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 4 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(htmlPage(300)))
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithStrategies(fastStrategies()))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch() error = %v, want success on fourth attempt", err)
		}
		if calls != 4 {
			t.Errorf("server saw %d requests, want 4", calls)
		}
	})

	t.Run("rejects bodies that are too short", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>tiny</html>"))
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithStrategies(fastStrategies()))
		if _, err := f.Fetch(context.Background(), server.URL); !errors.Is(err, ErrExhausted) {
			t.Errorf("Fetch() error = %v, want ErrExhausted", err)
		}
	})

	t.Run("rejects bodies without an html marker", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("not markup ", 50)))
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithStrategies(fastStrategies()))
		if _, err := f.Fetch(context.Background(), server.URL); !errors.Is(err, ErrExhausted) {
			t.Errorf("Fetch() error = %v, want ErrExhausted", err)
		}
	})

	t.Run("exhausts every strategy before failing", func(t *testing.T) {
		t.Parallel()

		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithStrategies(fastStrategies()))
		if _, err := f.Fetch(context.Background(), server.URL); !errors.Is(err, ErrExhausted) {
			t.Fatalf("Fetch() error = %v, want ErrExhausted", err)
		}
		if want := 3 * defaultMaxRetries; calls != want {
			t.Errorf("server saw %d requests, want %d", calls, want)
		}
	})

	t.Run("mobile strategy swaps the user agent", func(t *testing.T) {
		t.Parallel()

		var sawMobile bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("User-Agent"), "iPhone") {
				sawMobile = true
				_, _ = w.Write([]byte(htmlPage(300)))
				return
			}
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithStrategies(fastStrategies()))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch() error = %v, want mobile strategy to succeed", err)
		}
		if !sawMobile {
			t.Error("mobile user agent never reached the server")
		}
	})

	t.Run("honors context cancellation during retry delays", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		f := NewFetcher(server.Client(), WithStrategies([]Strategy{
			{Name: "Standard", BaseDelay: 10 * time.Second},
		}))
		if _, err := f.Fetch(ctx, server.URL); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Fetch() error = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestFetcherSiteOverrides(t *testing.T) {
	t.Parallel()

	var gotCookie, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(htmlPage(300)))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(),
		WithStrategies(fastStrategies()),
		WithCookie("session=abc123"),
		WithExtraHeaders(map[string]string{"Authorization": "Bearer token"}),
	)

	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotCookie != "session=abc123" {
		t.Errorf("Cookie header = %q, want configured cookie", gotCookie)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("Authorization header = %q, want configured header", gotAuth)
	}
}

func TestBrowserHeaders(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))

	t.Run("desktop profiles come from the rotation pool", func(t *testing.T) {
		headers := browserHeaders(rng, false)
		ua := headers["User-Agent"]
		var known bool
		for _, candidate := range desktopUserAgents {
			if ua == candidate {
				known = true
			}
		}
		if !known {
			t.Errorf("unknown desktop user agent %q", ua)
		}
		if headers["Sec-Fetch-Mode"] != "navigate" {
			t.Errorf("Sec-Fetch-Mode = %q, want navigate", headers["Sec-Fetch-Mode"])
		}
	})

	t.Run("mobile overrides the user agent only", func(t *testing.T) {
		headers := browserHeaders(rng, true)
		if headers["User-Agent"] != mobileUserAgent {
			t.Errorf("User-Agent = %q, want the iPhone identity", headers["User-Agent"])
		}
		if headers["Accept"] == "" {
			t.Error("mobile profile dropped the Accept header")
		}
	})
}
