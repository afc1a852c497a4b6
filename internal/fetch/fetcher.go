package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

const (
	// defaultMaxRetries is the number of attempts per strategy.
	defaultMaxRetries = 3

	// minBodyLength is the smallest body accepted as a real page.
	// Anything shorter is usually an error shim or a block page.
	minBodyLength = 200

	// defaultMaxBodySize limits how much of a response body is read.
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Strategy describes one retrieval posture: a name for logging, the
// base delay used to back off between retries, and whether to present
// a mobile browser identity.
type Strategy struct {
	Name      string
	BaseDelay time.Duration
	Mobile    bool
}

// DefaultStrategies returns the escalation ladder tried in order:
// a normal desktop request, a slower desktop request, then a mobile
// identity. Later strategies trade speed for a better chance of
// slipping past bot countermeasures.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "Standard", BaseDelay: 1 * time.Second},
		{Name: "Slow", BaseDelay: 3 * time.Second},
		{Name: "Mobile", BaseDelay: 2 * time.Second, Mobile: true},
	}
}

// Fetcher retrieves pages with rotating browser identities and a
// multi-strategy retry ladder.
type Fetcher struct {
	// client performs the HTTP requests. Callers supply it so tests
	// and proxied configurations can swap transports.
	client *http.Client

	// strategies is the escalation ladder tried in order.
	strategies []Strategy

	// maxRetries is the number of attempts per strategy.
	maxRetries int

	// maxBodySize limits the size of response bodies read.
	maxBodySize int64

	// rng drives header rotation and must be deterministic in tests.
	rng *rand.Rand

	// cookie, when non-empty, is sent with every request.
	cookie string

	// extraHeaders are set after the browser identity headers, so
	// per-site overrides win.
	extraHeaders map[string]string

	// logger records attempt-level progress.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithStrategies replaces the default escalation ladder.
func WithStrategies(strategies []Strategy) Option {
	return func(f *Fetcher) {
		f.strategies = strategies
	}
}

// WithMaxRetries sets the number of attempts per strategy.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithMaxBodySize sets the maximum response body size read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithRand sets the random source used for header rotation.
func WithRand(rng *rand.Rand) Option {
	return func(f *Fetcher) {
		f.rng = rng
	}
}

// WithCookie sets a cookie sent with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithExtraHeaders sets headers applied on top of the browser identity
// headers. Useful for sites that require authorization.
func WithExtraHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.extraHeaders = headers
	}
}

// WithLogger sets the logger used for attempt-level progress.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher backed by the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeout and redirect policy belong to the caller's configuration
//  2. Tests can inject httptest clients directly
//  3. Batch audits can share one client across fetchers
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		strategies:  DefaultStrategies(),
		maxRetries:  defaultMaxRetries,
		maxBodySize: defaultMaxBodySize,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves the page at pageURL, walking the strategy ladder
// until one attempt yields a usable HTML body. A usable body is an
// HTTP 200 response longer than 200 bytes that contains an "<html"
// marker.
//
// Before every retry after the first attempt of a strategy, Fetch
// sleeps for the strategy's base delay multiplied by the attempt
// number, so each strategy slows itself down as it keeps failing.
// Returns ErrExhausted once every strategy and retry has failed.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	for _, strategy := range f.strategies {
		for attempt := 1; attempt <= f.maxRetries; attempt++ {
			if attempt > 1 {
				delay := strategy.BaseDelay * time.Duration(attempt)
				f.logger.DebugContext(ctx, "waiting before retry",
					"strategy", strategy.Name, "attempt", attempt, "delay", delay)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(delay):
				}
			}

			body, err := f.attempt(ctx, pageURL, strategy)
			if err == nil {
				f.logger.DebugContext(ctx, "fetch succeeded",
					"url", pageURL, "strategy", strategy.Name, "attempt", attempt)
				return body, nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			f.logger.DebugContext(ctx, "fetch attempt failed",
				"url", pageURL, "strategy", strategy.Name, "attempt", attempt, "error", err)
		}
	}

	return "", ErrExhausted
}

// attempt performs a single request under the given strategy and
// validates the response body.
func (f *Fetcher) attempt(ctx context.Context, pageURL string, strategy Strategy) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	for key, value := range browserHeaders(f.rng, strategy.Mobile) {
		req.Header.Set(key, value)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for key, value := range f.extraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", err
	}

	body := string(raw)
	if len(body) <= minBodyLength || !strings.Contains(strings.ToLower(body), "<html") {
		return "", ErrBodyTooSmall
	}

	return body, nil
}

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d", e.Code)
}
