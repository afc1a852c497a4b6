package audit

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/siteaudit/siteaudit/internal/crawl"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/pipeline"
)

// Default audit tunables.
const (
	// DefaultMaxPages is the page budget per audit: seed plus links.
	DefaultMaxPages = 20

	// DefaultRequestDelay is the lower bound of the pacing interval
	// between page fetches.
	DefaultRequestDelay = 2 * time.Second

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 15 * time.Second
)

// Auditor runs complete form audits against websites.
type Auditor struct {
	// fetcher retrieves pages; shared across all steps of one audit.
	fetcher Fetcher

	// maxPages caps the number of pages analyzed per audit.
	maxPages int

	// maxLinks caps how many links are harvested from the seed page.
	maxLinks int

	// requestDelay is the lower bound of the inter-page pacing interval.
	requestDelay time.Duration

	// rng drives pacing jitter and the degraded-mode estimator.
	rng *rand.Rand

	// logger records audit progress.
	logger *slog.Logger
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithMaxPages sets the page budget per audit.
func WithMaxPages(n int) AuditorOption {
	return func(a *Auditor) {
		a.maxPages = n
	}
}

// WithMaxLinks sets the link harvest cap for the seed page.
func WithMaxLinks(n int) AuditorOption {
	return func(a *Auditor) {
		a.maxLinks = n
	}
}

// WithRequestDelay sets the pacing interval lower bound.
func WithRequestDelay(d time.Duration) AuditorOption {
	return func(a *Auditor) {
		a.requestDelay = d
	}
}

// WithFetcher replaces the page fetcher. Tests use this to avoid
// network access.
func WithFetcher(fetcher Fetcher) AuditorOption {
	return func(a *Auditor) {
		a.fetcher = fetcher
	}
}

// WithRand sets the random source for pacing and estimation.
func WithRand(rng *rand.Rand) AuditorOption {
	return func(a *Auditor) {
		a.rng = rng
	}
}

// WithLogger sets the audit logger.
func WithLogger(logger *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// NewAuditor creates an Auditor with its own stealth fetcher bound to
// the given HTTP client.
func NewAuditor(client *http.Client, opts ...AuditorOption) *Auditor {
	a := &Auditor{
		maxPages:     DefaultMaxPages,
		maxLinks:     crawl.DefaultMaxLinks,
		requestDelay: DefaultRequestDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.fetcher == nil {
		a.fetcher = fetch.NewFetcher(client,
			fetch.WithRand(a.rng),
			fetch.WithLogger(a.logger),
		)
	}

	return a
}

// Run audits the target URL end to end and returns the report.
//
// A target that cannot be parsed into a URL is the only hard error.
// Everything else (blocked site, failing pages, zero forms) is absorbed
// into the report's status and failure records.
func (a *Auditor) Run(ctx context.Context, rawURL string) (*model.CrawlReport, error) {
	normalized, err := crawl.Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, crawl.ErrInvalidURL
	}

	target := model.CrawlTarget{RawInput: rawURL, NormalizedURL: normalized}
	report := model.NewCrawlReport(target, parsed.Host)

	a.logger.Info("starting form audit",
		"audit_id", report.AuditID, "url", normalized, "max_pages", a.maxPages)

	p := pipeline.New(pipeline.WithLogger(a.logger))
	p.AddSteps(
		NewSeedFetchStep(a.fetcher, a.logger),
		NewDiscoverLinksStep(crawl.NewDiscoverer(crawl.WithMaxLinks(a.maxLinks)), a.maxPages, a.logger),
		NewAnalyzePagesStep(a.fetcher, a.requestDelay, a.rng, a.logger),
		NewFingerprintStep(a.logger),
		NewEstimateStep(NewEstimator(a.rng)),
		NewAggregateStep(),
	)

	if err := p.Execute(ctx, report); err != nil {
		return nil, err
	}

	a.logger.Info("form audit finished",
		"audit_id", report.AuditID,
		"status", report.Status,
		"pages_analyzed", report.TotalPagesAnalyzed,
		"forms_found", report.TotalFormsFound,
		"seconds", report.ProcessingTimeSeconds)

	return report, nil
}
