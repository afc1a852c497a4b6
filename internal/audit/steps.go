package audit

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/siteaudit/siteaudit/internal/crawl"
	"github.com/siteaudit/siteaudit/internal/fingerprint"
	"github.com/siteaudit/siteaudit/internal/model"
)

// Fetcher retrieves a page body. Satisfied by *fetch.Fetcher; tests
// substitute canned responses.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// SeedFetchStep fetches the target's seed page. A seed that cannot be
// reached is not an error: the step marks the report so the estimator
// takes over downstream.
type SeedFetchStep struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewSeedFetchStep creates a SeedFetchStep.
func NewSeedFetchStep(fetcher Fetcher, logger *slog.Logger) *SeedFetchStep {
	return &SeedFetchStep{fetcher: fetcher, logger: logger}
}

// Name implements pipeline.Step.
func (s *SeedFetchStep) Name() string { return "seed_fetch" }

// Do implements pipeline.Step.
func (s *SeedFetchStep) Do(ctx context.Context, report *model.CrawlReport) error {
	body, err := s.fetcher.Fetch(ctx, report.URL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("seed page unreachable, audit will degrade to estimation",
			"url", report.URL, "error", err)
		report.SeedUnreachable = true
		report.LimitationReason = err.Error()
		return nil
	}

	s.logger.Info("seed page fetched", "url", report.URL, "bytes", len(body))
	report.SeedBody = body
	return nil
}

// DiscoverLinksStep extracts same-site links from the seed body and
// builds the page queue: the seed itself followed by discovered links,
// capped at maxPages entries total.
type DiscoverLinksStep struct {
	discoverer *crawl.Discoverer
	maxPages   int
	logger     *slog.Logger
}

// NewDiscoverLinksStep creates a DiscoverLinksStep.
func NewDiscoverLinksStep(discoverer *crawl.Discoverer, maxPages int, logger *slog.Logger) *DiscoverLinksStep {
	return &DiscoverLinksStep{discoverer: discoverer, maxPages: maxPages, logger: logger}
}

// Name implements pipeline.Step.
func (s *DiscoverLinksStep) Name() string { return "discover_links" }

// Do implements pipeline.Step.
func (s *DiscoverLinksStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if report.SeedUnreachable {
		return nil
	}

	links := s.discoverer.Discover(report.SeedBody, report.URL)
	s.logger.Info("internal links discovered", "url", report.URL, "count", len(links))

	queue := make([]model.PageRef, 0, s.maxPages)
	queue = append(queue, model.SeedPageRef(report.URL))
	for _, link := range links {
		if len(queue) >= s.maxPages {
			break
		}
		queue = append(queue, link)
	}

	report.PageQueue = queue
	return nil
}

// AnalyzePagesStep walks the page queue in order, fetching each page
// and extracting its forms. Requests are paced with a randomized delay
// so the crawl does not hammer the target.
type AnalyzePagesStep struct {
	fetcher Fetcher
	delay   time.Duration
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewAnalyzePagesStep creates an AnalyzePagesStep. The delay is the
// lower bound of the pacing interval; actual waits are drawn uniformly
// from [delay, 2*delay).
func NewAnalyzePagesStep(fetcher Fetcher, delay time.Duration, rng *rand.Rand, logger *slog.Logger) *AnalyzePagesStep {
	return &AnalyzePagesStep{fetcher: fetcher, delay: delay, rng: rng, logger: logger}
}

// Name implements pipeline.Step.
func (s *AnalyzePagesStep) Name() string { return "analyze_pages" }

// Do implements pipeline.Step.
func (s *AnalyzePagesStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if report.SeedUnreachable {
		return nil
	}

	report.TotalPagesAnalyzed = len(report.PageQueue)

	for i, ref := range report.PageQueue {
		// No pause before the first page; the seed fetch already
		// spaced us out.
		if i > 0 && s.delay > 0 {
			wait := s.delay + time.Duration(s.rng.Int63n(int64(s.delay)))
			s.logger.Debug("pacing before next page", "wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		s.logger.Info("analyzing page",
			"page", i+1, "total", len(report.PageQueue), "url", ref.URL)

		body, err := s.fetchPage(ctx, ref, report)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.AddFailure(ref, err.Error())
			continue
		}

		result, ok := analyzePage(ref, body)
		if !ok {
			// Pages without qualifying forms are silently skipped.
			continue
		}

		s.logger.Info("qualifying forms found",
			"url", ref.URL, "forms", result.FormsWithMultipleInputs)
		report.AddPageResult(result)
	}

	return nil
}

// fetchPage returns the page body, reusing the already-fetched seed
// body for the homepage entry so the target sees one less request.
func (s *AnalyzePagesStep) fetchPage(ctx context.Context, ref model.PageRef, report *model.CrawlReport) (string, error) {
	if ref.URL == report.URL && report.SeedBody != "" {
		return report.SeedBody, nil
	}
	return s.fetcher.Fetch(ctx, ref.URL)
}

// analyzePage extracts forms from one page body and builds its result.
// Returns false when the page has no qualifying forms.
func analyzePage(ref model.PageRef, body string) (model.PageResult, bool) {
	forms := crawl.ExtractForms(body)
	if len(forms) == 0 {
		return model.PageResult{}, false
	}

	qualifying := make([]model.FormRecord, 0, len(forms))
	for _, form := range forms {
		if form.Qualifies() {
			qualifying = append(qualifying, form)
		}
	}
	if len(qualifying) == 0 {
		return model.PageResult{}, false
	}

	return model.PageResult{
		URL:                     ref.URL,
		Text:                    ref.Text,
		Title:                   ref.Title,
		PageTitle:               crawl.PageTitle(body),
		Status:                  model.PageStatusOK,
		TotalForms:              len(forms),
		FormsWithMultipleInputs: len(qualifying),
		Forms:                   qualifying,
	}, true
}

// FingerprintStep runs CMS and analytics detection over the seed body.
type FingerprintStep struct {
	logger *slog.Logger
}

// NewFingerprintStep creates a FingerprintStep.
func NewFingerprintStep(logger *slog.Logger) *FingerprintStep {
	return &FingerprintStep{logger: logger}
}

// Name implements pipeline.Step.
func (s *FingerprintStep) Name() string { return "fingerprint" }

// Do implements pipeline.Step.
func (s *FingerprintStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if report.SeedUnreachable {
		return nil
	}

	report.CMS = fingerprint.DetectCMS(report.SeedBody)
	report.Analytics = fingerprint.DetectAnalytics(report.SeedBody)

	s.logger.Info("platform fingerprinted",
		"url", report.URL,
		"primary_cms", report.CMS.PrimaryCMS,
		"analytics_tools", report.Analytics.TotalDetected)
	return nil
}

// EstimateStep produces a pattern-based report when the seed page was
// unreachable. It is a no-op on healthy crawls.
type EstimateStep struct {
	estimator *Estimator
}

// NewEstimateStep creates an EstimateStep.
func NewEstimateStep(estimator *Estimator) *EstimateStep {
	return &EstimateStep{estimator: estimator}
}

// Name implements pipeline.Step.
func (s *EstimateStep) Name() string { return "estimate" }

// Do implements pipeline.Step.
func (s *EstimateStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if !report.SeedUnreachable {
		return nil
	}
	s.estimator.Estimate(report)
	return nil
}

// AggregateStep reduces the per-page results into summary statistics
// and stamps the processing time. It always runs last.
type AggregateStep struct{}

// NewAggregateStep creates an AggregateStep.
func NewAggregateStep() *AggregateStep {
	return &AggregateStep{}
}

// Name implements pipeline.Step.
func (s *AggregateStep) Name() string { return "aggregate" }

// Do implements pipeline.Step.
func (s *AggregateStep) Do(ctx context.Context, report *model.CrawlReport) error {
	report.Summary = Summarize(report.PagesWithForms)
	report.TotalFormsFound = report.Summary.TotalQualifyingForms
	report.Finish()
	return nil
}
