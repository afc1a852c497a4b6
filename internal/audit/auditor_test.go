package audit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/siteaudit/siteaudit/internal/crawl"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/model"
)

// stubFetcher serves canned page bodies keyed by URL and counts the
// requests each URL received.
type stubFetcher struct {
	pages map[string]string

	mu    sync.Mutex
	calls map[string]int
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	return &stubFetcher{pages: pages, calls: make(map[string]int)}
}

func (s *stubFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	s.mu.Lock()
	s.calls[pageURL]++
	s.mu.Unlock()

	body, ok := s.pages[pageURL]
	if !ok {
		return "", fetch.ErrExhausted
	}
	return body, nil
}

func (s *stubFetcher) callCount(pageURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[pageURL]
}

// page wraps content in enough HTML chrome to look like a real page.
func page(title, content string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, content)
}

func testAuditor(fetcher Fetcher, opts ...AuditorOption) *Auditor {
	base := []AuditorOption{
		WithFetcher(fetcher),
		WithRequestDelay(0),
		WithRand(rand.New(rand.NewSource(1))),
	}
	return NewAuditor(nil, append(base, opts...)...)
}

// TestAuditorRun covers the end-to-end crawl against canned pages.
func TestAuditorRun(t *testing.T) {
	t.Parallel()

	loginForm := `<form action="/session" method="post">
		<label>Username</label><input type="text" name="user">
		<label>Password</label><input type="password" name="pw" required>
	</form>`
	contactForm := `<form action="/contact" method="post">
		<input type="text" name="name"><input type="email" name="email">
		<textarea name="message"></textarea>
	</form>`

	fetcher := newStubFetcher(map[string]string{
		"https://example.com/": page("Example",
			`<a href="/login">Sign in</a>
			<a href="/contact" title="Reach us">Contact</a>
			<a href="/about">About</a>
			<a href="https://other.example.org/">Partner</a>`+contactForm),
		"https://example.com/login":   page("Login", loginForm),
		"https://example.com/contact": page("Contact", contactForm),
		"https://example.com/about":   page("About", `<p>Nothing but prose.</p>`),
	})

	report, err := testAuditor(fetcher).Run(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", report.Status)
	}
	if report.AnalysisType != model.AnalysisTypeFormCrawl {
		t.Errorf("analysis type = %q, want form_validation", report.AnalysisType)
	}
	if report.URL != "https://example.com/" {
		t.Errorf("normalized URL = %q", report.URL)
	}
	if report.BaseURL != "example.com" {
		t.Errorf("base URL = %q, want example.com", report.BaseURL)
	}
	if report.AuditID == "" {
		t.Error("audit ID not assigned")
	}

	// Seed + 3 internal links; the external link is not crawled.
	if report.TotalPagesAnalyzed != 4 {
		t.Errorf("pages analyzed = %d, want 4", report.TotalPagesAnalyzed)
	}
	// Homepage, /login, and /contact have qualifying forms; /about has none.
	if report.TotalPagesWithForms != 3 {
		t.Errorf("pages with forms = %d, want 3", report.TotalPagesWithForms)
	}
	if report.FailedPages != 0 {
		t.Errorf("failed pages = %d, want 0", report.FailedPages)
	}
	if report.TotalFormsFound != 3 {
		t.Errorf("forms found = %d, want 3", report.TotalFormsFound)
	}

	home := report.PagesWithForms[0]
	if home.Text != "Homepage" || home.Title != "Main Page" {
		t.Errorf("seed entry labels = %q/%q, want Homepage/Main Page", home.Text, home.Title)
	}
	if home.PageTitle != "Example" {
		t.Errorf("seed page title = %q, want Example", home.PageTitle)
	}

	if got := fetcher.callCount("https://example.com/"); got != 1 {
		t.Errorf("homepage fetched %d times, want 1 (seed body reused)", got)
	}

	if report.Summary.FormTypeBreakdown[model.FormTypeLogin] != 1 {
		t.Errorf("form type breakdown = %v, want one login form", report.Summary.FormTypeBreakdown)
	}
	if report.Summary.ValidationPercentage == 0 {
		t.Error("validation percentage should be nonzero, the login form has required")
	}
	if report.CMS == nil || report.Analytics == nil {
		t.Error("fingerprint results missing from a completed crawl")
	}
}

// TestAuditorRunPageBudget verifies max pages caps the queue.
func TestAuditorRunPageBudget(t *testing.T) {
	t.Parallel()

	var links strings.Builder
	pages := map[string]string{}
	for i := 0; i < 30; i++ {
		url := fmt.Sprintf("https://example.com/page-%d", i)
		fmt.Fprintf(&links, `<a href="/page-%d">Page %d</a>`, i, i)
		pages[url] = page("Page", `<form><input type="text"><input type="text"></form>`)
	}
	pages["https://example.com/"] = page("Example", links.String())

	fetcher := newStubFetcher(pages)
	report, err := testAuditor(fetcher, WithMaxPages(5)).Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Seed plus the first four discovered links.
	if report.TotalPagesAnalyzed != 5 {
		t.Errorf("pages analyzed = %d, want 5", report.TotalPagesAnalyzed)
	}
	if fetcher.callCount("https://example.com/page-3") != 1 {
		t.Error("last queue entry should have been fetched")
	}
	if fetcher.callCount("https://example.com/page-4") != 0 {
		t.Error("pages beyond the budget should not be fetched")
	}
}

// TestAuditorRunPageFailures verifies failed pages are recorded and do
// not abort the crawl.
func TestAuditorRunPageFailures(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher(map[string]string{
		"https://example.com/": page("Example",
			`<a href="/broken">Broken</a><a href="/contact">Contact</a>`),
		"https://example.com/contact": page("Contact",
			`<form class="contact"><input type="text"><input type="email"></form>`),
	})

	report, err := testAuditor(fetcher).Run(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Status != model.StatusCompleted {
		t.Errorf("status = %q, a page failure should not degrade the crawl", report.Status)
	}
	if report.FailedPages != 1 {
		t.Fatalf("failed pages = %d, want 1", report.FailedPages)
	}

	failure := report.FailedData[0]
	if failure.URL != "https://example.com/broken" {
		t.Errorf("failure URL = %q", failure.URL)
	}
	if failure.Status != model.PageStatusFailed {
		t.Errorf("failure status = %q, want failed", failure.Status)
	}
	if !strings.Contains(failure.Error, "exhausted") {
		t.Errorf("failure error = %q, want the fetch error preserved", failure.Error)
	}

	if report.TotalPagesWithForms != 1 {
		t.Errorf("pages with forms = %d, want the contact page only", report.TotalPagesWithForms)
	}
}

// TestAuditorRunDegradedMode verifies the estimator takes over when
// the seed page is unreachable.
func TestAuditorRunDegradedMode(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher(map[string]string{}) // every fetch fails

	report, err := testAuditor(fetcher).Run(context.Background(), "shop.example.com")
	if err != nil {
		t.Fatalf("Run() error = %v, blocked sites must still produce a report", err)
	}

	if report.Status != model.StatusCompletedWithLimitations {
		t.Errorf("status = %q, want completed_with_limitations", report.Status)
	}
	if report.AnalysisType != model.AnalysisTypeEstimated {
		t.Errorf("analysis type = %q, want pattern-based", report.AnalysisType)
	}
	if report.Note == "" || report.LimitationReason == "" {
		t.Error("degraded report missing note or limitation reason")
	}
	for _, p := range report.PagesWithForms {
		if p.Status != model.PageStatusEstimated {
			t.Errorf("page status = %q, want estimated", p.Status)
		}
	}
	if report.CMS != nil {
		t.Error("fingerprint results should be absent when the seed was never fetched")
	}
}

// TestAuditorRunInvalidTarget verifies the only hard error.
func TestAuditorRunInvalidTarget(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher(map[string]string{})

	for _, target := range []string{"", "   ", "https://"} {
		if _, err := testAuditor(fetcher).Run(context.Background(), target); !errors.Is(err, crawl.ErrInvalidURL) {
			t.Errorf("Run(%q) error = %v, want ErrInvalidURL", target, err)
		}
	}
}
