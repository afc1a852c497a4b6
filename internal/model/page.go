package model

// CrawlTarget pairs the user-supplied input with its normalized form.
// It is created once per audit invocation and immutable afterwards.
type CrawlTarget struct {
	// RawInput is the string exactly as the caller provided it.
	RawInput string `json:"raw_input"`

	// NormalizedURL is the canonical absolute URL derived from RawInput.
	NormalizedURL string `json:"normalized_url"`
}

// PageRef identifies a page selected for analysis. The URL is the
// unique key within one crawl; the discoverer never emits duplicates.
type PageRef struct {
	// URL is the absolute URL of the page.
	URL string `json:"url"`

	// Text is the anchor's visible text, trimmed and truncated to 100
	// characters. The seed page uses the synthetic label "Homepage".
	Text string `json:"text"`

	// Title is the anchor's title attribute, truncated to 100 characters.
	Title string `json:"title"`
}

// SeedPageRef returns the synthetic PageRef for the seed page of a crawl.
func SeedPageRef(url string) PageRef {
	return PageRef{URL: url, Text: "Homepage", Title: "Main Page"}
}

// Page analysis status values stored in PageResult and PageFailure.
const (
	// PageStatusOK marks a page that was fetched and yielded at least
	// one qualifying form.
	PageStatusOK = "ok"

	// PageStatusFailed marks a page whose fetch exhausted all strategies.
	PageStatusFailed = "failed"

	// PageStatusEstimated marks a synthetic page produced by the
	// degraded-mode estimator rather than a real fetch.
	PageStatusEstimated = "estimated"
)

// PageResult holds the qualifying forms found on one page. Pages with
// zero qualifying forms produce no PageResult at all.
type PageResult struct {
	// URL is the analyzed page URL.
	URL string `json:"url"`

	// Text is the link text that led to this page.
	Text string `json:"text"`

	// Title is the link title attribute that led to this page.
	Title string `json:"title"`

	// PageTitle is the page's own <title> text, or "No title".
	PageTitle string `json:"page_title"`

	// Status is PageStatusOK for crawled pages and PageStatusEstimated
	// for degraded-mode synthetics.
	Status string `json:"status"`

	// TotalForms is the number of forms on the page before the
	// qualifying-field filter.
	TotalForms int `json:"total_forms"`

	// FormsWithMultipleInputs is the number of qualifying forms.
	FormsWithMultipleInputs int `json:"forms_with_multiple_inputs"`

	// Forms holds the qualifying forms in document order.
	Forms []FormRecord `json:"forms"`
}

// PageFailure records a page whose analysis failed. The crawl continues
// past failures; they are reported, not fatal.
type PageFailure struct {
	// URL is the page that failed.
	URL string `json:"url"`

	// Text is the link text that led to this page.
	Text string `json:"text"`

	// Status is always PageStatusFailed.
	Status string `json:"status"`

	// Error is the human-readable failure reason.
	Error string `json:"error"`
}
