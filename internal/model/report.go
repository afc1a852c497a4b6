package model

import (
	"time"

	"github.com/google/uuid"
)

// Report status values. Status is the authoritative discriminator
// between a genuine crawl and a degraded-mode estimate: consumers must
// check it before trusting the page results.
const (
	// StatusCompleted marks a crawl that reached the target and
	// analyzed pages normally.
	StatusCompleted = "completed"

	// StatusCompletedWithLimitations marks a report produced by the
	// degraded-mode estimator after the seed fetch exhausted every
	// strategy. Its page results are heuristic, not observed.
	StatusCompletedWithLimitations = "completed_with_limitations"

	// StatusError marks a report that could not be produced at all.
	StatusError = "error"
)

// Analysis type values recorded in reports.
const (
	// AnalysisTypeFormCrawl is the normal multi-page form crawl.
	AnalysisTypeFormCrawl = "form_validation"

	// AnalysisTypeEstimated is the degraded-mode pattern-based estimate.
	AnalysisTypeEstimated = "form_validation_pattern_based"
)

// CrawlSummary aggregates statistics over all PageResults of one crawl.
// It is a pure reduction of the page results: deterministic, no I/O.
type CrawlSummary struct {
	// PagesAnalyzed is the number of pages that yielded qualifying forms.
	PagesAnalyzed int `json:"pages_analyzed"`

	// PagesWithQualifyingForms equals PagesAnalyzed; kept as a separate
	// field for output compatibility.
	PagesWithQualifyingForms int `json:"pages_with_qualifying_forms"`

	// TotalQualifyingForms is the sum of qualifying forms across pages.
	TotalQualifyingForms int `json:"total_qualifying_forms"`

	// FormTypeBreakdown counts qualifying forms per form type.
	FormTypeBreakdown map[FormType]int `json:"form_type_breakdown"`

	// ComplexityBreakdown counts qualifying forms per complexity tier.
	ComplexityBreakdown ComplexityBreakdown `json:"complexity_breakdown"`

	// AverageFormsPerPage is forms divided by pages, rounded to one
	// decimal. Zero when no pages have forms.
	AverageFormsPerPage float64 `json:"average_forms_per_page"`

	// FormsWithValidation counts qualifying forms carrying at least one
	// constraint attribute.
	FormsWithValidation int `json:"forms_with_validation"`

	// ValidationPercentage is 100*FormsWithValidation/TotalQualifyingForms,
	// rounded to one decimal. Zero (not an error) when there are no forms.
	ValidationPercentage float64 `json:"validation_percentage"`
}

// ComplexityBreakdown counts forms per complexity tier.
type ComplexityBreakdown struct {
	SimpleForms  int `json:"simple_forms"`
	MediumForms  int `json:"medium_forms"`
	ComplexForms int `json:"complex_forms"`
}

// CrawlReport is the top-level output of one audit invocation.
//
// Design decision: recoverable failures never surface as errors from
// the audit; they are absorbed into Status, FailedData, and Note so the
// caller always receives a well-formed report for a well-formed input.
// Only an unparseable target URL is a hard error.
type CrawlReport struct {
	// AuditID uniquely identifies this audit invocation.
	AuditID string `json:"audit_id"`

	// BaseURL is the target's hostname.
	BaseURL string `json:"base_url"`

	// URL is the normalized target URL the crawl started from.
	URL string `json:"url"`

	// Timestamp is when the audit started.
	Timestamp time.Time `json:"timestamp"`

	// Status is one of the Status* constants.
	Status string `json:"status"`

	// AnalysisType is one of the AnalysisType* constants.
	AnalysisType string `json:"analysis_type"`

	// TotalPagesAnalyzed is the number of pages the crawl attempted.
	TotalPagesAnalyzed int `json:"total_pages_analyzed"`

	// TotalPagesWithForms is the number of pages with qualifying forms.
	TotalPagesWithForms int `json:"total_pages_with_forms"`

	// TotalFormsFound is the number of qualifying forms found.
	TotalFormsFound int `json:"total_forms_found"`

	// FailedPages is the number of pages whose fetch failed.
	FailedPages int `json:"failed_pages"`

	// PagesWithForms holds the per-page results, in crawl order.
	PagesWithForms []PageResult `json:"pages_with_forms"`

	// FailedData holds per-page failure records, in crawl order.
	FailedData []PageFailure `json:"failed_data"`

	// ProcessingTimeSeconds is the wall-clock audit duration.
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`

	// Summary aggregates statistics over PagesWithForms.
	Summary CrawlSummary `json:"summary"`

	// Note is a human-readable explanation set on degraded-mode reports.
	Note string `json:"note,omitempty"`

	// LimitationReason names the upstream failure that forced degraded
	// mode. Empty on genuine crawls.
	LimitationReason string `json:"limitation_reason,omitempty"`

	// CMS holds the CMS fingerprinting result for the seed page.
	CMS *CMSResult `json:"cms_detected,omitempty"`

	// Analytics holds the analytics fingerprinting result for the seed page.
	Analytics *AnalyticsResult `json:"analytics_tools,omitempty"`

	// === Transient crawl state (not serialized) ===

	// Target pairs raw input with the normalized URL.
	Target CrawlTarget `json:"-"`

	// SeedBody is the fetched seed page body, reused by later steps so
	// the homepage is not fetched twice.
	SeedBody string `json:"-"`

	// SeedUnreachable is true when the seed fetch exhausted every
	// strategy; it routes the pipeline into degraded mode.
	SeedUnreachable bool `json:"-"`

	// PageQueue is the ordered list of pages selected for analysis:
	// the seed followed by discovered links, capped by the page budget.
	PageQueue []PageRef `json:"-"`

	// StartedAt is used to compute ProcessingTimeSeconds.
	StartedAt time.Time `json:"-"`
}

// NewCrawlReport creates a report for the given normalized target.
func NewCrawlReport(target CrawlTarget, host string) *CrawlReport {
	now := time.Now()
	return &CrawlReport{
		AuditID:        uuid.NewString(),
		BaseURL:        host,
		URL:            target.NormalizedURL,
		Timestamp:      now,
		StartedAt:      now,
		Status:         StatusCompleted,
		AnalysisType:   AnalysisTypeFormCrawl,
		Target:         target,
		PagesWithForms: make([]PageResult, 0),
		FailedData:     make([]PageFailure, 0),
	}
}

// AddPageResult appends a per-page result and updates the counters.
func (r *CrawlReport) AddPageResult(res PageResult) {
	r.PagesWithForms = append(r.PagesWithForms, res)
	r.TotalPagesWithForms = len(r.PagesWithForms)
}

// AddFailure appends a per-page failure record and updates the counters.
func (r *CrawlReport) AddFailure(ref PageRef, reason string) {
	r.FailedData = append(r.FailedData, PageFailure{
		URL:    ref.URL,
		Text:   ref.Text,
		Status: PageStatusFailed,
		Error:  reason,
	})
	r.FailedPages = len(r.FailedData)
}

// Finish stamps the processing time, rounded to two decimals.
func (r *CrawlReport) Finish() {
	elapsed := time.Since(r.StartedAt).Seconds()
	r.ProcessingTimeSeconds = float64(int(elapsed*100)) / 100
}
