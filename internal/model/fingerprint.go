package model

// Detection is a single fingerprinting verdict with its supporting
// evidence. Confidence is a 0-100 score summed from matched signals;
// a system is considered detected once it crosses the signature's
// threshold.
type Detection struct {
	// Detected is true when the confidence crossed the threshold.
	Detected bool `json:"detected"`

	// Confidence is the clamped 0-100 evidence score.
	Confidence int `json:"confidence"`

	// Evidence lists the matched signals, for human review.
	Evidence []string `json:"evidence"`

	// Category groups analytics tools (Analytics, Tag Management, ...).
	// Empty for CMS detections.
	Category string `json:"category,omitempty"`
}

// Analytics tool categories reported alongside detections.
const (
	CategoryAnalytics     = "Analytics"
	CategoryTagManagement = "Tag Management"
	CategorySocialMedia   = "Social Media"
	CategoryHeatmaps      = "Heatmaps"
)

// AnalyticsCategories returns all tool categories in rendering order.
// Report writers iterate it to render category maps deterministically.
func AnalyticsCategories() []string {
	return []string{
		CategoryAnalytics,
		CategoryTagManagement,
		CategorySocialMedia,
		CategoryHeatmaps,
	}
}

// CMSResult is the outcome of content-management-system fingerprinting
// on a single page.
type CMSResult struct {
	// PrimaryCMS is the highest-confidence detected system, or empty.
	PrimaryCMS string `json:"primary_cms"`

	// DetectedSystems maps CMS name to its detection verdict.
	DetectedSystems map[string]Detection `json:"detected_systems"`

	// TotalDetected counts systems whose Detected flag is true.
	TotalDetected int `json:"total_detected"`
}

// AnalyticsResult is the outcome of analytics/tag-manager
// fingerprinting on a single page.
type AnalyticsResult struct {
	// DetectedTools maps tool name to its detection verdict.
	DetectedTools map[string]Detection `json:"detected_tools"`

	// Categories groups detected tool names by category.
	Categories map[string][]string `json:"categories"`

	// TotalDetected counts tools whose Detected flag is true.
	TotalDetected int `json:"total_detected"`
}

// LinkInventory is the internal/external link split for a single page,
// produced by the analyze endpoint rather than the form crawl.
type LinkInventory struct {
	// InternalLinks are same-host links, deduplicated in first-seen order.
	InternalLinks []PageRef `json:"internal_links"`

	// ExternalLinks are cross-host http(s) links, deduplicated.
	ExternalLinks []PageRef `json:"external_links"`

	// TotalLinks is the combined count.
	TotalLinks int `json:"total_links"`
}
