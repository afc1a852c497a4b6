package fingerprint

import (
	"regexp"

	"github.com/siteaudit/siteaudit/internal/model"
)

// Tool categories reported alongside detections.
const (
	CategoryAnalytics     = model.CategoryAnalytics
	CategoryTagManagement = model.CategoryTagManagement
	CategorySocialMedia   = model.CategorySocialMedia
	CategoryHeatmaps      = model.CategoryHeatmaps
)

// toolNames orders the fingerprinted tools for category grouping.
var toolNames = []string{
	"Google Analytics",
	"Google Tag Manager",
	"Facebook Pixel",
	"Hotjar",
	"Mixpanel",
	"Matomo",
}

// gaPatterns are the Google Analytics signals, each worth 25 points.
// Both the legacy UA- property IDs and the GA4 G- measurement IDs are
// recognized.
var gaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)google-analytics\.com`),
	regexp.MustCompile(`(?i)googletagmanager\.com`),
	regexp.MustCompile(`(?i)gtag\(`),
	regexp.MustCompile(`(?i)ga\(`),
	regexp.MustCompile(`UA-\d+-\d+`),
	regexp.MustCompile(`G-[A-Z0-9]+`),
}

var gtmPattern = regexp.MustCompile(`(?i)googletagmanager\.com`)

// fbPatterns are Facebook Pixel signals, each worth 30 points.
var fbPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)facebook\.net.*tr\?`),
	regexp.MustCompile(`(?i)fbq\(`),
	regexp.MustCompile(`(?i)facebook pixel`),
}

var (
	hotjarPattern   = regexp.MustCompile(`(?i)hotjar`)
	mixpanelPattern = regexp.MustCompile(`(?i)mixpanel`)
)

// matomoPatterns are Matomo/Piwik signals, each worth 20 points.
var matomoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)matomo\.js`),
	regexp.MustCompile(`(?i)piwik\.js`),
	regexp.MustCompile(`(?i)_paq\.push`),
	regexp.MustCompile(`(?i)matomo\.php`),
	regexp.MustCompile(`(?i)piwik\.php`),
}

// DetectAnalytics fingerprints the analytics and marketing scripts
// embedded in the page body.
func DetectAnalytics(body string) *model.AnalyticsResult {
	tools := make(map[string]model.Detection)

	if det, ok := scoredPatterns(body, gaPatterns, 25, 25); ok {
		det.Category = CategoryAnalytics
		tools["Google Analytics"] = det
	}

	if gtmPattern.MatchString(body) {
		tools["Google Tag Manager"] = model.Detection{
			Detected:   true,
			Confidence: 90,
			Evidence:   []string{"GTM script detected"},
			Category:   CategoryTagManagement,
		}
	}

	fbScore := 0
	for _, pattern := range fbPatterns {
		if pattern.MatchString(body) {
			fbScore += 30
		}
	}
	if fbScore > 0 {
		det := scored(fbScore, []string{"Facebook tracking detected"}, CategorySocialMedia)
		det.Detected = true
		tools["Facebook Pixel"] = det
	}

	if hotjarPattern.MatchString(body) {
		tools["Hotjar"] = model.Detection{
			Detected:   true,
			Confidence: 85,
			Evidence:   []string{"Hotjar script detected"},
			Category:   CategoryHeatmaps,
		}
	}

	if mixpanelPattern.MatchString(body) {
		tools["Mixpanel"] = model.Detection{
			Detected:   true,
			Confidence: 85,
			Evidence:   []string{"Mixpanel script detected"},
			Category:   CategoryAnalytics,
		}
	}

	if det, ok := scoredPatterns(body, matomoPatterns, 20, 20); ok {
		det.Category = CategoryAnalytics
		tools["Matomo"] = det
	}

	result := &model.AnalyticsResult{
		DetectedTools: tools,
		Categories:    make(map[string][]string),
	}
	// Walk tools in a fixed order so category member lists come out
	// the same run to run.
	for _, name := range toolNames {
		det, ok := tools[name]
		if !ok || !det.Detected {
			continue
		}
		result.TotalDetected++
		result.Categories[det.Category] = append(result.Categories[det.Category], name)
	}
	return result
}

// scoredPatterns sums per-pattern points and reports whether any
// signal matched at all. At most three pieces of evidence are kept.
func scoredPatterns(body string, patterns []*regexp.Regexp, points, threshold int) (model.Detection, bool) {
	score := 0
	evidence := make([]string, 0, 3)
	for _, pattern := range patterns {
		if pattern.MatchString(body) {
			score += points
			if len(evidence) < 3 {
				evidence = append(evidence, "Pattern found: "+pattern.String())
			}
		}
	}
	if score == 0 {
		return model.Detection{}, false
	}

	det := scored(score, evidence, "")
	det.Detected = score >= threshold
	return det, true
}
