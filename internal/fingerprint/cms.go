package fingerprint

import (
	"regexp"
	"strings"

	"github.com/siteaudit/siteaudit/internal/model"
)

// detectionThreshold is the confidence a system must accumulate before
// it counts as detected. Weaker signals still appear in the result with
// Detected false so a reviewer can judge them.
const detectionThreshold = 30

// wpGeneratorPattern matches a WordPress generator meta tag.
var wpGeneratorPattern = regexp.MustCompile(`(?i)<meta[^>]+name=["']generator["'][^>]+content=["'][^"']*wordpress`)

// DetectCMS fingerprints the content management system behind the page
// body. Scored signals feed WordPress and Shopify; the remaining
// platforms are distinctive enough that a single marker decides.
func DetectCMS(body string) *model.CMSResult {
	haystack := strings.ToLower(body)
	systems := make(map[string]model.Detection)

	// WordPress: path markers plus the generator meta tag.
	wpScore := 0
	wpEvidence := make([]string, 0, 3)
	if strings.Contains(haystack, "wp-content") {
		wpScore += 30
		wpEvidence = append(wpEvidence, "wp-content path found")
	}
	if strings.Contains(haystack, "wp-includes") {
		wpScore += 25
		wpEvidence = append(wpEvidence, "wp-includes path found")
	}
	if wpGeneratorPattern.MatchString(body) {
		wpScore += 40
		wpEvidence = append(wpEvidence, "WordPress generator meta tag")
	}
	if wpScore > 0 {
		systems["WordPress"] = scored(wpScore, wpEvidence, "")
	}

	// Shopify: brand references and the CDN hostname.
	shopifyScore := 0
	shopifyEvidence := make([]string, 0, 2)
	if strings.Contains(haystack, "shopify") {
		shopifyScore += 35
		shopifyEvidence = append(shopifyEvidence, "Shopify references found")
	}
	if strings.Contains(haystack, "cdn.shopify.com") {
		shopifyScore += 40
		shopifyEvidence = append(shopifyEvidence, "Shopify CDN detected")
	}
	if shopifyScore > 0 {
		systems["Shopify"] = scored(shopifyScore, shopifyEvidence, "")
	}

	if strings.Contains(haystack, "drupal") {
		systems["Drupal"] = scored(80, []string{"Drupal references found"}, "")
	}
	if strings.Contains(haystack, "joomla") {
		systems["Joomla"] = scored(80, []string{"Joomla references found"}, "")
	}
	if strings.Contains(haystack, "wix.com") || strings.Contains(haystack, "wixstatic.com") {
		systems["Wix"] = scored(90, []string{"Wix platform detected"}, "")
	}
	if strings.Contains(haystack, "squarespace") {
		systems["Squarespace"] = scored(85, []string{"Squarespace platform detected"}, "")
	}

	result := &model.CMSResult{
		DetectedSystems: systems,
	}
	// Walk systems in a fixed order so equal-confidence ties always
	// resolve to the same primary CMS.
	for _, name := range cmsNames {
		det, ok := systems[name]
		if !ok {
			continue
		}
		if det.Detected {
			result.TotalDetected++
		}
		if result.PrimaryCMS == "" || det.Confidence > systems[result.PrimaryCMS].Confidence {
			result.PrimaryCMS = name
		}
	}
	return result
}

// cmsNames orders the fingerprinted platforms for tie-breaking.
var cmsNames = []string{"WordPress", "Shopify", "Drupal", "Joomla", "Wix", "Squarespace"}

// scored builds a Detection from an accumulated score, clamping the
// confidence at 100.
func scored(score int, evidence []string, category string) model.Detection {
	confidence := score
	if confidence > 100 {
		confidence = 100
	}
	return model.Detection{
		Detected:   score >= detectionThreshold,
		Confidence: confidence,
		Evidence:   evidence,
		Category:   category,
	}
}
