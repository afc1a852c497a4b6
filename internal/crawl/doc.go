// Package crawl provides the HTML-facing pieces of the audit pipeline:
// URL normalization, same-site link discovery, and form extraction with
// semantic classification.
//
// # Components
//
//   - Normalize: canonicalizes user input into an absolute URL
//   - Discoverer: extracts deduplicated same-host links from a page
//   - ExtractForms: locates forms, counts fields, and classifies them
//
// Design decision: link discovery walks the DOM with golang.org/x/net/html
// while form extraction uses goquery. Discovery only needs anchors and is
// a straight tree walk; form analysis needs scoped sub-selection (fields,
// labels, and placeholders within one form element) where goquery's
// selection API keeps the code far shorter than manual traversal.
//
// Malformed individual elements are skipped silently: one broken anchor
// or form never aborts the analysis of its page.
package crawl
