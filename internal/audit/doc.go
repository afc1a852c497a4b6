// Package audit orchestrates a full website form audit: fetch the seed
// page, discover same-site links, analyze each page's forms under a
// paced crawl, fingerprint the platform, and reduce everything into a
// single report. When the seed page cannot be reached at all the audit
// degrades to a pattern-based estimate instead of failing.
package audit
