// Package main provides the entry point for the siteaudit CLI.
//
// siteaudit discovers and classifies the forms of a website by crawling
// its internal pages, and fingerprints the platform behind it.
//
// Usage:
//
//	siteaudit audit <url>
//	siteaudit serve
//
// See --help for all available options.
package main

// main is the entry point for siteaudit.
func main() {
	Execute()
}
