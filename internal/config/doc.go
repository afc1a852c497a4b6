// Package config provides configuration structures and utilities for
// siteaudit. It defines the audit options for crawling, pacing, report
// generation, and persistence.
package config
