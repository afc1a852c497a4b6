// Package model defines the data structures shared across the audit
// pipeline: crawl targets, discovered pages, extracted forms, and the
// final report returned to callers.
//
// All entities are created fresh per audit invocation and held only in
// memory for the duration of one crawl. Nothing in this package performs
// I/O; persistence is handled by the database package.
package model
