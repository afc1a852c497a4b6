// Package server exposes audits over an HTTP API.
//
// The API has three endpoints:
//   - POST /form-validation runs a full multi-page form audit
//   - POST /analyze inspects a single page (links, CMS, analytics)
//   - GET /health reports liveness
//
// All responses are JSON. Every request is tagged with a request ID and
// logged with method, path, status, and duration.
package server
