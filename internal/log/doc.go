// Package log provides secure logging with automatic sanitization of
// sensitive information, built on top of the standard slog package.
//
// Audits can carry per-site cookies and authorization headers from the
// configuration file, and those values flow through request logging.
// The SecureHandler masks them before they reach the log output:
//   - HTTP credentials (Authorization, Cookie, X-Api-Key headers)
//   - Secret values detected by pattern matching (tokens, keys)
//   - Session identifiers
//
// Even in verbose mode, sensitive values are masked so logs can be
// shared when reporting issues.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "cookie", "session=abc123",  // masked
//	    "url", "https://example.com",
//	)
package log
