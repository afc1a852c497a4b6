package crawl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when an input cannot be normalized into an
// absolute URL with a scheme, host, and path. It is the only condition
// in the audit pipeline that surfaces to callers as an error; everything
// else is absorbed into the report.
var ErrInvalidURL = errors.New("invalid target URL")

// Normalize canonicalizes user input into a well-formed absolute URL:
// a missing scheme defaults to https, the host is lowercased, an empty
// path becomes "/", any fragment is dropped, and the query string is
// preserved.
//
// Normalize is idempotent: normalizing an already-normalized URL yields
// the same string.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q lacks scheme or host", ErrInvalidURL, raw)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""

	return u.String(), nil
}
