package fetch

import "errors"

var (
	// ErrExhausted is returned when every strategy and retry failed to
	// produce a usable HTML page.
	ErrExhausted = errors.New("fetch: all retrieval strategies exhausted")

	// ErrBodyTooSmall is returned when a page responds with 200 but the
	// body is too short or not HTML to be worth analyzing.
	ErrBodyTooSmall = errors.New("fetch: response body too small or not HTML")
)
