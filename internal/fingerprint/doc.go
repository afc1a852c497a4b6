// Package fingerprint identifies the platform behind a page from its
// markup alone: the content management system serving it and the
// analytics or marketing scripts embedded in it. Detection is purely
// textual, scoring known signals in the HTML; no extra requests are
// made beyond the page body the caller already holds.
package fingerprint
