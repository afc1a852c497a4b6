package crawl

import (
	"fmt"
	"strings"
	"testing"
)

// TestDiscoverer verifies same-host filtering, skip rules, and dedup.
func TestDiscoverer(t *testing.T) {
	t.Parallel()

	t.Run("keeps only same-host http links", func(t *testing.T) {
		t.Parallel()

		body := `<html><body>
			<a href="/about">About</a>
			<a href="https://example.com/contact">Contact</a>
			<a href="https://other.example.org/away">Elsewhere</a>
			<a href="ftp://example.com/files">FTP</a>
		</body></html>`

		links := NewDiscoverer().Discover(body, "https://example.com/")
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d: %+v", len(links), links)
		}
		if links[0].URL != "https://example.com/about" {
			t.Errorf("first link = %q, want relative resolution against base", links[0].URL)
		}
		if links[1].URL != "https://example.com/contact" {
			t.Errorf("second link = %q, want same-host absolute link", links[1].URL)
		}
	})

	t.Run("skips fragment, javascript, mailto, and tel anchors", func(t *testing.T) {
		t.Parallel()

		body := `<html><body>
			<a href="#top">Top</a>
			<a href="javascript:void(0)">JS</a>
			<a href="mailto:hi@example.com">Mail</a>
			<a href="tel:+15555550100">Call</a>
			<a href="">Empty</a>
			<a>Missing</a>
			<a href="/ok">OK</a>
		</body></html>`

		links := NewDiscoverer().Discover(body, "https://example.com/")
		if len(links) != 1 || links[0].URL != "https://example.com/ok" {
			t.Fatalf("expected only /ok to survive, got %+v", links)
		}
	})

	t.Run("deduplicates preserving first-seen order", func(t *testing.T) {
		t.Parallel()

		body := `<html><body>
			<a href="/b">B first</a>
			<a href="/a">A</a>
			<a href="/b">B again</a>
		</body></html>`

		links := NewDiscoverer().Discover(body, "https://example.com/")
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(links))
		}
		if links[0].URL != "https://example.com/b" || links[0].Text != "B first" {
			t.Errorf("dedup did not keep first occurrence: %+v", links[0])
		}
	})

	t.Run("host comparison is case-insensitive", func(t *testing.T) {
		t.Parallel()

		body := `<a href="https://EXAMPLE.COM/caps">Caps</a>`
		links := NewDiscoverer().Discover(body, "https://example.com/")
		if len(links) != 1 {
			t.Fatalf("expected uppercase-host link to match, got %+v", links)
		}
	})

	t.Run("truncates text and falls back for empty anchors", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 150)
		body := fmt.Sprintf(`<body>
			<a href="/long" title="%s">%s</a>
			<a href="/icon"><img src="/i.png"></a>
		</body>`, long, long)

		links := NewDiscoverer().Discover(body, "https://example.com/")
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(links))
		}
		if len(links[0].Text) != 100 || len(links[0].Title) != 100 {
			t.Errorf("text/title not truncated to 100: %d/%d", len(links[0].Text), len(links[0].Title))
		}
		if links[1].Text != "No text" {
			t.Errorf("empty anchor text = %q, want fallback", links[1].Text)
		}
	})

	t.Run("respects the link cap", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		for i := 0; i < 50; i++ {
			fmt.Fprintf(&sb, `<a href="/p%d">Page %d</a>`, i, i)
		}

		links := NewDiscoverer(WithMaxLinks(10)).Discover(sb.String(), "https://example.com/")
		if len(links) != 10 {
			t.Errorf("expected 10 capped links, got %d", len(links))
		}
	})
}

// TestExtractLinks verifies the internal/external split used by the
// single-page analyze operation.
func TestExtractLinks(t *testing.T) {
	t.Parallel()

	body := `<html><body>
		<a href="/in">Internal</a>
		<a href="https://partner.example.org/out">External</a>
		<a href="https://partner.example.org/out">External dup</a>
		<a href="mailto:x@example.com">Mail</a>
	</body></html>`

	inv := ExtractLinks(body, "https://example.com/")
	if len(inv.InternalLinks) != 1 {
		t.Errorf("internal links = %d, want 1", len(inv.InternalLinks))
	}
	if len(inv.ExternalLinks) != 1 {
		t.Errorf("external links = %d, want 1 (deduplicated)", len(inv.ExternalLinks))
	}
	if inv.TotalLinks != 2 {
		t.Errorf("total links = %d, want 2", inv.TotalLinks)
	}
}
