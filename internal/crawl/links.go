package crawl

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/siteaudit/siteaudit/internal/model"
)

// maxAnchorTextLen caps anchor text and title attributes in results.
const maxAnchorTextLen = 100

// DefaultMaxLinks caps how many same-site links one page may contribute.
// The crawl budget is usually far smaller; the cap only guards against
// pathological pages with thousands of anchors.
const DefaultMaxLinks = 200

// Discoverer extracts same-site links from a page body.
//
// Cross-host links are excluded entirely: the crawl never leaves the
// seed page's host. Anchors with missing hrefs, fragment-only targets,
// or javascript:/mailto:/tel: schemes are skipped, as is any anchor
// that fails to parse.
type Discoverer struct {
	// maxLinks caps the number of links returned per page.
	maxLinks int
}

// DiscovererOption configures a Discoverer.
type DiscovererOption func(*Discoverer)

// WithMaxLinks sets the per-page link cap.
func WithMaxLinks(n int) DiscovererOption {
	return func(d *Discoverer) {
		if n > 0 {
			d.maxLinks = n
		}
	}
}

// NewDiscoverer creates a Discoverer with the given options.
func NewDiscoverer(opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{maxLinks: DefaultMaxLinks}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover parses the page body and returns same-host links resolved
// against baseURL, deduplicated by absolute URL in first-seen order.
//
// A parse failure returns an empty slice rather than an error: the
// seed page is still analyzable for forms even if its markup defeats
// link extraction.
func (d *Discoverer) Discover(body, baseURL string) []model.PageRef {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	links := make([]model.PageRef, 0)
	seen := make(map[string]bool)
	baseHost := strings.ToLower(base.Host)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(links) >= d.maxLinks {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if ref, ok := anchorToRef(n, base, baseHost); ok && !seen[ref.URL] {
				seen[ref.URL] = true
				links = append(links, ref)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// anchorToRef converts one anchor node into a PageRef, reporting false
// for anchors that must be skipped.
func anchorToRef(n *html.Node, base *url.URL, baseHost string) (model.PageRef, bool) {
	href := strings.TrimSpace(getAttr(n, "href"))
	if skipHref(href) {
		return model.PageRef{}, false
	}

	u, err := url.Parse(href)
	if err != nil {
		return model.PageRef{}, false
	}
	resolved := base.ResolveReference(u)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return model.PageRef{}, false
	}
	if !strings.EqualFold(resolved.Host, baseHost) {
		return model.PageRef{}, false
	}

	text := truncate(strings.TrimSpace(nodeText(n)), maxAnchorTextLen)
	if text == "" {
		text = "No text"
	}

	return model.PageRef{
		URL:   resolved.String(),
		Text:  text,
		Title: truncate(getAttr(n, "title"), maxAnchorTextLen),
	}, true
}

// skipHref reports whether an href must be ignored outright.
func skipHref(href string) bool {
	if href == "" {
		return true
	}
	for _, prefix := range []string{"#", "javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// ExtractLinks splits every http(s) anchor on the page into internal
// (same host as baseURL) and external buckets, deduplicated within each
// bucket. The form crawl itself only follows internal links; this full
// inventory backs the single-page analyze operation.
func ExtractLinks(body, baseURL string) model.LinkInventory {
	base, err := url.Parse(baseURL)
	if err != nil {
		return model.LinkInventory{}
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return model.LinkInventory{}
	}

	inv := model.LinkInventory{
		InternalLinks: make([]model.PageRef, 0),
		ExternalLinks: make([]model.PageRef, 0),
	}
	seenInternal := make(map[string]bool)
	seenExternal := make(map[string]bool)
	baseHost := strings.ToLower(base.Host)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := strings.TrimSpace(getAttr(n, "href"))
			if !skipHref(href) {
				if u, err := url.Parse(href); err == nil {
					resolved := base.ResolveReference(u)
					if resolved.Scheme == "http" || resolved.Scheme == "https" {
						ref := model.PageRef{
							URL:   resolved.String(),
							Text:  truncate(strings.TrimSpace(nodeText(n)), maxAnchorTextLen),
							Title: truncate(getAttr(n, "title"), maxAnchorTextLen),
						}
						if strings.EqualFold(resolved.Host, baseHost) {
							if !seenInternal[ref.URL] {
								seenInternal[ref.URL] = true
								inv.InternalLinks = append(inv.InternalLinks, ref)
							}
						} else if !seenExternal[ref.URL] {
							seenExternal[ref.URL] = true
							inv.ExternalLinks = append(inv.ExternalLinks, ref)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	inv.TotalLinks = len(inv.InternalLinks) + len(inv.ExternalLinks)
	return inv
}

// nodeText collects the visible text of a node and its descendants.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// truncate limits s to max characters.
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
