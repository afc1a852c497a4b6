package fetch

import "math/rand"

// desktopUserAgents are the browser identities rotated across requests.
// They cover current Chrome, Firefox, and Safari on the three major
// desktop platforms so no single fingerprint dominates.
var desktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// mobileUserAgent replaces the desktop identity when the mobile
// strategy is active. Some sites serve lighter, less protected pages
// to phones.
const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// browserHeaders builds a full browser-like header set with a randomly
// chosen user agent. The Accept-Language value varies across calls so
// repeated requests do not share an identical header fingerprint.
func browserHeaders(rng *rand.Rand, mobile bool) map[string]string {
	headers := map[string]string{
		"User-Agent":                desktopUserAgents[rng.Intn(len(desktopUserAgents))],
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept-Encoding":           "gzip, deflate, br",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"DNT":                       "1",
	}

	if rng.Float64() > 0.5 {
		headers["Accept-Language"] = "en-US,en;q=0.8,es;q=0.6"
	}

	if mobile {
		headers["User-Agent"] = mobileUserAgent
	}

	return headers
}
