package config

// SiteConfig holds per-site overrides for a single hostname. Some
// sites need extra headers or slower pacing to audit reliably.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page budget for this site.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// RequestDelaySeconds overrides the global pacing lower bound, in
	// seconds. If zero, the global RequestDelay is used.
	RequestDelaySeconds int `yaml:"requestDelaySeconds,omitempty"`
}

// File represents the structure of the .siteaudit configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all sites unless
	// overridden in the site-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a hostname, merging the
// site-specific entry over the defaults.
func (cf *File) GetSiteConfig(hostname string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[hostname]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if siteConfig.RequestDelaySeconds != 0 {
			result.RequestDelaySeconds = siteConfig.RequestDelaySeconds
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}
