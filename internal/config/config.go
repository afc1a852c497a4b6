package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the per-request HTTP timeout. Public websites
	// respond quickly or not at all; 15 seconds covers slow shared
	// hosting without stalling an audit on a dead page.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxPages is the page budget per audit: the seed page plus
	// discovered links. 20 pages covers the navigation of most small
	// and mid-sized sites while keeping audits short.
	DefaultMaxPages = 20

	// DefaultRequestDelay is the lower bound of the randomized pacing
	// interval between page fetches. Actual waits are drawn uniformly
	// from [delay, 2*delay) so the crawl does not emit a fixed-period
	// request pattern.
	DefaultRequestDelay = 2 * time.Second

	// DefaultMaxRetries is the number of fetch attempts per strategy.
	DefaultMaxRetries = 3

	// DefaultMaxLinks caps how many internal links are harvested from
	// the seed page before the page budget is applied.
	DefaultMaxLinks = 200

	// DefaultMaxBodySize limits the response body size read per page.
	// 10MB is generous for HTML while preventing memory exhaustion.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultBatchSize is the number of concurrent audits when
	// processing multiple targets. Audits already pace their own
	// requests, so modest parallelism is enough.
	DefaultBatchSize = 3

	// DefaultServerAddr is the listen address for the HTTP API.
	DefaultServerAddr = ":8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "siteaudit"
)

// Config holds all configuration options for siteaudit.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
type Config struct {
	// Targets is the list of website URLs or hostnames to audit.
	Targets []string

	// Timeout is the HTTP timeout for each page request.
	Timeout time.Duration

	// MaxPages is the page budget per audit.
	MaxPages int

	// RequestDelay is the lower bound of the inter-page pacing interval.
	RequestDelay time.Duration

	// MaxRetries is the fetch attempt count per strategy.
	MaxRetries int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// BatchSize is the number of concurrent audits for multiple targets.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .siteaudit in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory path for the SQLite audit history.
	// When empty, results are not persisted.
	DBDir string

	// SaveToDB indicates whether to save audit results to the database.
	SaveToDB bool

	// ServerAddr is the HTTP API listen address for serve mode.
	ServerAddr string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		MaxPages:     DefaultMaxPages,
		RequestDelay: DefaultRequestDelay,
		MaxRetries:   DefaultMaxRetries,
		MaxBodySize:  DefaultMaxBodySize,
		BatchSize:    DefaultBatchSize,
		ServerAddr:   DefaultServerAddr,
	}
}

// XDGDataDir returns the XDG data directory for siteaudit.
// On Linux: ~/.local/share/siteaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for siteaudit.
// On Linux: ~/.config/siteaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns the first
// problem found as a sentinel error so callers can match with errors.Is.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
