package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/siteaudit/siteaudit/internal/audit"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/crawl"
	"github.com/siteaudit/siteaudit/internal/database"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/log"
	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/report"
	"github.com/spf13/cobra"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url]",
		Short: "Audit a website's forms and platform",
		Long: `Audit crawls a website's internal pages and reports on the forms it finds.

For each discovered form, the report includes its classification (login,
registration, contact, and so on), field counts by kind, complexity, and
whether it uses HTML validation attributes. The homepage is additionally
fingerprinted for CMS and analytics tooling.

If the site blocks automated access entirely, the audit degrades to a
pattern-based estimate inferred from the site's apparent category. The
report marks estimated results explicitly.

Examples:
  # Audit a single website
  siteaudit audit example.com

  # Audit multiple websites concurrently
  siteaudit audit shop.example.com blog.example.com

  # Limit the crawl to 10 pages with faster pacing
  siteaudit audit --max-pages 10 --delay 500ms example.com

  # Output a JSON report to a file
  siteaudit audit --json --output report.json example.com

  # Use a custom configuration file
  siteaudit audit -c myconfig.yaml example.com

Configuration file (.siteaudit) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      maxPages: 10
      requestDelaySeconds: 5`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to analyze per website")
	cmd.Flags().DurationP("delay", "d", config.DefaultRequestDelay,
		"Lower bound of the randomized delay between page requests")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Fetch attempts per retrieval strategy")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .siteaudit in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this audit in the local history database")
	cmd.Flags().String("db-dir", "",
		"Directory for the audit history database (default: XDG data dir)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.RequestDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// runAudit executes the audit for all configured targets.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting audit",
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, db, logger)
	}

	return runSequentialAudit(ctx, cfg, db, logger)
}

// runSequentialAudit audits targets one at a time, each with its own
// per-site configuration applied.
func runSequentialAudit(ctx context.Context, cfg *config.Config, db *database.AuditDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		siteConfig := cfg.SiteConfigs.GetSiteConfig(targetHost(target))
		auditor := newAuditorForTarget(cfg, siteConfig, logger)

		fmt.Printf("Auditing %s...\n", target)
		startTime := time.Now()

		auditReport, err := auditor.Run(ctx, target)
		if err != nil {
			logger.Error("audit failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, db *database.AuditDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default site config only; site-specific configs (cookies, headers, page budgets) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	var defaults config.SiteConfig
	if cfg.SiteConfigs != nil {
		defaults = cfg.SiteConfigs.Defaults
	}

	// Each audit gets its own auditor, so concurrent crawls never share
	// a fetcher identity or pacing state.
	bp := audit.NewBatchProcessor(
		func() *audit.Auditor {
			return newAuditorForTarget(cfg, defaults, logger)
		},
		audit.WithConcurrency(cfg.BatchSize),
		audit.WithBatchLogger(logger),
	)

	results, err := bp.ProcessBatch(ctx, cfg.Targets)

	for i, result := range results {
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Audit error for %s: %v\n",
				i+1, len(results), result.Target, result.Err)
			continue
		}

		fmt.Printf("[%d/%d] Audit completed: %s\n", i+1, len(results), result.Target)

		if reportErr := outputReport(cfg, result.Report); reportErr != nil {
			logger.Error("report failed", "target", result.Target, "error", reportErr)
		}
		if saveErr := saveAuditReport(ctx, db, result.Report, logger); saveErr != nil {
			logger.Error("failed to save audit report", "target", result.Target, "error", saveErr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// targetHost extracts the hostname used for site config lookup.
// Returns an empty string for unparseable targets; the auditor reports
// the real error later.
func targetHost(target string) string {
	normalized, err := crawl.Normalize(target)
	if err != nil {
		return ""
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// newAuditorForTarget creates an auditor with global and per-site
// configuration applied.
func newAuditorForTarget(cfg *config.Config, siteConfig config.SiteConfig, logger *slog.Logger) *audit.Auditor {
	client := &http.Client{Timeout: cfg.Timeout}

	fetchOpts := []fetch.Option{
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithLogger(logger),
	}
	if cfg.MaxBodySize > 0 {
		fetchOpts = append(fetchOpts, fetch.WithMaxBodySize(cfg.MaxBodySize))
	}
	if siteConfig.Cookie != "" {
		fetchOpts = append(fetchOpts, fetch.WithCookie(siteConfig.Cookie))
	}
	if len(siteConfig.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetch.WithExtraHeaders(siteConfig.Headers))
	}

	maxPages := cfg.MaxPages
	if siteConfig.MaxPages > 0 {
		maxPages = siteConfig.MaxPages
	}
	requestDelay := cfg.RequestDelay
	if siteConfig.RequestDelaySeconds > 0 {
		requestDelay = time.Duration(siteConfig.RequestDelaySeconds) * time.Second
	}

	return audit.NewAuditor(client,
		audit.WithFetcher(fetch.NewFetcher(client, fetchOpts...)),
		audit.WithMaxPages(maxPages),
		audit.WithRequestDelay(requestDelay),
		audit.WithLogger(logger),
	)
}

// outputReport outputs the audit report in the requested format.
// When writing a JSON or Markdown report to a file, a human-readable
// summary still goes to stdout.
func outputReport(cfg *config.Config, auditReport *model.CrawlReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if cfg.ReportFile != "" && (cfg.JSONReport || cfg.MarkdownReport) {
		writer = report.NewMultiWriter(writer,
			report.NewTextWriter(os.Stdout, report.WithVerbose(cfg.Verbose)))
	}

	_, err := writer.Write(auditReport)
	return err
}

// saveAuditReport saves the audit report to the database if enabled.
// If db is nil, this function is a no-op.
func saveAuditReport(ctx context.Context, db *database.AuditDB, auditReport *model.CrawlReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveReport(ctx, auditReport); err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	logger.Info("audit report saved to database",
		"target", auditReport.URL, "audit_id", auditReport.AuditID)
	return nil
}
