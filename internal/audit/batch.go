package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/siteaudit/siteaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchResult pairs one target with its audit outcome. Exactly one of
// Report and Err is set.
type BatchResult struct {
	// Target is the raw target string as the caller supplied it.
	Target string

	// Report is the completed audit report, nil when Err is set.
	Report *model.CrawlReport

	// Err is set when the target could not be audited at all, which
	// in practice means its URL failed to parse.
	Err error
}

// BatchProcessor audits multiple targets concurrently. Each target
// gets its own Auditor, so header rotation and pacing state never
// bleed between sites.
type BatchProcessor struct {
	// auditorFactory creates a fresh Auditor per target.
	auditorFactory func() *Auditor

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed audits, ordered like the input.
	results []BatchResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Default is 3: audits are long-running and each one already paces
// its own requests, so modest parallelism is enough.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. The factory is called
// once per target so every audit starts from clean state.
func NewBatchProcessor(auditorFactory func() *Auditor, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		auditorFactory: auditorFactory,
		concurrency:    3,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits all targets and returns one result per target,
// in input order. Individual audit failures are recorded in their
// BatchResult and do not abort the batch; the error return is reserved
// for context cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]BatchResult, error) {
	bp.logger.Info("starting batch audit",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]BatchResult, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing target",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			auditor := bp.auditorFactory()
			report, err := auditor.Run(ctx, target)

			bp.mu.Lock()
			bp.results[i] = BatchResult{Target: target, Report: report, Err: err}
			bp.mu.Unlock()

			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				bp.logger.Warn("audit failed",
					"target", target,
					"error", err,
				)
				// A bad target should not abort the rest of the batch.
				return nil
			}

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch audit complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}
