package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/siteaudit/siteaudit/internal/audit"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/database"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/model"
)

const (
	// readHeaderTimeout bounds slow-header attacks on the listener.
	readHeaderTimeout = 10 * time.Second

	// shutdownTimeout is how long in-flight requests get to finish.
	shutdownTimeout = 10 * time.Second
)

// AuditRunner runs a full audit against one target.
// *audit.Auditor satisfies this; tests substitute stubs.
type AuditRunner interface {
	Run(ctx context.Context, rawURL string) (*model.CrawlReport, error)
}

// PageFetcher retrieves a single page body.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Server serves the audit HTTP API.
//
// Design decision: each request gets a fresh AuditRunner or PageFetcher
// from its factory rather than sharing one. A fetcher owns per-session
// state (its randomized identity), and sharing it across concurrent
// requests would race on that state and correlate their traffic.
type Server struct {
	// addr is the listen address, e.g. ":8080".
	addr string

	// newAuditor builds a fresh auditor for one audit request.
	newAuditor func(maxPages int) AuditRunner

	// newFetcher builds a fresh fetcher for one analyze request.
	newFetcher func() PageFetcher

	// db stores finished audits when non-nil.
	db *database.AuditDB

	// logger receives request and handler logs.
	logger *slog.Logger

	httpServer *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithServerLogger sets the logger for requests and handlers.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDatabase enables persisting finished audits.
func WithDatabase(db *database.AuditDB) ServerOption {
	return func(s *Server) {
		s.db = db
	}
}

// WithAuditorFactory sets the factory used to build per-request auditors.
func WithAuditorFactory(factory func(maxPages int) AuditRunner) ServerOption {
	return func(s *Server) {
		s.newAuditor = factory
	}
}

// WithFetcherFactory sets the factory used to build per-request fetchers
// for the analyze endpoint.
func WithFetcherFactory(factory func() PageFetcher) ServerOption {
	return func(s *Server) {
		s.newFetcher = factory
	}
}

// New creates a Server with the given options applied over defaults.
func New(opts ...ServerOption) *Server {
	s := &Server{
		addr:   config.DefaultServerAddr,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.newAuditor == nil {
		s.newAuditor = func(maxPages int) AuditRunner {
			client := &http.Client{Timeout: config.DefaultTimeout}
			return audit.NewAuditor(client,
				audit.WithMaxPages(maxPages),
				audit.WithLogger(s.logger),
			)
		}
	}
	if s.newFetcher == nil {
		s.newFetcher = func() PageFetcher {
			client := &http.Client{Timeout: config.DefaultTimeout}
			return fetch.NewFetcher(client, fetch.WithLogger(s.logger))
		}
	}

	return s
}

// Handler returns the fully wired HTTP handler, including middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", requireMethod(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/form-validation", requireMethod(http.MethodPost, s.handleFormValidation))
	mux.HandleFunc("/analyze", requireMethod(http.MethodPost, s.handleAnalyze))

	return withRequestID(withLogging(s.logger)(mux))
}

// requireMethod restricts a handler to one HTTP method, mirroring the
// method-pattern routing of net/http's ServeMux in Go 1.22+ (a GET
// route also serves HEAD; other methods get 405 with an Allow header).
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			allow := method
			if method == http.MethodGet {
				allow = http.MethodGet + ", " + http.MethodHead
			}
			w.Header().Set("Allow", allow)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// ListenAndServe starts the server and blocks until ctx is canceled or
// the listener fails. On cancellation, in-flight requests get
// shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
