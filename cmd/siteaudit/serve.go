package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/database"
	"github.com/siteaudit/siteaudit/internal/log"
	"github.com/siteaudit/siteaudit/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP API",
		Long: `Serve starts an HTTP server exposing audits as a JSON API.

Endpoints:
  POST /form-validation  Run a full form audit ({"url": ..., "max_pages": ...})
  POST /analyze          Inspect a single page (links, CMS, analytics)
  GET  /health           Liveness check

Examples:
  # Listen on the default address
  siteaudit serve

  # Listen on a custom port without recording history
  siteaudit serve --addr :9090 --no-save`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultServerAddr,
		"Listen address for the HTTP API")
	cmd.Flags().Bool("no-save", false,
		"Do not record audits in the local history database")
	cmd.Flags().String("db-dir", "",
		"Directory for the audit history database (default: XDG data dir)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	opts := []server.ServerOption{
		server.WithAddr(addr),
		server.WithServerLogger(logger),
	}

	if !noSave {
		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts = append(opts, server.WithDatabase(db))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Listening on %s (Ctrl+C to stop)\n", addr)
	return server.New(opts...).ListenAndServe(ctx)
}
