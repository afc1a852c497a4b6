package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/database"
)

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("MaxPages = %d, want %d", cfg.MaxPages, config.DefaultMaxPages)
		}
		if cfg.RequestDelay != config.DefaultRequestDelay {
			t.Errorf("RequestDelay = %v, want %v", cfg.RequestDelay, config.DefaultRequestDelay)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB true by default")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to default to the XDG data dir")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "example.com" {
			t.Errorf("Targets = %v, want [example.com]", cfg.Targets)
		}
	})

	t.Run("flag overrides", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		err := cmd.ParseFlags([]string{
			"--max-pages", "5",
			"--delay", "500ms",
			"--retries", "1",
			"--json",
			"--output", "out.json",
			"--no-save",
			"--db-dir", "/tmp/audits",
		})
		if err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.MaxPages != 5 {
			t.Errorf("MaxPages = %d, want 5", cfg.MaxPages)
		}
		if cfg.RequestDelay != 500*time.Millisecond {
			t.Errorf("RequestDelay = %v, want 500ms", cfg.RequestDelay)
		}
		if cfg.MaxRetries != 1 {
			t.Errorf("MaxRetries = %d, want 1", cfg.MaxRetries)
		}
		if !cfg.JSONReport {
			t.Error("expected JSONReport true")
		}
		if cfg.ReportFile != "out.json" {
			t.Errorf("ReportFile = %q, want out.json", cfg.ReportFile)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB false with --no-save")
		}
		if cfg.DBDir != "/tmp/audits" {
			t.Errorf("DBDir = %q, want /tmp/audits", cfg.DBDir)
		}
	})

	t.Run("conflicting report formats fail validation", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		if err := cmd.ParseFlags([]string{"--json", "--markdown"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if err := cfg.Validate(); !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("Validate() error = %v, want ErrConflictingReportFormats", err)
		}
	})

	t.Run("missing explicit config file fails", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		if _, err := buildConfig(cmd, []string{"example.com"}); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestTargetHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "bare hostname", target: "example.com", want: "example.com"},
		{name: "full url with path", target: "https://shop.example.com/store", want: "shop.example.com"},
		{name: "invalid target", target: "   ", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := targetHost(tt.target); got != tt.want {
				t.Errorf("targetHost(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

// TestRunAuditEndToEnd drives a full audit against a local test server
// and checks the report file and history database.
func TestRunAuditEndToEnd(t *testing.T) {
	filler := strings.Repeat("<p>content</p>", 30)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Home</title></head><body>
			<a href="/contact">Contact</a>` + filler + `</body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Contact</title></head><body>
			<form action="/submit" method="post">
				<label>Your name</label><input type="text" name="name" required>
				<label>Message</label><textarea name="message"></textarea>
			</form>` + filler + `</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dbDir := t.TempDir()
	reportFile := filepath.Join(t.TempDir(), "reports", "audit.json")

	cfg := config.NewConfig()
	cfg.Targets = []string{server.URL}
	cfg.MaxPages = 5
	cfg.RequestDelay = 0
	cfg.SaveToDB = true
	cfg.DBDir = dbDir
	cfg.JSONReport = true
	cfg.ReportFile = reportFile
	cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := runAudit(context.Background(), cfg, logger); err != nil {
		t.Fatalf("runAudit() error = %v", err)
	}

	data, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("failed to read report file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"audit_id"`) {
		t.Error("expected report file to contain an audit ID")
	}
	if !strings.Contains(content, "Contact Form") {
		t.Errorf("expected report to classify the contact form, got:\n%s", content)
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to open history database: %v", err)
	}
	defer db.Close()

	history, err := db.GetHistory(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].TotalForms != 1 {
		t.Errorf("recorded forms = %d, want 1", history[0].TotalForms)
	}
}
