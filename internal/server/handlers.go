package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/crawl"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/fingerprint"
	"github.com/siteaudit/siteaudit/internal/model"
)

const (
	// auditTimeout bounds one full audit. A sequential crawl with
	// per-page pacing over the default page budget fits well inside it.
	auditTimeout = 5 * time.Minute

	// analyzeTimeout bounds a single-page analysis.
	analyzeTimeout = 60 * time.Second

	// maxRequestBody caps request payload size.
	maxRequestBody = 1 << 20 // 1 MB
)

var errURLRequired = errors.New("the \"url\" field is required")

// errorResponse is the JSON body for every error status.
type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// healthResponse is the JSON body for the health endpoint.
type healthResponse struct {
	Status string `json:"status"`
}

// formValidationRequest is the payload for POST /form-validation.
type formValidationRequest struct {
	// URL is the target website. Scheme is optional; https is assumed.
	URL string `json:"url"`

	// MaxPages overrides the default page budget when positive.
	MaxPages int `json:"max_pages"`
}

func (r formValidationRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

// analyzeRequest is the payload for POST /analyze.
type analyzeRequest struct {
	URL string `json:"url"`
}

func (r analyzeRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

// analyzeResponse is the result of a single-page analysis.
type analyzeResponse struct {
	URL       string                 `json:"url"`
	Links     model.LinkInventory    `json:"links"`
	CMS       *model.CMSResult       `json:"cms_detected"`
	Analytics *model.AnalyticsResult `json:"analytics_tools"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.renderJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleFormValidation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req formValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}
	if err := req.validate(); err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = config.DefaultMaxPages
	}

	ctx, cancel := context.WithTimeout(r.Context(), auditTimeout)
	defer cancel()

	report, err := s.newAuditor(maxPages).Run(ctx, req.URL)
	if err != nil {
		s.handleAuditError(w, err)
		return
	}

	if s.db != nil {
		if err := s.db.SaveReport(ctx, report); err != nil {
			s.logger.Error("failed to save report",
				"audit_id", report.AuditID, "error", err)
		}
	}

	s.renderJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}
	if err := req.validate(); err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	normalized, err := crawl.Normalize(req.URL)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, "The \"url\" field is not a valid URL.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	body, err := s.newFetcher().Fetch(ctx, normalized)
	if err != nil {
		s.handleAuditError(w, err)
		return
	}

	s.renderJSON(w, http.StatusOK, analyzeResponse{
		URL:       normalized,
		Links:     crawl.ExtractLinks(body, normalized),
		CMS:       fingerprint.DetectCMS(body),
		Analytics: fingerprint.DetectAnalytics(body),
	})
}

// handleAuditError maps audit failures onto HTTP statuses.
func (s *Server) handleAuditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, crawl.ErrInvalidURL):
		s.renderError(w, http.StatusBadRequest, "The \"url\" field is not a valid URL.")
	case errors.Is(err, context.DeadlineExceeded):
		s.renderError(w, http.StatusGatewayTimeout, "The target site took too long to respond.")
	case errors.Is(err, fetch.ErrExhausted):
		s.renderError(w, http.StatusBadGateway, "The target site could not be reached.")
	default:
		s.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

func (s *Server) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	s.renderJSON(w, status, errorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
