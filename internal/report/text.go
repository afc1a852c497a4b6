package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/siteaudit/siteaudit/internal/model"
)

// TextWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting works in every terminal and pipes cleanly.
type TextWriter struct {
	baseWriter

	// verbose enables per-form detail in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables per-form detail in the output.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *TextWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writePages(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFingerprint(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with audit information.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SITE AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:          %s\n", report.URL))
	sb.WriteString(fmt.Sprintf("Audit ID:        %s\n", report.AuditID))
	sb.WriteString(fmt.Sprintf("Audit Date:      %s\n", report.Timestamp.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Analyzed:  %d\n", report.TotalPagesAnalyzed))
	sb.WriteString(fmt.Sprintf("Processing Time: %.2fs\n", report.ProcessingTimeSeconds))

	switch report.Status {
	case model.StatusCompletedWithLimitations:
		sb.WriteString("Status:          COMPLETED WITH LIMITATIONS (estimated results)\n")
	case model.StatusError:
		sb.WriteString("Status:          ERROR\n")
	default:
		sb.WriteString("Status:          Complete\n")
	}

	if report.Note != "" {
		sb.WriteString(fmt.Sprintf("\nNote: %s\n", report.Note))
	}

	sb.WriteString("\n")
}

// writeSummary writes the form summary section.
func (w *TextWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FORM SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	summary := report.Summary
	sb.WriteString(fmt.Sprintf("  Pages with forms:      %d\n", summary.PagesWithQualifyingForms))
	sb.WriteString(fmt.Sprintf("  Qualifying forms:      %d\n", summary.TotalQualifyingForms))
	sb.WriteString(fmt.Sprintf("  Average forms/page:    %.1f\n", summary.AverageFormsPerPage))
	sb.WriteString(fmt.Sprintf("  Forms with validation: %d (%.1f%%)\n",
		summary.FormsWithValidation, summary.ValidationPercentage))
	sb.WriteString("\n")

	if len(summary.FormTypeBreakdown) > 0 {
		sb.WriteString("  By type:\n")
		for _, formType := range model.FormTypes() {
			if count := summary.FormTypeBreakdown[formType]; count > 0 {
				sb.WriteString(fmt.Sprintf("    %-25s %d\n", formType, count))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("  Complexity:  simple %d / medium %d / complex %d\n",
		summary.ComplexityBreakdown.SimpleForms,
		summary.ComplexityBreakdown.MediumForms,
		summary.ComplexityBreakdown.ComplexForms))
	sb.WriteString("\n")
}

// writePages writes the per-page results section.
func (w *TextWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.PagesWithForms) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES WITH FORMS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, page := range report.PagesWithForms {
		marker := "+"
		if page.Status == model.PageStatusEstimated {
			marker = "~"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, page.URL))
		sb.WriteString(fmt.Sprintf("      Title: %s\n", page.PageTitle))
		sb.WriteString(fmt.Sprintf("      Forms: %d qualifying of %d total\n",
			page.FormsWithMultipleInputs, page.TotalForms))

		if w.verbose {
			for _, form := range page.Forms {
				sb.WriteString(fmt.Sprintf("        #%d %s: %d fields, %s",
					form.FormIndex, form.FormType, form.TotalInputFields, form.Complexity))
				if form.HasValidation {
					sb.WriteString(", validated")
				}
				sb.WriteString("\n")
			}
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed pages section.
func (w *TextWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.FailedData) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, failure := range report.FailedData {
		sb.WriteString(fmt.Sprintf("  [x] %s\n", failure.URL))
		sb.WriteString(fmt.Sprintf("      %s\n", failure.Error))
	}
	sb.WriteString("\n")
}

// writeFingerprint writes the platform fingerprint section.
func (w *TextWriter) writeFingerprint(sb *strings.Builder, report *model.CrawlReport) {
	if report.CMS == nil && report.Analytics == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PLATFORM\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if report.CMS != nil {
		if report.CMS.PrimaryCMS != "" {
			det := report.CMS.DetectedSystems[report.CMS.PrimaryCMS]
			sb.WriteString(fmt.Sprintf("  CMS: %s (%d%% confidence)\n",
				report.CMS.PrimaryCMS, det.Confidence))
		} else {
			sb.WriteString("  CMS: none detected\n")
		}
	}

	if report.Analytics != nil {
		if report.Analytics.TotalDetected == 0 {
			sb.WriteString("  Analytics: none detected\n")
		} else {
			for _, category := range model.AnalyticsCategories() {
				tools := report.Analytics.Categories[category]
				if len(tools) == 0 {
					continue
				}
				sb.WriteString(fmt.Sprintf("  %s: %s\n", category, strings.Join(tools, ", ")))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by siteaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
