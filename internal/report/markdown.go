package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/siteaudit/siteaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeFailures(md, report)
	w.writeFingerprint(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Site Audit Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.URL + "`"},
			{"Audit ID", "`" + report.AuditID + "`"},
			{"Audit Date", report.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Pages Analyzed", strconv.Itoa(report.TotalPagesAnalyzed)},
			{"Processing Time", fmt.Sprintf("%.2fs", report.ProcessingTimeSeconds)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")

	// Alert for degraded results goes right under the header so a reader
	// cannot miss that the numbers below are estimates.
	switch report.Status {
	case model.StatusCompletedWithLimitations:
		md.Warningf(
			"Direct page access was blocked. Results below are pattern-based estimates: %s",
			report.LimitationReason,
		)
		md.PlainText("")
	case model.StatusError:
		md.Cautionf("Audit failed: %s", report.LimitationReason)
		md.PlainText("")
	}

	if report.Note != "" {
		md.Note(report.Note)
		md.PlainText("")
	}
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	switch report.Status {
	case model.StatusCompletedWithLimitations:
		return "⚠️ Completed With Limitations (estimated)"
	case model.StatusError:
		return "❌ Error"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the form summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Form Summary")
	md.PlainText("")

	summary := report.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages with forms", strconv.Itoa(summary.PagesWithQualifyingForms)},
			{"Qualifying forms", strconv.Itoa(summary.TotalQualifyingForms)},
			{"Average forms per page", fmt.Sprintf("%.1f", summary.AverageFormsPerPage)},
			{"Forms with validation", fmt.Sprintf("%d (%.1f%%)", summary.FormsWithValidation, summary.ValidationPercentage)},
			{"Simple / Medium / Complex", fmt.Sprintf("%d / %d / %d",
				summary.ComplexityBreakdown.SimpleForms,
				summary.ComplexityBreakdown.MediumForms,
				summary.ComplexityBreakdown.ComplexForms)},
		},
	})
	md.PlainText("")

	if summary.TotalQualifyingForms > 0 {
		w.writePieChart(md, report)
		md.Tip("Forms with fewer than 2 countable fields are excluded from these numbers.")
	} else {
		md.Note("No qualifying forms were found on the analyzed pages.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart for form type distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Form Type Distribution"),
		piechart.WithShowData(true),
	)

	for _, formType := range model.FormTypes() {
		if count := report.Summary.FormTypeBreakdown[formType]; count > 0 {
			chart.LabelAndIntValue(string(formType), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes the per-page results section.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Pages With Forms")
	md.PlainText("")

	if len(report.PagesWithForms) == 0 {
		md.PlainText("No pages with qualifying forms.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.PagesWithForms))
	for i, page := range report.PagesWithForms {
		rows[i] = []string{
			"`" + truncateString(page.URL, 60) + "`",
			truncateString(page.PageTitle, 40),
			strconv.Itoa(page.FormsWithMultipleInputs),
			strconv.Itoa(page.TotalForms),
			page.Status,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Title", "Qualifying", "Total Forms", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	// Per-form detail behind collapsible sections keeps the table readable.
	for _, page := range report.PagesWithForms {
		var detail strings.Builder
		for _, form := range page.Forms {
			detail.WriteString(fmt.Sprintf("- #%d %s: %d fields, %s complexity, method %s",
				form.FormIndex, form.FormType, form.TotalInputFields, form.Complexity, form.Method))
			if form.HasValidation {
				detail.WriteString(", validated")
			}
			detail.WriteString("\n")
		}
		md.Details(page.URL, detail.String())
	}
	md.PlainText("")
}

// writeFailures writes the failed pages section.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.FailedData) == 0 {
		return
	}

	md.H2("Failed Pages")
	md.PlainText("")

	rows := make([][]string, len(report.FailedData))
	for i, failure := range report.FailedData {
		rows[i] = []string{
			"`" + truncateString(failure.URL, 60) + "`",
			truncateString(failure.Error, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFingerprint writes the platform fingerprint section.
func (w *MarkdownWriter) writeFingerprint(md *markdown.Markdown, report *model.CrawlReport) {
	if report.CMS == nil && report.Analytics == nil {
		return
	}

	md.H2("Platform")
	md.PlainText("")

	var items []string
	if report.CMS != nil {
		if report.CMS.PrimaryCMS != "" {
			det := report.CMS.DetectedSystems[report.CMS.PrimaryCMS]
			items = append(items, fmt.Sprintf("CMS: %s (%d%% confidence)",
				report.CMS.PrimaryCMS, det.Confidence))
		} else {
			items = append(items, "CMS: none detected")
		}
	}
	if report.Analytics != nil {
		if report.Analytics.TotalDetected == 0 {
			items = append(items, "Analytics: none detected")
		} else {
			for _, category := range model.AnalyticsCategories() {
				tools := report.Analytics.Categories[category]
				if len(tools) == 0 {
					continue
				}
				items = append(items, fmt.Sprintf("%s: %s", category, strings.Join(tools, ", ")))
			}
		}
	}

	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by siteaudit*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
