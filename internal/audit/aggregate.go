package audit

import (
	"math"

	"github.com/siteaudit/siteaudit/internal/model"
)

// Summarize reduces per-page results into summary statistics. The
// reduction is deterministic and performs no I/O; an empty input
// yields an all-zero summary rather than an error.
func Summarize(pages []model.PageResult) model.CrawlSummary {
	summary := model.CrawlSummary{
		FormTypeBreakdown: make(map[model.FormType]int),
	}
	if len(pages) == 0 {
		return summary
	}

	for _, page := range pages {
		summary.TotalQualifyingForms += page.FormsWithMultipleInputs

		for _, form := range page.Forms {
			summary.FormTypeBreakdown[form.FormType]++

			switch form.Complexity {
			case model.ComplexitySimple:
				summary.ComplexityBreakdown.SimpleForms++
			case model.ComplexityMedium:
				summary.ComplexityBreakdown.MediumForms++
			default:
				summary.ComplexityBreakdown.ComplexForms++
			}

			if form.HasValidation {
				summary.FormsWithValidation++
			}
		}
	}

	summary.PagesAnalyzed = len(pages)
	summary.PagesWithQualifyingForms = len(pages)
	summary.AverageFormsPerPage = round1(float64(summary.TotalQualifyingForms) / float64(len(pages)))
	if summary.TotalQualifyingForms > 0 {
		summary.ValidationPercentage = round1(float64(summary.FormsWithValidation) / float64(summary.TotalQualifyingForms) * 100)
	}

	return summary
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
