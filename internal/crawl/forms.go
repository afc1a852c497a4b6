package crawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/siteaudit/siteaudit/internal/model"
)

// maxCollectedTexts caps the labels and placeholders kept per form.
const maxCollectedTexts = 10

// textInputTypes are the input types counted into the text bucket.
var textInputTypes = map[string]bool{
	"text": true, "email": true, "password": true, "tel": true,
	"url": true, "search": true, "number": true, "date": true,
	"time": true, "datetime-local": true, "month": true, "week": true,
}

// excludedInputTypes are the input types excluded from all field counts.
var excludedInputTypes = map[string]bool{
	"submit": true, "button": true, "reset": true, "hidden": true,
}

// validationAttrs are the constraint attributes that mark a field as
// carrying client-side validation.
var validationAttrs = []string{"required", "pattern", "minlength", "maxlength", "min", "max"}

// classificationRule pairs a keyword group with its form type.
// Groups are tested in order and the first match wins, so a form
// mentioning both "login" and "contact" classifies as a login form.
type classificationRule struct {
	keywords []string
	formType model.FormType
}

var classificationRules = []classificationRule{
	{[]string{"login", "signin", "sign in", "log in", "username", "password"}, model.FormTypeLogin},
	{[]string{"register", "signup", "sign up", "create account", "join us"}, model.FormTypeRegistration},
	{[]string{"contact", "message", "inquiry", "get in touch", "reach out"}, model.FormTypeContact},
	{[]string{"search", "query", "find", "lookup", "search for"}, model.FormTypeSearch},
	{[]string{"subscribe", "newsletter", "email updates", "mailing list"}, model.FormTypeNewsletter},
	{[]string{"payment", "checkout", "billing", "credit card", "pay now"}, model.FormTypePayment},
	{[]string{"feedback", "review", "rating", "comment", "testimonial"}, model.FormTypeFeedback},
	{[]string{"quote", "estimate", "calculate", "calculator", "pricing"}, model.FormTypeQuote},
	{[]string{"booking", "reservation", "appointment", "schedule", "book now"}, model.FormTypeBooking},
	{[]string{"application", "apply", "job", "career", "resume"}, model.FormTypeApplication},
	{[]string{"survey", "poll", "questionnaire", "research"}, model.FormTypeSurvey},
}

// ExtractForms parses the page body and returns one FormRecord per form
// element, in document order, before the qualifying-field filter is
// applied. The caller decides which records to retain.
//
// A page whose markup cannot be parsed at all yields an empty slice.
func ExtractForms(body string) []model.FormRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	records := make([]model.FormRecord, 0)
	doc.Find("form").Each(func(i int, form *goquery.Selection) {
		records = append(records, analyzeForm(form, i+1))
	})
	return records
}

// PageTitle returns the page's trimmed <title> text, or "No title".
func PageTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "No title"
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "No title"
	}
	return title
}

// analyzeForm builds the full FormRecord for a single form element.
func analyzeForm(form *goquery.Selection, index int) model.FormRecord {
	breakdown := countFields(form)
	labels := collectLabels(form)
	placeholders := collectPlaceholders(form)

	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "")))
	if method == "" {
		method = "GET"
	}

	total := breakdown.Total()
	return model.FormRecord{
		FormIndex:        index,
		FormType:         classifyForm(form, labels, placeholders),
		TotalInputFields: total,
		FieldBreakdown:   breakdown,
		Action:           form.AttrOr("action", ""),
		Method:           method,
		HasValidation:    hasValidation(form),
		FormID:           form.AttrOr("id", ""),
		FormClass:        form.AttrOr("class", ""),
		Complexity:       model.ComplexityFor(total),
		Labels:           labels,
		Placeholders:     placeholders,
	}
}

// countFields buckets the form's fields by kind. Submit, button, reset,
// and hidden inputs are invisible to the audit and excluded entirely.
func countFields(form *goquery.Selection) model.FieldBreakdown {
	var b model.FieldBreakdown

	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		inputType := strings.ToLower(strings.TrimSpace(input.AttrOr("type", "text")))
		switch {
		case excludedInputTypes[inputType]:
		case textInputTypes[inputType]:
			b.TextInputs++
		case inputType == "checkbox":
			b.Checkboxes++
		case inputType == "radio":
			b.Radios++
		case inputType == "file":
			b.FileInputs++
		default:
			b.OtherInputs++
		}
	})

	b.Textareas = form.Find("textarea").Length()
	b.Selects = form.Find("select").Length()
	return b
}

// collectLabels gathers trimmed label texts under 100 characters,
// capped at the first 10.
func collectLabels(form *goquery.Selection) []string {
	labels := make([]string, 0)
	form.Find("label").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		text := strings.TrimSpace(label.Text())
		if text != "" && len(text) < maxAnchorTextLen {
			labels = append(labels, text)
		}
		return len(labels) < maxCollectedTexts
	})
	return labels
}

// collectPlaceholders gathers trimmed placeholder texts under 100
// characters from inputs and textareas, capped at the first 10.
func collectPlaceholders(form *goquery.Selection) []string {
	placeholders := make([]string, 0)
	form.Find("input[placeholder], textarea[placeholder]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := strings.TrimSpace(el.AttrOr("placeholder", ""))
		if text != "" && len(text) < maxAnchorTextLen {
			placeholders = append(placeholders, text)
		}
		return len(placeholders) < maxCollectedTexts
	})
	return placeholders
}

// classifyForm assigns a semantic type from the form's raw markup plus
// its collected label and placeholder texts, all lowercased.
func classifyForm(form *goquery.Selection, labels, placeholders []string) model.FormType {
	markup, err := goquery.OuterHtml(form)
	if err != nil {
		markup = ""
	}

	var sb strings.Builder
	sb.WriteString(strings.ToLower(markup))
	for _, label := range labels {
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(label))
	}
	for _, placeholder := range placeholders {
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(placeholder))
	}
	haystack := sb.String()

	for _, rule := range classificationRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(haystack, keyword) {
				return rule.formType
			}
		}
	}
	return model.FormTypeGeneral
}

// hasValidation reports whether any field carries a constraint attribute.
func hasValidation(form *goquery.Selection) bool {
	found := false
	form.Find("input, textarea, select").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		for _, attr := range validationAttrs {
			if _, ok := el.Attr(attr); ok {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
