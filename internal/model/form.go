package model

// FormType is the semantic classification assigned to a form.
// Classification is keyword-based and order-sensitive: the first
// matching keyword group wins, so a form mentioning both "login" and
// "contact" is a Login form.
type FormType string

// All form types, in classification priority order.
const (
	FormTypeLogin        FormType = "Login Form"
	FormTypeRegistration FormType = "Registration Form"
	FormTypeContact      FormType = "Contact Form"
	FormTypeSearch       FormType = "Search Form"
	FormTypeNewsletter   FormType = "Newsletter Form"
	FormTypePayment      FormType = "Payment Form"
	FormTypeFeedback     FormType = "Feedback Form"
	FormTypeQuote        FormType = "Quote/Calculator Form"
	FormTypeBooking      FormType = "Booking Form"
	FormTypeApplication  FormType = "Application Form"
	FormTypeSurvey       FormType = "Survey Form"
	FormTypeGeneral      FormType = "General Form"
)

// FormTypes returns every form type in classification priority order.
// Report writers iterate it to render breakdown maps deterministically.
func FormTypes() []FormType {
	return []FormType{
		FormTypeLogin,
		FormTypeRegistration,
		FormTypeContact,
		FormTypeSearch,
		FormTypeNewsletter,
		FormTypePayment,
		FormTypeFeedback,
		FormTypeQuote,
		FormTypeBooking,
		FormTypeApplication,
		FormTypeSurvey,
		FormTypeGeneral,
	}
}

// Complexity is a coarse tier derived purely from the countable field
// total: 3 or fewer fields is simple, 4-7 is medium, 8 or more is complex.
type Complexity string

// Complexity tiers.
const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// ComplexityFor maps a countable field total to its complexity tier.
// It is a total function: every non-negative count maps to a tier.
func ComplexityFor(totalFields int) Complexity {
	switch {
	case totalFields <= 3:
		return ComplexitySimple
	case totalFields <= 7:
		return ComplexityMedium
	default:
		return ComplexityComplex
	}
}

// FieldBreakdown counts a form's fields by kind.
// Inputs of type submit, button, reset, and hidden are excluded from
// every bucket before counting.
type FieldBreakdown struct {
	// TextInputs counts text-like inputs: text, email, password, tel,
	// url, search, number, and the date/time family.
	TextInputs int `json:"text_inputs"`

	// Textareas counts <textarea> elements.
	Textareas int `json:"textareas"`

	// Selects counts <select> elements.
	Selects int `json:"selects"`

	// Checkboxes counts checkbox inputs.
	Checkboxes int `json:"checkboxes"`

	// Radios counts radio inputs.
	Radios int `json:"radios"`

	// FileInputs counts file inputs.
	FileInputs int `json:"file_inputs"`

	// OtherInputs counts inputs of any type not covered above.
	OtherInputs int `json:"other_inputs"`
}

// Total returns the sum across all buckets.
func (b FieldBreakdown) Total() int {
	return b.TextInputs + b.Textareas + b.Selects + b.Checkboxes +
		b.Radios + b.FileInputs + b.OtherInputs
}

// FormRecord is the analysis result for a single form on a page.
//
// A FormRecord only reaches a report if its total field count is at
// least QualifyingFieldCount; smaller forms (a lone search box with a
// submit button, for example) are discarded by the caller.
type FormRecord struct {
	// FormIndex is the 1-based position of the form within its page.
	FormIndex int `json:"form_index"`

	// FormType is the semantic classification of the form.
	FormType FormType `json:"form_type"`

	// TotalInputFields is the countable field total, equal to
	// FieldBreakdown.Total().
	TotalInputFields int `json:"total_input_fields"`

	// FieldBreakdown details the field counts by kind.
	FieldBreakdown FieldBreakdown `json:"field_breakdown"`

	// Action is the form's action attribute, verbatim.
	Action string `json:"action"`

	// Method is the HTTP method, uppercased. Defaults to GET.
	Method string `json:"method"`

	// HasValidation is true if any field carries a required, pattern,
	// minlength, maxlength, min, or max constraint attribute.
	HasValidation bool `json:"has_validation"`

	// FormID is the form's id attribute, if any.
	FormID string `json:"form_id"`

	// FormClass is the form's class attribute, if any.
	FormClass string `json:"form_class"`

	// Complexity is derived from TotalInputFields via ComplexityFor.
	Complexity Complexity `json:"complexity"`

	// Labels holds the first 10 label texts, each trimmed and under
	// 100 characters.
	Labels []string `json:"labels"`

	// Placeholders holds the first 10 placeholder texts, each trimmed
	// and under 100 characters.
	Placeholders []string `json:"placeholders"`
}

// QualifyingFieldCount is the minimum countable field total for a form
// to be retained in audit results.
const QualifyingFieldCount = 2

// Qualifies reports whether the form has enough countable fields to be
// retained in a report.
func (f FormRecord) Qualifies() bool {
	return f.TotalInputFields >= QualifyingFieldCount
}
