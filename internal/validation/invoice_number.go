package validation

import (
	"context"
	"regexp"
	"strings"

	"taxrelief/internal/record/models"
)

// genericPlaceholders are bare words extraction tools emit when the document
// carried no real number. Matching is case-insensitive on the normalized
// form.
var genericPlaceholders = map[string]struct{}{
	"FAKTURA":   {},
	"FAKTURY":   {},
	"FV":        {},
	"F-RA":      {},
	"SPRZEDAZ":  {},
	"SPRZEDAZY": {},
	"RACHUNEK":  {},
	"PARAGON":   {},
	"INVOICE":   {},
}

// knownShapes are the invoice-number formats treated as fully valid. A
// string failing all of them but tripping no rejection rule is accepted with
// a WARNING: unknown formats are lower-confidence, not invalid.
var knownShapes = []*regexp.Regexp{
	// FV/123/01/2025, FA-0042-12-2024: alpha prefix, sequential digits, period parts.
	regexp.MustCompile(`^[A-Z]{1,4}[/\-]\d{1,6}([/\-]\d{1,2})?[/\-]\d{4}$`),
	// 123/01/2025: numeric / numeric / 4-digit year.
	regexp.MustCompile(`^\d{1,6}/\d{1,2}/\d{4}$`),
	// 2025/01/123: year-first variant.
	regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,6}$`),
	// FV 123/2025: prefix, space, number/year.
	regexp.MustCompile(`^[A-Z]{1,4} \d{1,6}/\d{4}$`),
	// Long plain numerics (at least 4 digits) are common for till systems.
	regexp.MustCompile(`^\d{4,}$`),
}

var purelyNumeric = regexp.MustCompile(`^\d+$`)

// InvoiceNumberValidator normalizes and judges the invoice number.
type InvoiceNumberValidator struct{}

func NewInvoiceNumberValidator() *InvoiceNumberValidator { return &InvoiceNumberValidator{} }

func (v *InvoiceNumberValidator) Name() string { return "invoice_number" }

func (v *InvoiceNumberValidator) Validate(_ context.Context, rec *models.Record) Result {
	res := Result{Validator: v.Name(), Dimension: DimensionFormat, Score: 100}

	normalized := strings.ToUpper(strings.TrimSpace(rec.InvoiceNumber))
	if normalized == "" {
		res.Score = 0
		res.Findings = append(res.Findings, Finding{
			Code:     "invoice_number_missing",
			Severity: SeverityError,
			Field:    "invoice_number",
			Message:  "invoice number is empty",
		})
		return res
	}
	if _, generic := genericPlaceholders[normalized]; generic {
		res.Score = 0
		res.Findings = append(res.Findings, Finding{
			Code:     "invoice_number_generic",
			Severity: SeverityError,
			Field:    "invoice_number",
			Message:  "invoice number is a generic placeholder with no numeric content",
		})
		return res
	}
	if purelyNumeric.MatchString(normalized) && len(normalized) < 4 {
		res.Score = 0
		res.Findings = append(res.Findings, Finding{
			Code:     "invoice_number_too_short",
			Severity: SeverityError,
			Field:    "invoice_number",
			Message:  "purely numeric invoice number shorter than 4 digits",
		})
		return res
	}

	for _, shape := range knownShapes {
		if shape.MatchString(normalized) {
			res.NormalizedInvoiceNumber = normalized
			return res
		}
	}

	// No rejection rule fired, no known shape matched: accept with reduced
	// confidence instead of treating the unknown as invalid.
	res.Score = 60
	res.Findings = append(res.Findings, Finding{
		Code:     "invoice_number_nonstandard",
		Severity: SeverityWarning,
		Field:    "invoice_number",
		Message:  "invoice number does not match any known format",
	})
	return res
}
