package validation

import (
	"context"
	"strings"

	"taxrelief/internal/record/models"
)

// nipWeights multiply digits 1-9 of a 10-digit tax identifier. The sum mod 11
// must equal digit 10; a remainder of 10 never wraps to 0 and is always
// invalid.
var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// NormalizeTaxID strips the separators identifiers arrive with (dashes,
// spaces, dots) so "123-456-32-18" and "1234563218" compare equal. Non-digit
// residue is left in place; the checksum rejects it.
func NormalizeTaxID(raw string) string {
	return strings.NewReplacer("-", "", " ", "", ".", "").Replace(strings.TrimSpace(raw))
}

// ValidTaxID reports whether a normalized identifier passes the weighted
// checksum. Inputs that are not exactly 10 digits are invalid.
func ValidTaxID(normalized string) bool {
	if len(normalized) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		d := normalized[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * nipWeights[i]
	}
	last := normalized[9]
	if last < '0' || last > '9' {
		return false
	}
	remainder := sum % 11
	if remainder == 10 {
		return false
	}
	return remainder == int(last-'0')
}

// ChecksumValidator checks the counterpart tax identifier. A missing or
// empty identifier is a WARNING (the field may simply not have been
// extracted); a present identifier that fails the checksum is an ERROR.
type ChecksumValidator struct{}

func NewChecksumValidator() *ChecksumValidator { return &ChecksumValidator{} }

func (v *ChecksumValidator) Name() string { return "checksum" }

func (v *ChecksumValidator) Validate(_ context.Context, rec *models.Record) Result {
	res := Result{Validator: v.Name(), Dimension: DimensionFormat, Score: 100}

	normalized := NormalizeTaxID(rec.Counterpart.TaxID)
	if normalized == "" {
		res.Score = 50
		res.Findings = append(res.Findings, Finding{
			Code:     "tax_id_missing",
			Severity: SeverityWarning,
			Field:    "counterpart.tax_id",
			Message:  "counterpart tax identifier is missing",
		})
		return res
	}
	if !ValidTaxID(normalized) {
		res.Score = 0
		res.Findings = append(res.Findings, Finding{
			Code:     "tax_id_checksum",
			Severity: SeverityError,
			Field:    "counterpart.tax_id",
			Message:  "counterpart tax identifier fails checksum validation",
		})
	}
	return res
}
