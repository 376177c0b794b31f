package validation

import (
	"context"
	"strings"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// CompletenessChecker verifies the counterpart fields and, for expenses, the
// category. It never blocks on its own: everything here is WARNING level.
// Each absent field contributes independently.
type CompletenessChecker struct{}

func NewCompletenessChecker() *CompletenessChecker { return &CompletenessChecker{} }

func (v *CompletenessChecker) Name() string { return "completeness" }

func (v *CompletenessChecker) Validate(_ context.Context, rec *models.Record) Result {
	res := Result{Validator: v.Name(), Dimension: DimensionCompleteness, Score: 100}

	const perFieldPenalty = 35

	if strings.TrimSpace(rec.Counterpart.Name) == "" {
		res.Score -= perFieldPenalty
		res.Findings = append(res.Findings, Finding{
			Code:     "counterpart_name_missing",
			Severity: SeverityWarning,
			Field:    "counterpart.name",
			Message:  "counterpart name is missing",
		})
	}
	if NormalizeTaxID(rec.Counterpart.TaxID) == "" {
		res.Score -= perFieldPenalty
		res.Findings = append(res.Findings, Finding{
			Code:     "counterpart_tax_id_missing",
			Severity: SeverityWarning,
			Field:    "counterpart.tax_id",
			Message:  "counterpart tax identifier is missing",
		})
	}
	if rec.Direction == id.DirectionExpense && rec.Category == nil {
		res.Score -= perFieldPenalty
		res.Findings = append(res.Findings, Finding{
			Code:     "category_missing",
			Severity: SeverityWarning,
			Field:    "category",
			Message:  "expense record has no deduction category",
		})
	}
	if res.Score < 0 {
		res.Score = 0
	}
	return res
}
