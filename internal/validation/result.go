// Package validation implements the legal/financial correctness checks that
// gate a record's path to approval: tax-identifier checksum, invoice-number
// shape, currency conversion, completeness, and the weighted quality score
// derived from them. Validators are composed into an explicit ordered
// pipeline so findings are deterministic and reproducible across runs.
package validation

import (
	"context"

	"taxrelief/internal/record/models"
)

// Severity splits findings into those that block approval and those that
// only lower confidence.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Dimension keys the quality score breakdown.
type Dimension string

const (
	DimensionFormat         Dimension = "format"
	DimensionCompleteness   Dimension = "completeness"
	DimensionCurrency       Dimension = "currency"
	DimensionClassification Dimension = "classification"
)

// dimensionWeights is the fixed scoring split. Domain constant, not config.
var dimensionWeights = map[Dimension]float64{
	DimensionFormat:         0.30,
	DimensionCompleteness:   0.25,
	DimensionCurrency:       0.20,
	DimensionClassification: 0.25,
}

// Finding is one observation from one validator.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Result is a single validator's outcome: findings plus a 0-100 contribution
// to its dimension. NormalizedInvoiceNumber is set only by the invoice-number
// validator and only when the number is valid.
type Result struct {
	Validator               string
	Dimension               Dimension
	Findings                []Finding
	Score                   float64
	NormalizedInvoiceNumber string
}

// Validator is the fixed capability the pipeline composes. Implementations
// must be pure over the record apart from declared collaborator lookups
// (the currency validator calls the rate source).
type Validator interface {
	Name() string
	Validate(ctx context.Context, rec *models.Record) Result
}

// ValidationResult is the merged outcome of one pipeline run.
type ValidationResult struct {
	Valid                   bool               `json:"valid"`
	Findings                []Finding          `json:"findings"`
	NormalizedInvoiceNumber string             `json:"normalized_invoice_number,omitempty"`
	Contributions           map[string]float64 `json:"contributions"`
}

// QualityScore aggregates the weighted dimensions into 0-100.
type QualityScore struct {
	Total     float64               `json:"total"`
	Breakdown map[Dimension]float64 `json:"breakdown"`
}

// HasErrors reports whether any finding is ERROR level.
func (r *ValidationResult) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any finding is WARNING level.
func (r *ValidationResult) HasWarnings() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// FindingRecords converts findings to their persisted event form.
func (r *ValidationResult) FindingRecords() []models.FindingRecord {
	out := make([]models.FindingRecord, 0, len(r.Findings))
	for _, f := range r.Findings {
		out = append(out, models.FindingRecord{
			Code:     f.Code,
			Severity: string(f.Severity),
			Field:    f.Field,
			Message:  f.Message,
		})
	}
	return out
}
