package validation

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"taxrelief/internal/rates"
	"taxrelief/internal/record/models"
)

// amountTolerance is the rounding slack allowed between gross and net+tax.
// Per-line tax rounding legitimately produces one-grosz drift; anything
// beyond it is a numeric inconsistency that blocks approval.
var amountTolerance = decimal.NewFromFloat(0.02)

// CurrencyValidator converts foreign amounts through the rate source and
// checks gross/net/tax arithmetic. An exhausted rate lookup is a WARNING
// requiring manual entry, never an abort.
type CurrencyValidator struct {
	converter *rates.Converter
}

func NewCurrencyValidator(converter *rates.Converter) *CurrencyValidator {
	return &CurrencyValidator{converter: converter}
}

func (v *CurrencyValidator) Name() string { return "currency" }

func (v *CurrencyValidator) Validate(ctx context.Context, rec *models.Record) Result {
	res := Result{Validator: v.Name(), Dimension: DimensionCurrency, Score: 100}

	if diff := rec.GrossAmount.Sub(rec.NetAmount.Add(rec.TaxAmount)).Abs(); diff.GreaterThan(amountTolerance) {
		res.Score = 0
		res.Findings = append(res.Findings, Finding{
			Code:     "amount_inconsistent",
			Severity: SeverityError,
			Field:    "gross_amount",
			Message:  "gross amount differs from net plus tax beyond rounding tolerance",
		})
		return res
	}

	// Resolve wraps every failure mode, timeouts included, in
	// ErrRateUnavailable, so one warning covers the lot.
	if _, _, err := v.converter.Convert(ctx, rec.GrossAmount, rec.Currency, rec.InvoiceDate); errors.Is(err, rates.ErrRateUnavailable) {
		res.Score = 40
		res.Findings = append(res.Findings, Finding{
			Code:     "rate_unavailable",
			Severity: SeverityWarning,
			Field:    "currency",
			Message:  "exchange rate unavailable within fallback window; manual rate entry required",
		})
	}
	return res
}
