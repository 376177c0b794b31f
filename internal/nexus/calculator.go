// Package nexus computes the bounded cost-allocation ratio that scales
// qualifying intellectual-property income. The ratio is always computed per
// qualifying asset and per reporting period; costs from different assets are
// never pooled.
package nexus

import (
	"time"

	"github.com/shopspring/decimal"

	id "taxrelief/pkg/domain"
	dErrors "taxrelief/pkg/domain-errors"
)

// upliftFactor is the 1.3 multiplier applied to own and unrelated-party R&D
// cost. Fixed by the preference rules.
var upliftFactor = decimal.NewFromFloat(1.3)

// Inputs are the four cost buckets for one asset and period.
type Inputs struct {
	AssetID id.AssetID
	Period  time.Time

	// DirectRD is R&D conducted by the taxpayer (a).
	DirectRD decimal.Decimal
	// UnrelatedAcquired is R&D bought from unrelated parties (b).
	UnrelatedAcquired decimal.Decimal
	// RelatedAcquired is R&D bought from related parties (c).
	RelatedAcquired decimal.Decimal
	// AcquiredIP is the purchase cost of finished IP rights (d).
	AcquiredIP decimal.Decimal
}

// Ratio computes min(1, 1.3*(a+b)/(a+b+c+d)). A zero cost total means no
// restriction applies and the ratio is 1. Negative buckets are invalid input.
func Ratio(in Inputs) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)

	for _, bucket := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"direct_rd", in.DirectRD},
		{"unrelated_acquired", in.UnrelatedAcquired},
		{"related_acquired", in.RelatedAcquired},
		{"acquired_ip", in.AcquiredIP},
	} {
		if bucket.value.IsNegative() {
			return decimal.Zero, dErrors.Newf(dErrors.CodeInvalidInput,
				"nexus cost bucket %s must not be negative", bucket.name)
		}
	}

	total := in.DirectRD.Add(in.UnrelatedAcquired).Add(in.RelatedAcquired).Add(in.AcquiredIP)
	if total.IsZero() {
		return one, nil
	}

	ratio := in.DirectRD.Add(in.UnrelatedAcquired).Mul(upliftFactor).Div(total)
	if ratio.GreaterThan(one) {
		return one, nil
	}
	return ratio, nil
}

// QualifyingIncome scales the period's qualifying income for the asset by
// its nexus ratio, rounded half-up to two decimal places.
func QualifyingIncome(income decimal.Decimal, in Inputs) (decimal.Decimal, error) {
	ratio, err := Ratio(in)
	if err != nil {
		return decimal.Zero, err
	}
	return income.Mul(ratio).Round(2), nil
}
