package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxFallbackAttempts bounds the backward walk over calendar days: the
// requested date plus up to six preceding days.
const maxFallbackAttempts = 7

// Converter turns foreign-currency amounts into the local currency.
type Converter struct {
	source Source
}

func NewConverter(source Source) *Converter {
	return &Converter{source: source}
}

// Convert returns the amount in the local currency, rounded half-up to two
// decimal places, together with the rate used. Amounts already in the local
// currency pass through exactly, unrounded. When no rate can be resolved
// within the fallback window the error wraps ErrRateUnavailable.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, currency string, date time.Time) (decimal.Decimal, *Rate, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == LocalCurrency {
		return amount, nil, nil
	}

	rate, err := c.Resolve(ctx, code, date)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return amount.Mul(rate.Mid).Round(2), rate, nil
}

// Resolve finds the rate for the date, stepping back one calendar day per
// miss, maxFallbackAttempts attempts in total.
func (c *Converter) Resolve(ctx context.Context, currency string, date time.Time) (*Rate, error) {
	day := date
	for attempt := 0; attempt < maxFallbackAttempts; attempt++ {
		mid, err := c.source.MidRate(ctx, currency, day)
		switch {
		case err == nil:
			return &Rate{Mid: mid, QuotedFor: day}, nil
		case errors.Is(err, ErrNoRate):
			day = day.AddDate(0, 0, -1)
		default:
			// Source unreachable or timed out: degrade, don't abort.
			return nil, fmt.Errorf("resolve %s rate for %s: %w", currency, date.Format("2006-01-02"), errors.Join(ErrRateUnavailable, err))
		}
	}
	return nil, fmt.Errorf("no %s rate within %d days of %s: %w",
		currency, maxFallbackAttempts, date.Format("2006-01-02"), ErrRateUnavailable)
}
