// Package rates provides the date-indexed exchange-rate lookup and the
// converter built on it. The external source sits behind a small port with a
// bounded timeout so pipeline logic tests against an injectable double and
// the fallback policy lives in exactly one place.
package rates

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LocalCurrency is the currency everything converts into.
const LocalCurrency = "PLN"

// ErrNoRate means the source has no rate for the requested date (typically a
// non-business day). The converter reacts by stepping back a day.
var ErrNoRate = errors.New("no rate for date")

// ErrRateUnavailable means the backward fallback window was exhausted or the
// source is unreachable. Callers surface this as a WARNING requiring manual
// rate entry, never as an abort.
var ErrRateUnavailable = errors.New("rate unavailable")

// Source returns the mid rate quoted for a currency on a calendar date.
// Implementations return ErrNoRate for dates without a quote and must bound
// their own network timeout; an exceeded timeout reads as unavailable.
type Source interface {
	MidRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error)
}

// Rate pairs a resolved rate with the date it was actually quoted for, which
// may precede the requested date because of the fallback walk.
type Rate struct {
	Mid       decimal.Decimal
	QuotedFor time.Time
}
