package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// CachedSource memoizes successful lookups. Historical rates never change, so
// a generous TTL only bounds memory. Misses (ErrNoRate) are cached too:
// a non-business day stays a non-business day.
type CachedSource struct {
	inner Source
	cache *gocache.Cache
}

func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

type cachedMiss struct{}

func (s *CachedSource) MidRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error) {
	key := fmt.Sprintf("%s:%s", currency, date.Format("2006-01-02"))
	if v, ok := s.cache.Get(key); ok {
		if _, miss := v.(cachedMiss); miss {
			return decimal.Zero, ErrNoRate
		}
		return v.(decimal.Decimal), nil
	}

	mid, err := s.inner.MidRate(ctx, currency, date)
	switch {
	case err == nil:
		s.cache.SetDefault(key, mid)
	case errors.Is(err, ErrNoRate):
		s.cache.SetDefault(key, cachedMiss{})
	}
	return mid, err
}
