// Package audit streams every stored record event to an outbound feed so
// downstream audit tooling sees the same history the event table holds. The
// feed is best-effort on the write path: a broker outage is logged and
// counted, never allowed to fail or delay the append that already committed.
package audit

import (
	"context"

	"taxrelief/internal/record/models"
)

// Feed receives committed events.
type Feed interface {
	Publish(ctx context.Context, ev models.Event) error
}

// NopFeed drops events. Used when no broker is configured and in tests.
type NopFeed struct{}

func (NopFeed) Publish(context.Context, models.Event) error { return nil }
