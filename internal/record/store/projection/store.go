// Package projection caches materialized record state. The cache is never
// the source of truth: a miss or a decode failure just means the caller
// replays the event log and repopulates.
package projection

import (
	"context"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// Cache stores projected record snapshots keyed by record ID.
type Cache interface {
	// Get returns the cached snapshot, or (nil, nil) on a miss.
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)

	Put(ctx context.Context, rec *models.Record) error

	// Invalidate drops the snapshot so the next read rebuilds from the log.
	Invalidate(ctx context.Context, recordID id.RecordID) error
}
