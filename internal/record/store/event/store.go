// Package event persists the append-only per-record event log. The log is
// the single source of truth: projected state elsewhere is cache.
package event

import (
	"context"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// Store is the append-only event log contract.
//
// Append fails with sentinel.ErrConflict (wrapped) when the event's sequence
// is not exactly one greater than the last stored sequence for the record.
// That optimistic check is the only write-side serialization between
// concurrent writers of the same record; callers re-read and retry.
type Store interface {
	Append(ctx context.Context, ev models.Event) error

	// History returns the full ordered event list for a record. An unknown
	// record yields an empty slice, not an error: absence of history is a
	// fact, and callers decide what it means.
	History(ctx context.Context, recordID id.RecordID) ([]models.Event, error)

	// ListRecordIDs returns every record that has at least one event, for
	// batch operations.
	ListRecordIDs(ctx context.Context) ([]id.RecordID, error)
}
