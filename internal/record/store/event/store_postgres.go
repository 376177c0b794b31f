package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
	"taxrelief/pkg/platform/sentinel"
)

// Schema is the DDL for the event table. The unique (record_id, sequence)
// index is what turns two concurrent writers into one winner and one
// sentinel.ErrConflict.
const Schema = `
CREATE TABLE IF NOT EXISTS record_events (
	record_id  UUID        NOT NULL,
	sequence   BIGINT      NOT NULL,
	kind       TEXT        NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	actor      TEXT        NOT NULL,
	payload    JSONB       NOT NULL,
	PRIMARY KEY (record_id, sequence)
);
`

const uniqueViolation = "23505"

// PostgresStore persists the event log in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the event table if missing. Deployments run real
// migrations; tests and dev call this directly.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure event schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, ev models.Event) error {
	if ev.RecordID.IsNil() {
		return fmt.Errorf("append: record id is required")
	}
	payload, err := models.MarshalPayload(ev.Payload)
	if err != nil {
		return err
	}

	// The WHERE guard enforces sequence = last+1; the primary key backs it
	// up under races. Either path reports a conflict.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO record_events (record_id, sequence, kind, occurred_at, actor, payload)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE (SELECT COALESCE(MAX(sequence), 0) FROM record_events WHERE record_id = $1) = $2 - 1`,
		uuid.UUID(ev.RecordID), ev.Sequence, string(ev.Kind), ev.OccurredAt, ev.Actor, payload,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("append record %s sequence %d: %w", ev.RecordID, ev.Sequence, sentinel.ErrConflict)
		}
		return fmt.Errorf("append record %s: %w", ev.RecordID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("append record %s sequence %d: %w", ev.RecordID, ev.Sequence, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, recordID id.RecordID) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT record_id, sequence, kind, occurred_at, actor, payload
		FROM record_events
		WHERE record_id = $1
		ORDER BY sequence`,
		uuid.UUID(recordID),
	)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", recordID, err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev      models.Event
			rid     uuid.UUID
			kind    string
			payload []byte
		)
		if err := rows.Scan(&rid, &ev.Sequence, &kind, &ev.OccurredAt, &ev.Actor, &payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		ev.RecordID = id.RecordID(rid)
		ev.Kind = models.EventKind(kind)
		ev.Payload, err = models.UnmarshalPayload(ev.Kind, payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %s/%d: %w", recordID, ev.Sequence, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for %s: %w", recordID, err)
	}
	return events, nil
}

func (s *PostgresStore) ListRecordIDs(ctx context.Context) ([]id.RecordID, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT record_id FROM record_events ORDER BY record_id`)
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}
	defer rows.Close()

	var ids []id.RecordID
	for rows.Next() {
		var rid uuid.UUID
		if err := rows.Scan(&rid); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id.RecordID(rid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record ids: %w", err)
	}
	return ids, nil
}
