//go:build integration

package event_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"taxrelief/internal/record/models"
	"taxrelief/internal/record/store/event"
	id "taxrelief/pkg/domain"
	"taxrelief/pkg/platform/sentinel"
	"taxrelief/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *event.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(event.EnsureSchema(context.Background(), s.postgres.Pool))
	s.store = event.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "record_events")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) created(recordID id.RecordID, seq int64) models.Event {
	return models.NewEvent(recordID, seq, time.Now().UTC().Truncate(time.Microsecond), "tester",
		models.CreatedPayload{
			ProjectID:     id.NewProjectID(),
			InvoiceNumber: "FV/1/2025",
			InvoiceDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			Currency:      "PLN",
			GrossAmount:   decimal.RequireFromString("123.00"),
			NetAmount:     decimal.RequireFromString("100.00"),
			TaxAmount:     decimal.RequireFromString("23.00"),
			Direction:     id.DirectionExpense,
		})
}

func (s *PostgresStoreSuite) justified(recordID id.RecordID, seq int64) models.Event {
	return models.NewEvent(recordID, seq, time.Now().UTC().Truncate(time.Microsecond), "tester",
		models.JustifiedPayload{Text: "nota"})
}

// TestAppendAndHistory verifies the round trip through the payload codec.
func (s *PostgresStoreSuite) TestAppendAndHistory() {
	ctx := context.Background()
	recordID := id.NewRecordID()

	s.Require().NoError(s.store.Append(ctx, s.created(recordID, 1)))
	s.Require().NoError(s.store.Append(ctx, s.justified(recordID, 2)))

	events, err := s.store.History(ctx, recordID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Equal(int64(1), events[0].Sequence)
	s.Equal(models.EventCreated, events[0].Kind)
	created, ok := events[0].Payload.(models.CreatedPayload)
	s.Require().True(ok)
	s.Equal("FV/1/2025", created.InvoiceNumber)
	s.True(decimal.RequireFromString("123.00").Equal(created.GrossAmount))

	s.Equal(int64(2), events[1].Sequence)
	justified, ok := events[1].Payload.(models.JustifiedPayload)
	s.Require().True(ok)
	s.Equal("nota", justified.Text)
}

// TestSequenceConflicts verifies the optimistic append guard.
func (s *PostgresStoreSuite) TestSequenceConflicts() {
	ctx := context.Background()
	recordID := id.NewRecordID()

	s.Run("first event must be sequence one", func() {
		err := s.store.Append(ctx, s.justified(recordID, 2))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("gapless appends succeed", func() {
		s.Require().NoError(s.store.Append(ctx, s.created(recordID, 1)))
		s.Require().NoError(s.store.Append(ctx, s.justified(recordID, 2)))
	})

	s.Run("stale sequence conflicts", func() {
		err := s.store.Append(ctx, s.justified(recordID, 2))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("skipped sequence conflicts", func() {
		err := s.store.Append(ctx, s.justified(recordID, 5))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

// TestConcurrentAppend verifies exactly one of many racing writers wins a
// sequence slot under real database concurrency.
func (s *PostgresStoreSuite) TestConcurrentAppend() {
	ctx := context.Background()
	recordID := id.NewRecordID()
	s.Require().NoError(s.store.Append(ctx, s.created(recordID, 1)))

	const writers = 10
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Append(ctx, s.justified(recordID, 2)); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	events, err := s.store.History(ctx, recordID)
	s.Require().NoError(err)
	s.Len(events, 2)
}

// TestListRecordIDs verifies enumeration across records.
func (s *PostgresStoreSuite) TestListRecordIDs() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Append(ctx, s.created(id.NewRecordID(), 1)))
	}

	ids, err := s.store.ListRecordIDs(ctx)
	s.Require().NoError(err)
	s.Len(ids, 3)
}

// TestHistoryUnknownRecord verifies the empty-not-error contract.
func (s *PostgresStoreSuite) TestHistoryUnknownRecord() {
	events, err := s.store.History(context.Background(), id.NewRecordID())
	s.Require().NoError(err)
	s.Empty(events)
}
