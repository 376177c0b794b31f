// Package service owns every mutation of a record. All writes flow through
// the event store append; projected state is derived, cached, and rebuilt
// from the log whenever in doubt.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"taxrelief/internal/audit"
	"taxrelief/internal/classification"
	"taxrelief/internal/record/models"
	"taxrelief/internal/record/projector"
	eventstore "taxrelief/internal/record/store/event"
	"taxrelief/internal/record/store/projection"
	"taxrelief/internal/validation"
	id "taxrelief/pkg/domain"
	dErrors "taxrelief/pkg/domain-errors"
	"taxrelief/pkg/platform/sentinel"
	"taxrelief/pkg/requestcontext"
)

var appendConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "taxrelief_record_append_conflicts_total",
	Help: "Event appends rejected by the optimistic sequence check",
})

// Service coordinates the event log, the projection cache, and the audit
// feed for one record at a time. Concurrent writers of the same record are
// serialized by the store's sequence check; this service never retries a
// conflict on its own, because silently replaying intent could reorder it.
type Service struct {
	events       eventstore.Store
	cache        projection.Cache
	feed         audit.Feed
	companyTaxID string
	logger       *slog.Logger
	tracer       trace.Tracer
}

// New validates dependencies and builds the service. companyTaxID is "our"
// identifier, used to tell expenses from income.
func New(events eventstore.Store, cache projection.Cache, feed audit.Feed, companyTaxID string, logger *slog.Logger) (*Service, error) {
	if events == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("projection cache is required")
	}
	if feed == nil {
		feed = audit.NopFeed{}
	}
	if validation.NormalizeTaxID(companyTaxID) == "" {
		return nil, fmt.Errorf("company tax identifier is required")
	}
	return &Service{
		events:       events,
		cache:        cache,
		feed:         feed,
		companyTaxID: companyTaxID,
		logger:       logger,
		tracer:       otel.Tracer("taxrelief/record"),
	}, nil
}

// CreateInput carries the raw extracted fields for a new record. Any of the
// string fields may be empty or malformed; judging them is the validation
// pipeline's job, not an admission check here.
type CreateInput struct {
	ProjectID     id.ProjectID
	InvoiceNumber string
	InvoiceDate   time.Time
	Currency      string
	GrossAmount   decimal.Decimal
	NetAmount     decimal.Decimal
	TaxAmount     decimal.Decimal
	Description   string
	SellerName    string
	SellerTaxID   string
	BuyerName     string
	BuyerTaxID    string
}

// Create admits a record with its first event and returns the projected
// state. Direction and counterpart are derived by comparing the seller/buyer
// identifiers against the company's own.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "record.Create")
	defer span.End()

	if in.ProjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "project id is required")
	}

	direction := classification.DirectionFor(in.SellerTaxID, in.BuyerTaxID, s.companyTaxID)
	counterpartTaxID := classification.CounterpartFor(in.SellerTaxID, in.BuyerTaxID, s.companyTaxID)
	counterpartName := in.SellerName
	if direction == id.DirectionIncome {
		counterpartName = in.BuyerName
	}

	recordID := id.NewRecordID()
	ev := models.NewEvent(recordID, 1, requestcontext.Now(ctx), requestcontext.Actor(ctx), models.CreatedPayload{
		ProjectID:        in.ProjectID,
		InvoiceNumber:    in.InvoiceNumber,
		InvoiceDate:      in.InvoiceDate,
		Currency:         in.Currency,
		GrossAmount:      in.GrossAmount,
		NetAmount:        in.NetAmount,
		TaxAmount:        in.TaxAmount,
		Description:      in.Description,
		CounterpartName:  counterpartName,
		CounterpartTaxID: counterpartTaxID,
		Direction:        direction,
	})
	return s.append(ctx, ev)
}

// RecordValidation appends the outcome of a pipeline run.
func (s *Service) RecordValidation(ctx context.Context, recordID id.RecordID, result *validation.ValidationResult, score *validation.QualityScore) (*models.Record, error) {
	rec, err := s.Current(ctx, recordID)
	if err != nil {
		return nil, err
	}
	breakdown := make(map[string]float64, len(score.Breakdown))
	for dim, v := range score.Breakdown {
		breakdown[string(dim)] = v
	}
	ev := models.NewEvent(recordID, rec.Version+1, requestcontext.Now(ctx), requestcontext.Actor(ctx), models.ValidatedPayload{
		Valid:                   result.Valid,
		Findings:                result.FindingRecords(),
		QualityTotal:            score.Total,
		QualityBreakdown:        breakdown,
		NormalizedInvoiceNumber: result.NormalizedInvoiceNumber,
	})
	return s.append(ctx, ev)
}

// ApplyClassification appends a category assignment. The status machine is
// untouched; moving to classified is a separate, gated transition.
func (s *Service) ApplyClassification(ctx context.Context, recordID id.RecordID, outcome classification.Outcome) (*models.Record, error) {
	if !outcome.Classified {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "outcome carries no category")
	}
	rec, err := s.Current(ctx, recordID)
	if err != nil {
		return nil, err
	}
	ev := models.NewEvent(recordID, rec.Version+1, requestcontext.Now(ctx), requestcontext.Actor(ctx), models.ClassifiedPayload{
		Category:          outcome.Category,
		QualificationRate: outcome.Rate,
		Source:            string(outcome.Source),
		Confidence:        outcome.Confidence,
	})
	return s.append(ctx, ev)
}

// Justify appends free-text eligibility justification.
func (s *Service) Justify(ctx context.Context, recordID id.RecordID, text string) (*models.Record, error) {
	if text == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "justification text is required")
	}
	rec, err := s.Current(ctx, recordID)
	if err != nil {
		return nil, err
	}
	ev := models.NewEvent(recordID, rec.Version+1, requestcontext.Now(ctx), requestcontext.Actor(ctx), models.JustifiedPayload{Text: text})
	return s.append(ctx, ev)
}

// ChangeStatus moves a record along the ordered machine
// draft -> classified -> {approved, rejected}. Records with ERROR findings
// cannot reach classified or approved. Override is the audited
// manual-correction path: it bypasses the ordering but still requires a
// reason and still refuses to promote a blocked record.
func (s *Service) ChangeStatus(ctx context.Context, recordID id.RecordID, to id.RecordStatus, override bool, reason string) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "record.ChangeStatus")
	defer span.End()

	rec, err := s.Current(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == to {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "record is already %s", to)
	}
	if override && reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "status override requires a reason")
	}
	if !override && !rec.Status.CanTransitionTo(to) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot transition from %s to %s", rec.Status, to)
	}
	if (to == id.StatusClassified || to == id.StatusApproved) && rec.Blocked() {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"record has blocking validation errors and cannot become %s", to)
	}
	if to == id.StatusClassified && rec.Category == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "record has no category assigned")
	}

	ev := models.NewEvent(recordID, rec.Version+1, requestcontext.Now(ctx), requestcontext.Actor(ctx), models.StatusChangedPayload{
		From:     rec.Status,
		To:       to,
		Override: override,
		Reason:   reason,
	})
	return s.append(ctx, ev)
}

// History returns the full ordered event list.
func (s *Service) History(ctx context.Context, recordID id.RecordID) ([]models.Event, error) {
	events, err := s.events.History(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load history")
	}
	if len(events) == 0 {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "record %s not found", recordID)
	}
	return events, nil
}

// Reconstruct folds only events known at asOf into a snapshot.
func (s *Service) Reconstruct(ctx context.Context, recordID id.RecordID, asOf time.Time) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "record.Reconstruct")
	defer span.End()

	events, err := s.History(ctx, recordID)
	if err != nil {
		return nil, err
	}
	rec, err := projector.ReplayAsOf(events, asOf)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replay events")
	}
	if rec == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "record %s did not exist at %s", recordID, asOf.Format(time.RFC3339))
	}
	return rec, nil
}

// Current returns the live projection, from cache when possible, rebuilt
// from the log on a miss.
func (s *Service) Current(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	if rec, err := s.cache.Get(ctx, recordID); err == nil && rec != nil {
		return rec, nil
	} else if err != nil {
		s.logger.WarnContext(ctx, "projection cache read failed; rebuilding from log",
			"record_id", recordID,
			"error", err,
		)
	}

	events, err := s.History(ctx, recordID)
	if err != nil {
		return nil, err
	}
	rec, err := projector.Replay(events)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replay events")
	}
	if putErr := s.cache.Put(ctx, rec); putErr != nil {
		s.logger.WarnContext(ctx, "projection cache write failed",
			"record_id", recordID,
			"error", putErr,
		)
	}
	return rec, nil
}

// ListRecordIDs exposes every known record for batch operations.
func (s *Service) ListRecordIDs(ctx context.Context) ([]id.RecordID, error) {
	ids, err := s.events.ListRecordIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list records")
	}
	return ids, nil
}

// append is the single write path: store the event, feed the audit stream,
// refresh the projection. A sequence conflict surfaces as CodeConflict; the
// caller re-reads and retries with fresh state.
func (s *Service) append(ctx context.Context, ev models.Event) (*models.Record, error) {
	if err := s.events.Append(ctx, ev); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			appendConflicts.Inc()
			return nil, dErrors.Wrap(err, dErrors.CodeConflict,
				"record was modified concurrently; re-read and retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "append event")
	}

	if err := s.feed.Publish(ctx, ev); err != nil {
		// The event is committed; the feed catching up later is acceptable,
		// losing the append is not.
		s.logger.WarnContext(ctx, "audit feed publish failed",
			"record_id", ev.RecordID,
			"sequence", ev.Sequence,
			"error", err,
		)
	}

	events, err := s.events.History(ctx, ev.RecordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reload history")
	}
	rec, err := projector.Replay(events)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replay events")
	}
	if err := s.cache.Put(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "projection cache write failed",
			"record_id", ev.RecordID,
			"error", err,
		)
		// Drop any stale entry so readers fall back to the log.
		_ = s.cache.Invalidate(ctx, ev.RecordID)
	}
	return rec, nil
}
