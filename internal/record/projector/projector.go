// Package projector folds ordered event sequences into Record snapshots.
// Folding is pure: no I/O, no clock, no side effects. Replaying the same
// events twice yields the same snapshot, which is what makes the event log a
// usable audit trail.
package projector

import (
	"fmt"
	"time"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// Replay folds a full event sequence into the current record state.
func Replay(events []models.Event) (*models.Record, error) {
	return fold(events, nil)
}

// ReplayAsOf folds only events with OccurredAt <= asOf, in sequence order,
// reconstructing what was known at that moment. Returns nil when the record
// did not yet exist at asOf.
func ReplayAsOf(events []models.Event, asOf time.Time) (*models.Record, error) {
	return fold(events, &asOf)
}

func fold(events []models.Event, asOf *time.Time) (*models.Record, error) {
	var rec *models.Record
	var lastSeq int64

	for _, ev := range events {
		if asOf != nil && ev.OccurredAt.After(*asOf) {
			continue
		}
		if ev.Sequence != lastSeq+1 {
			return nil, fmt.Errorf("event sequence gap for record %s: have %d, want %d",
				ev.RecordID, ev.Sequence, lastSeq+1)
		}
		lastSeq = ev.Sequence

		if rec == nil {
			created, ok := ev.Payload.(models.CreatedPayload)
			if !ok {
				return nil, fmt.Errorf("first event for record %s is %s, want %s",
					ev.RecordID, ev.Kind, models.EventCreated)
			}
			rec = applyCreated(ev, created)
			continue
		}

		switch p := ev.Payload.(type) {
		case models.CreatedPayload:
			return nil, fmt.Errorf("duplicate created event for record %s at sequence %d",
				ev.RecordID, ev.Sequence)
		case models.ValidatedPayload:
			applyValidated(rec, ev, p)
		case models.ClassifiedPayload:
			applyClassified(rec, p)
		case models.JustifiedPayload:
			text := p.Text
			rec.Justification = &text
		case models.StatusChangedPayload:
			rec.Status = p.To
		default:
			return nil, fmt.Errorf("unknown payload type %T at sequence %d", p, ev.Sequence)
		}
		rec.Version = ev.Sequence
		rec.UpdatedAt = ev.OccurredAt
	}
	return rec, nil
}

func applyCreated(ev models.Event, p models.CreatedPayload) *models.Record {
	return &models.Record{
		ID:            ev.RecordID,
		ProjectID:     p.ProjectID,
		InvoiceNumber: p.InvoiceNumber,
		InvoiceDate:   p.InvoiceDate,
		Currency:      p.Currency,
		GrossAmount:   p.GrossAmount,
		NetAmount:     p.NetAmount,
		TaxAmount:     p.TaxAmount,
		Description:   p.Description,
		Counterpart: models.Counterpart{
			Name:  p.CounterpartName,
			TaxID: p.CounterpartTaxID,
		},
		Direction: p.Direction,
		Status:    id.StatusDraft,
		Version:   ev.Sequence,
		CreatedAt: ev.OccurredAt,
		UpdatedAt: ev.OccurredAt,
	}
}

func applyValidated(rec *models.Record, ev models.Event, p models.ValidatedPayload) {
	var errs, warns int
	for _, f := range p.Findings {
		switch f.Severity {
		case "ERROR":
			errs++
		case "WARNING":
			warns++
		}
	}
	rec.LastValidation = &models.ValidationSummary{
		Valid:        p.Valid,
		ErrorCount:   errs,
		WarningCount: warns,
		QualityScore: p.QualityTotal,
		ValidatedAt:  ev.OccurredAt,
	}
	if p.NormalizedInvoiceNumber != "" {
		rec.InvoiceNumber = p.NormalizedInvoiceNumber
	}
}

func applyClassified(rec *models.Record, p models.ClassifiedPayload) {
	category := p.Category
	rec.Category = &category
	rec.Qualification = p.QualificationRate
	rec.Qualifies = !p.QualificationRate.IsZero()
}
