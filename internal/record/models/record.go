// Package models defines the record aggregate and its event log entries.
// Records are never mutated in place: every change is an appended event, and
// the Record struct here is only ever produced by folding that log.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "taxrelief/pkg/domain"
)

// Record is one expense or revenue line item, as projected from its events.
// Amounts are exact decimals; float64 never touches money.
type Record struct {
	ID             id.RecordID
	ProjectID      id.ProjectID
	InvoiceNumber  string
	InvoiceDate    time.Time
	Currency       string
	GrossAmount    decimal.Decimal
	NetAmount      decimal.Decimal
	TaxAmount      decimal.Decimal
	Description    string
	Counterpart    Counterpart
	Direction      id.Direction
	Category       *id.DeductionCategory
	Qualifies      bool
	Qualification  decimal.Decimal
	Status         id.RecordStatus
	Justification  *string
	LastValidation *ValidationSummary

	// Version is the sequence number of the last folded event. Writers pass
	// Version+1 to Append; a stale Version surfaces as a conflict.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counterpart is the other party on the invoice.
type Counterpart struct {
	Name  string
	TaxID string
}

// ValidationSummary is the projected residue of the most recent validation
// run: enough to gate status transitions and feed reports without replaying
// the pipeline.
type ValidationSummary struct {
	Valid        bool
	ErrorCount   int
	WarningCount int
	QualityScore float64
	ValidatedAt  time.Time
}

// Blocked reports whether the latest validation left ERROR findings, which
// prevents the record from reaching classified or approved status.
func (r *Record) Blocked() bool {
	return r.LastValidation != nil && r.LastValidation.ErrorCount > 0
}
