package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "taxrelief/pkg/domain"
)

// EventKind discriminates event payloads. Each kind has exactly one payload
// type; folding logic switches on the concrete type, never on loose maps.
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventValidated     EventKind = "validated"
	EventClassified    EventKind = "classified"
	EventJustified     EventKind = "justified"
	EventStatusChanged EventKind = "status_changed"
)

// Payload is implemented by exactly one struct per event kind.
type Payload interface {
	EventKind() EventKind
}

// Event is one immutable entry in a record's log. Sequence starts at 1 and
// increases by exactly one per append.
type Event struct {
	RecordID   id.RecordID
	Sequence   int64
	Kind       EventKind
	OccurredAt time.Time
	Actor      string
	Payload    Payload
}

// NewEvent builds an event envelope, deriving Kind from the payload.
func NewEvent(recordID id.RecordID, sequence int64, occurredAt time.Time, actor string, payload Payload) Event {
	return Event{
		RecordID:   recordID,
		Sequence:   sequence,
		Kind:       payload.EventKind(),
		OccurredAt: occurredAt,
		Actor:      actor,
		Payload:    payload,
	}
}

// CreatedPayload carries the full initial field set extracted for a record.
// Any of the extraction fields may be empty; the validation pipeline, not the
// event log, judges them.
type CreatedPayload struct {
	ProjectID        id.ProjectID    `json:"project_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	InvoiceDate      time.Time       `json:"invoice_date"`
	Currency         string          `json:"currency"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	Description      string          `json:"description"`
	CounterpartName  string          `json:"counterpart_name"`
	CounterpartTaxID string          `json:"counterpart_tax_id"`
	Direction        id.Direction    `json:"direction"`
}

// FindingRecord is the persisted form of a validation finding.
type FindingRecord struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// ValidatedPayload captures one pipeline run over the record.
type ValidatedPayload struct {
	Valid                   bool               `json:"valid"`
	Findings                []FindingRecord    `json:"findings"`
	QualityTotal            float64            `json:"quality_total"`
	QualityBreakdown        map[string]float64 `json:"quality_breakdown"`
	NormalizedInvoiceNumber string             `json:"normalized_invoice_number,omitempty"`
}

// ClassifiedPayload records a category assignment and its provenance.
type ClassifiedPayload struct {
	Category          id.DeductionCategory `json:"category"`
	QualificationRate decimal.Decimal      `json:"qualification_rate"`
	Source            string               `json:"source"`
	Confidence        float64              `json:"confidence"`
}

// JustifiedPayload records free-text eligibility justification.
type JustifiedPayload struct {
	Text string `json:"text"`
}

// StatusChangedPayload records a lifecycle transition. Override marks the
// audited manual-correction path that bypasses the ordered machine.
type StatusChangedPayload struct {
	From     id.RecordStatus `json:"from"`
	To       id.RecordStatus `json:"to"`
	Override bool            `json:"override,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

func (CreatedPayload) EventKind() EventKind       { return EventCreated }
func (ValidatedPayload) EventKind() EventKind     { return EventValidated }
func (ClassifiedPayload) EventKind() EventKind    { return EventClassified }
func (JustifiedPayload) EventKind() EventKind     { return EventJustified }
func (StatusChangedPayload) EventKind() EventKind { return EventStatusChanged }

// MarshalPayload serializes a payload for storage or the audit feed.
func MarshalPayload(p Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", p.EventKind(), err)
	}
	return b, nil
}

// UnmarshalPayload decodes stored bytes into the payload type for the kind.
// An unknown kind is an error: silently skipping rows would make replay lie.
func UnmarshalPayload(kind EventKind, data []byte) (Payload, error) {
	var p Payload
	switch kind {
	case EventCreated:
		p = &CreatedPayload{}
	case EventValidated:
		p = &ValidatedPayload{}
	case EventClassified:
		p = &ClassifiedPayload{}
	case EventJustified:
		p = &JustifiedPayload{}
	case EventStatusChanged:
		p = &StatusChangedPayload{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
	}
	switch v := p.(type) {
	case *CreatedPayload:
		return *v, nil
	case *ValidatedPayload:
		return *v, nil
	case *ClassifiedPayload:
		return *v, nil
	case *JustifiedPayload:
		return *v, nil
	case *StatusChangedPayload:
		return *v, nil
	}
	return nil, fmt.Errorf("unhandled event kind %q", kind)
}
