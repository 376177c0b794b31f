package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"taxrelief/internal/record/models"
	"taxrelief/internal/record/service"
	"taxrelief/internal/validation"
	id "taxrelief/pkg/domain"
	dErrors "taxrelief/pkg/domain-errors"
)

const invoiceDateLayout = "2006-01-02"

// CreateRequest is the wire form of a new record: the raw fields an
// extraction collaborator produced. Amounts travel as decimal strings.
type CreateRequest struct {
	ProjectID     string          `json:"project_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date"`
	Currency      string          `json:"currency"`
	GrossAmount   decimal.Decimal `json:"gross_amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Description   string          `json:"description"`
	SellerName    string          `json:"seller_name"`
	SellerTaxID   string          `json:"seller_tax_id"`
	BuyerName     string          `json:"buyer_name"`
	BuyerTaxID    string          `json:"buyer_tax_id"`
}

// ToInput validates the request into a service input. Only the fields the
// event log structurally needs are enforced here; content checks belong to
// the validation pipeline.
func (r CreateRequest) ToInput() (service.CreateInput, error) {
	projectID, err := id.ParseProjectID(r.ProjectID)
	if err != nil {
		return service.CreateInput{}, err
	}
	invoiceDate, err := time.Parse(invoiceDateLayout, r.InvoiceDate)
	if err != nil {
		return service.CreateInput{}, dErrors.Wrap(err, dErrors.CodeInvalidInput,
			"invoice_date must be formatted YYYY-MM-DD")
	}
	return service.CreateInput{
		ProjectID:     projectID,
		InvoiceNumber: r.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		Currency:      r.Currency,
		GrossAmount:   r.GrossAmount,
		NetAmount:     r.NetAmount,
		TaxAmount:     r.TaxAmount,
		Description:   r.Description,
		SellerName:    r.SellerName,
		SellerTaxID:   r.SellerTaxID,
		BuyerName:     r.BuyerName,
		BuyerTaxID:    r.BuyerTaxID,
	}, nil
}

// StatusRequest asks for a lifecycle transition.
type StatusRequest struct {
	Status   string `json:"status"`
	Override bool   `json:"override,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// JustifyRequest attaches eligibility justification text.
type JustifyRequest struct {
	Text string `json:"text"`
}

// ValidationResponse returns one pipeline run.
type ValidationResponse struct {
	Result *validation.ValidationResult `json:"result"`
	Score  *validation.QualityScore     `json:"score"`
}

// ClassifyResponse returns one classification decision.
type ClassifyResponse struct {
	Classified bool            `json:"classified"`
	Category   string          `json:"category,omitempty"`
	Rate       decimal.Decimal `json:"rate,omitempty"`
	Source     string          `json:"source,omitempty"`
}

// RecordResponse is the wire form of a projected record.
type RecordResponse struct {
	ID             string                    `json:"id"`
	ProjectID      string                    `json:"project_id"`
	InvoiceNumber  string                    `json:"invoice_number"`
	InvoiceDate    string                    `json:"invoice_date"`
	Currency       string                    `json:"currency"`
	GrossAmount    decimal.Decimal           `json:"gross_amount"`
	NetAmount      decimal.Decimal           `json:"net_amount"`
	TaxAmount      decimal.Decimal           `json:"tax_amount"`
	Description    string                    `json:"description,omitempty"`
	Counterpart    models.Counterpart        `json:"counterpart"`
	Direction      string                    `json:"direction"`
	Category       *string                   `json:"category,omitempty"`
	Qualifies      bool                      `json:"qualifies"`
	Qualification  decimal.Decimal           `json:"qualification_rate"`
	Status         string                    `json:"status"`
	Justification  *string                   `json:"justification,omitempty"`
	LastValidation *models.ValidationSummary `json:"last_validation,omitempty"`
	Version        int64                     `json:"version"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// FromRecord maps a projected record to its response shape.
func FromRecord(rec *models.Record) RecordResponse {
	resp := RecordResponse{
		ID:             rec.ID.String(),
		ProjectID:      rec.ProjectID.String(),
		InvoiceNumber:  rec.InvoiceNumber,
		InvoiceDate:    rec.InvoiceDate.Format(invoiceDateLayout),
		Currency:       rec.Currency,
		GrossAmount:    rec.GrossAmount,
		NetAmount:      rec.NetAmount,
		TaxAmount:      rec.TaxAmount,
		Description:    rec.Description,
		Counterpart:    rec.Counterpart,
		Direction:      string(rec.Direction),
		Qualifies:      rec.Qualifies,
		Qualification:  rec.Qualification,
		Status:         rec.Status.String(),
		Justification:  rec.Justification,
		LastValidation: rec.LastValidation,
		Version:        rec.Version,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	if rec.Category != nil {
		category := rec.Category.String()
		resp.Category = &category
	}
	return resp
}

// EventResponse is the wire form of one log entry.
type EventResponse struct {
	Sequence   int64          `json:"sequence"`
	Kind       string         `json:"kind"`
	OccurredAt time.Time      `json:"occurred_at"`
	Actor      string         `json:"actor"`
	Payload    models.Payload `json:"payload"`
}

// FromEvents maps a history to its response shape.
func FromEvents(events []models.Event) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, ev := range events {
		out[i] = EventResponse{
			Sequence:   ev.Sequence,
			Kind:       string(ev.Kind),
			OccurredAt: ev.OccurredAt,
			Actor:      ev.Actor,
			Payload:    ev.Payload,
		}
	}
	return out
}
