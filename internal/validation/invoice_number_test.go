package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"taxrelief/internal/record/models"
)

type InvoiceNumberSuite struct {
	suite.Suite
	validator *InvoiceNumberValidator
	ctx       context.Context
}

func (s *InvoiceNumberSuite) SetupTest() {
	s.validator = NewInvoiceNumberValidator()
	s.ctx = context.Background()
}

func TestInvoiceNumberSuite(t *testing.T) {
	suite.Run(t, new(InvoiceNumberSuite))
}

func (s *InvoiceNumberSuite) validate(number string) Result {
	return s.validator.Validate(s.ctx, &models.Record{InvoiceNumber: number})
}

// TestKnownShapes verifies accepted formats normalize and score full.
func (s *InvoiceNumberSuite) TestKnownShapes() {
	tests := []struct {
		name           string
		number         string
		wantNormalized string
	}{
		{name: "slash-separated with prefix", number: "FV/123/01/2025", wantNormalized: "FV/123/01/2025"},
		{name: "dash-separated with prefix", number: "FA-0042-12-2024", wantNormalized: "FA-0042-12-2024"},
		{name: "prefix without period part", number: "FV/123/2025", wantNormalized: "FV/123/2025"},
		{name: "numeric with year last", number: "123/01/2025", wantNormalized: "123/01/2025"},
		{name: "numeric with year first", number: "2025/01/123", wantNormalized: "2025/01/123"},
		{name: "prefix with space", number: "FV 123/2025", wantNormalized: "FV 123/2025"},
		{name: "long plain numeric", number: "00012345", wantNormalized: "00012345"},
		{name: "lowercase input is uppercased", number: "fv/123/01/2025", wantNormalized: "FV/123/01/2025"},
		{name: "surrounding whitespace trimmed", number: "  FV/7/2024  ", wantNormalized: "FV/7/2024"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.validate(tt.number)
			s.Empty(res.Findings)
			s.Equal(100.0, res.Score)
			s.Equal(tt.wantNormalized, res.NormalizedInvoiceNumber)
		})
	}
}

// TestRejections verifies the blocking cases: empty, generic placeholders,
// and short bare numerics.
func (s *InvoiceNumberSuite) TestRejections() {
	tests := []struct {
		name     string
		number   string
		wantCode string
	}{
		{name: "empty", number: "", wantCode: "invoice_number_missing"},
		{name: "whitespace only", number: "   ", wantCode: "invoice_number_missing"},
		{name: "generic word", number: "faktura", wantCode: "invoice_number_generic"},
		{name: "generic plural", number: "FAKTURY", wantCode: "invoice_number_generic"},
		{name: "generic sale word", number: "sprzedazy", wantCode: "invoice_number_generic"},
		{name: "generic receipt word", number: "Paragon", wantCode: "invoice_number_generic"},
		{name: "bare prefix", number: "FV", wantCode: "invoice_number_generic"},
		{name: "short numeric", number: "123", wantCode: "invoice_number_too_short"},
		{name: "single digit", number: "7", wantCode: "invoice_number_too_short"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.validate(tt.number)
			s.Require().Len(res.Findings, 1)
			s.Equal(tt.wantCode, res.Findings[0].Code)
			s.Equal(SeverityError, res.Findings[0].Severity)
			s.Equal(0.0, res.Score)
			s.Empty(res.NormalizedInvoiceNumber)
		})
	}
}

// TestUnknownShape verifies unrecognized formats degrade to a warning rather
// than a rejection, and are never normalized.
func (s *InvoiceNumberSuite) TestUnknownShape() {
	tests := []string{
		"ABC123XYZ",
		"FV#123",
		"2025-W03-7",
		"INV_00042",
	}
	for _, number := range tests {
		s.Run(number, func() {
			res := s.validate(number)
			s.Require().Len(res.Findings, 1)
			s.Equal("invoice_number_nonstandard", res.Findings[0].Code)
			s.Equal(SeverityWarning, res.Findings[0].Severity)
			s.Equal(60.0, res.Score)
			s.Empty(res.NormalizedInvoiceNumber)
		})
	}
}
