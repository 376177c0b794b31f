package classification

import (
	"taxrelief/internal/validation"
	id "taxrelief/pkg/domain"
)

// DirectionFor decides whether an invoice is income or an expense from the
// seller/buyer tax identifiers relative to the company's own. Identifiers
// are normalized first so separator styles compare equal. When the company
// appears as seller the record is income; otherwise it is an expense, which
// is also the safe default when neither side matches (misread identifiers
// show up as checksum findings instead).
func DirectionFor(sellerTaxID, buyerTaxID, companyTaxID string) id.Direction {
	company := validation.NormalizeTaxID(companyTaxID)
	if company != "" && validation.NormalizeTaxID(sellerTaxID) == company {
		return id.DirectionIncome
	}
	return id.DirectionExpense
}

// CounterpartFor picks the non-company side of the invoice, normalized.
func CounterpartFor(sellerTaxID, buyerTaxID, companyTaxID string) string {
	company := validation.NormalizeTaxID(companyTaxID)
	seller := validation.NormalizeTaxID(sellerTaxID)
	buyer := validation.NormalizeTaxID(buyerTaxID)
	if seller == company {
		return buyer
	}
	return seller
}
