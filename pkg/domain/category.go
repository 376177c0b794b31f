package domain

import "github.com/shopspring/decimal"

// DeductionCategory is the fixed enumeration of R&D cost categories. External
// classifiers propose labels against this set; anything outside it is treated
// as unclassified, never accepted as-is.
type DeductionCategory string

const (
	// Personnel costs carry the higher deduction multiplier.
	CategoryPersonnelEmployment DeductionCategory = "personnel_employment"
	CategoryPersonnelContract   DeductionCategory = "personnel_contract"

	CategoryMaterials      DeductionCategory = "materials"
	CategoryEquipment      DeductionCategory = "equipment"
	CategoryExpertServices DeductionCategory = "expert_services"
	CategoryDepreciation   DeductionCategory = "depreciation"
)

// deductionRates are domain constants fixed by the relief rules, not
// configuration. Personnel categories deduct at 200%, the rest at 100%.
var deductionRates = map[DeductionCategory]decimal.Decimal{
	CategoryPersonnelEmployment: decimal.NewFromInt(2),
	CategoryPersonnelContract:   decimal.NewFromInt(2),
	CategoryMaterials:           decimal.NewFromInt(1),
	CategoryEquipment:           decimal.NewFromInt(1),
	CategoryExpertServices:      decimal.NewFromInt(1),
	CategoryDepreciation:        decimal.NewFromInt(1),
}

// ParseDeductionCategory validates a label against the fixed enumeration.
// The boolean result is false for anything outside it.
func ParseDeductionCategory(s string) (DeductionCategory, bool) {
	c := DeductionCategory(s)
	_, ok := deductionRates[c]
	return c, ok
}

// DeductionCategories lists the enumeration in a stable order.
func DeductionCategories() []DeductionCategory {
	return []DeductionCategory{
		CategoryPersonnelEmployment,
		CategoryPersonnelContract,
		CategoryMaterials,
		CategoryEquipment,
		CategoryExpertServices,
		CategoryDepreciation,
	}
}

// DeductionRate returns the fixed multiplier for a category.
func (c DeductionCategory) DeductionRate() decimal.Decimal {
	return deductionRates[c]
}

func (c DeductionCategory) String() string { return string(c) }

// Direction tells whether a record is money going out or coming in.
type Direction string

const (
	DirectionExpense Direction = "expense"
	DirectionIncome  Direction = "income"
)
