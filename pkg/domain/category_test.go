package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CategorySuite struct {
	suite.Suite
}

func TestCategorySuite(t *testing.T) {
	suite.Run(t, new(CategorySuite))
}

// TestParseDeductionCategory verifies the closed enumeration.
func (s *CategorySuite) TestParseDeductionCategory() {
	for _, c := range DeductionCategories() {
		parsed, ok := ParseDeductionCategory(c.String())
		s.True(ok)
		s.Equal(c, parsed)
	}

	for _, bad := range []string{"", "Equipment", "office_snacks", "personnel"} {
		_, ok := ParseDeductionCategory(bad)
		s.False(ok, "input %q", bad)
	}
}

// TestDeductionRate verifies the fixed multipliers: 200% for personnel, 100%
// for everything else.
func (s *CategorySuite) TestDeductionRate() {
	two := decimal.NewFromInt(2)
	one := decimal.NewFromInt(1)

	s.True(two.Equal(CategoryPersonnelEmployment.DeductionRate()))
	s.True(two.Equal(CategoryPersonnelContract.DeductionRate()))
	s.True(one.Equal(CategoryMaterials.DeductionRate()))
	s.True(one.Equal(CategoryEquipment.DeductionRate()))
	s.True(one.Equal(CategoryExpertServices.DeductionRate()))
	s.True(one.Equal(CategoryDepreciation.DeductionRate()))
}

// TestDeductionCategories verifies the listing is stable and complete.
func (s *CategorySuite) TestDeductionCategories() {
	first := DeductionCategories()
	second := DeductionCategories()
	s.Equal(first, second)
	s.Len(first, 6)

	seen := make(map[DeductionCategory]bool, len(first))
	for _, c := range first {
		s.False(seen[c], "duplicate %s", c)
		seen[c] = true
	}
}
