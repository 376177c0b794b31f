// Package classification assigns deduction categories. Ordered keyword rules
// decide first; records no rule matches are delegated to an external text
// labeler whose answer is validated against the fixed enumeration before it
// touches any persisted state.
package classification

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// Source records how a category was decided.
type Source string

const (
	SourceRule  Source = "rule"
	SourceModel Source = "model"
)

// Outcome is a classification decision. Classified is false when neither the
// rules nor a trusted labeler answer applied; the record stays unclassified
// rather than carrying an invented category.
type Outcome struct {
	Classified bool
	Category   id.DeductionCategory
	Rate       decimal.Decimal
	Source     Source
	Confidence float64
}

// Rule maps keywords to a category. Rules are evaluated in order; the first
// keyword hit wins, so more specific rules go first.
type Rule struct {
	Category id.DeductionCategory
	Keywords []string
}

// defaultRules reflect the cost categories of the R&D relief. Keyword lists
// are matched case-insensitively against the record's description and
// counterpart name.
var defaultRules = []Rule{
	{Category: id.CategoryPersonnelEmployment, Keywords: []string{
		"wynagrodzenie", "umowa o prace", "pensja", "salary", "payroll", "zus",
	}},
	{Category: id.CategoryPersonnelContract, Keywords: []string{
		"umowa zlecenie", "umowa o dzielo", "zlecenie", "b2b", "contractor",
	}},
	{Category: id.CategoryExpertServices, Keywords: []string{
		"ekspertyza", "opinia", "badania zlecone", "uczelnia", "instytut", "consulting",
	}},
	{Category: id.CategoryDepreciation, Keywords: []string{
		"amortyzacja", "odpis amortyzacyjny", "depreciation",
	}},
	{Category: id.CategoryEquipment, Keywords: []string{
		"aparatura", "sprzet", "urzadzenie", "laptop", "serwer", "licencja", "license",
	}},
	{Category: id.CategoryMaterials, Keywords: []string{
		"materialy", "surowce", "odczynniki", "komponenty", "czesci", "materials",
	}},
}

// Labeler is the external text-classification collaborator. Its output is
// untrusted: anything outside the enumeration is discarded.
type Labeler interface {
	Label(ctx context.Context, description string, categories []id.DeductionCategory) (string, error)
}

// Engine is the rule-first classifier.
type Engine struct {
	rules   []Rule
	labeler Labeler
	logger  *slog.Logger
}

// NewEngine builds an engine with the default rule set. labeler may be nil,
// in which case unmatched records simply stay unclassified.
func NewEngine(labeler Labeler, logger *slog.Logger) *Engine {
	return &Engine{rules: defaultRules, labeler: labeler, logger: logger}
}

// Classify decides a category for the record.
func (e *Engine) Classify(ctx context.Context, rec *models.Record) (Outcome, error) {
	text := strings.ToLower(rec.Description + " " + rec.Counterpart.Name)

	for _, rule := range e.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return Outcome{
					Classified: true,
					Category:   rule.Category,
					Rate:       rule.Category.DeductionRate(),
					Source:     SourceRule,
					Confidence: 1,
				}, nil
			}
		}
	}

	if e.labeler == nil {
		return Outcome{}, nil
	}

	label, err := e.labeler.Label(ctx, rec.Description, id.DeductionCategories())
	if err != nil {
		// The collaborator being down is a degraded outcome, not a failure:
		// the record stays unclassified and can be retried.
		e.logger.WarnContext(ctx, "classification labeler unavailable",
			"record_id", rec.ID,
			"error", err,
		)
		return Outcome{}, nil
	}

	category, ok := id.ParseDeductionCategory(strings.TrimSpace(strings.ToLower(label)))
	if !ok {
		e.logger.WarnContext(ctx, "labeler returned out-of-enumeration category",
			"record_id", rec.ID,
			"label", label,
		)
		return Outcome{}, nil
	}
	return Outcome{
		Classified: true,
		Category:   category,
		Rate:       category.DeductionRate(),
		Source:     SourceModel,
		Confidence: 0.7,
	}, nil
}
