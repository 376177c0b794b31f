package validation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"taxrelief/internal/record/models"
	id "taxrelief/pkg/domain"
)

// Pipeline runs an explicit ordered list of validators over a record and
// merges their findings into one result and one weighted quality score.
// Ordering is fixed at construction so repeated runs over the same record
// produce identical finding lists.
type Pipeline struct {
	validators []Validator
	batchLimit int
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithBatchConcurrency bounds parallel records in ValidateBatch.
func WithBatchConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchLimit = n
		}
	}
}

// New builds a pipeline over the given validators, run in slice order.
func New(validators []Validator, opts ...Option) (*Pipeline, error) {
	if len(validators) == 0 {
		return nil, fmt.Errorf("at least one validator is required")
	}
	p := &Pipeline{validators: validators, batchLimit: 8}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Default wires the standard order: format (invoice number), identifier
// (checksum), currency, completeness.
func Default(currency *CurrencyValidator) (*Pipeline, error) {
	return New([]Validator{
		NewInvoiceNumberValidator(),
		NewChecksumValidator(),
		currency,
		NewCompletenessChecker(),
	})
}

// Run validates one record. Classification readiness is read from the
// record's projected category, assigned by the classification engine
// beforehand; the pipeline never recomputes it.
func (p *Pipeline) Run(ctx context.Context, rec *models.Record) (*ValidationResult, *QualityScore) {
	merged := &ValidationResult{
		Valid:         true,
		Findings:      []Finding{},
		Contributions: make(map[string]float64, len(p.validators)),
	}

	dimensionScores := make(map[Dimension][]float64)
	for _, v := range p.validators {
		res := v.Validate(ctx, rec)
		merged.Findings = append(merged.Findings, res.Findings...)
		merged.Contributions[res.Validator] = res.Score
		dimensionScores[res.Dimension] = append(dimensionScores[res.Dimension], res.Score)
		if res.NormalizedInvoiceNumber != "" {
			merged.NormalizedInvoiceNumber = res.NormalizedInvoiceNumber
		}
	}
	merged.Valid = !merged.HasErrors()

	score := &QualityScore{Breakdown: make(map[Dimension]float64, len(dimensionWeights))}
	for dim := range dimensionWeights {
		score.Breakdown[dim] = averageOrZero(dimensionScores[dim])
	}
	if rec.Category != nil {
		score.Breakdown[DimensionClassification] = 100
	} else {
		score.Breakdown[DimensionClassification] = 0
	}
	for dim, weight := range dimensionWeights {
		score.Total += weight * score.Breakdown[dim]
	}
	score.Total = clamp(score.Total, 0, 100)

	return merged, score
}

// BatchDetail is one record's outcome inside a batch run.
type BatchDetail struct {
	RecordID id.RecordID       `json:"record_id"`
	Result   *ValidationResult `json:"result,omitempty"`
	Score    *QualityScore     `json:"score,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchResult aggregates a batch run. Failed counts records whose validation
// could not complete at all; Warned counts completed records with WARNING
// findings but no failure.
type BatchResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Warned    int           `json:"warned"`
	Details   []BatchDetail `json:"details"`
}

// ValidateBatch runs the pipeline over many records, each isolated: a panic
// or failure in one record never aborts the rest. Records are processed in
// any order; details are returned in input order.
func (p *Pipeline) ValidateBatch(ctx context.Context, records []*models.Record) *BatchResult {
	details := make([]BatchDetail, len(records))

	var g errgroup.Group
	g.SetLimit(p.batchLimit)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			details[i] = p.validateOne(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	out := &BatchResult{Details: details}
	for _, d := range details {
		switch {
		case d.Error != "":
			out.Failed++
		case d.Result.HasWarnings():
			out.Warned++
		default:
			out.Succeeded++
		}
	}
	return out
}

// validateOne isolates a single record, converting panics into a failed
// detail so the batch boundary holds.
func (p *Pipeline) validateOne(ctx context.Context, rec *models.Record) (detail BatchDetail) {
	defer func() {
		if r := recover(); r != nil {
			detail.Error = fmt.Sprintf("validation panicked: %v", r)
		}
	}()

	if rec == nil {
		return BatchDetail{Error: "record is nil"}
	}
	detail.RecordID = rec.ID
	result, score := p.Run(ctx, rec)
	detail.Result = result
	detail.Score = score
	return detail
}

func averageOrZero(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
