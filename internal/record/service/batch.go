package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"taxrelief/internal/classification"
	"taxrelief/internal/validation"
	id "taxrelief/pkg/domain"
)

// batchConcurrency bounds parallel records in batch operations. Records are
// independent, so ordering between them is irrelevant; each one's events
// remain ordered by its own sequence.
const batchConcurrency = 8

// ValidateAll runs the pipeline over every known record and appends a
// validated event per record. One record's failure is tagged and skipped,
// never allowed to abort or roll back the rest.
func (s *Service) ValidateAll(ctx context.Context, pipeline *validation.Pipeline) (*validation.BatchResult, error) {
	ids, err := s.ListRecordIDs(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]validation.BatchDetail, len(ids))
	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, recordID := range ids {
		i, recordID := i, recordID
		g.Go(func() error {
			details[i] = s.validateOne(ctx, recordID, pipeline)
			return nil
		})
	}
	_ = g.Wait()

	out := &validation.BatchResult{Details: details}
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
	return out, nil
}

func (s *Service) validateOne(ctx context.Context, recordID id.RecordID, pipeline *validation.Pipeline) (detail validation.BatchDetail) {
	detail.RecordID = recordID
	defer func() {
		if r := recover(); r != nil {
			detail.Error = fmt.Sprintf("validation panicked: %v", r)
		}
	}()

	rec, err := s.Current(ctx, recordID)
	if err != nil {
		detail.Error = err.Error()
		return detail
	}
	result, score := pipeline.Run(ctx, rec)
	if _, err := s.RecordValidation(ctx, recordID, result, score); err != nil {
		detail.Error = err.Error()
		return detail
	}
	detail.Result = result
	detail.Score = score
	return detail
}

// ClassifyDetail is one record's outcome inside a batch classification run.
type ClassifyDetail struct {
	RecordID id.RecordID           `json:"record_id"`
	Category *id.DeductionCategory `json:"category,omitempty"`
	Source   string                `json:"source,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// ClassifyBatchResult aggregates a categorize-all run. Warned counts records
// neither the rules nor the labeler could place.
type ClassifyBatchResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Warned    int              `json:"warned"`
	Details   []ClassifyDetail `json:"details"`
}

// ClassifyAll categorizes every record that does not yet carry a category.
// Already-classified records are skipped silently; they are not re-decided.
func (s *Service) ClassifyAll(ctx context.Context, engine *classification.Engine) (*ClassifyBatchResult, error) {
	ids, err := s.ListRecordIDs(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]ClassifyDetail, len(ids))
	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, recordID := range ids {
		i, recordID := i, recordID
		g.Go(func() error {
			details[i] = s.classifyOne(ctx, recordID, engine)
			return nil
		})
	}
	_ = g.Wait()

	out := &ClassifyBatchResult{}
	for _, d := range details {
		if d.RecordID.IsNil() {
			continue // already classified, skipped
		}
		switch {
		case d.Error != "":
			out.Failed++
		case d.Category == nil:
			out.Warned++
		default:
			out.Succeeded++
		}
		out.Details = append(out.Details, d)
	}
	return out, nil
}

func (s *Service) classifyOne(ctx context.Context, recordID id.RecordID, engine *classification.Engine) (detail ClassifyDetail) {
	defer func() {
		if r := recover(); r != nil {
			detail.RecordID = recordID
			detail.Error = fmt.Sprintf("classification panicked: %v", r)
		}
	}()

	rec, err := s.Current(ctx, recordID)
	if err != nil {
		return ClassifyDetail{RecordID: recordID, Error: err.Error()}
	}
	if rec.Category != nil {
		return ClassifyDetail{} // nil RecordID marks the skip
	}

	detail.RecordID = recordID
	outcome, err := engine.Classify(ctx, rec)
	if err != nil {
		detail.Error = err.Error()
		return detail
	}
	if !outcome.Classified {
		return detail
	}
	if _, err := s.ApplyClassification(ctx, recordID, outcome); err != nil {
		detail.Error = err.Error()
		return detail
	}
	category := outcome.Category
	detail.Category = &category
	detail.Source = string(outcome.Source)
	return detail
}
