package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"AltCredit/internal/domain/models"
	pkghttp "AltCredit/pkg/http"
	applogger "AltCredit/pkg/logger"
)

const (
	msgItemValidation  = "Validation failed"
	msgItemComputation = "Model prediction failed"
)

// Batch scores every application independently. Item failures become
// markers in the result list; only an empty or oversized batch fails the call.
func (s *CreditScoring) Batch(ctx context.Context, req *models.BatchRequest) (*models.BatchResponse, error) {
	if req == nil || len(req.Applications) == 0 {
		s.metrics.RecordError("validation")
		return nil, &models.ValidationError{Fields: []models.FieldError{{
			Code: "ERR_MIN", Field: "applications", Message: "Invalid batch data. Expected array of applications.",
		}}}
	}
	if len(req.Applications) > s.maxBatch {
		s.metrics.RecordError("validation")
		return nil, &models.ValidationError{Fields: []models.FieldError{{
			Code:    "ERR_MAX",
			Field:   "applications",
			Message: fmt.Sprintf("Batch size too large. Maximum %d applications per request.", s.maxBatch),
		}}}
	}

	results := make([]models.BatchItemResult, len(req.Applications))
	itemErrs := make([]error, len(req.Applications))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, app := range req.Applications {
		i, app := i, app
		g.Go(func() error {
			res, err := s.batchItem(gctx, app)
			if err != nil {
				itemErrs[i] = &models.BatchItemError{Index: i, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range itemErrs {
		if err == nil {
			continue
		}
		failed++
		s.l.Debug("batch item failed", applogger.Error(err))
	}
	s.metrics.RecordBatch(len(results), failed)

	return &models.BatchResponse{
		Processed: len(req.Applications),
		Results:   results,
		Timestamp: s.now(),
	}, nil
}

func (s *CreditScoring) batchItem(ctx context.Context, app models.BatchApplication) (models.BatchItemResult, error) {
	var (
		in  models.ApplicantFeatures
		err error
	)
	if app.DecodeErr != nil {
		err = toValidationError(pkghttp.DecodeErrors(app.DecodeErr))
	} else {
		in, err = s.Validate(ctx, app.Request)
	}
	if err != nil {
		var ve *models.ValidationError
		res := models.BatchItemResult{Error: true, Message: msgItemValidation}
		if errors.As(err, &ve) {
			res.Details = ve.Messages()
		}
		return res, err
	}

	d, err := s.Decide(ctx, in, SourceBatch)
	if err != nil {
		return models.BatchItemResult{Error: true, Message: msgItemComputation}, err
	}

	summary := ""
	if d.Explanation != nil {
		summary = d.Explanation.Summary
	}
	return models.BatchItemResult{
		Success:      true,
		CreditScore:  d.Result.Score,
		RiskCategory: d.Result.RiskCategory,
		Explanation:  summary,
	}, nil
}
