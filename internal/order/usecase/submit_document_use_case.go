package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"potracker/internal/classification"
	"potracker/internal/domain"
	apperrors "potracker/internal/errors"
)

type DocumentClassifier interface {
	Classify(ctx context.Context, doc classification.Document) (domain.ClassifiedDocument, error)
}

type LifecycleEngine interface {
	Apply(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error)
}

// SubmitDocumentUseCase is the single entry point both ingestion sources use:
// classify, then apply. It always returns an Outcome. The error is non-nil
// only for TransientIOError, meaning the same document may succeed later.
type SubmitDocumentUseCase struct {
	classifier       DocumentClassifier
	engine           LifecycleEngine
	logger           *zap.Logger
	maxRetryAttempts int
}

func NewSubmitDocumentUseCase(
	classifier DocumentClassifier,
	engine LifecycleEngine,
	logger *zap.Logger,
	maxRetryAttempts int,
) *SubmitDocumentUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &SubmitDocumentUseCase{
		classifier:       classifier,
		engine:           engine,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (uc *SubmitDocumentUseCase) Submit(ctx context.Context, doc classification.Document) (domain.Outcome, error) {
	uc.logger.Info("document submitted",
		zap.String("filename", doc.Filename),
		zap.String("mimeType", doc.MIMEType),
		zap.Int("bytes", len(doc.Data)),
	)

	classified, err := uc.classifier.Classify(ctx, doc)
	if err != nil {
		return uc.classificationOutcome(doc, classified, err)
	}

	return uc.applyWithRetry(ctx, classified)
}

func (uc *SubmitDocumentUseCase) classificationOutcome(doc classification.Document, classified domain.ClassifiedDocument, err error) (domain.Outcome, error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		uc.logger.Warn("document skipped", zap.String("filename", doc.Filename), zap.String("docType", string(classified.DocType)), zap.String("reason", ve.Message))
		return domain.Outcome{Kind: domain.OutcomeSkipped, Reason: ve.Message}, nil
	}
	if ce, ok := apperrors.IsClassificationFailedError(err); ok {
		uc.logger.Warn("document invalid", zap.String("filename", doc.Filename), zap.Error(err))
		return domain.Outcome{Kind: domain.OutcomeInvalid, Reason: ce.Message}, nil
	}
	if te, ok := apperrors.IsTransientIOError(err); ok {
		uc.logger.Warn("classification unavailable", zap.String("filename", doc.Filename), zap.Error(err))
		return domain.Outcome{Kind: domain.OutcomeInvalid, Reason: te.Message}, err
	}

	uc.logger.Error("classification error", zap.String("filename", doc.Filename), zap.Error(err))
	return domain.Outcome{Kind: domain.OutcomeInvalid, Reason: "classification failed"}, nil
}

func (uc *SubmitDocumentUseCase) applyWithRetry(ctx context.Context, classified domain.ClassifiedDocument) (domain.Outcome, error) {
	// attempt 1 (0ms), attempt 2 (100ms), attempt 3 (200ms), then 400ms
	backoffs := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

	var lastErr error
	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		outcome, err := uc.engine.Apply(ctx, classified)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if !isDeadlockError(err) {
			return outcome, apperrors.NewTransientIOError("order store unavailable", err)
		}
		if attempt == uc.maxRetryAttempts {
			break
		}

		base := backoffs[min(attempt, len(backoffs)-1)]
		// ±20% jitter
		wait := time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))
		uc.logger.Warn("deadlock detected, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.String("reference", classified.ReferencePONumber),
		)

		select {
		case <-ctx.Done():
			return domain.Outcome{Kind: domain.OutcomeInvalid, PONumber: classified.ReferencePONumber, Reason: "cancelled"}, apperrors.NewTransientIOError("submission cancelled", ctx.Err())
		case <-time.After(wait):
		}
	}

	return domain.Outcome{
		Kind:     domain.OutcomeInvalid,
		PONumber: classified.ReferencePONumber,
		Reason:   "order store busy",
	}, apperrors.NewTransientIOError("max retries exceeded", lastErr)
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
