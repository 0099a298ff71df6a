package classification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"potracker/internal/domain"
	"potracker/internal/errors"
)

// Adapter calls the Extractor and turns its answer into a ClassifiedDocument.
type Adapter struct {
	extractor Extractor
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAdapter(extractor Extractor, timeout time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{
		extractor: extractor,
		timeout:   timeout,
		logger:    logger,
	}
}

// Classify runs one document through the extractor, bounded by the adapter
// timeout. Errors are TransientIOError (retry later), ClassificationFailedError
// (unusable output) or ValidationError (usable output missing required fields).
func (a *Adapter) Classify(ctx context.Context, doc Document) (domain.ClassifiedDocument, error) {
	if doc.MIMEType == "" {
		doc.MIMEType = MIMETypePDF
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.extractor.Extract(callCtx, doc)
	if err != nil {
		a.logger.Warn("extractor call failed",
			zap.String("filename", doc.Filename),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return domain.ClassifiedDocument{}, classifyExtractorError(err)
	}

	classified, err := Parse(raw)
	if err != nil {
		a.logger.Warn("extractor output rejected",
			zap.String("filename", doc.Filename),
			zap.Int("rawBytes", len(raw)),
			zap.Error(err),
		)
		return classified, err
	}

	a.logger.Debug("document classified",
		zap.String("filename", doc.Filename),
		zap.String("docType", string(classified.DocType)),
		zap.String("referencePoNumber", classified.ReferencePONumber),
		zap.Duration("elapsed", time.Since(start)),
	)
	return classified, nil
}

func classifyExtractorError(err error) error {
	if _, ok := errors.IsTransientIOError(err); ok {
		return err
	}
	if _, ok := errors.IsClassificationFailedError(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.NewTransientIOError("extractor call did not complete", err)
	}
	return errors.NewClassificationFailedError("extractor rejected the document", err)
}

// Parse sanitizes raw extractor output, checks its shape and validates the
// fields required by its document type. A document of type Other is returned
// without error.
func Parse(raw string) (domain.ClassifiedDocument, error) {
	cleaned := StripWrappers(raw)
	if cleaned == "" {
		return domain.ClassifiedDocument{}, errors.NewClassificationFailedError("empty extractor output", nil)
	}

	var generic any
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return domain.ClassifiedDocument{}, errors.NewClassificationFailedError("output is not valid JSON", err)
	}
	if err := validateShape(generic); err != nil {
		return domain.ClassifiedDocument{}, errors.NewClassificationFailedError("output does not match the payload shape", err)
	}

	var payload rawPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return domain.ClassifiedDocument{}, errors.NewClassificationFailedError("decoding payload", err)
	}

	doc := payload.toDocument()
	if err := Validate(doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// Validate checks the fields each document type needs.
func Validate(doc domain.ClassifiedDocument) error {
	switch doc.DocType {
	case domain.DocTypeCustomerPO, domain.DocTypeAcknowledgementOfOrder, domain.DocTypeShippingNotice:
		if doc.ReferencePONumber == "" || domain.NormalizeKey(doc.ReferencePONumber) == "" {
			return errors.NewValidationError(
				fmt.Sprintf("%s without a PO number", doc.DocType),
				errors.ValidationDetail{Field: "referencePoNumber", Message: "is required"},
			)
		}
	}
	return nil
}
