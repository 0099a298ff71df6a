package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"potracker/internal/domain"
	"potracker/internal/errors"
	"potracker/internal/pricing"
)

type OrderRepository interface {
	CreateIfAbsent(ctx context.Context, order domain.Order) (*domain.Order, error)
	FindExact(ctx context.Context, poNumber string) (*domain.Order, error)
	FindFuzzy(ctx context.Context, reference string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, poNumber string, status domain.OrderStatus) (*domain.Order, error)
}

// LifecycleService applies classified documents to the order store. It holds
// no mutable state of its own; per-order atomicity comes from the repository.
type LifecycleService struct {
	orderRepo OrderRepository
	logger    *zap.Logger
}

func NewLifecycleService(orderRepo OrderRepository, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// Apply runs one classified document through the state machine. Every
// domain result is reported as an Outcome; the error is non-nil only when
// the repository itself failed, in which case the Outcome is Invalid.
func (s *LifecycleService) Apply(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
	var (
		outcome domain.Outcome
		err     error
	)

	reference := strings.TrimSpace(doc.ReferencePONumber)
	switch {
	case doc.DocType == domain.DocTypeOther:
		outcome = domain.Outcome{Kind: domain.OutcomeSkipped, Reason: "document is not part of the order lifecycle"}
	case domain.NormalizeKey(reference) == "":
		outcome = domain.Outcome{Kind: domain.OutcomeSkipped, Reason: "missing reference PO number"}
	case doc.DocType == domain.DocTypeCustomerPO:
		outcome, err = s.createOrder(ctx, reference, doc)
	default:
		target, ok := doc.DocType.TargetStatus()
		if !ok {
			outcome = domain.Outcome{Kind: domain.OutcomeSkipped, Reason: "unsupported document type " + string(doc.DocType)}
			break
		}
		outcome, err = s.advanceOrder(ctx, reference, target)
	}

	fields := []zap.Field{
		zap.String("docType", string(doc.DocType)),
		zap.String("reference", reference),
		zap.String("outcome", string(outcome.Kind)),
	}
	if outcome.PONumber != "" {
		fields = append(fields, zap.String("poNumber", outcome.PONumber))
	}
	if outcome.Status != "" {
		fields = append(fields, zap.String("status", string(outcome.Status)))
	}
	if outcome.Reason != "" {
		fields = append(fields, zap.String("reason", outcome.Reason))
	}

	switch {
	case err != nil:
		s.logger.Error("lifecycle apply failed", append(fields, zap.Error(err))...)
	case outcome.Mutated():
		s.logger.Info("lifecycle applied", fields...)
	default:
		s.logger.Warn("lifecycle no-op", fields...)
	}

	return outcome, err
}

func (s *LifecycleService) createOrder(ctx context.Context, poNumber string, doc domain.ClassifiedDocument) (domain.Outcome, error) {
	order := domain.Order{
		PONumber:    poNumber,
		PartyName:   doc.PartyName,
		Currency:    doc.Currency,
		TotalAmount: pricing.Normalize(doc.TotalAmount),
		LineItems:   doc.LineItems,
		Status:      domain.OrderStatusPoReceived,
	}

	created, err := s.orderRepo.CreateIfAbsent(ctx, order)
	if err != nil {
		if dup, ok := errors.IsDuplicateKeyError(err); ok {
			return domain.Outcome{
				Kind:     domain.OutcomeDuplicate,
				PONumber: poNumber,
				Reason:   "order " + dup.Key + " already exists",
			}, nil
		}
		if ve, ok := errors.IsValidationError(err); ok {
			return domain.Outcome{Kind: domain.OutcomeSkipped, PONumber: poNumber, Reason: ve.Message}, nil
		}
		return domain.Outcome{Kind: domain.OutcomeInvalid, PONumber: poNumber, Reason: "order store unavailable"}, err
	}

	return domain.Outcome{
		Kind:     domain.OutcomeCreated,
		PONumber: created.PONumber,
		Status:   created.Status,
	}, nil
}

func (s *LifecycleService) advanceOrder(ctx context.Context, reference string, target domain.OrderStatus) (domain.Outcome, error) {
	order, err := s.resolve(ctx, reference)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return domain.Outcome{
				Kind:     domain.OutcomeNotFound,
				PONumber: reference,
				Reason:   "no order matches reference " + reference,
			}, nil
		}
		return domain.Outcome{Kind: domain.OutcomeInvalid, PONumber: reference, Reason: "order store unavailable"}, err
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, order.PONumber, target)
	if err != nil {
		if tr, ok := errors.IsTransitionRejectedError(err); ok {
			return domain.Outcome{
				Kind:     domain.OutcomeRejected,
				PONumber: order.PONumber,
				Status:   domain.OrderStatus(tr.From),
				Reason:   tr.Reason,
			}, nil
		}
		if _, ok := errors.IsNotFoundError(err); ok {
			return domain.Outcome{Kind: domain.OutcomeNotFound, PONumber: order.PONumber, Reason: "order disappeared before update"}, nil
		}
		return domain.Outcome{Kind: domain.OutcomeInvalid, PONumber: order.PONumber, Reason: "order store unavailable"}, err
	}

	return domain.Outcome{
		Kind:     domain.OutcomeStatusUpdated,
		PONumber: updated.PONumber,
		Status:   updated.Status,
	}, nil
}

// resolve prefers an exact key match so a reference that is itself a full
// PO number never lands on an older order that merely contains it.
func (s *LifecycleService) resolve(ctx context.Context, reference string) (*domain.Order, error) {
	order, err := s.orderRepo.FindExact(ctx, reference)
	if err == nil {
		return order, nil
	}
	if _, ok := errors.IsNotFoundError(err); !ok {
		return nil, err
	}
	return s.orderRepo.FindFuzzy(ctx, reference)
}
