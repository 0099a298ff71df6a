package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"potracker/internal/classification"
	"potracker/internal/domain"
	apperrors "potracker/internal/errors"
	"potracker/internal/order/repository"
	"potracker/internal/order/service"
)

// Helper to create a MySQL deadlock error for testing
func createDeadlockError() error {
	return &mysql.MySQLError{Number: 1213}
}

func newTestSubmitDocumentUseCase(classifier DocumentClassifier, engine LifecycleEngine) *SubmitDocumentUseCase {
	return NewSubmitDocumentUseCase(classifier, engine, zap.NewNop(), 3)
}

// Mock implementations
type mockDocumentClassifier struct {
	ClassifyFunc func(ctx context.Context, doc classification.Document) (domain.ClassifiedDocument, error)
}

func (m *mockDocumentClassifier) Classify(ctx context.Context, doc classification.Document) (domain.ClassifiedDocument, error) {
	return m.ClassifyFunc(ctx, doc)
}

type mockLifecycleEngine struct {
	ApplyFunc func(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error)
}

func (m *mockLifecycleEngine) Apply(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
	return m.ApplyFunc(ctx, doc)
}

type stubExtractor struct {
	output string
}

func (s stubExtractor) Extract(ctx context.Context, doc classification.Document) (string, error) {
	return s.output, nil
}

func classifierReturning(doc domain.ClassifiedDocument, err error) *mockDocumentClassifier {
	return &mockDocumentClassifier{
		ClassifyFunc: func(ctx context.Context, _ classification.Document) (domain.ClassifiedDocument, error) {
			return doc, err
		},
	}
}

func engineMustNotRun(t *testing.T) *mockLifecycleEngine {
	return &mockLifecycleEngine{
		ApplyFunc: func(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
			t.Errorf("engine must not run")
			return domain.Outcome{}, nil
		},
	}
}

// Tests

func TestSubmit_Success(t *testing.T) {
	ctx := context.Background()
	classified := domain.ClassifiedDocument{DocType: domain.DocTypeCustomerPO, ReferencePONumber: "PO-1"}

	engine := &mockLifecycleEngine{
		ApplyFunc: func(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
			if doc.ReferencePONumber != "PO-1" {
				t.Errorf("expected PO-1, got %s", doc.ReferencePONumber)
			}
			return domain.Outcome{Kind: domain.OutcomeCreated, PONumber: "PO-1", Status: domain.OrderStatusPoReceived}, nil
		},
	}

	uc := newTestSubmitDocumentUseCase(classifierReturning(classified, nil), engine)

	outcome, err := uc.Submit(ctx, classification.Document{Filename: "po.pdf", Data: []byte("%PDF")})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Kind != domain.OutcomeCreated {
		t.Errorf("expected Created, got %s", outcome.Kind)
	}
}

func TestSubmit_ClassificationFailedIsInvalid(t *testing.T) {
	ctx := context.Background()

	classifier := classifierReturning(domain.ClassifiedDocument{}, apperrors.NewClassificationFailedError("output is not valid JSON", nil))
	uc := newTestSubmitDocumentUseCase(classifier, engineMustNotRun(t))

	outcome, err := uc.Submit(ctx, classification.Document{Filename: "garbage.pdf"})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if outcome.Kind != domain.OutcomeInvalid {
		t.Errorf("expected Invalid, got %s", outcome.Kind)
	}
	if outcome.Reason != "output is not valid JSON" {
		t.Errorf("unexpected reason %q", outcome.Reason)
	}
}

func TestSubmit_ValidationErrorIsSkipped(t *testing.T) {
	ctx := context.Background()

	classifier := classifierReturning(
		domain.ClassifiedDocument{DocType: domain.DocTypeShippingNotice},
		apperrors.NewValidationError("ShippingNotice without a PO number"),
	)
	uc := newTestSubmitDocumentUseCase(classifier, engineMustNotRun(t))

	outcome, err := uc.Submit(ctx, classification.Document{Filename: "ship.pdf"})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if outcome.Kind != domain.OutcomeSkipped {
		t.Errorf("expected Skipped, got %s", outcome.Kind)
	}
}

func TestSubmit_TransientClassificationError(t *testing.T) {
	ctx := context.Background()

	classifier := classifierReturning(domain.ClassifiedDocument{}, apperrors.NewTransientIOError("extractor call did not complete", context.DeadlineExceeded))
	uc := newTestSubmitDocumentUseCase(classifier, engineMustNotRun(t))

	outcome, err := uc.Submit(ctx, classification.Document{Filename: "slow.pdf"})

	if _, ok := apperrors.IsTransientIOError(err); !ok {
		t.Errorf("expected TransientIOError, got %T", err)
	}
	if outcome.Kind != domain.OutcomeInvalid {
		t.Errorf("expected Invalid, got %s", outcome.Kind)
	}
}

func TestSubmit_StoreFailureIsTransient(t *testing.T) {
	ctx := context.Background()
	attemptCount := 0

	engine := &mockLifecycleEngine{
		ApplyFunc: func(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
			attemptCount++
			return domain.Outcome{Kind: domain.OutcomeInvalid}, errors.New("connection refused")
		},
	}

	uc := newTestSubmitDocumentUseCase(classifierReturning(domain.ClassifiedDocument{DocType: domain.DocTypeCustomerPO, ReferencePONumber: "PO-1"}, nil), engine)

	_, err := uc.Submit(ctx, classification.Document{})

	if _, ok := apperrors.IsTransientIOError(err); !ok {
		t.Errorf("expected TransientIOError, got %T", err)
	}
	if attemptCount != 1 {
		t.Errorf("expected 1 attempt, got %d", attemptCount)
	}
}

func TestSubmit_DeadlockRetry(t *testing.T) {
	ctx := context.Background()
	attemptCount := 0

	engine := &mockLifecycleEngine{
		ApplyFunc: func(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
			attemptCount++
			if attemptCount == 1 {
				// First attempt: deadlock
				return domain.Outcome{Kind: domain.OutcomeInvalid}, createDeadlockError()
			}
			return domain.Outcome{Kind: domain.OutcomeStatusUpdated, PONumber: "PO-1", Status: domain.OrderStatusShipped}, nil
		},
	}

	uc := newTestSubmitDocumentUseCase(classifierReturning(domain.ClassifiedDocument{DocType: domain.DocTypeShippingNotice, ReferencePONumber: "PO-1"}, nil), engine)

	outcome, err := uc.Submit(ctx, classification.Document{})

	if err != nil {
		t.Errorf("expected no error on retry success, got %v", err)
	}
	if outcome.Kind != domain.OutcomeStatusUpdated {
		t.Errorf("expected StatusUpdated, got %s", outcome.Kind)
	}
	if attemptCount != 2 {
		t.Errorf("expected 2 attempts, got %d", attemptCount)
	}
}

func TestSubmit_DeadlockMaxRetries(t *testing.T) {
	ctx := context.Background()
	attemptCount := 0

	engine := &mockLifecycleEngine{
		ApplyFunc: func(ctx context.Context, doc domain.ClassifiedDocument) (domain.Outcome, error) {
			attemptCount++
			// Always deadlock
			return domain.Outcome{Kind: domain.OutcomeInvalid}, createDeadlockError()
		},
	}

	uc := newTestSubmitDocumentUseCase(classifierReturning(domain.ClassifiedDocument{DocType: domain.DocTypeCustomerPO, ReferencePONumber: "PO-1"}, nil), engine)

	outcome, err := uc.Submit(ctx, classification.Document{})

	if _, ok := apperrors.IsTransientIOError(err); !ok {
		t.Errorf("expected TransientIOError, got %T", err)
	}
	if outcome.Kind != domain.OutcomeInvalid {
		t.Errorf("expected Invalid, got %s", outcome.Kind)
	}
	if attemptCount != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount)
	}
}

func TestSubmit_ConcurrentDuplicateFromTwoSources(t *testing.T) {
	repo := repository.NewMemoryOrderRepository()
	engine := service.NewLifecycleService(repo, zap.NewNop())
	payload := `{"docType":"CustomerPO","referencePoNumber":"PO-777","vendorName":"ABC","totalAmount":"$10"}`

	// Two independent adapters stand in for the upload handler and the poller.
	interactive := newTestSubmitDocumentUseCase(classification.NewAdapter(stubExtractor{output: payload}, time.Second, zap.NewNop()), engine)
	poller := newTestSubmitDocumentUseCase(classification.NewAdapter(stubExtractor{output: "```json\n" + payload + "\n```"}, time.Second, zap.NewNop()), engine)

	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		outcomes = make([]domain.Outcome, 2)
	)
	for i, uc := range []*SubmitDocumentUseCase{interactive, poller} {
		wg.Add(1)
		go func(i int, uc *SubmitDocumentUseCase) {
			defer wg.Done()
			<-start
			o, err := uc.Submit(context.Background(), classification.Document{Filename: "po.pdf"})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			outcomes[i] = o
		}(i, uc)
	}
	close(start)
	wg.Wait()

	created, duplicates := 0, 0
	for _, o := range outcomes {
		switch o.Kind {
		case domain.OutcomeCreated:
			created++
		case domain.OutcomeDuplicate:
			duplicates++
		}
	}
	if created != 1 || duplicates != 1 {
		t.Errorf("expected one Created and one Duplicate, got %+v", outcomes)
	}

	orders, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected 1 stored order, got %d", len(orders))
	}
}
