package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"potracker/internal/domain"
	"potracker/internal/errors"
)

// MemoryOrderRepository keeps orders in process memory. A single RWMutex
// serialises every mutation, which makes create-if-absent and the status
// read-modify-write atomic per key.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	keys   []string // insertion order, first match wins on fuzzy lookups
	nextID uint
	now    func() time.Time
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*domain.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryOrderRepository) CreateIfAbsent(ctx context.Context, order domain.Order) (*domain.Order, error) {
	key := order.Key()
	if key == "" {
		return nil, errors.NewValidationError("poNumber is required", errors.ValidationDetail{
			Field:   "poNumber",
			Message: "must not be empty",
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[key]; exists {
		return nil, errors.NewDuplicateKeyError(key)
	}

	r.nextID++
	now := r.now()
	stored := cloneOrder(order)
	stored.ID = r.nextID
	if stored.Status == "" {
		stored.Status = domain.OrderStatusPoReceived
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.orders[key] = &stored
	r.keys = append(r.keys, key)

	out := cloneOrder(stored)
	return &out, nil
}

func (r *MemoryOrderRepository) FindExact(ctx context.Context, poNumber string) (*domain.Order, error) {
	key := domain.NormalizeKey(poNumber)

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[key]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order %q not found", poNumber))
	}
	out := cloneOrder(*order)
	return &out, nil
}

func (r *MemoryOrderRepository) FindFuzzy(ctx context.Context, reference string) (*domain.Order, error) {
	ref := domain.NormalizeKey(reference)
	if ref == "" {
		return nil, errors.NewNotFoundError("empty reference matches no order")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if strings.Contains(key, ref) {
			out := cloneOrder(*r.orders[key])
			return &out, nil
		}
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("no order matches reference %q", reference))
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, poNumber string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError("unknown status", errors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("%q is not a lifecycle status", status),
		})
	}
	key := domain.NormalizeKey(poNumber)

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[key]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order %q not found", poNumber))
	}
	if err := checkTransition(order.Status, status); err != nil {
		return nil, err
	}

	order.Status = status
	order.UpdatedAt = r.now()

	out := cloneOrder(*order)
	return &out, nil
}

func (r *MemoryOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]domain.Order, 0, len(r.keys))
	for _, key := range r.keys {
		orders = append(orders, cloneOrder(*r.orders[key]))
	}
	return orders, nil
}

func (r *MemoryOrderRepository) FindByPONumbers(ctx context.Context, poNumbers []string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []domain.Order
	seen := make(map[string]struct{}, len(poNumbers))
	for _, po := range poNumbers {
		key := domain.NormalizeKey(po)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if order, ok := r.orders[key]; ok {
			orders = append(orders, cloneOrder(*order))
		}
	}
	return orders, nil
}

func checkTransition(from, to domain.OrderStatus) error {
	if from.CanAdvanceTo(to) {
		return nil
	}
	reason := "would regress"
	if from == to {
		reason = "already in status"
	}
	return errors.NewTransitionRejectedError(string(from), string(to), reason)
}

func cloneOrder(o domain.Order) domain.Order {
	o.LineItems = slices.Clone(o.LineItems)
	return o
}
