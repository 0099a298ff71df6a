package orderquery

import (
	"context"

	"potracker/internal/domain"
)

type orderService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &orderService{repo: repo}
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *orderService) GetOrder(ctx context.Context, poNumber string) (*domain.Order, error) {
	return s.repo.FindExact(ctx, poNumber)
}

func (s *orderService) GetOrdersByPONumbers(ctx context.Context, poNumbers []string) ([]domain.Order, []string, error) {
	found, err := s.repo.FindByPONumbers(ctx, poNumbers)
	if err != nil {
		return nil, nil, err
	}

	foundSet := make(map[string]struct{}, len(found))
	for _, o := range found {
		foundSet[o.Key()] = struct{}{}
	}

	var notFound []string
	seen := make(map[string]struct{}, len(poNumbers))
	for _, po := range poNumbers {
		key := domain.NormalizeKey(po)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := foundSet[key]; !ok {
			notFound = append(notFound, po)
		}
	}

	return found, notFound, nil
}
