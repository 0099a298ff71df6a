package orderquery

import (
	"context"

	"potracker/internal/domain"
)

type QueryUseCase interface {
	ListOrders(ctx context.Context) (*ListOrdersResponse, error)
	GetOrder(ctx context.Context, poNumber string) (*OrderDTO, error)
	SearchOrders(ctx context.Context, req SearchOrdersRequest) (*SearchOrdersResponse, error)
	ExportOrders(ctx context.Context) ([]byte, error)
}

type Service interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, poNumber string) (*domain.Order, error)
	GetOrdersByPONumbers(ctx context.Context, poNumbers []string) (found []domain.Order, notFound []string, err error)
}

type Repository interface {
	List(ctx context.Context) ([]domain.Order, error)
	FindExact(ctx context.Context, poNumber string) (*domain.Order, error)
	FindByPONumbers(ctx context.Context, poNumbers []string) ([]domain.Order, error)
}

type Exporter interface {
	OrdersXLSX(orders []domain.Order) ([]byte, error)
}
