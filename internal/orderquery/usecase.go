package orderquery

import (
	"context"

	"potracker/internal/domain"
	"potracker/internal/pricing"
)

type queryUseCase struct {
	service  Service
	exporter Exporter
}

func NewQueryUseCase(service Service, exporter Exporter) QueryUseCase {
	return &queryUseCase{service: service, exporter: exporter}
}

func (uc *queryUseCase) ListOrders(ctx context.Context) (*ListOrdersResponse, error) {
	orders, err := uc.service.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	return &ListOrdersResponse{
		Orders: toDTOs(orders),
		Count:  len(orders),
	}, nil
}

func (uc *queryUseCase) GetOrder(ctx context.Context, poNumber string) (*OrderDTO, error) {
	order, err := uc.service.GetOrder(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*order)
	return &dto, nil
}

func (uc *queryUseCase) SearchOrders(ctx context.Context, req SearchOrdersRequest) (*SearchOrdersResponse, error) {
	found, notFound, err := uc.service.GetOrdersByPONumbers(ctx, req.PONumbers)
	if err != nil {
		return nil, err
	}

	if notFound == nil {
		notFound = []string{}
	}

	return &SearchOrdersResponse{
		Orders:   toDTOs(found),
		NotFound: notFound,
	}, nil
}

func (uc *queryUseCase) ExportOrders(ctx context.Context) ([]byte, error) {
	orders, err := uc.service.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return uc.exporter.OrdersXLSX(orders)
}

func toDTOs(orders []domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toDTO(o))
	}
	return out
}

func toDTO(o domain.Order) OrderDTO {
	items := make([]LineItemDTO, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		items = append(items, LineItemDTO{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineValue: pricing.LineValue(item),
		})
	}

	return OrderDTO{
		ID:               o.ID,
		PONumber:         o.PONumber,
		PartyName:        o.PartyName,
		Currency:         o.Currency,
		TotalAmount:      o.TotalAmount,
		Status:           string(o.Status),
		HighestValueItem: pricing.HighestValueItem(o.LineItems),
		LineItems:        items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
