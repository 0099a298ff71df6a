package orderquery

import "time"

type SearchOrdersRequest struct {
	PONumbers []string `json:"poNumbers"`
}

type SearchOrdersResponse struct {
	Orders   []OrderDTO `json:"orders"`
	NotFound []string   `json:"notFound"`
}

type ListOrdersResponse struct {
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

type OrderDTO struct {
	ID               uint          `json:"id"`
	PONumber         string        `json:"poNumber"`
	PartyName        string        `json:"partyName"`
	Currency         string        `json:"currency"`
	TotalAmount      float64       `json:"totalAmount"`
	Status           string        `json:"status"`
	HighestValueItem string        `json:"highestValueItem"`
	LineItems        []LineItemDTO `json:"lineItems"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

type LineItemDTO struct {
	Name      string  `json:"name"`
	Quantity  string  `json:"qty"`
	UnitPrice string  `json:"price"`
	LineValue float64 `json:"lineValue"`
}
