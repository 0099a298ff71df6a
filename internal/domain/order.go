package domain

import (
	"strings"
	"time"
	"unicode"
)

type Order struct {
	ID          uint
	PONumber    string
	PartyName   string
	Currency    string
	TotalAmount float64
	LineItems   []LineItem
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key is the normalized form of PONumber used for identity and matching.
func (o Order) Key() string {
	return NormalizeKey(o.PONumber)
}

// LineItem keeps quantity and unit price exactly as extracted; they are only
// normalized when a value is computed from them.
type LineItem struct {
	Name      string `json:"name"`
	Quantity  string `json:"qty"`
	UnitPrice string `json:"price"`
}

type OrderStatus string

const (
	OrderStatusPoReceived              OrderStatus = "PoReceived"
	OrderStatusAcknowledgementReceived OrderStatus = "AcknowledgementReceived"
	OrderStatusShipped                 OrderStatus = "Shipped"
)

var statusRank = map[OrderStatus]int{
	OrderStatusPoReceived:              1,
	OrderStatusAcknowledgementReceived: 2,
	OrderStatusShipped:                 3,
}

// Rank orders statuses along the lifecycle. Unknown statuses rank 0.
func (s OrderStatus) Rank() int {
	return statusRank[s]
}

func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next is a forward move.
// Skipping a stage is allowed.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return next.Valid() && next.Rank() > s.Rank()
}

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	for s := range statusRank {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, true
		}
	}
	return "", false
}

// NormalizeKey lowercases a PO identifier and drops all whitespace.
func NormalizeKey(poNumber string) string {
	var b strings.Builder
	b.Grow(len(poNumber))
	for _, r := range poNumber {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
