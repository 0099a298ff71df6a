package classification

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"potracker/internal/domain"
)

// flexString accepts a JSON string, number or null. Numbers keep their
// literal text, except exponent forms which are expanded to plain decimals
// since the normalizer only understands digits and a decimal point.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case bytes.ContainsAny(b, "eE") && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*f = flexString(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		*f = flexString(b)
	}
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

type rawItem struct {
	Name           flexString `json:"name"`
	Qty            flexString `json:"qty"`
	Quantity       flexString `json:"quantity"`
	Price          flexString `json:"price"`
	UnitPrice      flexString `json:"unitPrice"`
	UnitPriceSnake flexString `json:"unit_price"`
}

type rawPayload struct {
	DocType                flexString `json:"docType"`
	DocTypeSnake           flexString `json:"doc_type"`
	ReferencePONumber      flexString `json:"referencePoNumber"`
	ReferencePONumberSnake flexString `json:"reference_po_number"`
	PONumber               flexString `json:"poNumber"`
	PONumberSnake          flexString `json:"po_number"`
	VendorName             flexString `json:"vendorName"`
	VendorNameSnake        flexString `json:"vendor_name"`
	CustomerName           flexString `json:"customerName"`
	CustomerNameSnake      flexString `json:"customer_name"`
	Currency               flexString `json:"currency"`
	CurrencyCode           flexString `json:"currency_code"`
	TotalAmount            flexString `json:"totalAmount"`
	TotalAmountSnake       flexString `json:"total_amount"`
	Items                  []rawItem  `json:"items"`
	LineItems              []rawItem  `json:"lineItems"`
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func (p rawPayload) toDocument() domain.ClassifiedDocument {
	items := p.Items
	if len(items) == 0 {
		items = p.LineItems
	}

	lineItems := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, domain.LineItem{
			Name:      it.Name.String(),
			Quantity:  firstNonEmpty(it.Qty, it.Quantity),
			UnitPrice: firstNonEmpty(it.Price, it.UnitPrice, it.UnitPriceSnake),
		})
	}

	return domain.ClassifiedDocument{
		DocType:           domain.ParseDocType(firstNonEmpty(p.DocType, p.DocTypeSnake)),
		ReferencePONumber: firstNonEmpty(p.ReferencePONumber, p.ReferencePONumberSnake, p.PONumber, p.PONumberSnake),
		PartyName:         firstNonEmpty(p.VendorName, p.VendorNameSnake, p.CustomerName, p.CustomerNameSnake),
		Currency:          strings.ToUpper(firstNonEmpty(p.Currency, p.CurrencyCode)),
		TotalAmount:       firstNonEmpty(p.TotalAmount, p.TotalAmountSnake),
		LineItems:         lineItems,
	}
}
