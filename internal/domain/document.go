package domain

import "strings"

type DocType string

const (
	DocTypeCustomerPO             DocType = "CustomerPO"
	DocTypeAcknowledgementOfOrder DocType = "AcknowledgementOfOrder"
	DocTypeShippingNotice         DocType = "ShippingNotice"
	DocTypeOther                  DocType = "Other"
)

var docTypeAliases = map[string]DocType{
	"customerpo":             DocTypeCustomerPO,
	"purchaseorder":          DocTypeCustomerPO,
	"po":                     DocTypeCustomerPO,
	"acknowledgementoforder": DocTypeAcknowledgementOfOrder,
	"acknowledgement":        DocTypeAcknowledgementOfOrder,
	"orderacknowledgement":   DocTypeAcknowledgementOfOrder,
	"oa":                     DocTypeAcknowledgementOfOrder,
	"shippingnotice":         DocTypeShippingNotice,
	"shipping":               DocTypeShippingNotice,
	"shipmentnotice":         DocTypeShippingNotice,
	"invoice":                DocTypeShippingNotice,
}

// ParseDocType maps the extractor's label onto a DocType. Separators and case
// are ignored; anything unrecognised is Other.
func ParseDocType(raw string) DocType {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	if dt, ok := docTypeAliases[b.String()]; ok {
		return dt
	}
	return DocTypeOther
}

// TargetStatus is the status a follow-up document moves its order to.
func (d DocType) TargetStatus() (OrderStatus, bool) {
	switch d {
	case DocTypeAcknowledgementOfOrder:
		return OrderStatusAcknowledgementReceived, true
	case DocTypeShippingNotice:
		return OrderStatusShipped, true
	}
	return "", false
}

// ClassifiedDocument is the validated result of classifying one document.
// PartyName, Currency, TotalAmount and LineItems are only meaningful for CustomerPO.
type ClassifiedDocument struct {
	DocType           DocType
	ReferencePONumber string
	PartyName         string
	Currency          string
	TotalAmount       string
	LineItems         []LineItem
}
