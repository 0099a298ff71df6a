package classification

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Only shape is enforced here. Missing fields are a validation concern handled
// per document type, not a malformed payload.
func buildPayloadSchema() map[string]any {
	text := map[string]any{"type": []string{"string", "null"}}
	scalar := map[string]any{"type": []string{"string", "number", "null"}}

	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":       scalar,
			"qty":        scalar,
			"quantity":   scalar,
			"price":      scalar,
			"unitPrice":  scalar,
			"unit_price": scalar,
		},
	}
	items := map[string]any{
		"type":  []string{"array", "null"},
		"items": item,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"docType":             text,
			"doc_type":            text,
			"referencePoNumber":   scalar,
			"reference_po_number": scalar,
			"poNumber":            scalar,
			"po_number":           scalar,
			"vendorName":          text,
			"vendor_name":         text,
			"customerName":        text,
			"customer_name":       text,
			"currency":            text,
			"currency_code":       text,
			"totalAmount":         scalar,
			"total_amount":        scalar,
			"items":               items,
			"lineItems":           items,
		},
	}
}

var payloadSchema = mustCompileSchema(buildPayloadSchema())

func mustCompileSchema(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal payload schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("payload.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add payload schema: %v", err))
	}
	return compiler.MustCompile("payload.json")
}

// validateShape checks a decoded JSON value against the payload schema.
func validateShape(v any) error {
	return payloadSchema.Validate(v)
}
