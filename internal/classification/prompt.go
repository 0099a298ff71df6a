package classification

// ExtractionPrompt is sent next to the document bytes.
const ExtractionPrompt = `You receive one business document (PDF).
Decide which kind of document it is and extract its details.

docType must be one of:
- "CustomerPO": a customer's purchase order
- "AcknowledgementOfOrder": a vendor's order acknowledgement (OA) referencing a PO
- "ShippingNotice": a shipping notice, dispatch note or invoice referencing a PO
- "Other": anything else

Extract:
1. PO Number (for follow-up documents, the PO number they reference)
2. Vendor or customer name
3. Currency code
4. Total Amount
5. List of items (name, quantity, price)

Return ONLY valid JSON. Format:
{
    "docType": "CustomerPO",
    "referencePoNumber": "PO-123",
    "vendorName": "ABC Corp",
    "currency": "USD",
    "totalAmount": 1000.50,
    "items": [{"name": "Widget", "qty": 10, "price": 100}]
}`
