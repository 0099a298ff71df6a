// Package classification turns raw extractor output into a validated
// ClassifiedDocument. The extractor itself is an external service reached
// through the Extractor interface.
package classification

import "context"

const MIMETypePDF = "application/pdf"

// Document is one file handed to the extractor.
type Document struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Extractor classifies a document and returns the service's raw text answer,
// which is expected to hold a single JSON object.
// Implementations report unreachable services and timeouts as TransientIOError.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}
