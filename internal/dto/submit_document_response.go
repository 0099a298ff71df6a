package dto

import (
	"time"

	"potracker/internal/domain"
)

type SubmitDocumentResponse struct {
	TraceID   string         `json:"traceId"`
	Filename  string         `json:"filename"`
	Outcome   domain.Outcome `json:"outcome"`
	Timestamp time.Time      `json:"timestamp"`
}
